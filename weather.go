package server

import "math/rand"

// Weather names the sky a race runs under.
type Weather string

const (
	WeatherClear  Weather = "clear"
	WeatherRain   Weather = "rain"
	WeatherStorm  Weather = "storm"
	WeatherRandom Weather = "random"

	defaultWeather = WeatherClear
)

// parseWeather validates a weather string received from config.
func parseWeather(value string) (Weather, bool) {
	switch Weather(value) {
	case WeatherClear, WeatherRain, WeatherStorm, WeatherRandom:
		return Weather(value), true
	default:
		return "", false
	}
}

// speedFactor scales every car's pace for the conditions.
func (w Weather) speedFactor() float64 {
	switch w {
	case WeatherRain:
		return 0.9
	case WeatherStorm:
		return 0.8
	default:
		return 1.0
	}
}

// gripFactor scales handling for the conditions.
func (w Weather) gripFactor() float64 {
	switch w {
	case WeatherRain:
		return 0.7
	case WeatherStorm:
		return 0.55
	default:
		return 1.0
	}
}

// resolve replaces random weather with a concrete draw; fixed weather passes
// through untouched.
func (w Weather) resolve(rng *rand.Rand) Weather {
	if w != WeatherRandom {
		return w
	}
	options := [...]Weather{WeatherClear, WeatherRain, WeatherStorm}
	return options[rng.Intn(len(options))]
}
