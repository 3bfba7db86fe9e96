package server

import (
	"fmt"
	"math"
)

// DriverStyle shapes a car's performance envelope.
type DriverStyle string

const (
	StyleAggressive   DriverStyle = "aggressive"
	StyleConservative DriverStyle = "conservative"
	StyleBalanced     DriverStyle = "balanced"
	StyleTechnical    DriverStyle = "technical"
	StyleChaotic      DriverStyle = "chaotic"

	defaultStyle DriverStyle = StyleBalanced
)

// parseDriverStyle validates a style string received from config.
func parseDriverStyle(value string) (DriverStyle, bool) {
	switch DriverStyle(value) {
	case StyleAggressive, StyleConservative, StyleBalanced, StyleTechnical, StyleChaotic:
		return DriverStyle(value), true
	default:
		return "", false
	}
}

type styleModifiers struct {
	speed    float64
	accel    float64
	handling float64
	fuel     float64
	risk     float64
}

var styleTable = map[DriverStyle]styleModifiers{
	StyleAggressive:   {speed: 1.05, accel: 1.08, handling: 0.92, fuel: 0.85, risk: 1.3},
	StyleConservative: {speed: 0.95, accel: 0.92, handling: 1.05, fuel: 1.1, risk: 0.7},
	StyleBalanced:     {speed: 1.0, accel: 1.0, handling: 1.0, fuel: 1.0, risk: 1.0},
	StyleTechnical:    {speed: 0.98, accel: 0.95, handling: 1.12, fuel: 1.05, risk: 0.8},
	StyleChaotic:      {speed: 1.02, accel: 1.05, handling: 0.88, fuel: 0.9, risk: 1.5},
}

func (s DriverStyle) modifiers() styleModifiers {
	if m, ok := styleTable[s]; ok {
		return m
	}
	return styleTable[defaultStyle]
}

// CarSpec is the static setup a car brings to the grid.
type CarSpec struct {
	Name           string      `json:"name"`
	TopSpeed       float64     `json:"topSpeed"`       // km/h
	Acceleration   float64     `json:"acceleration"`   // seconds 0–100 km/h
	Handling       float64     `json:"handling"`       // 0–1
	FuelEfficiency float64     `json:"fuelEfficiency"` // km per liter
	Style          DriverStyle `json:"style"`
}

func (s CarSpec) validate() error {
	if s.TopSpeed < 150 || s.TopSpeed > 400 {
		return fmt.Errorf("top speed %.0f out of range [150, 400]", s.TopSpeed)
	}
	if s.Acceleration < 2 || s.Acceleration > 10 {
		return fmt.Errorf("acceleration %.2f out of range [2, 10]", s.Acceleration)
	}
	if s.Handling < 0 || s.Handling > 1 {
		return fmt.Errorf("handling %.2f out of range [0, 1]", s.Handling)
	}
	if s.FuelEfficiency < 5 || s.FuelEfficiency > 20 {
		return fmt.Errorf("fuel efficiency %.1f out of range [5, 20]", s.FuelEfficiency)
	}
	if _, ok := parseDriverStyle(string(s.Style)); !ok {
		return fmt.Errorf("unknown driver style %q", s.Style)
	}
	return nil
}

// Car is the public racing state broadcast to spectators.
type Car struct {
	ID          string      `json:"id" msgpack:"id"`
	Name        string      `json:"name" msgpack:"name"`
	Driver      string      `json:"driver" msgpack:"driver"`
	Personality string      `json:"personality" msgpack:"personality"`
	Style       DriverStyle `json:"style" msgpack:"style"`
	Progress    float64     `json:"progress" msgpack:"progress"`
	Lap         int         `json:"lap" msgpack:"lap"`
	Lane        int         `json:"lane" msgpack:"lane"`
	LaneFrac    float64     `json:"laneFrac" msgpack:"laneFrac"`
	X           float64     `json:"x" msgpack:"x"`
	Y           float64     `json:"y" msgpack:"y"`
	SpeedKmh    float64     `json:"speedKmh" msgpack:"speedKmh"`
	Fuel        float64     `json:"fuel" msgpack:"fuel"`
	TireWear    float64     `json:"tireWear" msgpack:"tireWear"`
	Ammo        int         `json:"ammo" msgpack:"ammo"`
	HeldPowerUp string      `json:"heldPowerUp,omitempty" msgpack:"heldPowerUp"`
	Protected   bool        `json:"protected,omitempty" msgpack:"protected"`
	Rank        int         `json:"rank" msgpack:"rank"`
	GapMeters   float64     `json:"gapMeters" msgpack:"gapMeters"`
	LastAction  string      `json:"lastAction,omitempty" msgpack:"lastAction"`
	BestLap     float64     `json:"bestLap,omitempty" msgpack:"bestLap"`
	LastLap     float64     `json:"lastLap,omitempty" msgpack:"lastLap"`
	Finished    bool        `json:"finished,omitempty" msgpack:"finished"`
}

type carState struct {
	Car
	spec            CarSpec
	nextDecisionAt  uint64
	actionModifier  float64
	lapStartSeconds float64
	lapTimes        []float64
	lastFireSeconds float64
	finishSeconds   float64
}

func newCarState(id string, entry DriverEntry, gridSlot int) *carState {
	lane := startingLane(gridSlot)
	return &carState{
		Car: Car{
			ID:          id,
			Name:        entry.Car.Name,
			Driver:      entry.Driver,
			Personality: entry.Personality,
			Style:       entry.Car.Style,
			Lane:        lane,
			LaneFrac:    float64(lane),
			Fuel:        100,
			Ammo:        magazineSize,
			Rank:        gridSlot + 1,
			LastAction:  string(ActionWait),
		},
		spec:            entry.Car,
		actionModifier:  1.0,
		lastFireSeconds: -fireCooldownSeconds,
	}
}

// startingLane spreads the grid laterally so the field does not launch
// stacked on the centerline.
func startingLane(slot int) int {
	switch slot % 3 {
	case 0:
		return -1
	case 1:
		return 0
	default:
		return 1
	}
}

func (c *carState) snapshot() Car {
	return c.Car
}

// raceDistance is the total distance key the ranking sorts on.
func (c *carState) raceDistance() float64 {
	return float64(c.Lap) + c.Progress
}

func (c *carState) effectiveTopSpeed() float64 {
	mods := c.spec.Style.modifiers()
	tirePenalty := 1 - c.TireWear/200
	return c.spec.TopSpeed * mods.speed * tirePenalty
}

func (c *carState) effectiveAcceleration() float64 {
	mods := c.spec.Style.modifiers()
	// A lighter tank accelerates harder.
	fuelBonus := 1 + (100-c.Fuel)/500
	return c.spec.Acceleration / (mods.accel * fuelBonus)
}

func (c *carState) effectiveHandling() float64 {
	mods := c.spec.Style.modifiers()
	tirePenalty := 1 - c.TireWear/150
	return c.spec.Handling * mods.handling * tirePenalty
}

// cornerSpeed estimates a safe cornering pace for a difficulty rated 0–100,
// floored at 30% of the car's effective top speed. grip scales handling for
// the conditions; pass 1 for a dry line.
func (c *carState) cornerSpeed(difficulty, grip float64) float64 {
	base := 0.6 + c.effectiveHandling()*grip*0.3
	difficultyFactor := 1 - difficulty/200
	tirePenalty := 1 - c.TireWear/200
	speed := c.effectiveTopSpeed() * base * difficultyFactor * tirePenalty
	return math.Max(speed, c.effectiveTopSpeed()*0.3)
}

const cruiseCornerDifficulty = 30.0

// cruiseSpeed is the pace a driver holds before action, effect, and weather
// speed modifiers are applied.
func (c *carState) cruiseSpeed(grip float64) float64 {
	return (c.spec.TopSpeed + c.cornerSpeed(cruiseCornerDifficulty, grip)) / 2
}

// recordLap closes the running lap at the given race clock.
func (c *carState) recordLap(raceSeconds float64) float64 {
	lapTime := raceSeconds - c.lapStartSeconds
	c.lapStartSeconds = raceSeconds
	c.lapTimes = append(c.lapTimes, lapTime)
	c.LastLap = lapTime
	if c.BestLap == 0 || lapTime < c.BestLap {
		c.BestLap = lapTime
	}
	return lapTime
}
