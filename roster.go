package server

import (
	"context"

	"drift-and-draft/server/logging"
	loggingrace "drift-and-draft/server/logging/race"
)

// DriverEntry pairs a scripted driver with the car they bring to the grid.
type DriverEntry struct {
	Driver      string  `json:"driver"`
	Personality string  `json:"personality"`
	Car         CarSpec `json:"car"`
}

// startingRoster filters the roster down to entries whose car setup
// validates. The shipped roster always passes; the filter keeps a bad edit
// from reaching a live grid.
func startingRoster(ctx context.Context, tick uint64, pub logging.Publisher) []DriverEntry {
	roster := defaultRoster()
	eligible := roster[:0]
	for _, entry := range roster {
		if err := entry.Car.validate(); err != nil {
			loggingrace.DriverExcluded(ctx, pub, tick, entry.Driver, err.Error())
			continue
		}
		eligible = append(eligible, entry)
	}
	return eligible
}

// defaultRoster returns the exhibition grid in qualifying order. The slice is
// fresh on every call so a race can mutate its copy freely.
func defaultRoster() []DriverEntry {
	return []DriverEntry{
		{
			Driver:      "Llama-3.2 Speed",
			Personality: "speed",
			Car: CarSpec{
				Name:           "Llama Speed",
				TopSpeed:       385,
				Acceleration:   3.0,
				Handling:       0.65,
				FuelEfficiency: 9,
				Style:          StyleAggressive,
			},
		},
		{
			Driver:      "Llama-70B Strategic",
			Personality: "strategic",
			Car: CarSpec{
				Name:           "Llama Strategic",
				TopSpeed:       355,
				Acceleration:   2.7,
				Handling:       0.88,
				FuelEfficiency: 16,
				Style:          StyleBalanced,
			},
		},
		{
			Driver:      "Llama-8B Balanced",
			Personality: "balanced",
			Car: CarSpec{
				Name:           "Llama Balanced",
				TopSpeed:       365,
				Acceleration:   2.85,
				Handling:       0.78,
				FuelEfficiency: 13,
				Style:          StyleBalanced,
			},
		},
		{
			Driver:      "Hermes Chaos",
			Personality: "chaotic",
			Car: CarSpec{
				Name:           "Hermes Chaos",
				TopSpeed:       375,
				Acceleration:   2.95,
				Handling:       0.68,
				FuelEfficiency: 11,
				Style:          StyleChaotic,
			},
		},
		{
			Driver:      "Qwen Technical",
			Personality: "technical",
			Car: CarSpec{
				Name:           "Qwen Technical",
				TopSpeed:       360,
				Acceleration:   2.75,
				Handling:       0.92,
				FuelEfficiency: 14,
				Style:          StyleTechnical,
			},
		},
	}
}
