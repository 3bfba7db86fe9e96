package server

import (
	"math"
	"testing"
)

func TestCarSpecValidate(t *testing.T) {
	good := CarSpec{Name: "Test", TopSpeed: 360, Acceleration: 2.8, Handling: 0.8, FuelEfficiency: 12, Style: StyleBalanced}
	if err := good.validate(); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}

	bad := good
	bad.TopSpeed = 500
	if err := bad.validate(); err == nil {
		t.Fatalf("top speed 500 must be rejected")
	}

	bad = good
	bad.Handling = 1.5
	if err := bad.validate(); err == nil {
		t.Fatalf("handling above 1 must be rejected")
	}

	bad = good
	bad.Style = "reckless"
	if err := bad.validate(); err == nil {
		t.Fatalf("unknown style must be rejected")
	}
}

func TestShippedRosterValidates(t *testing.T) {
	for _, entry := range defaultRoster() {
		if err := entry.Car.validate(); err != nil {
			t.Fatalf("shipped roster entry %q invalid: %v", entry.Driver, err)
		}
	}
}

func TestUnknownStyleReadsAsBalanced(t *testing.T) {
	if mods := DriverStyle("reckless").modifiers(); mods != styleTable[StyleBalanced] {
		t.Fatalf("unknown style should use balanced modifiers, got %+v", mods)
	}
}

func TestLighterTankAcceleratesHarder(t *testing.T) {
	car := newCarState("car-test", defaultRoster()[0], 0)
	full := car.effectiveAcceleration()
	car.Fuel = 20
	light := car.effectiveAcceleration()
	if light >= full {
		t.Fatalf("0-100 time should shrink on a light tank: full=%.3f light=%.3f", full, light)
	}
}

func TestCornerSpeedFloorsAtThirtyPercent(t *testing.T) {
	car := newCarState("car-test", defaultRoster()[0], 0)
	car.TireWear = 100
	speed := car.cornerSpeed(100, 0.55)
	floor := car.effectiveTopSpeed() * 0.3
	if speed < floor {
		t.Fatalf("corner speed %.1f under the %.1f floor", speed, floor)
	}
}

func TestRecordLapTracksBest(t *testing.T) {
	car := newCarState("car-test", defaultRoster()[0], 0)

	first := car.recordLap(62.5)
	if math.Abs(first-62.5) > 1e-9 {
		t.Fatalf("expected first lap 62.5s, got %.3f", first)
	}
	second := car.recordLap(120.0)
	if math.Abs(second-57.5) > 1e-9 {
		t.Fatalf("expected second lap 57.5s, got %.3f", second)
	}
	if car.BestLap != 57.5 {
		t.Fatalf("best lap should update to 57.5, got %.3f", car.BestLap)
	}
	if car.LastLap != 57.5 {
		t.Fatalf("last lap should be 57.5, got %.3f", car.LastLap)
	}
	if len(car.lapTimes) != 2 {
		t.Fatalf("expected 2 recorded laps, got %d", len(car.lapTimes))
	}
}
