package server

import (
	"context"
	"math"

	"drift-and-draft/server/logging"
	loggingrace "drift-and-draft/server/logging/race"
)

// advanceCars integrates speed, progress, consumption, and lane position for
// one tick and closes laps as cars cross the line.
func (w *World) advanceCars(ctx context.Context, dt float64, pub logging.Publisher) {
	grip := w.weather.gripFactor()
	weatherSpeed := w.weather.speedFactor()
	for _, id := range w.carOrder {
		car := w.cars[id]
		if car == nil {
			continue
		}
		if car.Finished {
			car.SpeedKmh = 0
			continue
		}

		base := car.cruiseSpeed(grip) * car.actionModifier * weatherSpeed
		speed := base * w.speedModifier(car.ID)
		if speed < minSpeedAfterHit {
			// A slow never parks the car outright, but it also never speeds
			// up one that was already crawling.
			speed = math.Min(base, minSpeedAfterHit)
		}
		if top := car.effectiveTopSpeed(); speed > top {
			speed = top
		}
		if car.Fuel <= 0 {
			speed = math.Min(speed, emptyTankSpeedCap)
		} else if car.Fuel < lowFuelLevel {
			speed = math.Min(speed, lowFuelSpeedCap)
		}
		car.SpeedKmh = speed

		car.Fuel = clamp(car.Fuel-fuelBurnPerSecond*dt, 0, 100)
		car.TireWear = clamp(car.TireWear+tireWearPerSecond*dt, 0, 100)

		car.Progress += speed / 3.6 * dt / w.track.TotalMeters
		if car.Progress >= 1 {
			car.Progress -= 1
			w.completeLap(ctx, car, pub)
		}

		w.updateLane(car, dt)
		car.X, car.Y = w.track.PositionAt(car.Progress, car.LaneFrac*laneSpacing)
		car.Protected = w.isProtected(car.ID)
	}
}

// completeLap records the crossing and retires the car once it has run the
// configured distance.
func (w *World) completeLap(ctx context.Context, car *carState, pub logging.Publisher) {
	lapTime := car.recordLap(w.raceSeconds)
	car.Lap++
	fastest := w.fastestLapSeconds == 0 || lapTime < w.fastestLapSeconds
	if fastest {
		w.fastestLapSeconds = lapTime
		w.fastestLapCarID = car.ID
	}
	loggingrace.LapCompleted(ctx, pub, w.CurrentTick(), carRef(car.ID), loggingrace.LapPayload{
		Lap:        car.Lap,
		LapSeconds: lapTime,
		Fastest:    fastest,
	})
	if car.Lap < w.laps {
		return
	}
	car.Finished = true
	car.finishSeconds = w.raceSeconds
	w.finishOrder = append(w.finishOrder, car.ID)
	loggingrace.CarFinished(ctx, pub, w.CurrentTick(), carRef(car.ID), loggingrace.FinishPayload{
		Position:     len(w.finishOrder),
		TotalSeconds: car.finishSeconds,
	})
}

// updateLane eases the car laterally toward its target lane, snapping once
// the remaining offset is negligible.
func (w *World) updateLane(car *carState, dt float64) {
	target := float64(car.Lane)
	diff := target - car.LaneFrac
	if math.Abs(diff) <= laneSnapEpsilon {
		car.LaneFrac = target
		return
	}
	step := laneShiftPerSecond * dt
	if diff > 0 {
		car.LaneFrac = math.Min(car.LaneFrac+step, target)
	} else {
		car.LaneFrac = math.Max(car.LaneFrac-step, target)
	}
}
