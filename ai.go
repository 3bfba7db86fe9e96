package server

import (
	"context"

	"drift-and-draft/server/logging"
	loggingai "drift-and-draft/server/logging/ai"
)

// runAI advances every car's decision clock. A car decides on a fixed
// cadence; between windows it keeps the speed modifier its last action
// installed. Fuel and tire costs of an action land once, at decision time.
func (w *World) runAI(ctx context.Context, tick uint64, pub logging.Publisher) {
	for _, id := range w.carOrder {
		car := w.cars[id]
		if car == nil || car.Finished {
			continue
		}
		if car.nextDecisionAt > tick {
			continue
		}
		car.nextDecisionAt = tick + decisionIntervalTicks

		cfg := w.aiLibrary.ConfigForTag(car.Personality)
		if cfg == nil {
			w.applyAction(ctx, car, ActionWait, pub)
			loggingai.Fallback(ctx, pub, tick, carRef(car.ID), car.Personality, "unknown personality")
			continue
		}

		rule, ok := cfg.decide(w.decisionContextFor(car))
		if !ok {
			w.applyAction(ctx, car, ActionWait, pub)
			loggingai.Fallback(ctx, pub, tick, carRef(car.ID), cfg.personality, "no rule matched")
			continue
		}

		w.applyAction(ctx, car, rule.action, pub)
		loggingai.Decision(ctx, pub, tick, carRef(car.ID), loggingai.DecisionPayload{
			Personality: cfg.personality,
			Action:      string(rule.action),
			Condition:   rule.label,
			SpeedMod:    car.actionModifier,
		})
	}
}

// decisionContextFor captures the inputs personality rules read. Target
// distance comes from the same forward scan the weapon uses, so a rule like
// target_within agrees with what a trigger pull would actually aim at.
func (w *World) decisionContextFor(car *carState) decisionContext {
	meters := noTargetMeters()
	if target, distance := w.nearestForwardTarget(car); target != nil {
		meters = distance
	}
	return decisionContext{
		fuel:         car.Fuel,
		tireWear:     car.TireWear,
		position:     car.Rank,
		holdingItem:  car.HeldPowerUp != "",
		canFire:      car.Ammo > 0,
		targetMeters: meters,
	}
}

// applyAction installs the action's speed modifier for the coming window,
// charges its one-shot fuel and tire deltas, and triggers any side effect
// the action carries.
func (w *World) applyAction(ctx context.Context, car *carState, action ActionKind, pub logging.Publisher) {
	prof := action.profile()
	car.actionModifier = prof.speed
	car.Fuel = clamp(car.Fuel+prof.fuel, 0, 100)
	car.TireWear = clamp(car.TireWear+prof.tire, 0, 100)
	car.LastAction = string(action)

	if lane, ok := action.shiftsLane(); ok {
		car.Lane = lane
	}
	if action == ActionUsePowerUp {
		w.activateHeldPowerUp(ctx, car, pub)
	}
	if action.firesWeapon() {
		w.tryFire(ctx, car, pub)
	}
}
