package server

import (
	"context"
	"fmt"

	"drift-and-draft/server/logging"
	loggingpowerups "drift-and-draft/server/logging/powerups"
)

const (
	effectSlow   = "slow"
	effectBoost  = "boost"
	effectShield = "shield"
	effectGhost  = "ghost"
)

// Effect modifies one car until the race clock passes ExpiresAt. Factor is
// the speed multiplier while active; protection effects carry factor 1.
type Effect struct {
	ID        string  `json:"id" msgpack:"id"`
	CarID     string  `json:"carId" msgpack:"carId"`
	Kind      string  `json:"kind" msgpack:"kind"`
	Factor    float64 `json:"factor" msgpack:"factor"`
	ExpiresAt float64 `json:"expiresAt" msgpack:"expiresAt"`
	Source    string  `json:"source,omitempty" msgpack:"source"`
}

func (w *World) addEffect(carID, kind string, factor, durationSeconds float64, source string) Effect {
	w.effectSeq++
	effect := Effect{
		ID:        fmt.Sprintf("effect-%d", w.effectSeq),
		CarID:     carID,
		Kind:      kind,
		Factor:    factor,
		ExpiresAt: w.raceSeconds + durationSeconds,
		Source:    source,
	}
	w.effects = append(w.effects, effect)
	return effect
}

// pruneEffects drops effects whose expiry has passed.
func (w *World) pruneEffects(ctx context.Context, pub logging.Publisher) {
	filtered := w.effects[:0]
	for _, effect := range w.effects {
		if effect.ExpiresAt > w.raceSeconds {
			filtered = append(filtered, effect)
			continue
		}
		loggingpowerups.EffectExpired(ctx, pub, w.CurrentTick(), carRef(effect.CarID), effect.Kind)
	}
	w.effects = filtered
}

// speedModifier is the product of all active speed factors on a car.
func (w *World) speedModifier(carID string) float64 {
	modifier := 1.0
	for _, effect := range w.effects {
		if effect.CarID != carID || effect.ExpiresAt <= w.raceSeconds {
			continue
		}
		if effect.Factor > 0 {
			modifier *= effect.Factor
		}
	}
	return modifier
}

// isProtected reports whether the car currently blocks attacks.
func (w *World) isProtected(carID string) bool {
	for _, effect := range w.effects {
		if effect.CarID != carID || effect.ExpiresAt <= w.raceSeconds {
			continue
		}
		if effect.Kind == effectShield || effect.Kind == effectGhost {
			return true
		}
	}
	return false
}

// isGhosted reports whether the car is currently untargetable.
func (w *World) isGhosted(carID string) bool {
	for _, effect := range w.effects {
		if effect.CarID != carID || effect.ExpiresAt <= w.raceSeconds {
			continue
		}
		if effect.Kind == effectGhost {
			return true
		}
	}
	return false
}
