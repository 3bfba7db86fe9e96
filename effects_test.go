package server

import "testing"

func TestEffectsExpireOnRaceClock(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	car := w.cars[w.carOrder[0]]
	w.addEffect(car.ID, effectSlow, 0.85, 2.0, "test")

	w.raceSeconds = 1.9
	w.pruneEffects(testCtx(), w.publisher)
	if len(w.effects) != 1 {
		t.Fatalf("effect pruned %.1fs early", 0.1)
	}

	w.raceSeconds = 2.0
	w.pruneEffects(testCtx(), w.publisher)
	if len(w.effects) != 0 {
		t.Fatalf("expired effect must be pruned, %d left", len(w.effects))
	}
}

func TestSpeedModifierMultipliesActiveEffects(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	car := w.cars[w.carOrder[0]]
	other := w.cars[w.carOrder[1]]

	w.addEffect(car.ID, effectSlow, 0.85, 5, "test")
	w.addEffect(car.ID, effectBoost, 1.3, 5, "test")
	w.addEffect(other.ID, effectSlow, 0.5, 5, "test")

	if mod := w.speedModifier(car.ID); mod != 0.85*1.3 {
		t.Fatalf("expected stacked modifier %.4f, got %.4f", 0.85*1.3, mod)
	}
	if mod := w.speedModifier(other.ID); mod != 0.5 {
		t.Fatalf("effects must not leak across cars, got %.4f", mod)
	}
}

func TestExpiredEffectStopsCounting(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	car := w.cars[w.carOrder[0]]
	w.addEffect(car.ID, effectSlow, 0.85, 1.0, "test")
	w.addEffect(car.ID, effectShield, 1, 1.0, "test")

	w.raceSeconds = 1.5
	if mod := w.speedModifier(car.ID); mod != 1.0 {
		t.Fatalf("expired slow still counted, modifier=%.2f", mod)
	}
	if w.isProtected(car.ID) {
		t.Fatalf("expired shield still protects")
	}
}
