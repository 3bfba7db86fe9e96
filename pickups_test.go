package server

import "testing"

func TestPickupCollectionGrantsItemAndStartsRespawn(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	car := w.cars[w.carOrder[0]]
	car.Progress = w.pickups[0].Progress

	w.collectPickups(testCtx(), w.publisher)

	if car.HeldPowerUp == "" {
		t.Fatalf("expected car to collect an item")
	}
	if w.pickups[0].Available {
		t.Fatalf("collected box must become unavailable")
	}
	if w.pickups[0].RespawnIn != pickupRespawnSeconds {
		t.Fatalf("expected respawn countdown %.1f, got %.1f", pickupRespawnSeconds, w.pickups[0].RespawnIn)
	}
}

func TestCarHoldingItemCannotCollectAnother(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	car := w.cars[w.carOrder[0]]
	car.HeldPowerUp = string(PowerUpShield)
	car.Progress = w.pickups[0].Progress

	w.collectPickups(testCtx(), w.publisher)

	if car.HeldPowerUp != string(PowerUpShield) {
		t.Fatalf("held item must not be replaced, got %q", car.HeldPowerUp)
	}
	if !w.pickups[0].Available {
		t.Fatalf("box must stay on track when the driver's slot is full")
	}
}

func TestPickupCollectionIsWrapAware(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	// Park a box just before the line and the car just after it.
	w.pickups[0].Progress = 0.9995
	car := w.cars[w.carOrder[0]]
	car.Progress = 0.0005

	w.collectPickups(testCtx(), w.publisher)

	if car.HeldPowerUp == "" {
		t.Fatalf("wrap-aware gap of 0.001 should collect, car got nothing")
	}
}

func TestPickupOutsideToleranceIsIgnored(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	car := w.cars[w.carOrder[0]]
	car.Progress = wrapProgress(w.pickups[0].Progress + pickupRadius*3)

	w.collectPickups(testCtx(), w.publisher)

	if car.HeldPowerUp != "" {
		t.Fatalf("car outside the pickup radius collected %q", car.HeldPowerUp)
	}
}

func TestPickupRespawnsAfterInterval(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	w.pickups[0].Available = false
	w.pickups[0].RespawnIn = pickupRespawnSeconds

	w.updatePickups(testCtx(), pickupRespawnSeconds-0.1, w.publisher)
	if w.pickups[0].Available {
		t.Fatalf("box respawned %.1fs early", 0.1)
	}

	w.updatePickups(testCtx(), 0.1, w.publisher)
	if !w.pickups[0].Available {
		t.Fatalf("box should respawn once the countdown reaches zero")
	}
	if w.pickups[0].RespawnIn != 0 {
		t.Fatalf("respawned box should clear its countdown, got %.3f", w.pickups[0].RespawnIn)
	}
}

func TestDefaultPickupsEvenlySpaced(t *testing.T) {
	pickups := defaultPickups()
	if len(pickups) != pickupCount {
		t.Fatalf("expected %d pickups, got %d", pickupCount, len(pickups))
	}
	spacing := 1.0 / pickupCount
	for i, pickup := range pickups {
		want := wrapProgress(float64(i)*spacing + spacing/2)
		if pickup.Progress != want {
			t.Fatalf("pickup %d at %.4f, expected %.4f", i, pickup.Progress, want)
		}
		if !pickup.Available {
			t.Fatalf("pickup %d should spawn available", i)
		}
	}
}
