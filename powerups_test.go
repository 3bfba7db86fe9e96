package server

import (
	"math/rand"
	"testing"
)

func TestActivateConsumesHeldSlot(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	car := w.cars[w.carOrder[0]]
	car.HeldPowerUp = string(PowerUpTurbo)

	if ok := w.activateHeldPowerUp(testCtx(), car, w.publisher); !ok {
		t.Fatalf("expected activation to succeed")
	}
	if car.HeldPowerUp != "" {
		t.Fatalf("activation must empty the held slot, got %q", car.HeldPowerUp)
	}
	if ok := w.activateHeldPowerUp(testCtx(), car, w.publisher); ok {
		t.Fatalf("empty slot must not activate")
	}
}

func TestTurboAndNitroInstallBoostEffects(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	car := w.cars[w.carOrder[0]]

	car.HeldPowerUp = string(PowerUpTurbo)
	w.activateHeldPowerUp(testCtx(), car, w.publisher)
	if mod := w.speedModifier(car.ID); mod != 1.3 {
		t.Fatalf("turbo should boost x1.3, got %.2f", mod)
	}

	car.HeldPowerUp = string(PowerUpNitro)
	w.activateHeldPowerUp(testCtx(), car, w.publisher)
	if mod := w.speedModifier(car.ID); mod != 1.3*1.5 {
		t.Fatalf("stacked boosts should multiply to %.2f, got %.2f", 1.3*1.5, mod)
	}
}

func TestShieldAndGhostProtect(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	shielded := w.cars[w.carOrder[0]]
	ghosted := w.cars[w.carOrder[1]]

	shielded.HeldPowerUp = string(PowerUpShield)
	w.activateHeldPowerUp(testCtx(), shielded, w.publisher)
	ghosted.HeldPowerUp = string(PowerUpGhost)
	w.activateHeldPowerUp(testCtx(), ghosted, w.publisher)

	if !w.isProtected(shielded.ID) {
		t.Fatalf("shield must protect")
	}
	if w.isGhosted(shielded.ID) {
		t.Fatalf("shield must not ghost")
	}
	if !w.isProtected(ghosted.ID) || !w.isGhosted(ghosted.ID) {
		t.Fatalf("ghost must both protect and untarget")
	}
}

func TestFuelBoostAndTireRepairClamp(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	car := w.cars[w.carOrder[0]]

	car.Fuel = 90
	car.HeldPowerUp = string(PowerUpFuelBoost)
	w.activateHeldPowerUp(testCtx(), car, w.publisher)
	if car.Fuel != 100 {
		t.Fatalf("fuel must clamp at 100, got %.1f", car.Fuel)
	}

	car.TireWear = 20
	car.HeldPowerUp = string(PowerUpTireRepair)
	w.activateHeldPowerUp(testCtx(), car, w.publisher)
	if car.TireWear != 0 {
		t.Fatalf("tire wear must clamp at 0, got %.1f", car.TireWear)
	}
}

func TestLightningSlowsOnlyCarsAhead(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	w.updateRanking(testCtx(), w.publisher)
	var last *carState
	for _, id := range w.carOrder {
		if car := w.cars[id]; last == nil || car.Rank > last.Rank {
			last = car
		}
	}

	last.HeldPowerUp = string(PowerUpLightning)
	w.activateHeldPowerUp(testCtx(), last, w.publisher)

	if mod := w.speedModifier(last.ID); mod != 1.0 {
		t.Fatalf("lightning must not slow its user, modifier=%.2f", mod)
	}
	for _, id := range w.carOrder {
		car := w.cars[id]
		if car.ID == last.ID {
			continue
		}
		if mod := w.speedModifier(car.ID); mod != 0.7 {
			t.Fatalf("car ahead %s should be slowed x0.7, got %.2f", car.ID, mod)
		}
	}
}

func TestBlueShellFindsTheLeader(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	w.updateRanking(testCtx(), w.publisher)
	leader := w.carAtRank(1)
	shooter := w.carAtRank(3)

	shooter.HeldPowerUp = string(PowerUpBlueShell)
	w.activateHeldPowerUp(testCtx(), shooter, w.publisher)

	if mod := w.speedModifier(leader.ID); mod != itemSlowFactor {
		t.Fatalf("blue shell should slow the leader x%.1f, got %.2f", itemSlowFactor, mod)
	}
}

func TestBananaDropsHazardBehindAndTrips(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	dropper := w.cars[w.carOrder[0]]
	victim := w.cars[w.carOrder[1]]
	dropper.Progress = 0.5

	dropper.HeldPowerUp = string(PowerUpBanana)
	w.activateHeldPowerUp(testCtx(), dropper, w.publisher)

	if len(w.hazards) != 1 {
		t.Fatalf("expected one dropped hazard, got %d", len(w.hazards))
	}
	want := wrapProgress(0.5 - bananaDropOffset)
	if w.hazards[0].Progress != want {
		t.Fatalf("hazard at %.4f, expected %.4f", w.hazards[0].Progress, want)
	}

	victim.Progress = w.hazards[0].Progress
	w.resolveHazards(testCtx(), w.publisher)

	if len(w.hazards) != 0 {
		t.Fatalf("tripped hazard must be consumed")
	}
	if mod := w.speedModifier(victim.ID); mod != itemSlowFactor {
		t.Fatalf("tripped car should be slowed x%.1f, got %.2f", itemSlowFactor, mod)
	}
}

func TestDrawTableBands(t *testing.T) {
	if _, band := drawTableFor(1, 5); band != "leader" {
		t.Fatalf("position 1 should draw from the leader table, got %q", band)
	}
	if _, band := drawTableFor(2, 5); band != "front" {
		t.Fatalf("position 2 should draw from the front table, got %q", band)
	}
	if _, band := drawTableFor(3, 5); band != "middle" {
		t.Fatalf("position 3 of 5 should draw from the middle table, got %q", band)
	}
	if _, band := drawTableFor(4, 5); band != "back" {
		t.Fatalf("position 4 of 5 should draw from the back table, got %q", band)
	}
	if _, band := drawTableFor(5, 5); band != "back" {
		t.Fatalf("last place should draw from the back table, got %q", band)
	}
}

func TestDrawPowerUpStaysInsideItsTable(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	allowed := make(map[PowerUpKind]bool, len(leaderDrawTable))
	for _, entry := range leaderDrawTable {
		allowed[entry.kind] = true
	}
	for i := 0; i < 200; i++ {
		kind, band := drawPowerUp(rng, 1, 5)
		if band != "leader" {
			t.Fatalf("draw %d left the leader band: %q", i, band)
		}
		if !allowed[kind] {
			t.Fatalf("draw %d produced %q, not in the leader table", i, kind)
		}
	}
}

func TestPowerUpCatalogIsCompleteAndSorted(t *testing.T) {
	defs := PowerUpCatalog()
	if len(defs) != 11 {
		t.Fatalf("expected 11 item definitions, got %d", len(defs))
	}
	for i := 1; i < len(defs); i++ {
		if string(defs[i-1].Kind) >= string(defs[i].Kind) {
			t.Fatalf("catalog must sort by kind: %q before %q", defs[i-1].Kind, defs[i].Kind)
		}
	}
}
