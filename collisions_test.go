package server

import "testing"

func TestContactSlowsBothCarsFasterAtFault(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	a := w.cars[w.carOrder[0]]
	b := w.cars[w.carOrder[1]]
	a.Progress, a.SpeedKmh = 0.3, 300
	b.Progress, b.SpeedKmh = 0.3005, 250
	w.cars[w.carOrder[2]].Progress = 0.8

	// The roll is seeded; keep trying until the pair trades paint.
	tick := uint64(10)
	for len(w.effects) == 0 && tick < 10_000 {
		delete(w.contactCooldowns, pairKey(a.ID, b.ID))
		w.resolveContacts(testCtx(), tick, w.publisher)
		tick++
	}
	if len(w.effects) == 0 {
		t.Fatalf("close-running pair never produced a contact")
	}
	if len(w.effects) != 2 {
		t.Fatalf("a contact slows exactly both cars, got %d effects", len(w.effects))
	}

	var atFault, victim *Effect
	for i := range w.effects {
		switch w.effects[i].CarID {
		case a.ID:
			atFault = &w.effects[i]
		case b.ID:
			victim = &w.effects[i]
		}
	}
	if atFault == nil || victim == nil {
		t.Fatalf("expected one slow per car, got %+v", w.effects)
	}
	// The faster car is at fault and takes the heavier slow.
	if atFault.Factor >= victim.Factor {
		t.Fatalf("at-fault slow %.3f should be heavier than victim slow %.3f", atFault.Factor, victim.Factor)
	}
}

func TestContactPairCooldownHoldsRepeatIncidents(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	a := w.cars[w.carOrder[0]]
	b := w.cars[w.carOrder[1]]
	a.Progress, a.SpeedKmh = 0.3, 300
	b.Progress, b.SpeedKmh = 0.3005, 250
	w.cars[w.carOrder[2]].Progress = 0.8

	tick := uint64(10)
	for len(w.effects) == 0 && tick < 10_000 {
		w.resolveContacts(testCtx(), tick, w.publisher)
		tick++
	}
	if len(w.effects) == 0 {
		t.Fatalf("close-running pair never produced a contact")
	}

	count := len(w.effects)
	until, ok := w.contactCooldowns[pairKey(a.ID, b.ID)]
	if !ok {
		t.Fatalf("contact must arm the pair cooldown")
	}
	for cooldownTick := tick; cooldownTick < until; cooldownTick++ {
		w.resolveContacts(testCtx(), cooldownTick, w.publisher)
	}
	if len(w.effects) != count {
		t.Fatalf("pair on cooldown produced another contact")
	}
}

func TestDistantCarsNeverTouch(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	w.cars[w.carOrder[0]].Progress, w.cars[w.carOrder[0]].SpeedKmh = 0.1, 300
	w.cars[w.carOrder[1]].Progress, w.cars[w.carOrder[1]].SpeedKmh = 0.5, 300
	w.cars[w.carOrder[2]].Progress, w.cars[w.carOrder[2]].SpeedKmh = 0.9, 300

	for tick := uint64(10); tick < 200; tick++ {
		w.resolveContacts(testCtx(), tick, w.publisher)
	}
	if len(w.effects) != 0 {
		t.Fatalf("cars far apart traded paint: %+v", w.effects)
	}
}

func TestGhostedCarsPassThrough(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	a := w.cars[w.carOrder[0]]
	b := w.cars[w.carOrder[1]]
	a.Progress, a.SpeedKmh = 0.3, 300
	b.Progress, b.SpeedKmh = 0.3005, 250
	w.cars[w.carOrder[2]].Progress = 0.8
	w.addEffect(a.ID, effectGhost, 1, 1e9, string(PowerUpGhost))

	for tick := uint64(10); tick < 500; tick++ {
		w.resolveContacts(testCtx(), tick, w.publisher)
	}
	if len(w.effects) != 1 {
		t.Fatalf("ghosted car traded paint: %+v", w.effects)
	}
}

func TestSectionRiskAndContactClassification(t *testing.T) {
	if sectionRiskFactor(sectionStraight) >= sectionRiskFactor(sectionChicane) {
		t.Fatalf("chicanes must be riskier than straights")
	}
	if got := contactType(30, sectionStraight); got != "rear_end" {
		t.Fatalf("large closing speed reads as rear_end, got %q", got)
	}
	if got := contactType(5, sectionCorner); got != "corner_clash" {
		t.Fatalf("corner incident reads as corner_clash, got %q", got)
	}
	if got := contactType(5, sectionStraight); got != "side_swipe" {
		t.Fatalf("slow straight incident reads as side_swipe, got %q", got)
	}
}

func TestPairKeyIsOrderIndependent(t *testing.T) {
	if pairKey("car-1", "car-2") != pairKey("car-2", "car-1") {
		t.Fatalf("pair key must not depend on argument order")
	}
}
