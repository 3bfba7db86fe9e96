package server

import (
	"strings"
	"testing"
)

func TestEmbeddedPersonalitiesCoverRoster(t *testing.T) {
	for _, entry := range defaultRoster() {
		if cfg := globalAILibrary.ConfigForTag(entry.Personality); cfg == nil {
			t.Fatalf("roster personality %q has no embedded config", entry.Personality)
		}
	}
}

func TestFirstMatchingRuleWins(t *testing.T) {
	cfg := globalAILibrary.ConfigForTag("balanced")
	if cfg == nil {
		t.Fatalf("balanced personality missing")
	}

	// Low fuel outranks everything else in the balanced document.
	rule, ok := cfg.decide(decisionContext{fuel: 5, tireWear: 90, position: 5, holdingItem: true, canFire: true, targetMeters: 10})
	if !ok {
		t.Fatalf("expected a rule to match")
	}
	if rule.action != ActionConserve {
		t.Fatalf("expected conserve on low fuel, got %q", rule.action)
	}

	// With fuel and tires healthy, a close target with ammo fires.
	rule, ok = cfg.decide(decisionContext{fuel: 80, tireWear: 10, position: 3, canFire: true, targetMeters: 50})
	if !ok || rule.action != ActionFire {
		t.Fatalf("expected fire with a target at 50m, got %q", rule.action)
	}

	// A dry gun never recommends firing; the scan falls through.
	rule, ok = cfg.decide(decisionContext{fuel: 80, tireWear: 10, position: 3, canFire: false, targetMeters: 50})
	if !ok {
		t.Fatalf("expected the always rule to catch")
	}
	if rule.action == ActionFire {
		t.Fatalf("dry gun must not pick a firing action")
	}
}

func TestAlwaysRuleMakesScanTotal(t *testing.T) {
	for _, tag := range []string{"speed", "strategic", "balanced", "chaotic", "technical"} {
		cfg := globalAILibrary.ConfigForTag(tag)
		if cfg == nil {
			t.Fatalf("personality %q missing", tag)
		}
		if _, ok := cfg.decide(decisionContext{fuel: 100, position: 1, targetMeters: noTargetMeters()}); !ok {
			t.Fatalf("personality %q has no catch-all rule", tag)
		}
	}
}

func TestUnknownPersonalityFallsBackToWait(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	car := w.cars[w.carOrder[0]]
	car.Personality = "daredevil"
	car.nextDecisionAt = 0

	w.runAI(testCtx(), w.currentTick+1, w.publisher)

	if car.LastAction != string(ActionWait) {
		t.Fatalf("unknown personality must fall back to wait, got %q", car.LastAction)
	}
	if car.actionModifier != ActionWait.profile().speed {
		t.Fatalf("expected wait modifier %.2f, got %.2f", ActionWait.profile().speed, car.actionModifier)
	}
}

func TestDecisionCadenceHoldsActionBetweenWindows(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	car := w.cars[w.carOrder[0]]

	w.runAI(testCtx(), 10, w.publisher)
	decidedAt := car.nextDecisionAt
	if decidedAt != 10+decisionIntervalTicks {
		t.Fatalf("expected next window at tick %d, got %d", 10+decisionIntervalTicks, decidedAt)
	}

	action := car.LastAction
	car.LastAction = "sentinel"
	w.runAI(testCtx(), 11, w.publisher)
	if car.LastAction != "sentinel" {
		t.Fatalf("car re-decided inside its window (was %q)", action)
	}

	w.runAI(testCtx(), decidedAt, w.publisher)
	if car.LastAction == "sentinel" {
		t.Fatalf("car failed to decide when its window opened")
	}
}

func TestActionProfilesMatchTuning(t *testing.T) {
	cases := []struct {
		action ActionKind
		speed  float64
	}{
		{ActionAttack, 1.15},
		{ActionOvertake, 1.20},
		{ActionPass, 1.20},
		{ActionPressure, 1.05},
		{ActionDefend, 0.95},
		{ActionBlock, 0.90},
		{ActionConserve, 0.85},
		{ActionHold, 0.80},
		{ActionSave, 0.80},
		{ActionBoost, 1.25},
		{ActionFire, 0.95},
		{ActionShoot, 0.95},
		{ActionWait, 0.98},
		{ActionKind("jetpack"), 0.98}, // unknown reads as wait
	}
	for _, tc := range cases {
		if got := tc.action.profile().speed; got != tc.speed {
			t.Fatalf("action %q speed modifier %.2f, expected %.2f", tc.action, got, tc.speed)
		}
	}
}

func TestParseActionAcceptsAliasesRejectsUnknown(t *testing.T) {
	if action, ok := parseAction(" Shoot "); !ok || action != ActionShoot {
		t.Fatalf("expected shoot alias to parse, got %q ok=%v", action, ok)
	}
	if _, ok := parseAction("teleport"); ok {
		t.Fatalf("unknown action must not parse")
	}
}

func TestCompilePersonalityRejectsBadDocuments(t *testing.T) {
	_, err := compilePersonality(PersonalityDocument{Personality: "", Rules: []PersonalityRule{{Condition: "always", Action: "wait"}}})
	if err == nil {
		t.Fatalf("missing tag must fail compilation")
	}

	_, err = compilePersonality(PersonalityDocument{Personality: "empty"})
	if err == nil {
		t.Fatalf("empty rule list must fail compilation")
	}

	_, err = compilePersonality(PersonalityDocument{Personality: "bad", Rules: []PersonalityRule{{Condition: "always", Action: "teleport"}}})
	if err == nil || !strings.Contains(err.Error(), "unknown action") {
		t.Fatalf("unknown action must fail compilation, got %v", err)
	}

	_, err = compilePersonality(PersonalityDocument{Personality: "bad", Rules: []PersonalityRule{{Condition: "if_sunny", Action: "wait"}}})
	if err == nil || !strings.Contains(err.Error(), "unknown condition") {
		t.Fatalf("unknown condition must fail compilation, got %v", err)
	}

	_, err = compilePersonality(PersonalityDocument{Personality: "bad", Rules: []PersonalityRule{{Condition: "fuel_below", Action: "conserve"}}})
	if err == nil {
		t.Fatalf("fuel_below without a level must fail compilation")
	}
}

func TestOvertakeShiftsLaneAndFireActionPullsTrigger(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Drivers: 3})
	car := w.cars[w.carOrder[0]]
	target := w.cars[w.carOrder[1]]
	car.Progress = 0.1
	target.Progress = 0.101

	w.applyAction(testCtx(), car, ActionOvertake, w.publisher)
	if car.Lane != 1 {
		t.Fatalf("overtake should take the outside lane, got %d", car.Lane)
	}

	w.applyAction(testCtx(), car, ActionFire, w.publisher)
	if car.Ammo != magazineSize-1 {
		t.Fatalf("fire action should pull the trigger, ammo=%d", car.Ammo)
	}

	w.applyAction(testCtx(), car, ActionDefend, w.publisher)
	if car.Lane != 0 {
		t.Fatalf("defend should pull back to center, got lane %d", car.Lane)
	}
}
