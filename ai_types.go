package server

import "strings"

// ActionKind is a discrete driving decision held until the next decision
// window.
type ActionKind string

const (
	ActionAttack     ActionKind = "attack"
	ActionDefend     ActionKind = "defend"
	ActionConserve   ActionKind = "conserve"
	ActionPressure   ActionKind = "pressure"
	ActionWait       ActionKind = "wait"
	ActionUsePowerUp ActionKind = "use_powerup"
	ActionOvertake   ActionKind = "overtake"
	ActionPass       ActionKind = "pass"
	ActionBlock      ActionKind = "block"
	ActionBoost      ActionKind = "boost"
	ActionHold       ActionKind = "hold"
	ActionSave       ActionKind = "save"
	ActionFire       ActionKind = "fire"
	ActionShoot      ActionKind = "shoot"
)

// parseAction validates an action name from a personality document. Unknown
// names report false so callers fall back to the safe default.
func parseAction(value string) (ActionKind, bool) {
	switch ActionKind(strings.ToLower(strings.TrimSpace(value))) {
	case ActionAttack:
		return ActionAttack, true
	case ActionDefend:
		return ActionDefend, true
	case ActionConserve:
		return ActionConserve, true
	case ActionPressure:
		return ActionPressure, true
	case ActionWait:
		return ActionWait, true
	case ActionUsePowerUp:
		return ActionUsePowerUp, true
	case ActionOvertake:
		return ActionOvertake, true
	case ActionPass:
		return ActionPass, true
	case ActionBlock:
		return ActionBlock, true
	case ActionBoost:
		return ActionBoost, true
	case ActionHold:
		return ActionHold, true
	case ActionSave:
		return ActionSave, true
	case ActionFire:
		return ActionFire, true
	case ActionShoot:
		return ActionShoot, true
	default:
		return "", false
	}
}

// actionProfile is what an action does to the car: a speed factor for the
// decision window plus one-shot fuel and tire deltas applied at decision
// time.
type actionProfile struct {
	speed float64
	fuel  float64
	tire  float64
}

// profile returns the action's modifiers. Unknown actions read as wait, the
// neutral keep-moving default.
func (a ActionKind) profile() actionProfile {
	switch a {
	case ActionAttack:
		return actionProfile{speed: 1.15, fuel: -0.2, tire: 0.1}
	case ActionDefend:
		return actionProfile{speed: 0.95}
	case ActionConserve:
		return actionProfile{speed: 0.85, fuel: 0.05, tire: -0.02}
	case ActionPressure:
		return actionProfile{speed: 1.05, fuel: -0.05}
	case ActionUsePowerUp:
		return actionProfile{speed: 1.02}
	case ActionOvertake, ActionPass:
		return actionProfile{speed: 1.20, fuel: -0.25, tire: 0.15}
	case ActionBlock:
		return actionProfile{speed: 0.90}
	case ActionBoost:
		return actionProfile{speed: 1.25, fuel: -0.30}
	case ActionHold, ActionSave:
		return actionProfile{speed: 0.80, fuel: 0.10}
	case ActionFire, ActionShoot:
		return actionProfile{speed: 0.95}
	default:
		return actionProfile{speed: 0.98}
	}
}

// firesWeapon reports whether the action pulls the trigger.
func (a ActionKind) firesWeapon() bool {
	return a == ActionFire || a == ActionShoot
}

// shiftsLane returns the lane adjustment the action implies: overtaking
// moves take the outside line, defensive ones pull back to center.
func (a ActionKind) shiftsLane() (int, bool) {
	switch a {
	case ActionOvertake, ActionPass:
		return 1, true
	case ActionDefend, ActionBlock:
		return 0, true
	default:
		return 0, false
	}
}

// decisionContext is the per-car view a personality rule evaluates against.
type decisionContext struct {
	fuel         float64
	tireWear     float64
	position     int
	holdingItem  bool
	canFire      bool
	targetMeters float64
}
