package server

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"strings"
)

//go:embed ai_configs/*.json
var embeddedAIConfigs embed.FS

var globalAILibrary = mustLoadAILibrary()

type aiLibrary struct {
	configsByTag map[string]*aiCompiledConfig
	nextID       uint16
}

// aiCompiledConfig is a personality document compiled to an ordered rule
// list. There is no state machine: every decision is a fresh first-match
// scan from the top.
type aiCompiledConfig struct {
	id          uint16
	personality string
	description string
	rules       []aiCompiledRule
}

type aiCompiledRule struct {
	conditionID aiConditionID
	threshold   float64
	action      ActionKind
	label       string
}

type aiConditionID uint8

const (
	aiConditionAlways aiConditionID = iota
	aiConditionFuelBelow
	aiConditionTargetWithin
	aiConditionHoldingItem
	aiConditionPositionWorse
	aiConditionTireAbove
)

// matches evaluates one rule against a car's situation. Target conditions
// require ammo: a dry gun never recommends firing.
func (r aiCompiledRule) matches(ctx decisionContext) bool {
	switch r.conditionID {
	case aiConditionFuelBelow:
		return ctx.fuel < r.threshold
	case aiConditionTargetWithin:
		return ctx.canFire && ctx.targetMeters <= r.threshold
	case aiConditionHoldingItem:
		return ctx.holdingItem
	case aiConditionPositionWorse:
		return ctx.position > int(r.threshold)
	case aiConditionTireAbove:
		return ctx.tireWear > r.threshold
	default:
		return true
	}
}

// decide runs the first-match scan and returns the chosen rule. The always
// rule authors place last makes the scan total; an empty or exhausted list
// reports false and the caller falls back to the wait action.
func (cfg *aiCompiledConfig) decide(ctx decisionContext) (aiCompiledRule, bool) {
	if cfg == nil {
		return aiCompiledRule{}, false
	}
	for _, rule := range cfg.rules {
		if rule.matches(ctx) {
			return rule, true
		}
	}
	return aiCompiledRule{}, false
}

// PersonalityDocument is the authoring format for a scripted driver,
// embedded from ai_configs/ and validated at startup.
type PersonalityDocument struct {
	Personality string            `json:"personality"`
	Description string            `json:"description,omitempty"`
	Rules       []PersonalityRule `json:"rules"`
}

// PersonalityRule pairs one condition with the action taken when it is the
// first to match. Exactly one of the threshold fields applies, keyed by the
// condition name.
type PersonalityRule struct {
	Condition string  `json:"if"`
	Level     float64 `json:"level,omitempty"`  // fuel_below: fuel percent
	Meters    float64 `json:"meters,omitempty"` // target_within: range in meters
	Place     int     `json:"place,omitempty"`  // position_worse_than: 1-based position
	Wear      float64 `json:"wear,omitempty"`   // tire_above: wear percent
	Action    string  `json:"action"`
}

func mustLoadAILibrary() *aiLibrary {
	lib, err := loadAILibrary()
	if err != nil {
		panic(err)
	}
	return lib
}

func loadAILibrary() (*aiLibrary, error) {
	entries, err := fs.ReadDir(embeddedAIConfigs, "ai_configs")
	if err != nil {
		return nil, fmt.Errorf("read ai configs: %w", err)
	}
	lib := &aiLibrary{configsByTag: make(map[string]*aiCompiledConfig)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := embeddedAIConfigs.ReadFile("ai_configs/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		var doc PersonalityDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		cfg, err := compilePersonality(doc)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", entry.Name(), err)
		}
		cfg.id = lib.allocateID()
		lib.configsByTag[cfg.personality] = cfg
	}
	return lib, nil
}

func (l *aiLibrary) allocateID() uint16 {
	l.nextID++
	return l.nextID
}

// ConfigForTag returns the compiled personality, or nil when the tag is
// unknown.
func (l *aiLibrary) ConfigForTag(tag string) *aiCompiledConfig {
	if l == nil {
		return nil
	}
	return l.configsByTag[strings.ToLower(strings.TrimSpace(tag))]
}

func compilePersonality(doc PersonalityDocument) (*aiCompiledConfig, error) {
	tag := strings.ToLower(strings.TrimSpace(doc.Personality))
	if tag == "" {
		return nil, fmt.Errorf("personality document missing tag")
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("personality %q must define at least one rule", tag)
	}
	cfg := &aiCompiledConfig{
		personality: tag,
		description: doc.Description,
		rules:       make([]aiCompiledRule, 0, len(doc.Rules)),
	}
	for i, rule := range doc.Rules {
		conditionID, threshold, label, err := compileCondition(rule)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		action, ok := parseAction(rule.Action)
		if !ok {
			return nil, fmt.Errorf("rule %d: unknown action %q", i, rule.Action)
		}
		cfg.rules = append(cfg.rules, aiCompiledRule{
			conditionID: conditionID,
			threshold:   threshold,
			action:      action,
			label:       label,
		})
	}
	return cfg, nil
}

func compileCondition(rule PersonalityRule) (aiConditionID, float64, string, error) {
	key := strings.ToLower(strings.TrimSpace(rule.Condition))
	switch key {
	case "always":
		return aiConditionAlways, 0, "always", nil
	case "fuel_below":
		if rule.Level <= 0 {
			return 0, 0, "", fmt.Errorf("fuel_below requires a positive level")
		}
		return aiConditionFuelBelow, rule.Level, fmt.Sprintf("fuel_below(%g)", rule.Level), nil
	case "target_within":
		if rule.Meters <= 0 {
			return 0, 0, "", fmt.Errorf("target_within requires positive meters")
		}
		return aiConditionTargetWithin, rule.Meters, fmt.Sprintf("target_within(%gm)", rule.Meters), nil
	case "holding_item":
		return aiConditionHoldingItem, 0, "holding_item", nil
	case "position_worse_than":
		if rule.Place < 1 {
			return 0, 0, "", fmt.Errorf("position_worse_than requires a place of at least 1")
		}
		return aiConditionPositionWorse, float64(rule.Place), fmt.Sprintf("position_worse_than(%d)", rule.Place), nil
	case "tire_above":
		if rule.Wear <= 0 || rule.Wear > 100 {
			return 0, 0, "", fmt.Errorf("tire_above requires wear in (0, 100]")
		}
		return aiConditionTireAbove, rule.Wear, fmt.Sprintf("tire_above(%g)", rule.Wear), nil
	default:
		return 0, 0, "", fmt.Errorf("unknown condition %q", rule.Condition)
	}
}

// noTargetMeters marks an empty gun sight in a decision context.
func noTargetMeters() float64 {
	return math.Inf(1)
}
