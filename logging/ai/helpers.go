package ai

import (
	"context"

	"drift-and-draft/server/logging"
)

const (
	// EventDecision is emitted when a driver picks an action on its cadence.
	EventDecision logging.EventType = "ai.decision"
	// EventFallback is emitted when a decision could not be honored and the
	// driver fell back to the safe default.
	EventFallback logging.EventType = "ai.fallback"
)

// DecisionPayload records the rule that fired and the resulting action.
type DecisionPayload struct {
	Personality string  `json:"personality"`
	Action      string  `json:"action"`
	Condition   string  `json:"condition"`
	SpeedMod    float64 `json:"speedMod"`
}

func Decision(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DecisionPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventDecision,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryAI,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

// Fallback publishes a degraded decision with the reason it degraded.
func Fallback(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, requested string, reason string) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventFallback,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryAI,
		Payload:  map[string]any{"requested": requested, "reason": reason},
	}
	pub.Publish(ctx, event)
}
