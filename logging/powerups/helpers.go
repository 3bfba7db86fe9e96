package powerups

import (
	"context"

	"drift-and-draft/server/logging"
)

const (
	// EventPickupCollected is emitted when a car grabs a pickup.
	EventPickupCollected logging.EventType = "powerups.pickup_collected"
	// EventPickupRespawned is emitted when a pickup becomes available again.
	EventPickupRespawned logging.EventType = "powerups.pickup_respawned"
	// EventActivated is emitted when a held power-up is used.
	EventActivated logging.EventType = "powerups.activated"
	// EventEffectExpired is emitted when a timed effect runs out.
	EventEffectExpired logging.EventType = "powerups.effect_expired"
)

// CollectedPayload records a pickup grab and the item it rolled.
type CollectedPayload struct {
	PickupIndex int    `json:"pickupIndex"`
	Item        string `json:"item"`
	Band        string `json:"band"`
}

func PickupCollected(ctx context.Context, pub logging.Publisher, tick uint64, actor, pickup logging.EntityRef, payload CollectedPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPickupCollected,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{pickup},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPowerups,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

func PickupRespawned(ctx context.Context, pub logging.Publisher, tick uint64, pickup logging.EntityRef, pickupIndex int) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPickupRespawned,
		Tick:     tick,
		Actor:    pickup,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryPowerups,
		Payload:  map[string]any{"pickupIndex": pickupIndex},
	}
	pub.Publish(ctx, event)
}

// ActivatedPayload records a power-up being fired off.
type ActivatedPayload struct {
	Item            string  `json:"item"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
}

func Activated(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, payload ActivatedPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventActivated,
		Tick:     tick,
		Actor:    actor,
		Targets:  targets,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPowerups,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

func EffectExpired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, effect string) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventEffectExpired,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryPowerups,
		Payload:  map[string]any{"effect": effect},
	}
	pub.Publish(ctx, event)
}
