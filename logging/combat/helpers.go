package combat

import (
	"context"

	"drift-and-draft/server/logging"
)

const (
	// EventShotFired is emitted when a machine gun round leaves the barrel.
	EventShotFired logging.EventType = "combat.shot_fired"
	// EventProjectileHit is emitted when a projectile connects.
	EventProjectileHit logging.EventType = "combat.projectile_hit"
	// EventHitBlocked is emitted when protection absorbs a hit.
	EventHitBlocked logging.EventType = "combat.hit_blocked"
	// EventProjectileExpired is emitted when a projectile runs out of travel.
	EventProjectileExpired logging.EventType = "combat.projectile_expired"
	// EventContact is emitted when two cars trade paint.
	EventContact logging.EventType = "combat.contact"
)

// ShotFired publishes a trigger pull with the remaining ammo count.
func ShotFired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, ammoLeft int, rangeMeters float64) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventShotFired,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  map[string]any{"ammoLeft": ammoLeft, "rangeMeters": rangeMeters},
	}
	pub.Publish(ctx, event)
}

// HitPayload describes a projectile connecting with its target.
type HitPayload struct {
	SlowFactor float64 `json:"slowFactor"`
	Source     string  `json:"source"`
}

func ProjectileHit(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload HitPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventProjectileHit,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

// HitBlocked publishes a hit absorbed by shield or ghost protection.
func HitBlocked(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, source string) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventHitBlocked,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  map[string]any{"source": source},
	}
	pub.Publish(ctx, event)
}

// ProjectileExpired publishes a projectile that ran out of range.
func ProjectileExpired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, traveledMeters float64) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventProjectileExpired,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  map[string]any{"traveledMeters": traveledMeters},
	}
	pub.Publish(ctx, event)
}

// ContactPayload describes car-to-car contact and the penalties applied.
type ContactPayload struct {
	Severity        float64 `json:"severity"`
	ContactType     string  `json:"contactType"`
	Section         string  `json:"section"`
	AtFaultSlow     float64 `json:"atFaultSlow"`
	SecondarySlow   float64 `json:"secondarySlow"`
	AtFaultPenalty  float64 `json:"atFaultPenalty"`
	VictimPenalty   float64 `json:"victimPenalty"`
	CooldownTicks   uint64  `json:"cooldownTicks"`
}

// Contact publishes a contact incident; actor is the car at fault.
func Contact(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload ContactPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventContact,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryCombat,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}
