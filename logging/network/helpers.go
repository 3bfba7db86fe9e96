package network

import (
	"context"

	"drift-and-draft/server/logging"
)

const (
	// EventSpectatorJoined is emitted when a spectator completes the join handshake.
	EventSpectatorJoined logging.EventType = "network.spectator_joined"
	// EventSpectatorDropped is emitted when a spectator is removed after going stale or failing a write.
	EventSpectatorDropped logging.EventType = "network.spectator_dropped"
)

// SpectatorJoined publishes a successful join.
func SpectatorJoined(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSpectatorJoined,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  nil,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// SpectatorDropped publishes a disconnect with the reason the hub decided to drop.
func SpectatorDropped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, reason string) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSpectatorDropped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  map[string]any{"reason": reason},
	}
	pub.Publish(ctx, event)
}
