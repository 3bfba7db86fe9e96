package race

import (
	"context"

	"drift-and-draft/server/logging"
)

const (
	// EventConfigured is emitted when a race configuration is accepted.
	EventConfigured logging.EventType = "race.configured"
	// EventStarted is emitted when the countdown ends and cars go green.
	EventStarted logging.EventType = "race.started"
	// EventLapCompleted is emitted each time a car crosses the line.
	EventLapCompleted logging.EventType = "race.lap_completed"
	// EventCarFinished is emitted when a car completes its final lap.
	EventCarFinished logging.EventType = "race.car_finished"
	// EventFinished is emitted once every car has finished.
	EventFinished logging.EventType = "race.finished"
	// EventOvertake is emitted when a car gains a position.
	EventOvertake logging.EventType = "race.overtake"
	// EventDriverExcluded is emitted when a roster entry fails validation and
	// is left off the grid.
	EventDriverExcluded logging.EventType = "race.driver_excluded"
)

// ConfiguredPayload records the options a race was armed with.
type ConfiguredPayload struct {
	TrackID  string `json:"trackId"`
	Laps     int    `json:"laps"`
	Weather  string `json:"weather"`
	Drivers  int    `json:"drivers"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Configured publishes the accepted race options. Fallback marks selections
// that were replaced by defaults.
func Configured(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ConfiguredPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	severity := logging.SeverityInfo
	if payload.Fallback {
		severity = logging.SeverityWarn
	}
	event := logging.Event{
		Type:     EventConfigured,
		Tick:     tick,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryRace,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// StartedPayload summarizes the grid at lights out.
type StartedPayload struct {
	TrackID string `json:"trackId"`
	Laps    int    `json:"laps"`
	Weather string `json:"weather"`
	Cars    int    `json:"cars"`
}

func Started(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload StartedPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventStarted,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryRace,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

// DriverExcluded reports a roster entry kept off the grid because its car
// setup failed validation.
func DriverExcluded(ctx context.Context, pub logging.Publisher, tick uint64, driver, reason string) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventDriverExcluded,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: driver, Kind: logging.EntityKindCar},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryRace,
		Payload:  map[string]any{"reason": reason},
	}
	pub.Publish(ctx, event)
}

// LapPayload describes a completed lap.
type LapPayload struct {
	Lap        int     `json:"lap"`
	LapSeconds float64 `json:"lapSeconds"`
	Fastest    bool    `json:"fastest,omitempty"`
}

func LapCompleted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload LapPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventLapCompleted,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryRace,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

// FinishPayload describes a car crossing the line for the last time.
type FinishPayload struct {
	Position     int     `json:"position"`
	TotalSeconds float64 `json:"totalSeconds"`
}

func CarFinished(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FinishPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventCarFinished,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryRace,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

// FinishedPayload closes out a race.
type FinishedPayload struct {
	WinnerID     string  `json:"winnerId"`
	TotalSeconds float64 `json:"totalSeconds"`
	Finishers    int     `json:"finishers"`
}

func Finished(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FinishedPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventFinished,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryRace,
		Payload:  payload,
	}
	pub.Publish(ctx, event)
}

// Overtake publishes a position gain; target is the car that lost the spot.
func Overtake(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, newRank int) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventOvertake,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryRace,
		Payload:  map[string]any{"newRank": newRank},
	}
	pub.Publish(ctx, event)
}
