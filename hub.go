package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"drift-and-draft/server/logging"
	loggingnetwork "drift-and-draft/server/logging/network"
)

// Command reject reasons surfaced to clients.
const (
	CommandRejectUnknownSpectator = "unknown_spectator"
	CommandRejectRaceInProgress   = "race_in_progress"
	CommandRejectAlreadyStarted   = "already_started"
)

// ResultStore persists finished race classifications and serves the queries
// behind the results endpoint. Implementations must be safe for concurrent
// use; the hub calls them from the simulation goroutine and HTTP handlers.
type ResultStore interface {
	SaveResult(ctx context.Context, result *RaceResult) error
	RecentResults(ctx context.Context, limit int) ([]RaceResult, error)
	Standings(ctx context.Context) ([]StandingRow, error)
}

// HubConfig carries process-level settings into the hub.
type HubConfig struct {
	Seed    string
	Options RaceOptions
	Store   ResultStore
	Logger  *log.Logger
}

// DefaultHubConfig returns the exhibition defaults.
func DefaultHubConfig() HubConfig {
	cfg := defaultWorldConfig()
	return HubConfig{
		Seed:    cfg.Seed,
		Options: cfg.Options,
	}
}

// Hub owns the world, its spectators, and the fixed-rate tick loop.
type Hub struct {
	mu         sync.Mutex
	world      *World
	spectators map[string]*spectator
	pending    []Command
	tick       uint64

	publisher logging.Publisher
	telemetry *telemetryCounters
	store     ResultStore
	logger    *log.Logger
}

// spectator is one joined viewer: identity, heartbeat bookkeeping, and the
// websocket once attached. The hub mutex guards every field; connection
// writes additionally serialize on writeMu so a slow client stalls only its
// own writer, never the tick loop.
type spectator struct {
	ID            string
	lastHeartbeat time.Time
	lastRTT       time.Duration

	writeMu sync.Mutex
	conn    *websocket.Conn
}

// WriteMessage pushes one message to the spectator's connection under the
// write deadline. Spectators that have joined but not yet attached a
// websocket swallow the write.
func (s *spectator) WriteMessage(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.conn == nil {
		return nil
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// NewHub creates a hub with default settings.
func NewHub(publisher logging.Publisher) *Hub {
	return NewHubWithConfig(DefaultHubConfig(), publisher)
}

// NewHubWithConfig creates a hub around a fresh lobby-phase world.
func NewHubWithConfig(cfg HubConfig, publisher logging.Publisher) *Hub {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		world:      newWorld(worldConfig{Seed: cfg.Seed, Options: cfg.Options}, publisher),
		spectators: make(map[string]*spectator),
		publisher:  publisher,
		telemetry:  newTelemetryCounters(),
		store:      cfg.Store,
		logger:     logger,
	}
}

// Join registers a new spectator and returns the catalog plus the latest
// snapshot.
func (h *Hub) Join() joinResponse {
	spectatorID := uuid.NewString()
	now := time.Now()

	h.mu.Lock()
	h.spectators[spectatorID] = &spectator{ID: spectatorID, lastHeartbeat: now}
	frame := h.stateFrameLocked(now)
	options := h.world.options
	tick := h.world.currentTick
	h.mu.Unlock()

	tracks := Tracks()
	views := make([]TrackView, 0, len(tracks))
	for _, track := range tracks {
		views = append(views, newTrackView(track))
	}

	loggingnetwork.SpectatorJoined(context.Background(), h.publisher, tick, spectatorRef(spectatorID), nil)

	return joinResponse{
		Ver:      ProtocolVersion,
		ID:       spectatorID,
		Options:  options,
		Tracks:   views,
		Roster:   defaultRoster(),
		PowerUps: PowerUpCatalog(),
		State:    frame,
	}
}

// Subscribe attaches a websocket to a joined spectator, displacing any
// connection already attached, and returns the frame to seed it with.
func (h *Hub) Subscribe(spectatorID string, conn *websocket.Conn) (*spectator, stateFrame, bool) {
	h.mu.Lock()
	s, ok := h.spectators[spectatorID]
	if !ok {
		h.mu.Unlock()
		return nil, stateFrame{}, false
	}
	now := time.Now()
	s.lastHeartbeat = now
	s.writeMu.Lock()
	displaced := s.conn
	s.conn = conn
	s.writeMu.Unlock()
	frame := h.stateFrameLocked(now)
	h.mu.Unlock()

	if displaced != nil {
		displaced.Close()
	}
	return s, frame, true
}

// Disconnect removes a spectator and closes any attached connection.
func (h *Hub) Disconnect(spectatorID string) {
	h.drop(spectatorID, "client_disconnect")
}

func (h *Hub) drop(spectatorID, reason string) {
	h.mu.Lock()
	s, ok := h.spectators[spectatorID]
	var conn *websocket.Conn
	if ok {
		delete(h.spectators, spectatorID)
		conn = s.conn
	}
	tick := h.world.currentTick
	h.mu.Unlock()

	if !ok {
		return
	}
	if conn != nil {
		conn.Close()
	}
	h.telemetry.IncrementSpectatorsDropped()
	loggingnetwork.SpectatorDropped(context.Background(), h.publisher, tick, spectatorRef(spectatorID), reason)
}

// UpdateHeartbeat records the most recent heartbeat time and RTT for a
// spectator.
func (h *Hub) UpdateHeartbeat(spectatorID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.spectators[spectatorID]
	if !ok {
		return 0, false
	}
	s.lastHeartbeat = receivedAt

	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			s.lastRTT = rtt
		}
	}
	return s.lastRTT, true
}

// RequestConfigure stages a menu selection for the next tick. Selections are
// refused while a race is underway.
func (h *Hub) RequestConfigure(spectatorID string, opts RaceOptions) (bool, string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.spectators[spectatorID]; !ok {
		return false, CommandRejectUnknownSpectator
	}
	if phase := h.world.phase; phase == PhaseCountdown || phase == PhaseRunning {
		h.telemetry.IncrementCommandsRejected()
		return false, CommandRejectRaceInProgress
	}
	h.pending = append(h.pending, Command{
		OriginTick: h.tick + 1,
		ActorID:    spectatorID,
		Type:       CommandConfigure,
		IssuedAt:   time.Now(),
		Configure:  &ConfigureCommand{Options: opts},
	})
	return true, ""
}

// RequestStart stages a race start for the next tick.
func (h *Hub) RequestStart(spectatorID string) (bool, string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.spectators[spectatorID]; !ok {
		return false, CommandRejectUnknownSpectator
	}
	if phase := h.world.phase; phase == PhaseCountdown || phase == PhaseRunning {
		h.telemetry.IncrementCommandsRejected()
		return false, CommandRejectAlreadyStarted
	}
	h.pending = append(h.pending, Command{
		OriginTick: h.tick + 1,
		ActorID:    spectatorID,
		Type:       CommandStart,
		IssuedAt:   time.Now(),
	})
	return true, ""
}

// RequestReset stages a return to the lobby, abandoning any race underway.
func (h *Hub) RequestReset(spectatorID string) (bool, string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.spectators[spectatorID]; !ok {
		return false, CommandRejectUnknownSpectator
	}
	h.pending = append(h.pending, Command{
		OriginTick: h.tick + 1,
		ActorID:    spectatorID,
		Type:       CommandReset,
		IssuedAt:   time.Now(),
	})
	return true, ""
}

// advance runs one simulation step and returns the broadcast frame, any
// finished classification, and connections whose heartbeats lapsed.
func (h *Hub) advance(now time.Time, dt float64) (stateFrame, *RaceResult, []*websocket.Conn) {
	h.mu.Lock()

	lapsed := make([]*websocket.Conn, 0)
	dropped := make([]string, 0)
	cutoff := now.Add(-disconnectAfter)
	for id, s := range h.spectators {
		if s.lastHeartbeat.IsZero() || !s.lastHeartbeat.Before(cutoff) {
			continue
		}
		if s.conn != nil {
			lapsed = append(lapsed, s.conn)
		}
		delete(h.spectators, id)
		dropped = append(dropped, id)
	}

	commands := h.pending
	h.pending = nil
	h.tick++
	tick := h.tick
	result := h.world.Step(tick, now, dt, commands)
	frame := h.stateFrameLocked(now)
	h.mu.Unlock()

	for _, id := range dropped {
		h.telemetry.IncrementSpectatorsDropped()
		loggingnetwork.SpectatorDropped(context.Background(), h.publisher, tick, spectatorRef(id), "heartbeat_timeout")
	}
	return frame, result, lapsed
}

// RunSimulation drives the fixed-rate tick loop until the stop channel
// closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1.0 / float64(tickRate)
			}
			last = now

			started := time.Now()
			frame, result, lapsed := h.advance(now, dt)
			for _, conn := range lapsed {
				conn.Close()
			}
			h.broadcastFrame(frame)
			if result != nil {
				h.telemetry.IncrementRacesFinished()
				h.persistResult(result)
				h.broadcastResult(result)
			}
			h.telemetry.RecordTickDuration(time.Since(started))
		}
	}
}

// stateFrameLocked composes the broadcast frame. Callers must hold the hub
// mutex.
func (h *Hub) stateFrameLocked(now time.Time) stateFrame {
	cars, pickups, hazards, projectiles, effects := h.world.Snapshot()
	frame := stateFrame{
		Ver:         ProtocolVersion,
		Type:        "state",
		Tick:        h.world.currentTick,
		ServerTime:  now.UnixMilli(),
		Phase:       h.world.phase,
		RaceSeconds: h.world.raceSeconds,
		Laps:        h.world.laps,
		Weather:     h.world.weather,
		Cars:        cars,
		Pickups:     pickups,
		Hazards:     hazards,
		Projectiles: projectiles,
		Effects:     effects,
	}
	if h.world.phase == PhaseCountdown && h.world.countdownRemaining > 0 {
		frame.Countdown = h.world.countdownRemaining
	}
	if h.world.track != nil {
		frame.TrackID = h.world.track.ID
	}
	return frame
}

// EncodeFrame packs a state frame for the wire and reports the entity count
// carried, for the telemetry counters.
func (h *Hub) EncodeFrame(frame stateFrame) ([]byte, int, error) {
	data, err := msgpack.Marshal(frame)
	if err != nil {
		return nil, 0, err
	}
	entities := len(frame.Cars) + len(frame.Pickups) + len(frame.Hazards) +
		len(frame.Projectiles) + len(frame.Effects)
	return data, entities, nil
}

// RecordBroadcastTelemetry feeds the ops counters for writes made outside
// the tick loop, like the seed frame sent on subscribe.
func (h *Hub) RecordBroadcastTelemetry(bytes, entities int) {
	h.telemetry.RecordBroadcast(bytes, entities)
}

// broadcastFrame fans a msgpack state frame out to every attached spectator.
func (h *Hub) broadcastFrame(frame stateFrame) {
	data, entities, err := h.EncodeFrame(frame)
	if err != nil {
		h.logger.Printf("failed to encode state frame: %v", err)
		return
	}
	h.telemetry.RecordBroadcast(len(data), entities)
	h.fanOut(websocket.BinaryMessage, data)
}

// broadcastResult pushes the final classification as a JSON control message.
func (h *Hub) broadcastResult(result *RaceResult) {
	msg := resultMessage{Ver: ProtocolVersion, Type: "result", Result: result}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("failed to encode result message: %v", err)
		return
	}
	h.fanOut(websocket.TextMessage, data)
}

// fanOut writes one message to every spectator with a connection attached,
// dropping spectators whose write fails.
func (h *Hub) fanOut(messageType int, data []byte) {
	h.mu.Lock()
	attached := make([]*spectator, 0, len(h.spectators))
	for _, s := range h.spectators {
		if s.conn != nil {
			attached = append(attached, s)
		}
	}
	h.mu.Unlock()

	for _, s := range attached {
		if err := s.WriteMessage(messageType, data); err != nil {
			h.logger.Printf("failed to send update to %s: %v", s.ID, err)
			h.drop(s.ID, "write_failed")
		}
	}
}

func (h *Hub) persistResult(result *RaceResult) {
	if h.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.store.SaveResult(ctx, result); err != nil {
		h.logger.Printf("failed to persist race %s: %v", result.RaceID, err)
	}
}

// Phase reports the world's lifecycle phase.
func (h *Hub) Phase() RacePhase {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.phase
}

// CurrentTick reports the tick the world last advanced to.
func (h *Hub) CurrentTick() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.currentTick
}

// CurrentOptions returns the selection armed for the next race.
func (h *Hub) CurrentOptions() RaceOptions {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.options
}

// LatestResult returns the most recent classification, or nil before any
// race has finished.
func (h *Hub) LatestResult() *RaceResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.lastResult
}

// RecentResults reads persisted classifications, newest first.
func (h *Hub) RecentResults(ctx context.Context, limit int) ([]RaceResult, error) {
	if h.store == nil {
		return nil, nil
	}
	return h.store.RecentResults(ctx, limit)
}

// Standings reads the championship table derived from persisted races.
func (h *Hub) Standings(ctx context.Context) ([]StandingRow, error) {
	if h.store == nil {
		return nil, nil
	}
	return h.store.Standings(ctx)
}

// DiagnosticsSnapshot exposes heartbeat data for the diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() []diagnosticsSpectator {
	h.mu.Lock()
	defer h.mu.Unlock()

	spectators := make([]diagnosticsSpectator, 0, len(h.spectators))
	for _, s := range h.spectators {
		spectators = append(spectators, diagnosticsSpectator{
			Ver:           ProtocolVersion,
			ID:            s.ID,
			LastHeartbeat: s.lastHeartbeat.UnixMilli(),
			RTTMillis:     s.lastRTT.Milliseconds(),
		})
	}
	return spectators
}

// TelemetrySnapshot exposes the ops counters.
func (h *Hub) TelemetrySnapshot() telemetrySnapshot {
	return h.telemetry.Snapshot()
}

// TelemetryDebug reports whether verbose per-tick telemetry output is
// enabled for this process.
func (h *Hub) TelemetryDebug() bool {
	return h.telemetry.DebugEnabled()
}

// TickRate reports the fixed simulation frequency in ticks per second.
func TickRate() int {
	return tickRate
}

// HeartbeatInterval reports how often clients are expected to send
// heartbeats.
func HeartbeatInterval() time.Duration {
	return heartbeatInterval
}
