package server

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/segmentio/ksuid"

	"drift-and-draft/server/logging"
	loggingrace "drift-and-draft/server/logging/race"
)

// CommandType enumerates the supported simulation commands.
type CommandType string

const (
	CommandConfigure CommandType = "Configure"
	CommandStart     CommandType = "Start"
	CommandReset     CommandType = "Reset"
)

// Command represents an intent captured for processing on the next tick.
type Command struct {
	OriginTick uint64
	ActorID    string
	Type       CommandType
	IssuedAt   time.Time
	Configure  *ConfigureCommand
}

// ConfigureCommand carries a menu selection for the next race.
type ConfigureCommand struct {
	Options RaceOptions
}

// World owns the authoritative race state. All access happens on the hub's
// simulation goroutine under its mutex.
type World struct {
	cars     map[string]*carState
	carOrder []string
	track    *Track
	laps     int
	weather  Weather
	options  RaceOptions
	phase    RacePhase

	pickups       []Pickup
	hazards       []Hazard
	hazardSeq     uint64
	projectiles   []Projectile
	projectileSeq uint64
	effects       []Effect
	effectSeq     uint64

	contactCooldowns map[string]uint64

	aiLibrary     *aiLibrary
	config        worldConfig
	seed          string
	raceCounter   uint64
	weatherRNG    *rand.Rand
	powerupsRNG   *rand.Rand
	collisionsRNG *rand.Rand
	publisher     logging.Publisher

	currentTick        uint64
	raceSeconds        float64
	countdownRemaining float64
	raceID             string
	startedAt          time.Time
	finishOrder        []string
	fastestLapSeconds  float64
	fastestLapCarID    string
	lastResult         *RaceResult
}

// newWorld constructs a lobby-phase world armed with the given options.
func newWorld(cfg worldConfig, publisher logging.Publisher) *World {
	normalized, notes := cfg.normalized()
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	w := &World{
		cars:             make(map[string]*carState),
		phase:            PhaseLobby,
		pickups:          defaultPickups(),
		contactCooldowns: make(map[string]uint64),
		aiLibrary:        globalAILibrary,
		config:           normalized,
		seed:             normalized.Seed,
		options:          normalized.Options,
		publisher:        publisher,
	}
	w.seedRaceStreams()
	if track, ok := trackByID(w.options.TrackID); ok {
		w.track = track
	}

	var extra map[string]any
	if len(notes) > 0 {
		extra = map[string]any{"notes": notes}
	}
	loggingrace.Configured(context.Background(), publisher, 0, worldRef(), loggingrace.ConfiguredPayload{
		TrackID:  w.options.TrackID,
		Laps:     w.options.Laps,
		Weather:  string(w.options.Weather),
		Drivers:  w.options.Drivers,
		Fallback: len(notes) > 0,
	}, extra)
	return w
}

// seedRaceStreams derives fresh per-subsystem RNG streams for the current
// race counter, so each race replays identically from the world seed alone.
func (w *World) seedRaceStreams() {
	prefix := fmt.Sprintf("race%d.", w.raceCounter)
	w.weatherRNG = w.subsystemRNG(prefix + "weather")
	w.powerupsRNG = w.subsystemRNG(prefix + "powerups")
	w.collisionsRNG = w.subsystemRNG(prefix + "collisions")
}

// CurrentTick returns the tick the world last advanced to.
func (w *World) CurrentTick() uint64 {
	return w.currentTick
}

// Phase returns the lifecycle phase the world is in.
func (w *World) Phase() RacePhase {
	return w.phase
}

// LastResult returns the classification of the most recently finished race,
// or nil when no race has finished yet.
func (w *World) LastResult() *RaceResult {
	return w.lastResult
}

// Snapshot copies the mutable broadcast state into value slices.
func (w *World) Snapshot() ([]Car, []Pickup, []Hazard, []Projectile, []Effect) {
	cars := make([]Car, 0, len(w.carOrder))
	for _, id := range w.carOrder {
		if car := w.cars[id]; car != nil {
			cars = append(cars, car.snapshot())
		}
	}
	pickups := append([]Pickup(nil), w.pickups...)
	hazards := append([]Hazard(nil), w.hazards...)
	projectiles := append([]Projectile(nil), w.projectiles...)
	effects := append([]Effect(nil), w.effects...)
	return cars, pickups, hazards, projectiles, effects
}

// Step advances the simulation by a single tick applying all staged commands.
// It returns the race classification on the tick the race completes.
func (w *World) Step(tick uint64, now time.Time, dt float64, commands []Command) *RaceResult {
	if dt <= 0 {
		dt = 1.0 / float64(tickRate)
	}
	w.currentTick = tick
	ctx := context.Background()
	pub := w.publisher

	for _, cmd := range commands {
		switch cmd.Type {
		case CommandConfigure:
			if cmd.Configure == nil {
				continue
			}
			w.configure(ctx, cmd.Configure.Options, pub)
		case CommandStart:
			w.armCountdown(ctx, now, pub)
		case CommandReset:
			w.resetToLobby()
		}
	}

	switch w.phase {
	case PhaseCountdown:
		w.countdownRemaining -= dt
		if w.countdownRemaining <= 0 {
			w.startRace(ctx, now, pub)
		}
	case PhaseRunning:
		w.raceSeconds += dt
		w.runAI(ctx, tick, pub)
		w.advanceCars(ctx, dt, pub)
		w.updateRanking(ctx, pub)
		w.updatePickups(ctx, dt, pub)
		w.collectPickups(ctx, pub)
		w.resolveHazards(ctx, pub)
		w.advanceProjectiles(ctx, dt, pub)
		w.resolveContacts(ctx, tick, pub)
		w.pruneEffects(ctx, pub)
		if w.raceComplete() {
			return w.finishRace(ctx, now, pub)
		}
	}
	return nil
}

// configure arms the world with a normalized menu selection. Selections are
// only accepted between races; a race in progress keeps its settings.
func (w *World) configure(ctx context.Context, opts RaceOptions, pub logging.Publisher) bool {
	if w.phase == PhaseCountdown || w.phase == PhaseRunning {
		return false
	}
	normalized, notes := opts.normalized()
	w.options = normalized
	if track, ok := trackByID(normalized.TrackID); ok {
		w.track = track
	}

	var extra map[string]any
	if len(notes) > 0 {
		extra = map[string]any{"notes": notes}
	}
	loggingrace.Configured(ctx, pub, w.currentTick, worldRef(), loggingrace.ConfiguredPayload{
		TrackID:  normalized.TrackID,
		Laps:     normalized.Laps,
		Weather:  string(normalized.Weather),
		Drivers:  normalized.Drivers,
		Fallback: len(notes) > 0,
	}, extra)
	return true
}

// armCountdown builds the grid from the armed options and starts the
// countdown. Ignored unless the world sits between races.
func (w *World) armCountdown(ctx context.Context, now time.Time, pub logging.Publisher) {
	if w.phase != PhaseLobby && w.phase != PhaseFinished {
		return
	}
	w.setupGrid(ctx, pub)
	w.phase = PhaseCountdown
	w.countdownRemaining = countdownSeconds
	w.startedAt = now
}

// setupGrid resets all per-race state and places the field. Roster entries
// with an invalid car setup are kept off the grid rather than corrupting the
// simulation mid-race.
func (w *World) setupGrid(ctx context.Context, pub logging.Publisher) {
	w.raceCounter++
	w.seedRaceStreams()
	w.raceID = ksuid.New().String()

	if track, ok := trackByID(w.options.TrackID); ok {
		w.track = track
	}
	w.laps = w.options.Laps
	w.weather = w.options.Weather.resolve(w.weatherRNG)

	eligible := startingRoster(ctx, w.currentTick, pub)
	count := w.options.Drivers
	if count > len(eligible) {
		count = len(eligible)
	}
	w.cars = make(map[string]*carState, count)
	w.carOrder = make([]string, 0, count)
	for i := 0; i < count; i++ {
		id := fmt.Sprintf("car-%d", i+1)
		w.cars[id] = newCarState(id, eligible[i], i)
		w.carOrder = append(w.carOrder, id)
	}

	w.pickups = defaultPickups()
	w.hazards = nil
	w.hazardSeq = 0
	w.projectiles = nil
	w.projectileSeq = 0
	w.effects = nil
	w.effectSeq = 0
	w.contactCooldowns = make(map[string]uint64)
	w.finishOrder = nil
	w.fastestLapSeconds = 0
	w.fastestLapCarID = ""
	w.raceSeconds = 0
}

// startRace flips the lights green.
func (w *World) startRace(ctx context.Context, now time.Time, pub logging.Publisher) {
	w.phase = PhaseRunning
	w.raceSeconds = 0
	w.countdownRemaining = 0
	w.startedAt = now
	loggingrace.Started(ctx, pub, w.currentTick, worldRef(), loggingrace.StartedPayload{
		TrackID: w.track.ID,
		Laps:    w.laps,
		Weather: string(w.weather),
		Cars:    len(w.carOrder),
	})
}

// resetToLobby abandons any race in progress and returns to the lobby. The
// last finished classification stays available.
func (w *World) resetToLobby() {
	w.phase = PhaseLobby
	w.cars = make(map[string]*carState)
	w.carOrder = nil
	w.pickups = defaultPickups()
	w.hazards = nil
	w.projectiles = nil
	w.effects = nil
	w.contactCooldowns = make(map[string]uint64)
	w.finishOrder = nil
	w.raceSeconds = 0
	w.countdownRemaining = 0
}

func (w *World) raceComplete() bool {
	return len(w.carOrder) > 0 && len(w.finishOrder) == len(w.carOrder)
}

// finishRace classifies the field, awards points, and parks the world in the
// finished phase.
func (w *World) finishRace(ctx context.Context, now time.Time, pub logging.Publisher) *RaceResult {
	w.phase = PhaseFinished

	results := make([]DriverResult, 0, len(w.finishOrder))
	for i, id := range w.finishOrder {
		car := w.cars[id]
		if car == nil {
			continue
		}
		position := i + 1
		points := pointsForPosition(position)
		fastest := car.ID == w.fastestLapCarID
		if fastest && position <= len(pointsTable) {
			points += fastestLapBonus
		}
		results = append(results, DriverResult{
			Position:     position,
			CarID:        car.ID,
			Driver:       car.Driver,
			CarName:      car.Name,
			Laps:         car.Lap,
			TotalSeconds: car.finishSeconds,
			BestLap:      car.BestLap,
			FastestLap:   fastest,
			Points:       points,
		})
	}

	result := &RaceResult{
		RaceID:     w.raceID,
		TrackID:    w.track.ID,
		TrackName:  w.track.Name,
		Laps:       w.laps,
		Weather:    w.weather,
		Seed:       w.seed,
		StartedAt:  w.startedAt,
		FinishedAt: now,
		Results:    results,
	}
	w.lastResult = result

	winnerID := ""
	if len(results) > 0 {
		winnerID = results[0].CarID
	}
	loggingrace.Finished(ctx, pub, w.currentTick, worldRef(), loggingrace.FinishedPayload{
		WinnerID:     winnerID,
		TotalSeconds: w.raceSeconds,
		Finishers:    len(results),
	})
	return result
}
