package server

import (
	"context"
	"testing"
	"time"

	"drift-and-draft/server/logging"
)

const testDT = 1.0 / float64(tickRate)

func testCtx() context.Context {
	return context.Background()
}

func testClock() time.Time {
	return time.Unix(1_700_000_000, 0).UTC()
}

func newTestWorld(t *testing.T, opts RaceOptions) *World {
	t.Helper()
	return newWorld(worldConfig{Seed: "test-seed", Options: opts}, logging.NopPublisher())
}

// startTestRace pushes a lobby world through the countdown and leaves it on
// the first running tick.
func startTestRace(t *testing.T, w *World) {
	t.Helper()
	w.Step(1, testClock(), testDT, []Command{{Type: CommandStart, OriginTick: 1}})
	if w.phase != PhaseCountdown {
		t.Fatalf("expected countdown after start command, got %q", w.phase)
	}
	w.Step(2, testClock(), countdownSeconds, nil)
	if w.phase != PhaseRunning {
		t.Fatalf("expected running world after countdown burned, got %q", w.phase)
	}
}

func runningTestWorld(t *testing.T, opts RaceOptions) *World {
	t.Helper()
	w := newTestWorld(t, opts)
	startTestRace(t, w)
	return w
}

func TestWorldStartsInLobbyWithGridEmpty(t *testing.T) {
	w := newTestWorld(t, RaceOptions{})
	if w.phase != PhaseLobby {
		t.Fatalf("expected fresh world in lobby, got %q", w.phase)
	}
	if len(w.carOrder) != 0 {
		t.Fatalf("expected empty grid before start, got %d cars", len(w.carOrder))
	}
	if len(w.pickups) != pickupCount {
		t.Fatalf("expected %d pickups, got %d", pickupCount, len(w.pickups))
	}
}

func TestStartBuildsGridFromOptions(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{TrackID: "monaco", Laps: 3, Weather: WeatherRain, Drivers: 3})

	if len(w.carOrder) != 3 {
		t.Fatalf("expected 3 cars on the grid, got %d", len(w.carOrder))
	}
	if w.track == nil || w.track.ID != "monaco" {
		t.Fatalf("expected monaco armed, got %+v", w.track)
	}
	if w.laps != 3 {
		t.Fatalf("expected 3 laps, got %d", w.laps)
	}
	if w.weather != WeatherRain {
		t.Fatalf("expected rain, got %q", w.weather)
	}
	for _, id := range w.carOrder {
		car := w.cars[id]
		if car.Fuel != 100 {
			t.Fatalf("car %s should start with a full tank, got %.1f", id, car.Fuel)
		}
		if car.Ammo != magazineSize {
			t.Fatalf("car %s should start with %d rounds, got %d", id, magazineSize, car.Ammo)
		}
	}
}

func TestConfigureRejectedWhileRunning(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Laps: 3})

	if ok := w.configure(context.Background(), RaceOptions{TrackID: "monaco"}, w.publisher); ok {
		t.Fatalf("expected configure to be refused mid-race")
	}
	if w.options.TrackID != defaultTrackID {
		t.Fatalf("running race should keep its settings, got track %q", w.options.TrackID)
	}
}

func TestResetReturnsToLobbyKeepingLastResult(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Laps: 3})
	w.lastResult = &RaceResult{RaceID: "stale"}

	w.Step(3, testClock(), testDT, []Command{{Type: CommandReset, OriginTick: 3}})

	if w.phase != PhaseLobby {
		t.Fatalf("expected lobby after reset, got %q", w.phase)
	}
	if len(w.carOrder) != 0 {
		t.Fatalf("expected grid cleared after reset, got %d cars", len(w.carOrder))
	}
	if w.lastResult == nil || w.lastResult.RaceID != "stale" {
		t.Fatalf("reset must keep the last classification available")
	}
}

func TestLapWrapIncrementsLapExactlyOnce(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Laps: 5})
	car := w.cars[w.carOrder[0]]
	car.Progress = 0.9999

	tick := uint64(3)
	for car.Lap == 0 {
		w.Step(tick, testClock(), testDT, nil)
		tick++
		if tick > 30 {
			t.Fatalf("car never crossed the line, progress=%.5f", car.Progress)
		}
	}
	if car.Lap != 1 {
		t.Fatalf("expected exactly one lap after crossing the line, got %d", car.Lap)
	}
	if car.Progress < 0 || car.Progress >= 1 {
		t.Fatalf("progress must stay in [0,1), got %.5f", car.Progress)
	}
	if car.LastLap <= 0 {
		t.Fatalf("expected a recorded lap time, got %.3f", car.LastLap)
	}
}

func TestFinalLapRetiresCarIntoFinishOrder(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Laps: 1, Drivers: 3})
	car := w.cars[w.carOrder[0]]
	car.Progress = 0.9999

	w.Step(3, testClock(), testDT, nil)

	if !car.Finished {
		t.Fatalf("expected car finished after final lap")
	}
	if len(w.finishOrder) != 1 || w.finishOrder[0] != car.ID {
		t.Fatalf("expected finish order [%s], got %v", car.ID, w.finishOrder)
	}
	if car.finishSeconds <= 0 {
		t.Fatalf("expected a recorded finish time, got %.3f", car.finishSeconds)
	}
}

func TestRaceFinishClassifiesFieldAndAwardsPoints(t *testing.T) {
	w := runningTestWorld(t, RaceOptions{Laps: 1, Drivers: 3})

	var result *RaceResult
	now := testClock()
	for tick := uint64(3); tick < 30_000; tick++ {
		result = w.Step(tick, now, testDT, nil)
		if result != nil {
			break
		}
	}
	if result == nil {
		t.Fatalf("race never finished")
	}
	if w.phase != PhaseFinished {
		t.Fatalf("expected finished phase, got %q", w.phase)
	}
	if len(result.Results) != 3 {
		t.Fatalf("expected 3 classification rows, got %d", len(result.Results))
	}
	if result.Results[0].Points < pointsForPosition(1) {
		t.Fatalf("winner should score at least %d points, got %d", pointsForPosition(1), result.Results[0].Points)
	}
	for i, row := range result.Results {
		if row.Position != i+1 {
			t.Fatalf("classification row %d carries position %d", i, row.Position)
		}
		if row.TotalSeconds <= 0 {
			t.Fatalf("row %d missing total time", i)
		}
	}
	sawFastest := false
	for _, row := range result.Results {
		if row.FastestLap {
			sawFastest = true
		}
	}
	if !sawFastest {
		t.Fatalf("expected one driver flagged with the fastest lap")
	}
	if w.lastResult != result {
		t.Fatalf("finished classification should be retained on the world")
	}
}

func TestSameSeedReplaysIdenticalRace(t *testing.T) {
	opts := RaceOptions{TrackID: "monaco", Laps: 1, Weather: WeatherRandom, Drivers: 5}
	a := runningTestWorld(t, opts)
	b := runningTestWorld(t, opts)

	if a.weather != b.weather {
		t.Fatalf("random weather diverged: %q vs %q", a.weather, b.weather)
	}

	now := testClock()
	var resultA, resultB *RaceResult
	for tick := uint64(3); tick < 60_000; tick++ {
		if resultA == nil {
			resultA = a.Step(tick, now, testDT, nil)
		}
		if resultB == nil {
			resultB = b.Step(tick, now, testDT, nil)
		}
		if resultA != nil && resultB != nil {
			break
		}
	}
	if resultA == nil || resultB == nil {
		t.Fatalf("replay races never finished")
	}
	if len(resultA.Results) != len(resultB.Results) {
		t.Fatalf("finisher counts diverged: %d vs %d", len(resultA.Results), len(resultB.Results))
	}
	for i := range resultA.Results {
		ra, rb := resultA.Results[i], resultB.Results[i]
		if ra.CarID != rb.CarID || ra.Laps != rb.Laps || ra.TotalSeconds != rb.TotalSeconds || ra.BestLap != rb.BestLap {
			t.Fatalf("classification row %d diverged: %+v vs %+v", i, ra, rb)
		}
	}
}

func TestInvalidOptionsFallBackToDefaults(t *testing.T) {
	opts := RaceOptions{TrackID: "moon-loop", Laps: 500, Weather: "snow", Drivers: 9}
	normalized, notes := opts.normalized()

	if normalized.TrackID != defaultTrackID {
		t.Fatalf("unknown track should fall back to %q, got %q", defaultTrackID, normalized.TrackID)
	}
	if normalized.Laps != maxRaceLaps {
		t.Fatalf("lap count should clamp to %d, got %d", maxRaceLaps, normalized.Laps)
	}
	if normalized.Weather != defaultWeather {
		t.Fatalf("unknown weather should fall back to %q, got %q", defaultWeather, normalized.Weather)
	}
	if normalized.Drivers != maxRaceDrivers {
		t.Fatalf("driver count should fall back to %d, got %d", maxRaceDrivers, normalized.Drivers)
	}
	if len(notes) != 3 {
		t.Fatalf("expected 3 substitution notes, got %d: %v", len(notes), notes)
	}
}

func TestZeroOptionsDefaultSilently(t *testing.T) {
	normalized, notes := RaceOptions{}.normalized()
	if len(notes) != 0 {
		t.Fatalf("zero values should default without notes, got %v", notes)
	}
	want := defaultRaceOptions()
	if normalized != want {
		t.Fatalf("expected %+v, got %+v", want, normalized)
	}
}
