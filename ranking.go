package server

import (
	"context"
	"sort"

	"drift-and-draft/server/logging"
	loggingrace "drift-and-draft/server/logging/race"
)

// updateRanking orders the field by laps plus progress, writes ranks and
// gap-to-leader back to every car, and reports position gains. The sort is
// stable so cars level on distance keep their previous order; finished cars
// hold their finish order no matter how far the chasers roll past the line.
func (w *World) updateRanking(ctx context.Context, pub logging.Publisher) {
	if len(w.carOrder) == 0 {
		return
	}
	ranked := make([]string, len(w.carOrder))
	copy(ranked, w.carOrder)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := w.cars[ranked[i]], w.cars[ranked[j]]
		if a.Finished && b.Finished {
			return a.finishSeconds < b.finishSeconds
		}
		return a.raceDistance() > b.raceDistance()
	})

	previous := make(map[int]string, len(ranked))
	for _, id := range w.carOrder {
		previous[w.cars[id].Rank] = id
	}

	leader := w.cars[ranked[0]]
	for i, id := range ranked {
		car := w.cars[id]
		oldRank := car.Rank
		car.Rank = i + 1
		car.GapMeters = (leader.raceDistance() - car.raceDistance()) * w.track.TotalMeters
		if car.GapMeters < 0 {
			car.GapMeters = 0
		}
		if car.Rank >= oldRank || w.phase != PhaseRunning {
			continue
		}
		target := previous[car.Rank]
		if target == "" || target == id {
			continue
		}
		loggingrace.Overtake(ctx, pub, w.CurrentTick(), carRef(id), carRef(target), car.Rank)
	}
}

// carAtRank returns the car currently holding a 1-based position.
func (w *World) carAtRank(rank int) *carState {
	for _, id := range w.carOrder {
		car := w.cars[id]
		if car != nil && car.Rank == rank {
			return car
		}
	}
	return nil
}
