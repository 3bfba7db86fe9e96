package server

import (
	"context"
	"fmt"

	"drift-and-draft/server/logging"
	loggingpowerups "drift-and-draft/server/logging/powerups"
)

// Pickup is a power-up box fixed on the racing line.
type Pickup struct {
	Index     int     `json:"index" msgpack:"index"`
	Progress  float64 `json:"progress" msgpack:"progress"`
	Available bool    `json:"available" msgpack:"available"`
	RespawnIn float64 `json:"respawnIn,omitempty" msgpack:"respawnIn"`
}

// defaultPickups centers one box in each of eight equal track slices.
func defaultPickups() []Pickup {
	pickups := make([]Pickup, pickupCount)
	spacing := 1.0 / pickupCount
	for i := range pickups {
		pickups[i] = Pickup{
			Index:     i,
			Progress:  wrapProgress(float64(i)*spacing + spacing/2),
			Available: true,
		}
	}
	return pickups
}

// pickupID names a box for event refs; boxes are indexed, not entity-keyed.
func pickupID(index int) string {
	return fmt.Sprintf("pickup-%d", index)
}

// updatePickups counts down respawn timers and restores boxes.
func (w *World) updatePickups(ctx context.Context, dt float64, pub logging.Publisher) {
	for i := range w.pickups {
		pickup := &w.pickups[i]
		if pickup.Available {
			continue
		}
		pickup.RespawnIn -= dt
		if pickup.RespawnIn <= 0 {
			pickup.Available = true
			pickup.RespawnIn = 0
			loggingpowerups.PickupRespawned(ctx, pub, w.CurrentTick(), pickupRef(pickupID(pickup.Index)), pickup.Index)
		}
	}
}

// collectPickups hands boxes to cars driving over them. A car holding an
// item drives through without collecting; the first car in iteration order
// wins a contested box.
func (w *World) collectPickups(ctx context.Context, pub logging.Publisher) {
	for _, id := range w.carOrder {
		car := w.cars[id]
		if car == nil || car.Finished || car.HeldPowerUp != "" {
			continue
		}
		for i := range w.pickups {
			pickup := &w.pickups[i]
			if !pickup.Available {
				continue
			}
			if progressGap(car.Progress, pickup.Progress) > pickupRadius {
				continue
			}
			pickup.Available = false
			pickup.RespawnIn = pickupRespawnSeconds
			kind, band := drawPowerUp(w.powerupsRNG, car.Rank, len(w.carOrder))
			car.HeldPowerUp = string(kind)
			loggingpowerups.PickupCollected(ctx, pub, w.CurrentTick(), carRef(car.ID), pickupRef(pickupID(pickup.Index)), loggingpowerups.CollectedPayload{
				PickupIndex: pickup.Index,
				Item:        string(kind),
				Band:        band,
			})
			break
		}
	}
}
