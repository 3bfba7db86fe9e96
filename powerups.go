package server

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"drift-and-draft/server/logging"
	loggingcombat "drift-and-draft/server/logging/combat"
	loggingpowerups "drift-and-draft/server/logging/powerups"
)

// PowerUpKind names an arcade item.
type PowerUpKind string

const (
	PowerUpLightning  PowerUpKind = "lightning_bolt"
	PowerUpRedShell   PowerUpKind = "red_shell"
	PowerUpBlueShell  PowerUpKind = "blue_shell"
	PowerUpBanana     PowerUpKind = "banana"
	PowerUpShield     PowerUpKind = "shield"
	PowerUpTurbo      PowerUpKind = "turbo_boost"
	PowerUpNitro      PowerUpKind = "nitro"
	PowerUpGhost      PowerUpKind = "ghost"
	PowerUpRadar      PowerUpKind = "radar"
	PowerUpFuelBoost  PowerUpKind = "fuel_boost"
	PowerUpTireRepair PowerUpKind = "tire_repair"
)

// PowerUpDef describes an item. Power reads per kind: a speed factor for
// lightning and the boosts, penalty seconds for shells and bananas, restored
// amount for the consumables.
type PowerUpDef struct {
	Kind            PowerUpKind `json:"kind"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	DurationSeconds float64     `json:"durationSeconds"`
	Power           float64     `json:"power"`
	Defensive       bool        `json:"defensive,omitempty"`
}

var powerUpCatalog = map[PowerUpKind]PowerUpDef{
	PowerUpLightning: {
		Kind: PowerUpLightning, Name: "Lightning Bolt",
		Description: "Slows all cars ahead for 3 seconds", DurationSeconds: 3.0, Power: 0.7,
	},
	PowerUpRedShell: {
		Kind: PowerUpRedShell, Name: "Red Shell",
		Description: "Targets car directly ahead, 2s penalty", Power: 2.0,
	},
	PowerUpBlueShell: {
		Kind: PowerUpBlueShell, Name: "Blue Shell",
		Description: "Targets race leader, 3s penalty", Power: 3.0,
	},
	PowerUpBanana: {
		Kind: PowerUpBanana, Name: "Banana Peel",
		Description: "Defensive trap, 1.5s penalty if hit", Power: 1.5, Defensive: true,
	},
	PowerUpShield: {
		Kind: PowerUpShield, Name: "Shield",
		Description: "Blocks attacks for 10 seconds", DurationSeconds: 10.0, Power: 1.0, Defensive: true,
	},
	PowerUpTurbo: {
		Kind: PowerUpTurbo, Name: "Turbo Boost",
		Description: "+30% speed for 4 seconds", DurationSeconds: 4.0, Power: 1.3,
	},
	PowerUpNitro: {
		Kind: PowerUpNitro, Name: "Nitro",
		Description: "+50% speed for 2 seconds", DurationSeconds: 2.0, Power: 1.5,
	},
	PowerUpGhost: {
		Kind: PowerUpGhost, Name: "Ghost",
		Description: "Untargetable for 3 seconds", DurationSeconds: 3.0, Power: 1.0, Defensive: true,
	},
	PowerUpRadar: {
		Kind: PowerUpRadar, Name: "Radar",
		Description: "Reveals opponent strategies", Power: 1.0,
	},
	PowerUpFuelBoost: {
		Kind: PowerUpFuelBoost, Name: "Fuel Boost",
		Description: "Restores 25% fuel", Power: 25.0,
	},
	PowerUpTireRepair: {
		Kind: PowerUpTireRepair, Name: "Tire Repair",
		Description: "Reduces tire wear by 30%", Power: 30.0,
	},
}

// PowerUpCatalog lists every item definition in kind order. Map iteration is
// randomized, so the catalog is sorted before it rides a join response.
func PowerUpCatalog() []PowerUpDef {
	kinds := make([]string, 0, len(powerUpCatalog))
	for kind := range powerUpCatalog {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	defs := make([]PowerUpDef, 0, len(kinds))
	for _, kind := range kinds {
		defs = append(defs, powerUpCatalog[PowerUpKind(kind)])
	}
	return defs
}

type powerUpWeight struct {
	kind   PowerUpKind
	weight int
}

// Weighted draw tables by race position band: defensive items up front,
// catch-up items at the back.
var (
	leaderDrawTable = []powerUpWeight{
		{PowerUpShield, 30},
		{PowerUpBanana, 25},
		{PowerUpFuelBoost, 20},
		{PowerUpTireRepair, 15},
		{PowerUpTurbo, 10},
	}
	frontDrawTable = []powerUpWeight{
		{PowerUpShield, 20},
		{PowerUpTurbo, 20},
		{PowerUpRedShell, 15},
		{PowerUpBanana, 15},
		{PowerUpFuelBoost, 15},
		{PowerUpNitro, 15},
	}
	backDrawTable = []powerUpWeight{
		{PowerUpLightning, 25},
		{PowerUpBlueShell, 20},
		{PowerUpNitro, 20},
		{PowerUpTurbo, 15},
		{PowerUpRedShell, 10},
		{PowerUpRadar, 10},
	}
	middleDrawTable = []powerUpWeight{
		{PowerUpRedShell, 20},
		{PowerUpTurbo, 20},
		{PowerUpLightning, 15},
		{PowerUpShield, 15},
		{PowerUpNitro, 15},
		{PowerUpBanana, 15},
	}
)

// drawTableFor selects the weight table for a 1-based race position. Band
// order matters: with a tiny field the front check wins over the back check.
func drawTableFor(position, totalCars int) ([]powerUpWeight, string) {
	switch {
	case position == 1:
		return leaderDrawTable, "leader"
	case position <= 2:
		return frontDrawTable, "front"
	case position >= totalCars-1:
		return backDrawTable, "back"
	default:
		return middleDrawTable, "middle"
	}
}

// drawPowerUp makes a weighted draw from the band table for the position.
func drawPowerUp(rng *rand.Rand, position, totalCars int) (PowerUpKind, string) {
	table, band := drawTableFor(position, totalCars)
	total := 0
	for _, entry := range table {
		total += entry.weight
	}
	roll := rng.Intn(total)
	for _, entry := range table {
		roll -= entry.weight
		if roll < 0 {
			return entry.kind, band
		}
	}
	return table[len(table)-1].kind, band
}

const (
	itemSlowFactor   = 0.5 // heavy items halve pace while the penalty runs
	bananaDropOffset = 0.004
	hazardRadius     = pickupRadius
)

// Hazard is a dropped trap sitting on the racing line.
type Hazard struct {
	ID       string  `json:"id" msgpack:"id"`
	Kind     string  `json:"kind" msgpack:"kind"`
	OwnerID  string  `json:"ownerId" msgpack:"ownerId"`
	Progress float64 `json:"progress" msgpack:"progress"`
}

// activateHeldPowerUp consumes and applies the car's held item. Returns
// false when the car holds nothing.
func (w *World) activateHeldPowerUp(ctx context.Context, car *carState, pub logging.Publisher) bool {
	kind := PowerUpKind(car.HeldPowerUp)
	if kind == "" {
		return false
	}
	def, ok := powerUpCatalog[kind]
	if !ok {
		car.HeldPowerUp = ""
		return false
	}
	car.HeldPowerUp = ""

	var targets []logging.EntityRef
	switch kind {
	case PowerUpLightning:
		targets = w.applyLightning(ctx, car, def, pub)
	case PowerUpRedShell:
		if target := w.carAtRank(car.Rank - 1); target != nil {
			targets = w.applyShell(ctx, car, target, def, pub)
		}
	case PowerUpBlueShell:
		if target := w.carAtRank(1); target != nil {
			targets = w.applyShell(ctx, car, target, def, pub)
		}
	case PowerUpBanana:
		hazard := w.dropHazard(car, string(PowerUpBanana))
		targets = append(targets, logging.EntityRef{ID: hazard.ID, Kind: logging.EntityKindUnknown})
	case PowerUpShield:
		w.addEffect(car.ID, effectShield, 1, def.DurationSeconds, string(kind))
	case PowerUpTurbo, PowerUpNitro:
		w.addEffect(car.ID, effectBoost, def.Power, def.DurationSeconds, string(kind))
	case PowerUpGhost:
		w.addEffect(car.ID, effectGhost, 1, def.DurationSeconds, string(kind))
	case PowerUpRadar:
		// Reveal only: the event carries every rival as a target.
		for _, id := range w.carOrder {
			if id != car.ID {
				targets = append(targets, carRef(id))
			}
		}
	case PowerUpFuelBoost:
		car.Fuel = clamp(car.Fuel+def.Power, 0, 100)
	case PowerUpTireRepair:
		car.TireWear = clamp(car.TireWear-def.Power, 0, 100)
	}

	loggingpowerups.Activated(ctx, pub, w.CurrentTick(), carRef(car.ID), targets, loggingpowerups.ActivatedPayload{
		Item:            string(kind),
		DurationSeconds: def.DurationSeconds,
	})
	return true
}

// applyLightning slows every car ahead of the user unless protected.
func (w *World) applyLightning(ctx context.Context, car *carState, def PowerUpDef, pub logging.Publisher) []logging.EntityRef {
	var struck []logging.EntityRef
	for _, id := range w.carOrder {
		other := w.cars[id]
		if other == nil || other.ID == car.ID || other.Rank >= car.Rank {
			continue
		}
		if w.isGhosted(other.ID) {
			continue
		}
		if w.isProtected(other.ID) {
			loggingcombat.HitBlocked(ctx, pub, w.CurrentTick(), carRef(car.ID), carRef(other.ID), string(PowerUpLightning))
			continue
		}
		w.addEffect(other.ID, effectSlow, def.Power, def.DurationSeconds, string(PowerUpLightning))
		struck = append(struck, carRef(other.ID))
	}
	return struck
}

// applyShell lands a shell on its target unless protected. The catalog power
// is the penalty duration in seconds.
func (w *World) applyShell(ctx context.Context, car *carState, target *carState, def PowerUpDef, pub logging.Publisher) []logging.EntityRef {
	if w.isGhosted(target.ID) {
		return nil
	}
	if w.isProtected(target.ID) {
		loggingcombat.HitBlocked(ctx, pub, w.CurrentTick(), carRef(car.ID), carRef(target.ID), string(def.Kind))
		return nil
	}
	w.addEffect(target.ID, effectSlow, itemSlowFactor, def.Power, string(def.Kind))
	return []logging.EntityRef{carRef(target.ID)}
}

// dropHazard places a trap just behind the car.
func (w *World) dropHazard(car *carState, kind string) Hazard {
	w.hazardSeq++
	hazard := Hazard{
		ID:       fmt.Sprintf("hazard-%d", w.hazardSeq),
		Kind:     kind,
		OwnerID:  car.ID,
		Progress: wrapProgress(car.Progress - bananaDropOffset),
	}
	w.hazards = append(w.hazards, hazard)
	return hazard
}

// resolveHazards slows cars that drive into a dropped trap and consumes it.
func (w *World) resolveHazards(ctx context.Context, pub logging.Publisher) {
	if len(w.hazards) == 0 {
		return
	}
	kept := w.hazards[:0]
	for _, hazard := range w.hazards {
		hit := false
		for _, id := range w.carOrder {
			car := w.cars[id]
			if car == nil || car.Finished || w.isGhosted(car.ID) {
				continue
			}
			if progressGap(car.Progress, hazard.Progress) > hazardRadius {
				continue
			}
			if w.isProtected(car.ID) {
				loggingcombat.HitBlocked(ctx, pub, w.CurrentTick(), carRef(hazard.OwnerID), carRef(car.ID), hazard.Kind)
				hit = true
				break
			}
			def := powerUpCatalog[PowerUpBanana]
			w.addEffect(car.ID, effectSlow, itemSlowFactor, def.Power, hazard.Kind)
			loggingcombat.ProjectileHit(ctx, pub, w.CurrentTick(), carRef(hazard.OwnerID), carRef(car.ID), loggingcombat.HitPayload{
				SlowFactor: itemSlowFactor,
				Source:     hazard.Kind,
			})
			hit = true
			break
		}
		if !hit {
			kept = append(kept, hazard)
		}
	}
	w.hazards = kept
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
