package server

import (
	"context"
	"math"

	"drift-and-draft/server/logging"
	loggingcombat "drift-and-draft/server/logging/combat"
)

const (
	contactBaseChance     = 0.1
	contactSpeedChanceCap = 0.3
	rearEndSpeedDelta     = 20.0 // km/h closing speed that reads as a rear-end
	contactMinSpeed       = 10.0 // crawling cars don't trade paint
)

// sectionRiskFactor scales contact probability by where on the circuit the
// cars are fighting.
func sectionRiskFactor(section string) float64 {
	switch section {
	case sectionStraight:
		return 0.5
	case sectionChicane:
		return 2.0
	case sectionLongCorner:
		return 1.2
	default:
		return 1.5
	}
}

// contactType classifies an incident from closing speed and track section.
func contactType(speedDelta float64, section string) string {
	switch {
	case speedDelta > rearEndSpeedDelta:
		return "rear_end"
	case section != sectionStraight:
		return "corner_clash"
	default:
		return "side_swipe"
	}
}

// resolveContacts rolls for car-to-car incidents between cars running close
// together. A pair that just traded paint is held on cooldown so one scrap
// does not fire every tick.
func (w *World) resolveContacts(ctx context.Context, tick uint64, pub logging.Publisher) {
	for i := 0; i < len(w.carOrder); i++ {
		a := w.cars[w.carOrder[i]]
		if a == nil || a.Finished {
			continue
		}
		for j := i + 1; j < len(w.carOrder); j++ {
			b := w.cars[w.carOrder[j]]
			if b == nil || b.Finished {
				continue
			}
			if a.SpeedKmh <= contactMinSpeed || b.SpeedKmh <= contactMinSpeed {
				continue
			}
			if w.isGhosted(a.ID) || w.isGhosted(b.ID) {
				continue
			}
			if progressGap(a.Progress, b.Progress) > contactThreshold {
				continue
			}
			key := pairKey(a.ID, b.ID)
			if until, ok := w.contactCooldowns[key]; ok && tick < until {
				continue
			}

			section := w.track.SectionAt(a.Progress)
			speedDelta := math.Abs(a.SpeedKmh - b.SpeedKmh)
			chance := (contactBaseChance + math.Min(speedDelta/50, contactSpeedChanceCap)) * sectionRiskFactor(section)
			if w.collisionsRNG.Float64() >= chance {
				continue
			}

			w.contactCooldowns[key] = tick + contactCooldownTicks
			severity := 0.2 + w.collisionsRNG.Float64()*0.6
			atFault, victim := a, b
			if b.SpeedKmh > a.SpeedKmh {
				atFault, victim = b, a
			}

			atFaultSlow := 1 - severity*0.3
			victimSlow := 1 - severity*0.2
			atFaultPenalty := severity * 2 * 1.5
			victimPenalty := severity * 2 * 0.7
			w.addEffect(atFault.ID, effectSlow, atFaultSlow, atFaultPenalty, "contact")
			w.addEffect(victim.ID, effectSlow, victimSlow, victimPenalty, "contact")

			loggingcombat.Contact(ctx, pub, tick, carRef(atFault.ID), carRef(victim.ID), loggingcombat.ContactPayload{
				Severity:       severity,
				ContactType:    contactType(speedDelta, section),
				Section:        section,
				AtFaultSlow:    atFaultSlow,
				SecondarySlow:  victimSlow,
				AtFaultPenalty: atFaultPenalty,
				VictimPenalty:  victimPenalty,
				CooldownTicks:  contactCooldownTicks,
			})
		}
	}
}

// pairKey builds an order-independent cooldown key for two cars.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
