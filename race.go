package server

import (
	"fmt"
	"strings"
	"time"
)

// RacePhase sequences the hub lifecycle.
type RacePhase string

const (
	PhaseLobby     RacePhase = "lobby"
	PhaseCountdown RacePhase = "countdown"
	PhaseRunning   RacePhase = "running"
	PhaseFinished  RacePhase = "finished"
)

const (
	defaultTrackID  = "suzuka"
	defaultRaceLaps = 10
)

// RaceOptions is the flat menu selection a race is configured from.
type RaceOptions struct {
	TrackID string  `json:"trackId"`
	Laps    int     `json:"laps"`
	Weather Weather `json:"weather"`
	Drivers int     `json:"drivers"`
}

func defaultRaceOptions() RaceOptions {
	return RaceOptions{
		TrackID: defaultTrackID,
		Laps:    defaultRaceLaps,
		Weather: defaultWeather,
		Drivers: maxRaceDrivers,
	}
}

// normalized applies menu defaults field by field. Zero values count as "not
// chosen" and default silently; anything else invalid falls back with a note
// describing the substitution.
func (o RaceOptions) normalized() (RaceOptions, []string) {
	var notes []string
	norm := o

	norm.TrackID = strings.ToLower(strings.TrimSpace(norm.TrackID))
	if norm.TrackID == "" {
		norm.TrackID = defaultTrackID
	} else if _, ok := trackByID(norm.TrackID); !ok {
		notes = append(notes, fmt.Sprintf("unknown track %q, using %q", o.TrackID, defaultTrackID))
		norm.TrackID = defaultTrackID
	}

	switch {
	case norm.Laps == 0:
		norm.Laps = defaultRaceLaps
	case norm.Laps < minRaceLaps:
		notes = append(notes, fmt.Sprintf("lap count %d below minimum, using %d", o.Laps, minRaceLaps))
		norm.Laps = minRaceLaps
	case norm.Laps > maxRaceLaps:
		notes = append(notes, fmt.Sprintf("lap count %d above maximum, using %d", o.Laps, maxRaceLaps))
		norm.Laps = maxRaceLaps
	}

	weather := Weather(strings.ToLower(strings.TrimSpace(string(norm.Weather))))
	if weather == "" {
		norm.Weather = defaultWeather
	} else if parsed, ok := parseWeather(string(weather)); ok {
		norm.Weather = parsed
	} else {
		notes = append(notes, fmt.Sprintf("unknown weather %q, using %q", o.Weather, defaultWeather))
		norm.Weather = defaultWeather
	}

	switch {
	case norm.Drivers == 0:
		norm.Drivers = maxRaceDrivers
	case norm.Drivers < minRaceDrivers || norm.Drivers > maxRaceDrivers:
		notes = append(notes, fmt.Sprintf("driver count %d out of range [%d, %d], using %d",
			o.Drivers, minRaceDrivers, maxRaceDrivers, maxRaceDrivers))
		norm.Drivers = maxRaceDrivers
	}

	return norm, notes
}

// DriverResult is one classification row of a finished race.
type DriverResult struct {
	Position     int     `json:"position"`
	CarID        string  `json:"carId"`
	Driver       string  `json:"driver"`
	CarName      string  `json:"carName"`
	Laps         int     `json:"laps"`
	TotalSeconds float64 `json:"totalSeconds"`
	BestLap      float64 `json:"bestLap"`
	FastestLap   bool    `json:"fastestLap"`
	Points       int     `json:"points"`
}

// RaceResult is the classification of a finished race.
type RaceResult struct {
	RaceID     string         `json:"raceId"`
	TrackID    string         `json:"trackId"`
	TrackName  string         `json:"trackName"`
	Laps       int            `json:"laps"`
	Weather    Weather        `json:"weather"`
	Seed       string         `json:"seed"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Results    []DriverResult `json:"results"`
}

// StandingRow is one driver's championship aggregate across every persisted
// race. BestLap is zero when the driver has no timed lap on record.
type StandingRow struct {
	Driver      string  `json:"driver"`
	Races       int     `json:"races"`
	Points      int     `json:"points"`
	Wins        int     `json:"wins"`
	Podiums     int     `json:"podiums"`
	FastestLaps int     `json:"fastestLaps"`
	BestLap     float64 `json:"bestLap,omitempty"`
}

var pointsTable = [...]int{25, 18, 15, 12, 10, 8, 6, 4, 2, 1}

// pointsForPosition returns championship points for a 1-based finishing
// position.
func pointsForPosition(position int) int {
	if position < 1 || position > len(pointsTable) {
		return 0
	}
	return pointsTable[position-1]
}

const fastestLapBonus = 1 // awarded only when the driver finishes in the top 10
