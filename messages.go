package server

// TrackView is the run-once circuit geometry a client needs to draw a race.
type TrackView struct {
	ID          string      `json:"id" msgpack:"id"`
	Name        string      `json:"name" msgpack:"name"`
	Class       TrackClass  `json:"class" msgpack:"class"`
	TotalMeters float64     `json:"totalMeters" msgpack:"totalMeters"`
	Path        []pathPoint `json:"path" msgpack:"path"`
}

func newTrackView(t *Track) TrackView {
	if t == nil {
		return TrackView{}
	}
	return TrackView{
		ID:          t.ID,
		Name:        t.Name,
		Class:       t.Class,
		TotalMeters: t.TotalMeters,
		Path:        t.Path(),
	}
}

// joinResponse seeds a spectator with identity, the selection catalog, and
// the current state. Control traffic is JSON; only state frames are msgpack.
type joinResponse struct {
	Ver      int           `json:"ver"`
	ID       string        `json:"id"`
	Options  RaceOptions   `json:"options"`
	Tracks   []TrackView   `json:"tracks"`
	Roster   []DriverEntry `json:"roster"`
	PowerUps []PowerUpDef  `json:"powerUps"`
	State    stateFrame    `json:"state"`
}

// stateFrame is the per-tick broadcast. It rides the websocket as a msgpack
// binary message; the same struct serializes to JSON inside the join
// response.
type stateFrame struct {
	Ver         int          `json:"ver" msgpack:"ver"`
	Type        string       `json:"type" msgpack:"type"`
	Tick        uint64       `json:"t" msgpack:"t"`
	ServerTime  int64        `json:"serverTime" msgpack:"serverTime"`
	Phase       RacePhase    `json:"phase" msgpack:"phase"`
	Countdown   float64      `json:"countdown,omitempty" msgpack:"countdown"`
	RaceSeconds float64      `json:"raceSeconds" msgpack:"raceSeconds"`
	TrackID     string       `json:"trackId" msgpack:"trackId"`
	Laps        int          `json:"laps" msgpack:"laps"`
	Weather     Weather      `json:"weather" msgpack:"weather"`
	Cars        []Car        `json:"cars" msgpack:"cars"`
	Pickups     []Pickup     `json:"pickups" msgpack:"pickups"`
	Hazards     []Hazard     `json:"hazards,omitempty" msgpack:"hazards"`
	Projectiles []Projectile `json:"projectiles,omitempty" msgpack:"projectiles"`
	Effects     []Effect     `json:"effects,omitempty" msgpack:"effects"`
}

// resultMessage pushes the final classification to spectators the moment a
// race finishes.
type resultMessage struct {
	Ver    int         `json:"ver"`
	Type   string      `json:"type"`
	Result *RaceResult `json:"result"`
}

type diagnosticsSpectator struct {
	Ver           int    `json:"ver"`
	ID            string `json:"id"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rttMillis"`
}
