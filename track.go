package server

import (
	"math"
	"sort"
)

// TrackClass groups circuits by the kind of driving they reward.
type TrackClass string

const (
	TrackClassSpeed     TrackClass = "speed"
	TrackClassTechnical TrackClass = "technical"
	TrackClassMixed     TrackClass = "mixed"
	TrackClassEndurance TrackClass = "endurance"
)

const (
	sectionStraight   = "straight"
	sectionCorner     = "corner"
	sectionChicane    = "chicane"
	sectionLongCorner = "long_corner"
)

// TrackSegment is one stretch of a circuit. Straights carry only a length;
// corners add the swept angle in degrees and the radius in meters.
type TrackSegment struct {
	LengthMeters float64 `json:"lengthMeters"`
	Straight     bool    `json:"straight"`
	CornerAngle  float64 `json:"cornerAngle,omitempty"`
	CornerRadius float64 `json:"cornerRadius,omitempty"`
}

// Section buckets the segment for contact probability and overtaking math.
func (s TrackSegment) Section() string {
	switch {
	case s.Straight:
		return sectionStraight
	case math.Abs(s.CornerAngle) >= 120:
		return sectionChicane
	case s.CornerRadius >= 120:
		return sectionLongCorner
	default:
		return sectionCorner
	}
}

type pathPoint struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Track is a closed circuit. The render path is generated once per catalog
// entry and scaled so its arc length equals TotalMeters, which keeps world
// coordinates and lap-fraction arithmetic consistent.
type Track struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Class       TrackClass     `json:"class"`
	TotalMeters float64        `json:"totalMeters"`
	Segments    []TrackSegment `json:"segments"`

	points []pathPoint
	cum    []float64 // cumulative arc length, cum[0] = 0, cum[len(points)] = loop length
	segCum []float64 // cumulative segment lengths
}

const (
	pathSpanX = 500.0
	pathSpanY = 300.0
)

func newTrack(id, name string, class TrackClass, lengthKm float64, segments []TrackSegment) *Track {
	t := &Track{
		ID:          id,
		Name:        name,
		Class:       class,
		TotalMeters: lengthKm * 1000,
		Segments:    segments,
	}
	if len(segments) > 0 {
		var sum float64
		for _, seg := range segments {
			sum += seg.LengthMeters
		}
		// The advertised length wins unless the segment sum drifts past 100 m.
		if math.Abs(sum-t.TotalMeters) > 100 {
			t.TotalMeters = sum
		}
		t.segCum = make([]float64, len(segments)+1)
		for i, seg := range segments {
			t.segCum[i+1] = t.segCum[i] + seg.LengthMeters
		}
	}
	t.buildPath()
	return t
}

// buildPath lays the circuit's closed polyline. Shapes are parametric per
// class; the raw curve is then scaled uniformly so the loop's arc length
// matches TotalMeters.
func (t *Track) buildPath() {
	var pts []pathPoint
	switch t.Class {
	case TrackClassSpeed:
		pts = make([]pathPoint, 0, 100)
		for i := 0; i < 100; i++ {
			a := float64(i) / 100 * 2 * math.Pi
			pts = append(pts, pathPoint{
				X: pathSpanX * 0.9 * math.Cos(a),
				Y: pathSpanY * 0.7 * math.Sin(a),
			})
		}
	case TrackClassTechnical:
		pts = make([]pathPoint, 0, 100)
		for i := 0; i < 100; i++ {
			a := float64(i) / 100 * 2 * math.Pi
			pts = append(pts, pathPoint{
				X: pathSpanX * 0.75 * math.Sin(a),
				Y: pathSpanY * 0.6 * math.Sin(2*a),
			})
		}
	case TrackClassEndurance:
		pts = make([]pathPoint, 0, 150)
		for i := 0; i < 150; i++ {
			a := float64(i) / 150 * 2 * math.Pi
			pts = append(pts, pathPoint{
				X: pathSpanX * (0.8*math.Cos(a) + 0.2*math.Cos(3*a)),
				Y: pathSpanY * (0.8*math.Sin(a) + 0.2*math.Sin(5*a)),
			})
		}
	default:
		pts = make([]pathPoint, 0, 120)
		for i := 0; i < 120; i++ {
			a := float64(i) / 120 * 2 * math.Pi
			pts = append(pts, pathPoint{
				X: pathSpanX * (0.85*math.Cos(a) + 0.15*math.Sin(7*a)),
				Y: pathSpanY * (0.85*math.Sin(a) + 0.15*math.Cos(5*a)),
			})
		}
	}

	raw := 0.0
	for i := range pts {
		next := pts[(i+1)%len(pts)]
		raw += math.Hypot(next.X-pts[i].X, next.Y-pts[i].Y)
	}
	scale := 1.0
	if raw > 0 && t.TotalMeters > 0 {
		scale = t.TotalMeters / raw
	}
	t.points = make([]pathPoint, len(pts))
	t.cum = make([]float64, len(pts)+1)
	for i, p := range pts {
		t.points[i] = pathPoint{X: p.X * scale, Y: p.Y * scale}
	}
	for i := range t.points {
		next := t.points[(i+1)%len(t.points)]
		t.cum[i+1] = t.cum[i] + math.Hypot(next.X-t.points[i].X, next.Y-t.points[i].Y)
	}
}

// locate maps a lap fraction to the polyline edge containing it and the
// fraction along that edge.
func (t *Track) locate(progress float64) (int, float64) {
	p := wrapProgress(progress)
	target := p * t.cum[len(t.cum)-1]
	edge := sort.SearchFloat64s(t.cum, target)
	if edge > 0 {
		edge--
	}
	if edge >= len(t.points) {
		edge = len(t.points) - 1
	}
	span := t.cum[edge+1] - t.cum[edge]
	if span <= 0 {
		return edge, 0
	}
	return edge, (target - t.cum[edge]) / span
}

// PointAt returns the centerline world position for a lap fraction.
func (t *Track) PointAt(progress float64) (float64, float64) {
	edge, frac := t.locate(progress)
	a := t.points[edge]
	b := t.points[(edge+1)%len(t.points)]
	return a.X + (b.X-a.X)*frac, a.Y + (b.Y-a.Y)*frac
}

// HeadingAt returns the direction of travel at a lap fraction, in radians.
func (t *Track) HeadingAt(progress float64) float64 {
	edge, _ := t.locate(progress)
	a := t.points[edge]
	b := t.points[(edge+1)%len(t.points)]
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// PositionAt returns the world position for a lap fraction offset sideways
// from the centerline. Positive offsets push toward the outside lane.
func (t *Track) PositionAt(progress, lateralMeters float64) (float64, float64) {
	x, y := t.PointAt(progress)
	if lateralMeters != 0 {
		h := t.HeadingAt(progress)
		x += lateralMeters * math.Sin(h)
		y -= lateralMeters * math.Cos(h)
	}
	return x, y
}

// SegmentAt returns the circuit segment under a lap fraction.
func (t *Track) SegmentAt(progress float64) TrackSegment {
	if len(t.Segments) == 0 {
		return TrackSegment{LengthMeters: t.TotalMeters, Straight: true}
	}
	p := wrapProgress(progress)
	target := p * t.segCum[len(t.segCum)-1]
	i := sort.SearchFloat64s(t.segCum, target)
	if i > 0 {
		i--
	}
	if i >= len(t.Segments) {
		i = len(t.Segments) - 1
	}
	return t.Segments[i]
}

// SectionAt buckets the circuit under a lap fraction for contact math.
func (t *Track) SectionAt(progress float64) string {
	return t.SegmentAt(progress).Section()
}

// Path returns the scaled polyline for clients.
func (t *Track) Path() []pathPoint {
	return t.points
}

// wrapProgress folds any float into [0, 1).
func wrapProgress(p float64) float64 {
	p -= math.Floor(p)
	if p >= 1 || p < 0 {
		return 0
	}
	return p
}

// forwardProgress returns the lap-fraction distance from a to b moving in
// race direction.
func forwardProgress(from, to float64) float64 {
	d := to - from
	if d < 0 {
		d++
	}
	return d
}

// progressGap returns the shortest wrap-aware separation of two lap
// fractions.
func progressGap(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 0.5 {
		d = 1 - d
	}
	return d
}

var trackCatalog = []*Track{
	newTrack("monaco", "Monaco Street Circuit", TrackClassTechnical, 4.1, []TrackSegment{
		{LengthMeters: 800, Straight: true},
		{LengthMeters: 300, CornerAngle: 90, CornerRadius: 50},
		{LengthMeters: 400, Straight: true},
		{LengthMeters: 200, CornerAngle: 45, CornerRadius: 80},
		{LengthMeters: 600, Straight: true},
		{LengthMeters: 400, CornerAngle: 135, CornerRadius: 40},
		{LengthMeters: 350, Straight: true},
		{LengthMeters: 250, CornerAngle: 90, CornerRadius: 60},
		{LengthMeters: 500, Straight: true},
		{LengthMeters: 300, CornerAngle: 180, CornerRadius: 30},
	}),
	newTrack("silverstone", "Silverstone Grand Prix", TrackClassSpeed, 5.9, []TrackSegment{
		{LengthMeters: 1200, Straight: true},
		{LengthMeters: 400, CornerAngle: 60, CornerRadius: 150},
		{LengthMeters: 800, Straight: true},
		{LengthMeters: 350, CornerAngle: 90, CornerRadius: 100},
		{LengthMeters: 600, Straight: true},
		{LengthMeters: 450, CornerAngle: 120, CornerRadius: 80},
		{LengthMeters: 700, Straight: true},
		{LengthMeters: 300, CornerAngle: 45, CornerRadius: 200},
	}),
	newTrack("nurburgring", "Nürburgring Nordschleife", TrackClassEndurance, 20.8, []TrackSegment{
		{LengthMeters: 2000, Straight: true},
		{LengthMeters: 500, CornerAngle: 90, CornerRadius: 100},
		{LengthMeters: 800, Straight: true},
		{LengthMeters: 600, CornerAngle: 180, CornerRadius: 50},
		{LengthMeters: 1500, Straight: true},
		{LengthMeters: 400, CornerAngle: 45, CornerRadius: 150},
		{LengthMeters: 1000, Straight: true},
		{LengthMeters: 700, CornerAngle: 135, CornerRadius: 70},
		{LengthMeters: 1200, Straight: true},
		{LengthMeters: 800, CornerAngle: 90, CornerRadius: 90},
	}),
	newTrack("suzuka", "Suzuka International", TrackClassMixed, 5.8, []TrackSegment{
		{LengthMeters: 1000, Straight: true},
		{LengthMeters: 400, CornerAngle: 90, CornerRadius: 120},
		{LengthMeters: 500, Straight: true},
		{LengthMeters: 600, CornerAngle: 180, CornerRadius: 60},
		{LengthMeters: 700, Straight: true},
		{LengthMeters: 350, CornerAngle: 45, CornerRadius: 100},
		{LengthMeters: 800, Straight: true},
		{LengthMeters: 500, CornerAngle: 135, CornerRadius: 40},
		{LengthMeters: 600, Straight: true},
		{LengthMeters: 450, CornerAngle: 90, CornerRadius: 80},
	}),
	newTrack("rainbow", "Rainbow Road", TrackClassMixed, 7.4, []TrackSegment{
		{LengthMeters: 1500, Straight: true},
		{LengthMeters: 600, CornerAngle: 270, CornerRadius: 100},
		{LengthMeters: 800, Straight: true},
		{LengthMeters: 400, CornerAngle: 90, CornerRadius: 150},
		{LengthMeters: 1000, Straight: true},
		{LengthMeters: 700, CornerAngle: 180, CornerRadius: 50},
		{LengthMeters: 900, Straight: true},
		{LengthMeters: 500, CornerAngle: 360, CornerRadius: 80},
	}),
}

// Tracks returns the circuit catalog in menu order.
func Tracks() []*Track {
	return trackCatalog
}

func trackByID(id string) (*Track, bool) {
	for _, t := range trackCatalog {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}
