package geo

import "math"

// Point is a screen coordinate in pixels.
type Point struct {
	X float64
	Y float64
}

// ProjectionState describes a projection's full configuration. The map
// renderer owns exactly one live state at a time and mutates it only
// through the transition tween.
type ProjectionState struct {
	Type      string     // "equirectangular" or "mercator"
	Center    [2]float64 // lon, lat
	Scale     float64    // pixels per radian, D3 convention
	Translate [2]float64 // screen offset of the projected center
}

// Projection converts lon/lat to screen coordinates and back.
// Invert reports ok=false at singularities (e.g. Mercator poles).
type Projection interface {
	Project(lon, lat float64) (Point, bool)
	Invert(x, y float64) (lon, lat float64, ok bool)
	State() ProjectionState
}

// NewProjection builds a projection from a state. Unknown types fall back
// to equirectangular.
func NewProjection(st ProjectionState) Projection {
	switch st.Type {
	case "mercator":
		return &mercator{st: st}
	default:
		st.Type = "equirectangular"
		return &equirectangular{st: st}
	}
}

const deg2rad = math.Pi / 180

type equirectangular struct {
	st ProjectionState
}

func (p *equirectangular) Project(lon, lat float64) (Point, bool) {
	dx := (lon - p.st.Center[0]) * deg2rad
	dy := (lat - p.st.Center[1]) * deg2rad
	// Screen Y grows downward while latitude grows upward.
	return Point{
		X: p.st.Translate[0] + p.st.Scale*dx,
		Y: p.st.Translate[1] - p.st.Scale*dy,
	}, true
}

func (p *equirectangular) Invert(x, y float64) (float64, float64, bool) {
	lon := p.st.Center[0] + (x-p.st.Translate[0])/p.st.Scale/deg2rad
	lat := p.st.Center[1] - (y-p.st.Translate[1])/p.st.Scale/deg2rad
	if lat < -90 || lat > 90 {
		return 0, 0, false
	}
	return lon, lat, true
}

func (p *equirectangular) State() ProjectionState { return p.st }

type mercator struct {
	st ProjectionState
}

// mercatorMaxLat clips latitudes approaching the poles, where the Mercator
// ordinate diverges.
const mercatorMaxLat = 85.05113

func (p *mercator) Project(lon, lat float64) (Point, bool) {
	if lat > mercatorMaxLat || lat < -mercatorMaxLat {
		return Point{}, false
	}
	dx := (lon - p.st.Center[0]) * deg2rad
	y := math.Log(math.Tan(math.Pi/4 + lat*deg2rad/2))
	cy := math.Log(math.Tan(math.Pi/4 + p.st.Center[1]*deg2rad/2))
	return Point{
		X: p.st.Translate[0] + p.st.Scale*dx,
		Y: p.st.Translate[1] - p.st.Scale*(y-cy),
	}, true
}

func (p *mercator) Invert(x, y float64) (float64, float64, bool) {
	lon := p.st.Center[0] + (x-p.st.Translate[0])/p.st.Scale/deg2rad
	cy := math.Log(math.Tan(math.Pi/4 + p.st.Center[1]*deg2rad/2))
	my := cy - (y-p.st.Translate[1])/p.st.Scale
	lat := (2*math.Atan(math.Exp(my)) - math.Pi/2) / deg2rad
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return 0, 0, false
	}
	return lon, lat, true
}

func (p *mercator) State() ProjectionState { return p.st }

// ProjectOrZero projects a coordinate and falls back to (0,0) when the
// projection cannot produce a point, mirroring the marker fallback of the
// original renderer rather than failing the whole frame.
func ProjectOrZero(p Projection, lon, lat float64) Point {
	pt, ok := p.Project(lon, lat)
	if !ok {
		return Point{}
	}
	return pt
}
