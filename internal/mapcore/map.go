// Package mapcore renders the world map: country polygons, city markers,
// animated view transitions and the scroll-driven city timeline reveal.
package mapcore

import (
	"fmt"
	"log"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/anim"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/config"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/data"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/geo"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/scene"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/theme"
)

// State names for the map instance's lifecycle.
const (
	StateIdle          = "idle"
	StateRendered      = "rendered"
	StateTransitioning = "transitioning"
	StateTimeline      = "timeline"
	StateSingleCity    = "single-city"
)

// markerEnterDuration is the scale+fade-in time for a revealed city.
const markerEnterDuration = 0.4

// WorldMap owns one projection, its country layer and its marker layer.
// The projection is mutated only by the active transition tween; only one
// tween runs at a time and starting a new one supersedes the old.
type WorldMap struct {
	width, height float64
	th            theme.Resolver
	disease       string

	world   *geo.FeatureCollection
	regions *data.RegionMap

	sched     *anim.Scheduler
	root      *scene.Group
	countries *scene.Group
	markerGrp *scene.Group

	state string
	proj  geo.Projection
	tween *anim.Tween

	spec    config.MapSpec
	cities  []data.City
	visited string // visited country in single-city mode

	markers     map[string]*cityMarker
	markerOrder []string
}

type cityMarker struct {
	city    data.City
	circle  *scene.Circle
	exiting bool
}

// New creates an idle map for the given canvas.
func New(width, height float64, th theme.Resolver, disease string) *WorldMap {
	countries := &scene.Group{Class: "map-countries"}
	markers := &scene.Group{Class: "map-markers"}
	return &WorldMap{
		width:     width,
		height:    height,
		th:        th,
		disease:   disease,
		sched:     anim.NewScheduler(),
		root:      &scene.Group{Class: "map", Children: []scene.Node{countries, markers}},
		countries: countries,
		markerGrp: markers,
		state:     StateIdle,
		markers:   make(map[string]*cityMarker),
	}
}

// SetData installs the shared datasets. Missing world data is tolerated:
// Render then logs and draws nothing.
func (m *WorldMap) SetData(world *geo.FeatureCollection, regions *data.RegionMap) {
	m.world = world
	m.regions = regions
}

// Scene returns the map's scene subtree.
func (m *WorldMap) Scene() scene.Node { return m.root }

// State returns the current lifecycle state.
func (m *WorldMap) State() string { return m.state }

// Scheduler exposes the marker animation scheduler.
func (m *WorldMap) Scheduler() *anim.Scheduler { return m.sched }

// Render applies a step's map spec. The first render draws immediately;
// later renders start a view transition towards the new center/zoom.
func (m *WorldMap) Render(spec config.MapSpec, cities []data.City) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[!] map: render panicked: %v", r)
			err = fmt.Errorf("map render failed: %v", r)
		}
	}()

	if m.world == nil || len(m.world.Features) == 0 {
		log.Printf("[!] map: no world data, rendering nothing")
		return nil
	}

	if len(spec.Center) != 2 {
		spec.Center = []float64{0, 20}
	}
	m.spec = spec
	m.cities = cities
	m.visited = ""

	target := geo.ProjectionState{
		Type:      spec.Projection,
		Center:    [2]float64{spec.Center[0], spec.Center[1]},
		Scale:     spec.Zoom,
		Translate: [2]float64{m.width / 2, m.height / 2},
	}

	if spec.Mode == "single-city" {
		city, ok := findCity(cities, spec.CityID)
		if !ok {
			return fmt.Errorf("map: unknown city id %q", spec.CityID)
		}
		target.Center = [2]float64{city.Longitude, city.Latitude}
		m.visited = city.Country
	}

	// Timeline steps re-entered mid-scroll keep their marker set; other
	// modes reset it.
	if spec.Mode != "timeline" {
		m.clearMarkers()
	}

	switch m.state {
	case StateIdle:
		m.proj = geo.NewProjection(target)
		m.redraw()
		m.state = m.restingState()
	default:
		m.startTransition(target)
	}
	return nil
}

// restingState is the state entered once no tween is in flight.
func (m *WorldMap) restingState() string {
	switch m.spec.Mode {
	case "timeline":
		return StateTimeline
	case "single-city":
		return StateSingleCity
	default:
		return StateRendered
	}
}

// startTransition builds the center/scale interpolators towards target,
// superseding any tween already in flight.
func (m *WorldMap) startTransition(target geo.ProjectionState) {
	cur := m.proj.State()
	m.tween = &anim.Tween{
		From:     []float64{cur.Center[0], cur.Center[1], cur.Scale},
		To:       []float64{target.Center[0], target.Center[1], target.Scale},
		Duration: m.spec.Transition.Duration,
		Ease:     anim.EasingByName(m.spec.Transition.Easing),
	}
	// Projection type and translate snap; only center and scale animate.
	m.proj = geo.NewProjection(geo.ProjectionState{
		Type:      target.Type,
		Center:    cur.Center,
		Scale:     cur.Scale,
		Translate: target.Translate,
	})
	m.state = StateTransitioning
	m.Tick(0)
}

// Tick advances the active transition to time t (seconds since the tween
// started), recomputing the projection and redrawing countries and
// markers. Without an active tween it just redraws.
func (m *WorldMap) Tick(t float64) {
	if m.tween != nil {
		vals := m.tween.At(t)
		st := m.proj.State()
		st.Center = [2]float64{vals[0], vals[1]}
		st.Scale = vals[2]
		m.proj = geo.NewProjection(st)
		if m.tween.Done(t) {
			m.tween = nil
			m.state = m.restingState()
		}
	}
	m.redraw()
}

// Transitioning reports whether a view tween is in flight.
func (m *WorldMap) Transitioning() bool { return m.tween != nil }

// Progress drives the timeline reveal from scroll progress in [0,1].
// Already-visible cities keep their marker nodes (object constancy);
// entering cities animate in, leaving cities animate out.
func (m *WorldMap) Progress(p float64, direction string) {
	if m.spec.Mode != "timeline" {
		return
	}

	visible := VisibleCities(m.cities, p, direction)
	want := make(map[string]data.City, len(visible))
	var order []string
	for _, c := range visible {
		want[c.ID] = c
		order = append(order, c.ID)
	}

	// Exits first: markers no longer wanted fade out and are dropped. The
	// exiting flag protects a marker that is re-revealed (direction flip)
	// before its removal fires.
	for id, mk := range m.markers {
		if _, ok := want[id]; ok {
			continue
		}
		if mk.exiting {
			continue
		}
		mk := mk
		mk.exiting = true
		mk.circle.Opacity = 0.4
		m.sched.After(markerEnterDuration, func() {
			if !mk.exiting {
				return
			}
			delete(m.markers, mk.city.ID)
			m.rebuildMarkerGroup()
		})
	}

	// Entries: new markers start small and transparent, then pop in.
	for _, c := range visible {
		if mk, ok := m.markers[c.ID]; ok {
			if mk.exiting {
				mk.exiting = false
				mk.circle.Opacity = 1
			}
			continue // already visible, do not restart its animation
		}
		size := c.Style.Size
		if size == 0 {
			size = 5
		}
		color := c.Style.Color
		if color == "" {
			color = m.th.Color(m.disease, "primary")
		}
		pt := geo.ProjectOrZero(m.proj, c.Longitude, c.Latitude)
		circle := &scene.Circle{
			ID:      "city-" + c.ID,
			Class:   "city-marker",
			CX:      pt.X,
			CY:      pt.Y,
			R:       size / 2,
			Fill:    color,
			Opacity: scene.Transparent,
		}
		mk := &cityMarker{city: c, circle: circle}
		m.markers[c.ID] = mk
		m.sched.After(markerEnterDuration, func() {
			mk.circle.R = size
			mk.circle.Opacity = 1
		})
	}

	m.markerOrder = order
	m.rebuildMarkerGroup()
}

// Resize updates the canvas and re-centers the projection translate.
func (m *WorldMap) Resize(width, height float64) {
	m.width, m.height = width, height
	if m.proj == nil {
		return
	}
	st := m.proj.State()
	st.Translate = [2]float64{width / 2, height / 2}
	m.proj = geo.NewProjection(st)
	m.redraw()
}

// Destroy cancels animations and clears the subtree.
func (m *WorldMap) Destroy() {
	m.sched.CancelAll()
	m.clearMarkers()
	m.countries.Children = nil
	m.state = StateIdle
	m.tween = nil
	m.proj = nil
}

func (m *WorldMap) clearMarkers() {
	m.sched.CancelAll()
	m.markers = make(map[string]*cityMarker)
	m.markerOrder = nil
	m.markerGrp.Children = nil
}

// redraw re-runs the path generator over all country features and
// re-projects every marker. Runs on each tween tick.
func (m *WorldMap) redraw() {
	if m.proj == nil || m.world == nil {
		return
	}

	m.countries.Children = m.countries.Children[:0]
	for _, f := range m.world.Features {
		rings, err := f.Geometry.Rings()
		if err != nil {
			log.Printf("[!] map: feature %q: %v", f.Name(), err)
			continue
		}
		if len(rings) == 0 {
			continue
		}
		projected := make([][][2]float64, 0, len(rings))
		for _, ring := range rings {
			pr := make([][2]float64, len(ring))
			for i, lonlat := range ring {
				pt := geo.ProjectOrZero(m.proj, lonlat[0], lonlat[1])
				pr[i] = [2]float64{pt.X, pt.Y}
			}
			projected = append(projected, pr)
		}
		m.countries.Children = append(m.countries.Children, &scene.Path{
			Class:       "country",
			Rings:       projected,
			Fill:        CountryFill(f.Name(), m.spec, m.regions, m.th, m.disease, m.visited),
			Stroke:      "#ffffff",
			StrokeWidth: 0.5,
			Closed:      true,
		})
	}

	for _, mk := range m.markers {
		pt := geo.ProjectOrZero(m.proj, mk.city.Longitude, mk.city.Latitude)
		mk.circle.CX = pt.X
		mk.circle.CY = pt.Y
	}
	m.rebuildMarkerGroup()
}

// rebuildMarkerGroup reorders the marker layer without recreating nodes,
// preserving in-flight marker animations.
func (m *WorldMap) rebuildMarkerGroup() {
	m.markerGrp.Children = m.markerGrp.Children[:0]
	for _, id := range m.markerOrder {
		if mk, ok := m.markers[id]; ok {
			m.markerGrp.Children = append(m.markerGrp.Children, mk.circle)
		}
	}
	// Markers mid-fade-out are no longer in markerOrder but still exist.
	for id, mk := range m.markers {
		if !containsString(m.markerOrder, id) {
			m.markerGrp.Children = append(m.markerGrp.Children, mk.circle)
		}
	}
}

func findCity(cities []data.City, id string) (data.City, bool) {
	for _, c := range cities {
		if c.ID == id {
			return c, true
		}
	}
	return data.City{}, false
}
