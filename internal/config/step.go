package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Deck is an ordered scrollytelling presentation: metadata plus the step
// sequence. Step order in the file is scroll order.
type Deck struct {
	Version string `yaml:"version"`
	Title   string `yaml:"title"`
	Disease string `yaml:"disease"` // theme override for the whole deck
	Steps   []Step `yaml:"steps"`
}

// Step is one scroll step's declarative spec. It is immutable once loaded;
// renderers receive it on step-enter and must not mutate it.
type Step struct {
	ID    string    `yaml:"id"`
	Text  TextSpec  `yaml:"text"`
	Chart ChartSpec `yaml:"chart"`
	Map   MapSpec   `yaml:"map"`
	Image ImageSpec `yaml:"image"`
}

// TextSpec is the narrative overlay for a step. Content is markdown.
type TextSpec struct {
	Content  string `yaml:"content"`
	Visible  bool   `yaml:"visible"`
	Position string `yaml:"position"` // "left", "center", "right"
}

// ChartSpec declares the chart for a step.
type ChartSpec struct {
	Visible  bool   `yaml:"visible"`
	Type     string `yaml:"type"`   // "line", "bar", "pie"
	Layout   string `yaml:"layout"` // "", "grid", "dual", "triple"
	DataFile string `yaml:"data_file"`

	XField      string `yaml:"x_field"`
	YField      string `yaml:"y_field"`
	SeriesField string `yaml:"series_field"`
	MultiSeries *bool  `yaml:"multi_series"`
	SeriesName  string `yaml:"series_name"`

	YearRange []float64 `yaml:"year_range"` // explicit X domain
	YRange    []float64 `yaml:"y_range"`    // explicit Y domain

	Filter *FilterSpec `yaml:"filter"`

	Colors     map[string]string `yaml:"colors"` // series name → color
	Legend     string            `yaml:"legend"` // "inline", "classic", "none"
	MinSpacing float64           `yaml:"min_spacing"`

	UpdateMode string        `yaml:"update_mode"` // "", "transition"
	Animation  AnimationSpec `yaml:"animation"`

	// Panels holds the sub-chart specs for grid/dual/triple layouts.
	Panels []ChartSpec `yaml:"panels"`
}

// FilterSpec selects rows before series transformation. Exactly one kind
// should be set; unknown kinds are warned about and ignored.
type FilterSpec struct {
	Kind   string    `yaml:"kind"` // "range", "values", "exclude", "series"
	Field  string    `yaml:"field"`
	Min    float64   `yaml:"min"`
	Max    float64   `yaml:"max"`
	Values []string  `yaml:"values"`
	Series []string  `yaml:"series"`
}

// AnimationSpec controls how a chart appears or updates.
type AnimationSpec struct {
	Mode     string  `yaml:"mode"`     // "", "progressive"
	Duration float64 `yaml:"duration"` // seconds
	Easing   string  `yaml:"easing"`
}

// MapSpec declares the map view for a step.
type MapSpec struct {
	Visible            bool      `yaml:"visible"`
	Mode               string    `yaml:"mode"` // "world", "single-city", "timeline"
	Projection         string    `yaml:"projection"`
	Center             []float64 `yaml:"center"` // lon, lat
	Zoom               float64   `yaml:"zoom"`
	HighlightCountries []string  `yaml:"highlight_countries"`
	CitiesFile         string    `yaml:"cities_file"`
	CityID             string    `yaml:"city_id"`
	UseRegionColors    bool      `yaml:"use_region_colors"`
	LightenAll         bool      `yaml:"lighten_all"`
	LightenNonVisited  bool      `yaml:"lighten_non_visited"`
	TargetRegions      []string  `yaml:"target_regions"`
	Transition         AnimationSpec `yaml:"transition"`
}

// ImageSpec declares the step image. A "qr:" prefix on Src renders a QR
// code for the remainder of the string instead of loading a file.
type ImageSpec struct {
	Visible bool    `yaml:"visible"`
	Src     string  `yaml:"src"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
}

// Chart defaults mirrored from the original site's AppDefaults.
const (
	DefaultXField     = "year"
	DefaultYField     = "value"
	DefaultSeriesF    = "series"
	DefaultSeriesName = "Data"
	DefaultMinSpacing = 20.0
	DefaultDuration   = 0.75
	DefaultZoom       = 250.0
)

// ReadDeck reads and normalizes a deck from a YAML file.
func ReadDeck(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var deck Deck
	if err := yaml.Unmarshal(data, &deck); err != nil {
		return nil, fmt.Errorf("parsing deck %s: %w", path, err)
	}

	for i := range deck.Steps {
		step := &deck.Steps[i]
		if step.ID == "" {
			step.ID = fmt.Sprintf("step-%d", i+1)
		}
		normalizeChart(&step.Chart)
		normalizeMap(&step.Map)
	}

	return &deck, nil
}

// WriteDeck writes a deck to a YAML file.
func WriteDeck(deck *Deck, path string) error {
	data, err := yaml.Marshal(deck)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func normalizeChart(c *ChartSpec) {
	if c.XField == "" {
		c.XField = DefaultXField
	}
	if c.YField == "" {
		c.YField = DefaultYField
	}
	if c.SeriesField == "" {
		c.SeriesField = DefaultSeriesF
	}
	if c.SeriesName == "" {
		c.SeriesName = DefaultSeriesName
	}
	if c.MultiSeries == nil {
		v := true
		c.MultiSeries = &v
	}
	if c.MinSpacing == 0 {
		c.MinSpacing = DefaultMinSpacing
	}
	if c.Animation.Duration == 0 {
		c.Animation.Duration = DefaultDuration
	}
	if c.Legend == "" {
		c.Legend = "inline"
	}
	for i := range c.Panels {
		normalizeChart(&c.Panels[i])
	}
}

func normalizeMap(m *MapSpec) {
	if m.Mode == "" {
		m.Mode = "world"
	}
	if m.Projection == "" {
		m.Projection = "equirectangular"
	}
	if m.Zoom == 0 {
		m.Zoom = DefaultZoom
	}
	if len(m.Center) != 2 {
		m.Center = []float64{0, 20}
	}
	if m.Transition.Duration == 0 {
		m.Transition.Duration = DefaultDuration
	}
}

// Validate checks a deck for the errors that would otherwise surface as
// skipped updates at render time.
func (d *Deck) Validate() error {
	if len(d.Steps) == 0 {
		return fmt.Errorf("deck has no steps")
	}
	seen := make(map[string]bool, len(d.Steps))
	for _, s := range d.Steps {
		if seen[s.ID] {
			return fmt.Errorf("duplicate step id %q", s.ID)
		}
		seen[s.ID] = true
		if s.Chart.Visible && s.Chart.Type == "" && s.Chart.Layout == "" {
			return fmt.Errorf("step %q: visible chart needs a type or layout", s.ID)
		}
		if s.Map.Visible && s.Map.Mode == "single-city" && s.Map.CityID == "" {
			return fmt.Errorf("step %q: single-city map needs city_id", s.ID)
		}
	}
	return nil
}
