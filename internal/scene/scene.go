// Package scene defines the retained render tree shared by all renderers.
// Layout and collision code builds typed shape descriptors; the svg package
// turns a scene into markup in a separate pass, so the algorithms never
// touch a drawing API directly.
package scene

// Node is any drawable element.
type Node interface {
	node()
}

// Group nests nodes under a shared transform and opacity.
type Group struct {
	ID        string
	Class     string
	Translate [2]float64
	Scale     float64 // 0 means 1
	Opacity   float64 // 0 means 1; use Transparent for fully hidden
	Children  []Node
}

// Transparent marks a group or shape as fully hidden. Opacity fields treat
// zero as "unset", so exiting elements use this sentinel instead.
const Transparent = -1

// Path is a filled and/or stroked polyline path ("M x y L ..." when
// serialized). Rings beyond the first are holes or disjoint parts.
type Path struct {
	Class       string
	Rings       [][][2]float64
	Fill        string
	Stroke      string
	StrokeWidth float64
	Opacity     float64
	// Dash controls stroke-dasharray/dashoffset; used by the progressive
	// line-draw mode.
	DashArray  float64
	DashOffset float64
	Closed     bool
}

// Circle is a marker dot.
type Circle struct {
	ID      string
	Class   string
	CX, CY  float64
	R       float64
	Fill    string
	Stroke  string
	Opacity float64
}

// Line is a straight segment, optionally dashed (label leader lines).
type Line struct {
	Class          string
	X1, Y1, X2, Y2 float64
	Stroke         string
	StrokeWidth    float64
	Dashed         bool
	Opacity        float64
}

// Text is a single-line text element.
type Text struct {
	Class      string
	X, Y       float64
	Content    string
	Fill       string
	FontSize   float64
	FontWeight string
	Anchor     string // "start", "middle", "end"
	Opacity    float64
}

// Rect is an axis-aligned rectangle (bars, backgrounds).
type Rect struct {
	Class         string
	X, Y          float64
	Width, Height float64
	Fill          string
	Stroke        string
	Opacity       float64
}

// Image embeds a raster image by href (file path or data URI).
type Image struct {
	Class         string
	X, Y          float64
	Width, Height float64
	Href          string
	Opacity       float64
}

func (*Group) node()  {}
func (*Rect) node()   {}
func (*Path) node()   {}
func (*Circle) node() {}
func (*Line) node()   {}
func (*Text) node()   {}
func (*Image) node()  {}

// Scene is a complete frame: a fixed canvas plus a root node list.
type Scene struct {
	Width      float64
	Height     float64
	Background string
	Nodes      []Node
}

// Add appends nodes to the root.
func (s *Scene) Add(nodes ...Node) {
	s.Nodes = append(s.Nodes, nodes...)
}

// EffectiveOpacity resolves the zero-means-unset convention.
func EffectiveOpacity(v float64) float64 {
	switch {
	case v == 0:
		return 1
	case v == Transparent:
		return 0
	default:
		return v
	}
}
