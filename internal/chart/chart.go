// Package chart renders tabular data into the scene graph: line, bar and
// pie charts plus the composed grid/dual/triple layouts. Renderers keep
// rendered state between updates so transition mode can diff instead of
// redrawing.
package chart

import (
	"fmt"
	"log"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/config"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/data"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/scene"
)

// Renderer is the small interface every chart type implements. Render owns
// the renderer's scene subtree exclusively; no other code writes to it.
type Renderer interface {
	Render(rows []data.Row, spec config.ChartSpec) error
	Resize(width, height float64)
	Destroy()
	Scene() scene.Node
	// Flush runs the renderer's pending animations up to the given offset
	// in seconds. Frame export feeds it virtual time, the dev server
	// wall-clock time.
	Flush(upTo float64)
	// Animating reports whether any scheduled animation is still pending.
	Animating() bool
}

// NewRenderer creates a renderer for the given chart type or layout.
func NewRenderer(kind string, width, height float64) (Renderer, error) {
	switch kind {
	case "line", "":
		return NewLineRenderer(width, height), nil
	case "bar":
		return NewBarRenderer(width, height), nil
	case "pie":
		return NewPieRenderer(width, height), nil
	case "grid", "dual", "triple":
		return NewLayoutRenderer(kind, width, height), nil
	default:
		return nil, fmt.Errorf("unknown chart type %q", kind)
	}
}

// Margins frame the plot area inside the renderer's canvas.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargins leaves room for axes on the left/bottom and inline labels
// on the right.
var DefaultMargins = Margins{Top: 20, Right: 110, Bottom: 30, Left: 50}

// categorical is the fallback series palette, applied in series order when
// the step config does not assign explicit colors.
var categorical = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

func colorFor(spec config.ChartSpec, name string, idx int) string {
	if c, ok := spec.Colors[name]; ok {
		return c
	}
	return categorical[idx%len(categorical)]
}

// guard wraps a renderer's update entry point: a panic is logged with
// context and the update aborts without touching sibling renderers.
func guard(kind string, err *error) {
	if r := recover(); r != nil {
		log.Printf("[!] chart: %s render panicked: %v", kind, r)
		*err = fmt.Errorf("%s render failed: %v", kind, r)
	}
}

const (
	axisColor = "#999999"
	gridColor = "#e5e5e5"
	textColor = "#555555"
)
