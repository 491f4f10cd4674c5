package chart

import (
	"fmt"
	"log"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/config"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/data"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/scene"
)

// LayoutRenderer composes sub-charts into dual (1x2), triple (1x3) or grid
// (2x2) arrangements. Each panel is an independent renderer in its own
// translated group; a failing panel is logged and skipped while its
// siblings still render.
type LayoutRenderer struct {
	kind          string
	width, height float64
	root          *scene.Group
	panels        []Renderer
}

// NewLayoutRenderer creates a composed layout of the given kind.
func NewLayoutRenderer(kind string, width, height float64) *LayoutRenderer {
	return &LayoutRenderer{
		kind:   kind,
		width:  width,
		height: height,
		root:   &scene.Group{Class: "chart chart-" + kind},
	}
}

func (r *LayoutRenderer) Scene() scene.Node { return r.root }

// cells returns the panel origins and sizes for the layout kind.
func (r *LayoutRenderer) cells(n int) [][4]float64 {
	var out [][4]float64
	switch r.kind {
	case "dual":
		w := r.width / 2
		out = [][4]float64{{0, 0, w, r.height}, {w, 0, w, r.height}}
	case "triple":
		w := r.width / 3
		out = [][4]float64{{0, 0, w, r.height}, {w, 0, w, r.height}, {2 * w, 0, w, r.height}}
	default: // grid
		w, h := r.width/2, r.height/2
		out = [][4]float64{{0, 0, w, h}, {w, 0, w, h}, {0, h, w, h}, {w, h, w, h}}
	}
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// Render builds each panel from spec.Panels against the shared row set.
// Panels may override the data file upstream; here they all receive the
// rows the engine resolved for them.
func (r *LayoutRenderer) Render(rows []data.Row, spec config.ChartSpec) (err error) {
	defer guard(r.kind, &err)

	if len(spec.Panels) == 0 {
		return fmt.Errorf("%s layout has no panels", r.kind)
	}

	for _, p := range r.panels {
		p.Destroy()
	}
	r.panels = r.panels[:0]
	r.root.Children = nil

	cells := r.cells(len(spec.Panels))
	for i, cell := range cells {
		panelSpec := spec.Panels[i]
		sub, err := NewRenderer(panelSpec.Type, cell[2], cell[3])
		if err != nil {
			log.Printf("[!] chart: %s panel %d: %v", r.kind, i, err)
			continue
		}
		if err := sub.Render(rows, panelSpec); err != nil {
			log.Printf("[!] chart: %s panel %d render: %v", r.kind, i, err)
			continue
		}
		r.panels = append(r.panels, sub)
		r.root.Children = append(r.root.Children, &scene.Group{
			Class:     "chart-panel",
			Translate: [2]float64{cell[0], cell[1]},
			Children:  []scene.Node{sub.Scene()},
		})
	}
	return nil
}

func (r *LayoutRenderer) Resize(width, height float64) {
	r.width, r.height = width, height
	// Panels are rebuilt on the next Render; composed layouts are always
	// redrawn per step.
}

func (r *LayoutRenderer) Flush(upTo float64) {
	for _, p := range r.panels {
		p.Flush(upTo)
	}
}

func (r *LayoutRenderer) Animating() bool {
	for _, p := range r.panels {
		if p.Animating() {
			return true
		}
	}
	return false
}

func (r *LayoutRenderer) Destroy() {
	for _, p := range r.panels {
		p.Destroy()
	}
	r.panels = nil
	r.root.Children = nil
}
