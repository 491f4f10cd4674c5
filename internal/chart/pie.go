package chart

import (
	"fmt"
	"math"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/anim"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/config"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/data"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/scene"
)

// PieRenderer draws one pie from the per-series value totals.
type PieRenderer struct {
	width, height float64
	sched         *anim.Scheduler
	root          *scene.Group

	lastRows []data.Row
	lastSpec config.ChartSpec
	rendered bool
}

// NewPieRenderer creates an empty pie renderer.
func NewPieRenderer(width, height float64) *PieRenderer {
	return &PieRenderer{
		width:  width,
		height: height,
		sched:  anim.NewScheduler(),
		root:   &scene.Group{Class: "chart chart-pie"},
	}
}

func (r *PieRenderer) Scene() scene.Node { return r.root }

// Flush advances pending fade animations up to the given offset.
func (r *PieRenderer) Flush(upTo float64) { r.sched.Flush(upTo) }

func (r *PieRenderer) Animating() bool { return r.sched.Pending() > 0 }

func (r *PieRenderer) Resize(width, height float64) {
	r.width, r.height = width, height
	if r.rendered {
		_ = r.Render(r.lastRows, r.lastSpec)
	}
}

func (r *PieRenderer) Destroy() {
	r.sched.CancelAll()
	r.root.Children = nil
	r.rendered = false
}

// Render rebuilds the pie. Non-positive totals are invalid pie data: the
// error is returned (and logged by the caller), the subtree is left
// untouched and siblings are unaffected.
func (r *PieRenderer) Render(rows []data.Row, spec config.ChartSpec) (err error) {
	defer guard("pie", &err)

	r.sched.CancelAll()
	r.lastRows, r.lastSpec = rows, spec

	series := BuildSeries(FilterRows(rows, spec), spec)

	type slice struct {
		name  string
		value float64
	}
	var slices []slice
	total := 0.0
	for _, s := range series {
		sum := 0.0
		for _, p := range s.Values {
			sum += p.Y
		}
		if sum < 0 {
			return fmt.Errorf("pie: series %q sums to negative value %g", s.Name, sum)
		}
		slices = append(slices, slice{name: s.Name, value: sum})
		total += sum
	}
	if total <= 0 {
		return fmt.Errorf("pie: no positive values to draw")
	}

	cx := r.width / 2
	cy := r.height / 2
	radius := math.Min(r.width, r.height)/2 - 30

	r.root.Children = nil

	angle := -math.Pi / 2 // start at 12 o'clock
	for i, sl := range slices {
		if sl.value == 0 {
			continue
		}
		sweep := sl.value / total * 2 * math.Pi
		ring := arcRing(cx, cy, radius, angle, angle+sweep)
		r.root.Children = append(r.root.Children, &scene.Path{
			Class:  "pie-slice",
			Rings:  [][][2]float64{ring},
			Fill:   colorFor(spec, sl.name, i),
			Stroke: "#ffffff",
			StrokeWidth: 1,
			Closed: true,
		})

		mid := angle + sweep/2
		lx := cx + math.Cos(mid)*(radius+14)
		ly := cy + math.Sin(mid)*(radius+14)
		anchor := "start"
		if math.Cos(mid) < 0 {
			anchor = "end"
		}
		r.root.Children = append(r.root.Children, &scene.Text{
			Class:   "pie-label",
			X:       lx,
			Y:       ly + 4,
			Content: fmt.Sprintf("%s (%.0f%%)", sl.name, sl.value/total*100),
			Fill:    textColor,
			FontSize: 11,
			Anchor:  anchor,
		})

		angle += sweep
	}

	r.rendered = true
	return nil
}

// arcRing approximates a pie slice as a closed polygon: center, arc
// samples, back to center.
func arcRing(cx, cy, radius, from, to float64) [][2]float64 {
	steps := maxi(2, int((to-from)/(2*math.Pi)*72))
	ring := make([][2]float64, 0, steps+2)
	ring = append(ring, [2]float64{cx, cy})
	for i := 0; i <= steps; i++ {
		a := from + (to-from)*float64(i)/float64(steps)
		ring = append(ring, [2]float64{cx + math.Cos(a)*radius, cy + math.Sin(a)*radius})
	}
	return ring
}
