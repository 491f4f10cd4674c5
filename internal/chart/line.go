package chart

import (
	"fmt"
	"math"
	"sort"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/anim"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/config"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/data"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/label"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/scene"
)

// LineRenderer draws multi-series lines with end-of-line labels. It keeps
// the rendered value set between updates so transition mode can diff
// against it instead of redrawing, and it owns a scheduler so a new render
// cancels every staggered sub-animation of the previous one.
type LineRenderer struct {
	width, height float64
	margins       Margins
	sched         *anim.Scheduler
	root          *scene.Group

	// curr is the rendered value set: series name → x-key → point. The
	// line path and the point circles are always rebuilt from this one
	// map, which is what keeps them consistent.
	curr     map[string]map[string]Point
	order    []string
	rendered bool

	lastRows []data.Row
	lastSpec config.ChartSpec

	// live nodes mutated by progressive-mode tasks
	paths  map[string]*scene.Path
	points map[string]*scene.Circle
}

// NewLineRenderer creates an empty line renderer for the given canvas.
func NewLineRenderer(width, height float64) *LineRenderer {
	return &LineRenderer{
		width:   width,
		height:  height,
		margins: DefaultMargins,
		sched:   anim.NewScheduler(),
		root:    &scene.Group{Class: "chart chart-line"},
	}
}

// Scene returns the renderer's scene subtree.
func (r *LineRenderer) Scene() scene.Node { return r.root }

// Flush advances pending staggered animations up to the given offset.
func (r *LineRenderer) Flush(upTo float64) { r.sched.Flush(upTo) }

func (r *LineRenderer) Animating() bool { return r.sched.Pending() > 0 }

// Resize re-renders the last data at a new canvas size.
func (r *LineRenderer) Resize(width, height float64) {
	r.width, r.height = width, height
	if r.rendered {
		spec := r.lastSpec
		spec.UpdateMode = "" // full redraw at the new size
		if err := r.Render(r.lastRows, spec); err != nil {
			return
		}
	}
}

// Destroy cancels pending animations and clears the subtree.
func (r *LineRenderer) Destroy() {
	r.sched.CancelAll()
	r.root.Children = nil
	r.curr = nil
	r.rendered = false
}

// Render updates the chart from rows according to spec. With
// update_mode "transition" and a previous render present, the value-set
// diff is applied as staggered point additions/removals; otherwise the
// subtree is rebuilt, optionally with the progressive draw-on animation.
func (r *LineRenderer) Render(rows []data.Row, spec config.ChartSpec) (err error) {
	defer guard("line", &err)

	r.sched.CancelAll()
	r.lastRows, r.lastSpec = rows, spec

	series := BuildSeries(FilterRows(rows, spec), spec)

	if spec.UpdateMode == "transition" && r.rendered {
		r.transitionTo(series, spec)
		return nil
	}

	r.setCurrent(series)
	r.rebuild(spec)
	if spec.Animation.Mode == "progressive" {
		r.scheduleProgressive(spec)
	}
	r.rendered = true
	return nil
}

func (r *LineRenderer) setCurrent(series []Series) {
	r.curr = make(map[string]map[string]Point, len(series))
	r.order = r.order[:0]
	for _, s := range series {
		m := make(map[string]Point, len(s.Values))
		for _, p := range s.Values {
			m[p.Key] = p
		}
		r.curr[s.Name] = m
		r.order = append(r.order, s.Name)
	}
}

type diffOp struct {
	series string
	key    string
	add    bool
	pt     Point
}

// transitionTo diffs the target value set against the rendered one and
// staggers the per-point changes across the configured duration, so the
// line grows or shrinks instead of snapping.
func (r *LineRenderer) transitionTo(series []Series, spec config.ChartSpec) {
	target := make(map[string]map[string]Point, len(series))
	var targetOrder []string
	for _, s := range series {
		m := make(map[string]Point, len(s.Values))
		for _, p := range s.Values {
			m[p.Key] = p
		}
		target[s.Name] = m
		targetOrder = append(targetOrder, s.Name)
	}

	var ops []diffOp
	// Removals: keys the target no longer has, right-to-left.
	for _, name := range r.order {
		tm := target[name]
		var gone []Point
		for key, pt := range r.curr[name] {
			if tm == nil {
				gone = append(gone, pt)
			} else if _, ok := tm[key]; !ok {
				gone = append(gone, pt)
			}
		}
		sort.Slice(gone, func(i, j int) bool { return gone[i].X > gone[j].X })
		for _, pt := range gone {
			ops = append(ops, diffOp{series: name, key: pt.Key, add: false, pt: pt})
		}
	}
	// Additions: keys the target introduces, left-to-right.
	for _, name := range targetOrder {
		cm := r.curr[name]
		var fresh []Point
		for key, pt := range target[name] {
			if cm == nil {
				fresh = append(fresh, pt)
			} else if _, ok := cm[key]; !ok {
				fresh = append(fresh, pt)
			}
		}
		sort.Slice(fresh, func(i, j int) bool { return fresh[i].X < fresh[j].X })
		for _, pt := range fresh {
			ops = append(ops, diffOp{series: name, key: pt.Key, add: true, pt: pt})
		}
	}

	// Retained keys adopt their new Y values up front; only membership
	// changes are staggered.
	for name, tm := range target {
		cm := r.curr[name]
		if cm == nil {
			r.curr[name] = make(map[string]Point)
			r.order = append(r.order, name)
			continue
		}
		for key, pt := range tm {
			if _, ok := cm[key]; ok {
				cm[key] = pt
			}
		}
	}

	if len(ops) == 0 {
		r.setCurrent(series)
		r.rebuild(spec)
		return
	}

	dur := spec.Animation.Duration
	for i, op := range ops {
		op := op
		at := dur * float64(i+1) / float64(len(ops))
		r.sched.After(at, func() {
			if op.add {
				r.curr[op.series][op.key] = op.pt
			} else {
				delete(r.curr[op.series], op.key)
			}
			r.rebuild(spec)
		})
	}
	// Settle on the exact target (drops emptied series, fixes order).
	r.sched.After(dur, func() {
		r.setCurrent(series)
		r.rebuild(spec)
	})
}

// currentSeries materializes the rendered value set in series order, each
// sorted by X.
func (r *LineRenderer) currentSeries() []Series {
	var out []Series
	for _, name := range r.order {
		m := r.curr[name]
		if len(m) == 0 {
			continue
		}
		vals := make([]Point, 0, len(m))
		for _, p := range m {
			vals = append(vals, p)
		}
		sort.Slice(vals, func(i, j int) bool { return vals[i].X < vals[j].X })
		out = append(out, Series{Name: name, Values: vals})
	}
	return out
}

// rebuild reconstructs the whole subtree from the rendered value set. The
// line path and the point circles for a series always come from the same
// slice, so they cannot drift apart.
func (r *LineRenderer) rebuild(spec config.ChartSpec) {
	series := r.currentSeries()

	plotW := r.width - r.margins.Left - r.margins.Right
	plotH := r.height - r.margins.Top - r.margins.Bottom

	xs := XScale(series, spec, r.margins.Left, r.margins.Left+plotW)
	ys := YScale(series, spec, r.margins.Top+plotH, r.margins.Top)

	r.root.Children = nil
	r.paths = make(map[string]*scene.Path, len(series))
	r.points = make(map[string]*scene.Circle)

	r.drawAxes(xs, ys, series, plotW)

	inline := spec.Legend == "inline" && !label.UseLegendFallback(plotW)

	var labels []label.Label
	for i, s := range series {
		color := colorFor(spec, s.Name, i)

		ring := make([][2]float64, len(s.Values))
		for j, p := range s.Values {
			ring[j] = [2]float64{xs.Map(p.X), ys.Map(p.Y)}
		}
		path := &scene.Path{
			Class:       "series-line",
			Rings:       [][][2]float64{ring},
			Stroke:      color,
			StrokeWidth: 2,
		}
		r.paths[s.Name] = path
		r.root.Children = append(r.root.Children, path)

		for _, p := range s.Values {
			c := &scene.Circle{
				ID:    fmt.Sprintf("pt-%s-%s", s.Name, p.Key),
				Class: "series-point",
				CX:    xs.Map(p.X),
				CY:    ys.Map(p.Y),
				R:     3,
				Fill:  color,
			}
			r.points[c.ID] = c
			r.root.Children = append(r.root.Children, c)
		}

		if inline && len(s.Values) > 0 {
			last := s.Values[len(s.Values)-1]
			labels = append(labels, label.Label{
				Text:    s.Name,
				Color:   color,
				Width:   label.TextWidth(s.Name, 12),
				AnchorX: xs.Map(last.X),
				AnchorY: ys.Map(last.Y),
			})
		}
	}

	switch {
	case inline:
		r.drawInlineLabels(labels, plotW, plotH)
	case spec.Legend != "none":
		r.drawLegend(series, spec)
	}
}

func (r *LineRenderer) drawAxes(xs, ys Scale, series []Series, plotW float64) {
	bottom := ys.RangeMin
	yearAxis := plausibleYear(series)

	r.root.Children = append(r.root.Children, &scene.Line{
		Class: "axis", X1: xs.RangeMin, Y1: bottom, X2: xs.RangeMax, Y2: bottom, Stroke: axisColor,
	})
	for _, t := range xs.Ticks(6) {
		x := xs.Map(t)
		lbl := fmt.Sprintf("%g", t)
		if yearAxis {
			lbl = fmt.Sprintf("%d", int(t))
		}
		r.root.Children = append(r.root.Children,
			&scene.Line{Class: "tick", X1: x, Y1: bottom, X2: x, Y2: bottom + 4, Stroke: axisColor},
			&scene.Text{Class: "tick-label", X: x, Y: bottom + 16, Content: lbl, Fill: textColor, FontSize: 10, Anchor: "middle"},
		)
	}

	for _, t := range ys.Ticks(5) {
		y := ys.Map(t)
		r.root.Children = append(r.root.Children,
			&scene.Line{Class: "grid", X1: xs.RangeMin, Y1: y, X2: xs.RangeMax, Y2: y, Stroke: gridColor},
			&scene.Text{Class: "tick-label", X: xs.RangeMin - 6, Y: y + 3, Content: fmt.Sprintf("%g", t), Fill: textColor, FontSize: 10, Anchor: "end"},
		)
	}
}

func (r *LineRenderer) drawInlineLabels(labels []label.Label, plotW, plotH float64) {
	placed := label.Place(labels, r.margins.Left+plotW, r.height, r.lastSpec.MinSpacing)
	for _, l := range placed {
		if l.Leader {
			r.root.Children = append(r.root.Children, &scene.Line{
				Class: "label-leader",
				X1:    l.AnchorX, Y1: l.AnchorY,
				X2: l.X - 4, Y2: l.Y,
				Stroke: l.Color, Dashed: true,
			})
		}
		r.root.Children = append(r.root.Children, &scene.Text{
			Class: "series-label",
			X:     l.X, Y: l.Y + 4,
			Content: l.Text, Fill: l.Color, FontSize: 12,
		})
	}
}

func (r *LineRenderer) drawLegend(series []Series, spec config.ChartSpec) {
	y := r.height - 8
	x := r.margins.Left
	for i, s := range series {
		color := colorFor(spec, s.Name, i)
		r.root.Children = append(r.root.Children,
			&scene.Rect{Class: "legend-swatch", X: x, Y: y - 9, Width: 10, Height: 10, Fill: color},
			&scene.Text{Class: "legend-label", X: x + 14, Y: y, Content: s.Name, Fill: textColor, FontSize: 11},
		)
		x += 14 + label.TextWidth(s.Name, 11) + 16
	}
}

// scheduleProgressive hides each line behind the dash trick (dash length =
// path length, offset = path length) and reveals points left to right at
// offsets proportional to their position in the sorted x-domain.
func (r *LineRenderer) scheduleProgressive(spec config.ChartSpec) {
	dur := spec.Animation.Duration

	for _, s := range r.currentSeries() {
		path := r.paths[s.Name]
		if path == nil || len(path.Rings) == 0 {
			continue
		}
		length := ringLength(path.Rings[0])
		path.DashArray = length
		path.DashOffset = length

		n := len(s.Values)
		for idx, p := range s.Values {
			frac := 1.0
			if n > 1 {
				frac = float64(idx) / float64(n-1)
			}
			id := fmt.Sprintf("pt-%s-%s", s.Name, p.Key)
			c := r.points[id]
			if c != nil {
				c.Opacity = scene.Transparent
			}
			r.sched.After(dur*frac, func() {
				path.DashOffset = length * (1 - frac)
				if c != nil {
					c.Opacity = 1
				}
			})
		}
	}
}

func ringLength(ring [][2]float64) float64 {
	total := 0.0
	for i := 1; i < len(ring); i++ {
		total += math.Hypot(ring[i][0]-ring[i-1][0], ring[i][1]-ring[i-1][1])
	}
	return total
}
