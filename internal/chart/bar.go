package chart

import (
	"fmt"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/anim"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/config"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/data"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/label"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/scene"
)

// BarRenderer draws grouped vertical bars, one group per x value.
type BarRenderer struct {
	width, height float64
	margins       Margins
	sched         *anim.Scheduler
	root          *scene.Group

	lastRows []data.Row
	lastSpec config.ChartSpec
	rendered bool
}

// NewBarRenderer creates an empty bar renderer.
func NewBarRenderer(width, height float64) *BarRenderer {
	return &BarRenderer{
		width:   width,
		height:  height,
		margins: DefaultMargins,
		sched:   anim.NewScheduler(),
		root:    &scene.Group{Class: "chart chart-bar"},
	}
}

func (r *BarRenderer) Scene() scene.Node { return r.root }

// Flush advances pending grow animations up to the given offset.
func (r *BarRenderer) Flush(upTo float64) { r.sched.Flush(upTo) }

func (r *BarRenderer) Animating() bool { return r.sched.Pending() > 0 }

func (r *BarRenderer) Resize(width, height float64) {
	r.width, r.height = width, height
	if r.rendered {
		_ = r.Render(r.lastRows, r.lastSpec)
	}
}

func (r *BarRenderer) Destroy() {
	r.sched.CancelAll()
	r.root.Children = nil
	r.rendered = false
}

// Render rebuilds the bars. Bars have no diff transition; the original
// renderer redraws them per step, optionally growing from the baseline
// when animation is requested.
func (r *BarRenderer) Render(rows []data.Row, spec config.ChartSpec) (err error) {
	defer guard("bar", &err)

	r.sched.CancelAll()
	r.lastRows, r.lastSpec = rows, spec

	series := BuildSeries(FilterRows(rows, spec), spec)

	plotW := r.width - r.margins.Left - r.margins.Right
	plotH := r.height - r.margins.Top - r.margins.Bottom

	xs := XScale(series, spec, r.margins.Left, r.margins.Left+plotW)
	ys := YScale(series, spec, r.margins.Top+plotH, r.margins.Top)
	baseline := ys.Map(maxf(ys.DomainMin, 0))

	// Group width from the densest series.
	slots := 0
	for _, s := range series {
		if len(s.Values) > slots {
			slots = len(s.Values)
		}
	}
	if slots == 0 {
		r.root.Children = nil
		r.rendered = true
		return nil
	}
	groupW := plotW / float64(slots)
	barW := groupW * 0.8 / float64(len(series))

	r.root.Children = nil
	r.drawAxes(xs, ys, series)

	animate := spec.Animation.Mode == "progressive"
	dur := spec.Animation.Duration

	for si, s := range series {
		color := colorFor(spec, s.Name, si)
		for i, p := range s.Values {
			x := xs.Map(p.X) - groupW*0.4 + float64(si)*barW
			top := ys.Map(p.Y)
			rect := &scene.Rect{
				Class: "bar",
				X:     x,
				Y:     top,
				Width: barW,
				Fill:  color,
			}
			rect.Height = baseline - top
			if rect.Height < 0 { // negative values hang below the baseline
				rect.Y = baseline
				rect.Height = top - baseline
			}
			r.root.Children = append(r.root.Children, rect)

			if animate {
				full := rect.Height
				fullY := rect.Y
				rect.Height = 0
				rect.Y = baseline
				frac := float64(i) / float64(maxi(1, len(s.Values)-1))
				r.sched.After(dur*frac, func() {
					rect.Height = full
					rect.Y = fullY
				})
			}
		}
	}

	if spec.Legend != "none" && len(series) > 1 {
		r.drawLegend(series, spec)
	}

	r.rendered = true
	return nil
}

func (r *BarRenderer) drawAxes(xs, ys Scale, series []Series) {
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
			&scene.Text{Class: "tick-label", X: x, Y: bottom + 16, Content: lbl, Fill: textColor, FontSize: 10, Anchor: "middle"})
	}
	for _, t := range ys.Ticks(5) {
		y := ys.Map(t)
		r.root.Children = append(r.root.Children,
			&scene.Line{Class: "grid", X1: xs.RangeMin, Y1: y, X2: xs.RangeMax, Y2: y, Stroke: gridColor},
			&scene.Text{Class: "tick-label", X: xs.RangeMin - 6, Y: y + 3, Content: fmt.Sprintf("%g", t), Fill: textColor, FontSize: 10, Anchor: "end"})
	}
}

func (r *BarRenderer) drawLegend(series []Series, spec config.ChartSpec) {
	y := r.height - 8
	x := r.margins.Left
	for i, s := range series {
		color := colorFor(spec, s.Name, i)
		r.root.Children = append(r.root.Children,
			&scene.Rect{Class: "legend-swatch", X: x, Y: y - 9, Width: 10, Height: 10, Fill: color},
			&scene.Text{Class: "legend-label", X: x + 14, Y: y, Content: s.Name, Fill: textColor, FontSize: 11})
		x += 14 + label.TextWidth(s.Name, 11) + 16
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func maxi(a, b int) int {
	if a > b {
		return a
	}
	return b
}
