// Package label places end-of-line series labels so they never overlap,
// with leader lines back to their anchors, and decides when to fall back
// to a classic legend on narrow charts.
package label

import (
	"math"
	"sort"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Layout constants for the deterministic placement pass.
const (
	// DefaultHeight is the label box height used when none is measured.
	DefaultHeight = 14.0
	// EdgeMargin keeps the stack inside the chart's vertical bounds.
	EdgeMargin = 20.0
	// XOffset is the fixed gap between the chart's right edge and labels.
	XOffset = 12.0
	// MaxXExtension caps how far right labels may sit past the chart edge
	// so they never run off an arbitrarily large canvas.
	MaxXExtension = 60.0
	// LeaderMinDistance is the anchor-to-label distance below which no
	// leader line is drawn.
	LeaderMinDistance = 10.0
	// LegendWidthThreshold is the chart width below which inline labels
	// give way to a classic legend.
	LegendWidthThreshold = 500.0
)

// Label is the transient layout object for one series label. X/Y are the
// placed center coordinates, filled in by Place.
type Label struct {
	Text    string
	Color   string
	Width   float64
	Height  float64
	AnchorX float64
	AnchorY float64
	X       float64
	Y       float64
	// Leader reports whether a leader line from the anchor is needed.
	Leader bool
}

// Place runs the deterministic stacking pass: sort by anchor Y, stack with
// minSpacing gaps, center the stack on the chart's vertical midpoint and
// clamp it to [EdgeMargin, chartHeight-EdgeMargin]. All labels share one X
// column just right of the chart. The input slice is sorted in place and
// returned.
func Place(labels []Label, chartWidth, chartHeight, minSpacing float64) []Label {
	if len(labels) == 0 {
		return labels
	}

	for i := range labels {
		if labels[i].Height == 0 {
			labels[i].Height = DefaultHeight
		}
	}

	sort.SliceStable(labels, func(i, j int) bool {
		return labels[i].AnchorY < labels[j].AnchorY
	})

	total := 0.0
	for _, l := range labels {
		total += l.Height
	}
	total += float64(len(labels)-1) * minSpacing

	top := chartHeight/2 - total/2
	if top < EdgeMargin {
		top = EdgeMargin
	}
	if top+total > chartHeight-EdgeMargin {
		top = chartHeight - EdgeMargin - total
	}

	x := chartWidth + XOffset
	if x > chartWidth+MaxXExtension {
		x = chartWidth + MaxXExtension
	}

	cursor := top
	for i := range labels {
		labels[i].X = x
		labels[i].Y = cursor + labels[i].Height/2
		cursor += labels[i].Height + minSpacing

		dx := labels[i].X - labels[i].AnchorX
		dy := labels[i].Y - labels[i].AnchorY
		labels[i].Leader = math.Hypot(dx, dy) > LeaderMinDistance
	}

	return labels
}

// UseLegendFallback reports whether the chart is too narrow for inline
// labels.
func UseLegendFallback(chartWidth float64) bool {
	return chartWidth < LegendWidthThreshold
}

// TextWidth estimates the rendered width of a label at the given font
// size, using real font metrics scaled from the basicfont face.
func TextWidth(s string, fontSize float64) float64 {
	if s == "" {
		return 0
	}
	adv := font.MeasureString(basicfont.Face7x13, s)
	return float64(adv) / 64.0 * fontSize / 13.0
}
