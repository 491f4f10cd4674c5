package chart

import (
	"strings"
	"testing"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/scene"
)

// seriesState extracts, per series, the point-circle keys and the line
// path vertex count from the renderer's subtree.
func seriesState(t *testing.T, r *LineRenderer, name string) (keys map[string]bool, pathLen int) {
	t.Helper()
	keys = make(map[string]bool)
	prefix := "pt-" + name + "-"
	for _, n := range r.root.Children {
		switch v := n.(type) {
		case *scene.Circle:
			if strings.HasPrefix(v.ID, prefix) {
				keys[strings.TrimPrefix(v.ID, prefix)] = true
			}
		}
	}
	if p := r.paths[name]; p != nil && len(p.Rings) > 0 {
		pathLen = len(p.Rings[0])
	}
	return keys, pathLen
}

func TestLineRenderBasic(t *testing.T) {
	r := NewLineRenderer(800, 600)
	in := rows(
		[3]string{"1990", "10", "Japan"},
		[3]string{"1991", "12", "Japan"},
		[3]string{"1990", "5", "Kenya"},
	)

	if err := r.Render(in, spec()); err != nil {
		t.Fatalf("Render: %v", err)
	}

	jp, pathLen := seriesState(t, r, "Japan")
	if len(jp) != 2 || pathLen != 2 {
		t.Errorf("Japan: %d circles, %d path points", len(jp), pathLen)
	}
	ke, _ := seriesState(t, r, "Kenya")
	if len(ke) != 1 {
		t.Errorf("Kenya: %d circles", len(ke))
	}
}

func TestLineDiffTransitionKeepsSeriesPointConsistency(t *testing.T) {
	r := NewLineRenderer(800, 600)

	initial := rows(
		[3]string{"1990", "1", "A"},
		[3]string{"1991", "2", "A"},
		[3]string{"1992", "3", "A"},
	)
	if err := r.Render(initial, spec()); err != nil {
		t.Fatalf("initial render: %v", err)
	}

	updated := rows(
		[3]string{"1992", "3", "A"},
		[3]string{"1993", "4", "A"},
		[3]string{"1994", "5", "A"},
	)
	s := spec()
	s.UpdateMode = "transition"
	s.Animation.Duration = 1.0
	if err := r.Render(updated, s); err != nil {
		t.Fatalf("transition render: %v", err)
	}

	// Drive the staggered diff in several slices; consistency must hold
	// at every intermediate state, not just the end.
	for _, upTo := range []float64{0.25, 0.5, 0.75, 1.0} {
		r.sched.Flush(upTo)
		keys, pathLen := seriesState(t, r, "A")
		if len(keys) != pathLen {
			t.Errorf("at t=%.2f: %d circles but %d path points", upTo, len(keys), pathLen)
		}
	}

	keys, _ := seriesState(t, r, "A")
	want := []string{"1992", "1993", "1994"}
	if len(keys) != len(want) {
		t.Fatalf("final keys: %v", keys)
	}
	for _, k := range want {
		if !keys[k] {
			t.Errorf("missing final key %s", k)
		}
	}
}

func TestLineTransitionAddsAndRemovesSeries(t *testing.T) {
	r := NewLineRenderer(800, 600)

	if err := r.Render(rows([3]string{"1990", "1", "Old"}), spec()); err != nil {
		t.Fatal(err)
	}

	s := spec()
	s.UpdateMode = "transition"
	s.Animation.Duration = 0.5
	if err := r.Render(rows([3]string{"1990", "2", "New"}), s); err != nil {
		t.Fatal(err)
	}
	r.sched.Flush(1.0)

	old, _ := seriesState(t, r, "Old")
	if len(old) != 0 {
		t.Errorf("removed series still has %d points", len(old))
	}
	fresh, pathLen := seriesState(t, r, "New")
	if len(fresh) != 1 || pathLen != 1 {
		t.Errorf("new series: %d circles, %d path points", len(fresh), pathLen)
	}
}

func TestLineNewRenderCancelsPendingDiffTimers(t *testing.T) {
	r := NewLineRenderer(800, 600)

	if err := r.Render(rows([3]string{"1990", "1", "A"}), spec()); err != nil {
		t.Fatal(err)
	}

	s := spec()
	s.UpdateMode = "transition"
	s.Animation.Duration = 1.0
	if err := r.Render(rows(
		[3]string{"1990", "1", "A"},
		[3]string{"1991", "2", "A"},
		[3]string{"1992", "3", "A"},
	), s); err != nil {
		t.Fatal(err)
	}

	// A newer render arrives before the diff finishes; its state must not
	// be corrupted by the superseded generation's timers.
	if err := r.Render(rows([3]string{"2000", "9", "A"}), spec()); err != nil {
		t.Fatal(err)
	}
	r.sched.Flush(10.0)

	keys, pathLen := seriesState(t, r, "A")
	if len(keys) != 1 || !keys["2000"] || pathLen != 1 {
		t.Errorf("stale timers mutated state: keys=%v pathLen=%d", keys, pathLen)
	}
}

func TestLineProgressiveMode(t *testing.T) {
	r := NewLineRenderer(800, 600)

	s := spec()
	s.Animation.Mode = "progressive"
	s.Animation.Duration = 2.0
	in := rows(
		[3]string{"1990", "1", "A"},
		[3]string{"1991", "2", "A"},
		[3]string{"1992", "3", "A"},
	)
	if err := r.Render(in, s); err != nil {
		t.Fatal(err)
	}

	path := r.paths["A"]
	if path.DashArray == 0 || path.DashOffset != path.DashArray {
		t.Fatalf("line not hidden by dash trick: array=%g offset=%g", path.DashArray, path.DashOffset)
	}

	hidden := 0
	for _, c := range r.points {
		if c.Opacity == scene.Transparent {
			hidden++
		}
	}
	if hidden != 3 {
		t.Errorf("expected 3 hidden points, got %d", hidden)
	}

	// Halfway: the first two reveals (t=0, t=1.0) have fired.
	r.sched.Flush(1.0)
	visible := 0
	for _, c := range r.points {
		if c.Opacity == 1 {
			visible++
		}
	}
	if visible != 2 {
		t.Errorf("at halfway: %d visible points, want 2", visible)
	}
	if path.DashOffset >= path.DashArray {
		t.Error("dash offset did not advance")
	}

	r.sched.Flush(2.0)
	if path.DashOffset != 0 {
		t.Errorf("line not fully drawn: offset=%g", path.DashOffset)
	}
}

func TestLineLegendFallbackOnNarrowChart(t *testing.T) {
	r := NewLineRenderer(400, 300) // plot width well under the threshold
	in := rows(
		[3]string{"1990", "1", "A"},
		[3]string{"1990", "2", "B"},
	)
	if err := r.Render(in, spec()); err != nil {
		t.Fatal(err)
	}

	var swatches, inline int
	for _, n := range r.root.Children {
		switch v := n.(type) {
		case *scene.Rect:
			if v.Class == "legend-swatch" {
				swatches++
			}
		case *scene.Text:
			if v.Class == "series-label" {
				inline++
			}
		}
	}
	if swatches != 2 {
		t.Errorf("expected 2 legend swatches, got %d", swatches)
	}
	if inline != 0 {
		t.Errorf("inline labels drawn on a narrow chart: %d", inline)
	}
}

func TestLineDestroyClears(t *testing.T) {
	r := NewLineRenderer(800, 600)
	if err := r.Render(rows([3]string{"1990", "1", "A"}), spec()); err != nil {
		t.Fatal(err)
	}
	r.Destroy()
	if len(r.root.Children) != 0 {
		t.Error("Destroy left scene nodes behind")
	}
}
