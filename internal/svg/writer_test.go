package svg

import (
	"strings"
	"testing"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/scene"
)

func TestRenderBasicShapes(t *testing.T) {
	s := &scene.Scene{Width: 960, Height: 600, Background: "#ffffff"}
	s.Add(
		&scene.Circle{CX: 10, CY: 20, R: 4, Fill: "#e74c3c", ID: "city-tokyo"},
		&scene.Line{X1: 0, Y1: 0, X2: 100, Y2: 50, Stroke: "#999", Dashed: true},
		&scene.Text{X: 5, Y: 15, Content: "Tokyo & Osaka", Fill: "#333"},
	)

	out := Render(s)

	for _, want := range []string{
		`viewBox="0 0 960 600"`,
		`<rect width="100%" height="100%" fill="#ffffff"/>`,
		`<circle cx="10" cy="20" r="4" id="city-tokyo"`,
		`stroke-dasharray="4,3"`,
		`Tokyo &amp; Osaka`,
		`</svg>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestRenderPathRings(t *testing.T) {
	s := &scene.Scene{Width: 100, Height: 100}
	s.Add(&scene.Path{
		Rings:  [][][2]float64{{{0, 0}, {10, 0}, {10, 10}}},
		Fill:   "#ccc",
		Closed: true,
	})

	out := Render(s)
	if !strings.Contains(out, `d="M0 0L10 0L10 10Z"`) {
		t.Errorf("unexpected path data in %s", out)
	}
}

func TestRenderGroupTransformAndOpacity(t *testing.T) {
	s := &scene.Scene{Width: 100, Height: 100}
	s.Add(&scene.Group{
		ID:        "markers",
		Translate: [2]float64{10, 20},
		Scale:     0.5,
		Opacity:   scene.Transparent,
		Children:  []scene.Node{&scene.Circle{R: 3}},
	})

	out := Render(s)
	if !strings.Contains(out, `transform="translate(10,20) scale(0.5)"`) {
		t.Errorf("missing transform in %s", out)
	}
	if !strings.Contains(out, `opacity="0"`) {
		t.Errorf("transparent group not serialized in %s", out)
	}
}

func TestRenderDashProgress(t *testing.T) {
	s := &scene.Scene{Width: 100, Height: 100}
	s.Add(&scene.Path{
		Rings:      [][][2]float64{{{0, 0}, {50, 50}}},
		Stroke:     "#1f77b4",
		DashArray:  70.7,
		DashOffset: 35.35,
	})

	out := Render(s)
	if !strings.Contains(out, `stroke-dasharray="70.7" stroke-dashoffset="35.35"`) {
		t.Errorf("dash progress attributes missing in %s", out)
	}
}

func TestNumFormatting(t *testing.T) {
	cases := map[float64]string{3: "3", 3.5: "3.5", 3.1400001: "3.14", -2: "-2"}
	for in, want := range cases {
		if got := num(in); got != want {
			t.Errorf("num(%v) = %q, want %q", in, got, want)
		}
	}
}
