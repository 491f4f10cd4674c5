package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/bus"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/config"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/data"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/engine"
)

const testWorld = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "Kenya"},
     "geometry": {"type": "Polygon", "coordinates": [[[34,-1],[41,-1],[41,4],[34,4],[34,-1]]]}}
  ]
}`

const testDeck = `version: "1"
title: Polio eradication
steps:
  - id: intro
    text:
      visible: true
      content: "# The last mile\n\nPolio cases fell by **99%**."
    map:
      visible: true
      mode: world
      center: [37, 0]
      zoom: 300
  - id: closeup
    map:
      visible: true
      mode: world
      center: [20, 10]
      zoom: 500
  - id: journey
    map:
      visible: true
      mode: timeline
      cities_file: cities.json
      center: [37, 0]
      zoom: 600
`

const testCities = `{"cities": [
  {"id": "nairobi", "name": "Nairobi", "country": "Kenya", "longitude": 36.8, "latitude": -1.3, "order": 1},
  {"id": "kisumu", "name": "Kisumu", "country": "Kenya", "longitude": 34.8, "latitude": -0.1, "order": 2}
]}`

func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		engine.WorldFile:   testWorld,
		engine.RegionsFile: `{"regions": {}, "countries": {}}`,
		"cities.json":      testCities,
		"deck.yaml":        testDeck,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	deck, err := config.ReadDeck(filepath.Join(dir, "deck.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.DataDir = dir

	b := bus.New()
	store := data.NewStore(dir, b)
	pres := engine.New(cfg, deck, b, store)
	t.Cleanup(pres.Close)
	if err := pres.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	s := New(cfg, b, pres, deck)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s, ts
}

func TestHealthz(t *testing.T) {
	_, ts := testServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestDeckEndpoint(t *testing.T) {
	_, ts := testServer(t)
	resp, err := http.Get(ts.URL + "/api/deck")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		Title   string     `json:"title"`
		Disease string     `json:"disease"`
		Steps   []stepView `json:"steps"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Title != "Polio eradication" || body.Disease != "polio" {
		t.Errorf("title=%q disease=%q", body.Title, body.Disease)
	}
	if len(body.Steps) != 3 {
		t.Fatalf("%d steps", len(body.Steps))
	}
	if !strings.Contains(body.Steps[0].HTML, "<h1") || !strings.Contains(body.Steps[0].HTML, "<strong>99%</strong>") {
		t.Errorf("markdown not rendered: %q", body.Steps[0].HTML)
	}
}

func TestStepEndpoint(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/steps/1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var v stepView
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	if v.ID != "closeup" || v.Index != 1 {
		t.Errorf("step view %+v", v)
	}

	missing, err := http.Get(ts.URL + "/api/steps/9")
	if err != nil {
		t.Fatal(err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("out of range status %d", missing.StatusCode)
	}
}

func TestFrameEndpoint(t *testing.T) {
	_, ts := testServer(t)
	resp, err := http.Get(ts.URL + "/api/frame")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != "image/svg+xml" {
		t.Errorf("content type %q", got)
	}
	var buf [4]byte
	if _, err := resp.Body.Read(buf[:]); err != nil {
		t.Fatal(err)
	}
	if string(buf[:]) != "<svg" {
		t.Errorf("frame starts with %q", buf)
	}
}

func TestDatasetFileServing(t *testing.T) {
	_, ts := testServer(t)
	resp, err := http.Get(ts.URL + "/data/" + engine.WorldFile)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestWebSocketStepSync(t *testing.T) {
	s, ts := testServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Wait for the hub to register the client.
	deadline := time.Now().Add(time.Second)
	for s.hub.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := conn.WriteJSON(wsEvent{Type: "step", Index: 1}); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string `json:"type"`
		Step int    `json:"step"`
		SVG  string `json:"svg"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "frame" || msg.Step != 1 {
		t.Errorf("broadcast %+v", msg)
	}
	if !strings.HasPrefix(msg.SVG, "<svg") {
		t.Error("broadcast has no frame markup")
	}
}

// TestLiveAnimationAdvances covers serve mode on real time: after a scroll
// reveals the timeline markers, their enter animation must complete on its
// own within a wall-clock deadline, without any export-style flushing by
// the client.
func TestLiveAnimationAdvances(t *testing.T) {
	s, ts := testServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for s.hub.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := conn.WriteJSON(wsEvent{Type: "step", Index: 2}); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(wsEvent{Type: "progress", Progress: 1.0, Direction: "down"}); err != nil {
		t.Fatal(err)
	}

	// The marker enter takes 0.4s of real time; poll frames until the
	// markers have faded in fully.
	deadline = time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		frame, err := http.Get(ts.URL + "/api/frame")
		if err != nil {
			t.Fatal(err)
		}
		var sb strings.Builder
		if _, err := io.Copy(&sb, frame.Body); err != nil {
			t.Fatal(err)
		}
		frame.Body.Close()
		markup := sb.String()

		if strings.Count(markup, `class="city-marker"`) == 2 && !strings.Contains(markup, `opacity="0"`) {
			return // markers present and fully opaque
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("markers still transparent after their enter animation window")
}

func TestWebSocketUnknownEvent(t *testing.T) {
	s, ts := testServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for s.hub.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := conn.WriteJSON(wsEvent{Type: "teleport"}); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg["type"] != "error" {
		t.Errorf("expected error broadcast, got %+v", msg)
	}
}

func TestRenderText(t *testing.T) {
	html, err := renderText("A | B\n--- | ---\n1 | 2\n")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "<table>") {
		t.Errorf("GFM table not rendered: %q", html)
	}

	empty, err := renderText("")
	if err != nil || empty != "" {
		t.Errorf("empty content: %q, %v", empty, err)
	}
}
