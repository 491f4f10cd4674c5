package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Width != 960 || cfg.Height != 600 {
		t.Errorf("unexpected default canvas %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Server.Port != 5173 {
		t.Errorf("unexpected default port %d", cfg.Server.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFileAndEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scrolly.yml")
	os.WriteFile(path, []byte("width: 1280\nheight: 720\nserver:\n  port: 8080\n"), 0644)

	t.Setenv("SCROLLY_WIDTH", "1920")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Width != 1920 {
		t.Errorf("env override lost: width = %d", cfg.Width)
	}
	if cfg.Height != 720 {
		t.Errorf("file value lost: height = %d", cfg.Height)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("nested file value lost: port = %d", cfg.Server.Port)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	bad := []*Config{
		{DeckFile: "", Width: 960, Height: 600, FramesPerStep: 10, Workers: 1},
		{DeckFile: "d.yaml", Width: 0, Height: 600, FramesPerStep: 10, Workers: 1},
		{DeckFile: "d.yaml", Width: 960, Height: 600, FramesPerStep: 0, Workers: 1},
		{DeckFile: "d.yaml", Width: 960, Height: 600, FramesPerStep: 10, Workers: 0},
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestReadDeckNormalizesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.yaml")
	os.WriteFile(path, []byte(`
version: "1.0"
title: Test
steps:
  - text:
      content: "# Hello"
      visible: true
    chart:
      visible: true
      type: line
      data_file: data.csv
    map:
      visible: true
`), 0644)

	deck, err := ReadDeck(path)
	if err != nil {
		t.Fatalf("ReadDeck: %v", err)
	}
	if len(deck.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(deck.Steps))
	}

	step := deck.Steps[0]
	if step.ID != "step-1" {
		t.Errorf("missing generated id, got %q", step.ID)
	}
	if step.Chart.XField != "year" || step.Chart.YField != "value" || step.Chart.SeriesField != "series" {
		t.Errorf("chart field defaults not applied: %+v", step.Chart)
	}
	if step.Chart.MultiSeries == nil || !*step.Chart.MultiSeries {
		t.Error("multi_series should default to true")
	}
	if step.Chart.MinSpacing != DefaultMinSpacing {
		t.Errorf("min_spacing default not applied: %f", step.Chart.MinSpacing)
	}
	if step.Map.Mode != "world" || step.Map.Zoom != DefaultZoom {
		t.Errorf("map defaults not applied: %+v", step.Map)
	}
	if err := deck.Validate(); err != nil {
		t.Errorf("deck should validate: %v", err)
	}
}

func TestDeckWriteReadRoundTrip(t *testing.T) {
	deck := &Deck{
		Version: "1.0",
		Title:   "Round trip",
		Steps: []Step{
			{ID: "intro", Text: TextSpec{Content: "hi", Visible: true}},
		},
	}

	path := filepath.Join(t.TempDir(), "deck.yaml")
	if err := WriteDeck(deck, path); err != nil {
		t.Fatalf("WriteDeck: %v", err)
	}
	got, err := ReadDeck(path)
	if err != nil {
		t.Fatalf("ReadDeck: %v", err)
	}
	if got.Title != deck.Title || len(got.Steps) != 1 || got.Steps[0].ID != "intro" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestDeckValidateCatchesMistakes(t *testing.T) {
	deck := &Deck{Steps: []Step{
		{ID: "a", Map: MapSpec{Visible: true, Mode: "single-city"}},
	}}
	if err := deck.Validate(); err == nil {
		t.Error("expected error for single-city step without city_id")
	}

	deck = &Deck{Steps: []Step{{ID: "a"}, {ID: "a"}}}
	if err := deck.Validate(); err == nil {
		t.Error("expected error for duplicate step ids")
	}
}
