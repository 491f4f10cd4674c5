package theme

import "testing"

func TestDiseaseTypeDetection(t *testing.T) {
	r := Resolver{}

	tests := []struct {
		url  string
		want string
	}{
		{"https://example.org/malaria/story", Malaria},
		{"https://example.org/HIV/intro", HIV},
		{"https://example.org/polio", Polio},
		{"https://example.org/unrelated", Default},
		{"", Default},
	}

	for _, tt := range tests {
		if got := r.DiseaseType(tt.url); got != tt.want {
			t.Errorf("DiseaseType(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestOverrideWins(t *testing.T) {
	r := Resolver{Override: Polio}
	if got := r.DiseaseType("https://example.org/malaria"); got != Polio {
		t.Errorf("override ignored, got %q", got)
	}
}

func TestResolvePath(t *testing.T) {
	r := Resolver{}

	tests := []struct {
		rel, want string
	}{
		{"data/cities.json", "malaria/data/cities.json"},
		{"/shared/world.geojson", "/shared/world.geojson"},
		{"https://cdn.example.org/x.csv", "https://cdn.example.org/x.csv"},
		{"data:image/png;base64,xyz", "data:image/png;base64,xyz"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := r.ResolvePath(tt.rel, Malaria); got != tt.want {
			t.Errorf("ResolvePath(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}

func TestColorFallbacks(t *testing.T) {
	r := Resolver{}

	if r.Color(Malaria, "primary") != "#27ae60" {
		t.Error("unexpected malaria primary")
	}
	// Unknown variant falls back to primary.
	if r.Color(Malaria, "bogus") != r.Color(Malaria, "primary") {
		t.Error("unknown variant should fall back to primary")
	}
	// Unknown theme falls back to the default palette.
	if r.Color("cholera", "primary") != r.Color(Default, "primary") {
		t.Error("unknown theme should use default palette")
	}
}
