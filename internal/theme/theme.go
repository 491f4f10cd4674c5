// Package theme resolves the per-disease presentation theme: asset path
// prefixes and the palette variants used by the map and chart renderers.
// Detection order is explicit override, then URL path substring, then the
// default theme.
package theme

import "strings"

// Known disease themes.
const (
	Tuberculosis = "tuberculosis"
	Malaria      = "malaria"
	HIV          = "hiv"
	Polio        = "polio"
)

// Default is used when no theme can be detected.
const Default = Tuberculosis

var known = []string{Tuberculosis, Malaria, HIV, Polio}

// palettes maps theme → variant → color. Variants mirror the original
// site's ColorScheme: primary for accents and highlights, light for
// backgrounds, dark for text on light panels.
var palettes = map[string]map[string]string{
	Tuberculosis: {"primary": "#c0392b", "light": "#f5b7b1", "dark": "#7b241c"},
	Malaria:      {"primary": "#27ae60", "light": "#a9dfbf", "dark": "#196f3d"},
	HIV:          {"primary": "#8e44ad", "light": "#d7bde2", "dark": "#5b2c6f"},
	Polio:        {"primary": "#2980b9", "light": "#aed6f1", "dark": "#1a5276"},
}

// Resolver is a pure (url → theme) mapping plus palette/path lookups.
// Override, when non-empty, wins over URL detection.
type Resolver struct {
	Override string
}

// DiseaseType detects the theme id for a page URL.
func (r Resolver) DiseaseType(url string) string {
	if r.Override != "" {
		return r.Override
	}
	lower := strings.ToLower(url)
	for _, id := range known {
		if strings.Contains(lower, id) {
			return id
		}
	}
	return Default
}

// ResolvePath prefixes a relative asset path with the theme's directory.
// Absolute paths and data URIs pass through untouched.
func (r Resolver) ResolvePath(rel, diseaseType string) string {
	if rel == "" || strings.HasPrefix(rel, "/") || strings.Contains(rel, "://") || strings.HasPrefix(rel, "data:") {
		return rel
	}
	return diseaseType + "/" + rel
}

// Color returns the palette color for a variant of the given theme.
// Unknown themes use the default theme's palette; unknown variants fall
// back to primary.
func (r Resolver) Color(diseaseType, variant string) string {
	pal, ok := palettes[diseaseType]
	if !ok {
		pal = palettes[Default]
	}
	if c, ok := pal[variant]; ok {
		return c
	}
	return pal["primary"]
}
