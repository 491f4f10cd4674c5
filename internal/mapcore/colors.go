package mapcore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/config"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/data"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/theme"
)

const (
	// grayFill marks countries excluded by a highlight list or region
	// allowlist.
	grayFill = "#cccccc"
	// baseFill is the neutral fill when no coloring policy applies.
	baseFill = "#e8e8e8"
	// lightenAmount is the white-blend factor for lightened region colors.
	lightenAmount = 0.55
)

// matchesCountry reproduces the original site's fuzzy country matching:
// exact match, substring containment in either direction, and a special
// case for USA/United States. Substring containment can false-positive
// (e.g. "Niger" vs "Nigeria"); this is a known limitation kept for
// compatibility with existing decks.
func matchesCountry(name, candidate string) bool {
	if name == candidate {
		return true
	}
	if strings.Contains(name, candidate) || strings.Contains(candidate, name) {
		return true
	}
	if (candidate == "USA" || strings.Contains(candidate, "United States")) &&
		strings.Contains(name, "United States") {
		return true
	}
	if name == "USA" && strings.Contains(candidate, "United States") {
		return true
	}
	return false
}

// IsHighlighted reports whether a country name matches any entry of the
// highlight list.
func IsHighlighted(name string, highlights []string) bool {
	for _, h := range highlights {
		if matchesCountry(name, h) {
			return true
		}
	}
	return false
}

// CountryFill applies the region/highlight coloring policy for one
// country. visitedCountry is the country of the currently visited city in
// single-city mode, or "".
func CountryFill(name string, spec config.MapSpec, regions *data.RegionMap, th theme.Resolver, disease, visitedCountry string) string {
	if len(spec.HighlightCountries) > 0 {
		if !IsHighlighted(name, spec.HighlightCountries) {
			return grayFill
		}
		if c, ok := regions.RegionColor(name); ok {
			return c
		}
		return th.Color(disease, "primary")
	}

	if spec.UseRegionColors {
		region, ok := regions.Region(name)
		if !ok {
			return baseFill
		}
		if len(spec.TargetRegions) > 0 && !containsString(spec.TargetRegions, region) {
			return grayFill
		}
		c, ok := regions.RegionColor(name)
		if !ok {
			return baseFill
		}
		if spec.LightenAll {
			return Lighten(c, lightenAmount)
		}
		if spec.LightenNonVisited && visitedCountry != "" && !matchesCountry(name, visitedCountry) {
			return Lighten(c, lightenAmount)
		}
		return c
	}

	return baseFill
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Lighten blends a #rrggbb color towards white by the given amount in
// [0,1]. Unparsable colors pass through unchanged.
func Lighten(hex string, amount float64) string {
	if len(hex) != 7 || hex[0] != '#' {
		return hex
	}
	r, err1 := strconv.ParseUint(hex[1:3], 16, 8)
	g, err2 := strconv.ParseUint(hex[3:5], 16, 8)
	b, err3 := strconv.ParseUint(hex[5:7], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return hex
	}
	blend := func(c uint64) uint64 {
		return c + uint64(float64(255-c)*amount)
	}
	return fmt.Sprintf("#%02x%02x%02x", blend(r), blend(g), blend(b))
}
