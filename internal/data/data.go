// Package data loads and caches the presentation datasets: the world
// GeoJSON, the city list, region color mappings and CSV tables. Everything
// is fetched once at startup and shared read-only afterwards.
package data

import (
	"encoding/json"
	"fmt"
	"os"
)

// City is one entry of the city-list JSON. Never mutated after load.
type City struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	Longitude float64   `json:"longitude"`
	Latitude  float64   `json:"latitude"`
	Order     int       `json:"order"`
	Style     CityStyle `json:"style"`
	Data      CityData  `json:"data"`
}

// CityStyle controls the marker appearance.
type CityStyle struct {
	Size  float64 `json:"size"`
	Color string  `json:"color"`
}

// CityData is the narrative payload shown for a visited city.
type CityData struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	URL         string `json:"url"`
}

type cityFile struct {
	Cities []City `json:"cities"`
}

// LoadCities reads a city-list JSON file.
func LoadCities(path string) ([]City, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f cityFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing cities %s: %w", path, err)
	}
	return f.Cities, nil
}

// RegionMap resolves countries to regions and regions to colors.
type RegionMap struct {
	Regions   map[string]string `json:"regions"`   // region → color
	Countries map[string]string `json:"countries"` // country → region
}

// RegionColor returns the region color for a country, if resolvable.
func (m *RegionMap) RegionColor(country string) (string, bool) {
	if m == nil {
		return "", false
	}
	region, ok := m.Countries[country]
	if !ok {
		return "", false
	}
	color, ok := m.Regions[region]
	return color, ok
}

// Region returns the region name for a country, if mapped.
func (m *RegionMap) Region(country string) (string, bool) {
	if m == nil {
		return "", false
	}
	region, ok := m.Countries[country]
	return region, ok
}

// LoadRegions reads a region mapping JSON file.
func LoadRegions(path string) (*RegionMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m RegionMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing regions %s: %w", path, err)
	}
	return &m, nil
}
