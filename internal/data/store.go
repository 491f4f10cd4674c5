package data

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/bus"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/geo"
)

// Store caches all datasets for one presentation. Loads happen once at
// startup; a failed load logs, publishes data-error and leaves the previous
// (possibly empty) entry untouched so renderers keep their last good state.
type Store struct {
	dir string
	bus *bus.Bus

	mu      sync.RWMutex
	world   *geo.FeatureCollection
	cities  map[string][]City // by file name
	regions *RegionMap
	tables  map[string][]Row // by file name
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, b *bus.Bus) *Store {
	return &Store{
		dir:    dir,
		bus:    b,
		cities: make(map[string][]City),
		tables: make(map[string][]Row),
	}
}

// Load fetches the named datasets concurrently. worldFile and regionsFile
// may be empty; cityFiles and csvFiles list file names relative to the data
// directory. Individual failures are logged and published as data-error but
// do not abort the other loads; Load itself only fails on context
// cancellation.
func (s *Store) Load(ctx context.Context, worldFile, regionsFile string, cityFiles, csvFiles []string) error {
	g, ctx := errgroup.WithContext(ctx)

	if worldFile != "" {
		g.Go(func() error {
			raw, err := readFile(ctx, filepath.Join(s.dir, worldFile))
			if err == nil {
				var fc *geo.FeatureCollection
				fc, err = geo.DecodeFeatureCollection(raw)
				if err == nil {
					s.mu.Lock()
					s.world = fc
					s.mu.Unlock()
				}
			}
			s.report(worldFile, err)
			return nil
		})
	}

	if regionsFile != "" {
		g.Go(func() error {
			m, err := LoadRegions(filepath.Join(s.dir, regionsFile))
			if err == nil {
				s.mu.Lock()
				s.regions = m
				s.mu.Unlock()
			}
			s.report(regionsFile, err)
			return nil
		})
	}

	for _, name := range cityFiles {
		name := name
		g.Go(func() error {
			cities, err := LoadCities(filepath.Join(s.dir, name))
			if err == nil {
				s.mu.Lock()
				s.cities[name] = cities
				s.mu.Unlock()
			}
			s.report(name, err)
			return nil
		})
	}

	for _, name := range csvFiles {
		name := name
		g.Go(func() error {
			rows, err := LoadCSV(filepath.Join(s.dir, name))
			if err == nil {
				s.mu.Lock()
				s.tables[name] = rows
				s.mu.Unlock()
			}
			s.report(name, err)
			return nil
		})
	}

	return g.Wait()
}

func (s *Store) report(name string, err error) {
	if err != nil {
		log.Printf("[!] data: loading %s: %v", name, err)
		if s.bus != nil {
			s.bus.Publish(bus.TopicDataError, name)
		}
		return
	}
	if s.bus != nil {
		s.bus.Publish(bus.TopicDataLoaded, name)
	}
}

// World returns the cached world map, or nil when it failed to load.
func (s *Store) World() *geo.FeatureCollection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.world
}

// Cities returns the cached city list for a file name.
func (s *Store) Cities(name string) []City {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cities[name]
}

// Regions returns the cached region mapping, or nil.
func (s *Store) Regions() *RegionMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.regions
}

// Table returns the cached CSV rows for a file name.
func (s *Store) Table(name string) []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables[name]
}

func readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
