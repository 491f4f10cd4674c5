// Package engine wires the presentation together: it owns the renderers,
// applies deck steps to them in response to bus events, and exports the
// deck as SVG frames through a worker pool.
package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/bus"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/chart"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/config"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/data"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/mapcore"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/media"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/scene"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/svg"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/system"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/theme"
)

// Default dataset file names inside the data directory.
const (
	WorldFile   = "world.geojson"
	RegionsFile = "regions.json"
)

// StepEvent asks the engine to enter a step.
type StepEvent struct {
	Index int
}

// ProgressEvent reports scroll progress within the current step.
type ProgressEvent struct {
	Progress  float64
	Direction string // "down" or "up"
}

// ResizeEvent reports a new canvas size.
type ResizeEvent struct {
	Width, Height float64
}

// Presentation applies a deck to the renderers. All methods run on the
// caller's goroutine; the bus delivers synchronously, so no extra locking
// is needed as long as events come from one place at a time.
type Presentation struct {
	cfg   *config.Config
	deck  *config.Deck
	bus   *bus.Bus
	store *data.Store

	th      theme.Resolver
	disease string

	width, height float64

	worldMap *mapcore.WorldMap
	image    *media.ImageRenderer

	chartKind string
	chart     chart.Renderer

	current int
	unsubs  []func()
}

// New builds a presentation over an already-constructed bus and store.
// The deck's disease setting wins over the config's.
func New(cfg *config.Config, deck *config.Deck, b *bus.Bus, store *data.Store) *Presentation {
	override := deck.Disease
	if override == "" {
		override = cfg.Disease
	}
	th := theme.Resolver{Override: override}
	disease := th.DiseaseType(strings.ToLower(deck.Title))

	p := &Presentation{
		cfg:      cfg,
		deck:     deck,
		bus:      b,
		store:    store,
		th:       th,
		disease:  disease,
		width:    float64(cfg.Width),
		height:   float64(cfg.Height),
		current:  -1,
		worldMap: mapcore.New(float64(cfg.Width), float64(cfg.Height), th, disease),
		image:    media.NewImageRenderer(float64(cfg.Width), float64(cfg.Height), th, disease, cfg.DataDir),
	}

	p.unsubs = append(p.unsubs,
		b.Subscribe(bus.TopicStepEnter, func(payload any) {
			if ev, ok := payload.(StepEvent); ok {
				if err := p.EnterStep(ev.Index); err != nil {
					log.Printf("[!] engine: step %d: %v", ev.Index, err)
				}
			}
		}),
		b.Subscribe(bus.TopicStepProgress, func(payload any) {
			if ev, ok := payload.(ProgressEvent); ok {
				p.Progress(ev.Progress, ev.Direction)
			}
		}),
		b.Subscribe(bus.TopicWindowResize, func(payload any) {
			if ev, ok := payload.(ResizeEvent); ok {
				p.Resize(ev.Width, ev.Height)
			}
		}),
	)
	return p
}

// Disease returns the resolved theme id.
func (p *Presentation) Disease() string { return p.disease }

// Current returns the active step index, or -1 before the first step.
func (p *Presentation) Current() int { return p.current }

// Load fetches every dataset the deck references, then hands the shared
// ones to the map.
func (p *Presentation) Load(ctx context.Context) error {
	citySet := make(map[string]bool)
	csvSet := make(map[string]bool)
	for _, step := range p.deck.Steps {
		if step.Map.CitiesFile != "" {
			citySet[step.Map.CitiesFile] = true
		}
		collectDataFiles(step.Chart, csvSet)
	}

	if err := p.store.Load(ctx, WorldFile, RegionsFile, keys(citySet), keys(csvSet)); err != nil {
		return err
	}
	p.worldMap.SetData(p.store.World(), p.store.Regions())
	return nil
}

func collectDataFiles(spec config.ChartSpec, into map[string]bool) {
	if spec.DataFile != "" {
		into[spec.DataFile] = true
	}
	for _, panel := range spec.Panels {
		collectDataFiles(panel, into)
	}
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

// EnterStep applies step i's specs to the renderers and announces the
// resulting updates on the bus. A failing renderer logs and is skipped;
// the others still update.
func (p *Presentation) EnterStep(i int) error {
	if i < 0 || i >= len(p.deck.Steps) {
		return fmt.Errorf("step index %d out of range", i)
	}
	step := p.deck.Steps[i]

	if p.current >= 0 && p.current != i {
		p.bus.Publish(bus.TopicStepExit, p.deck.Steps[p.current].ID)
	}
	p.current = i

	if step.Chart.Visible {
		if err := p.renderChart(step.Chart); err != nil {
			log.Printf("[!] engine: chart for %s: %v", step.ID, err)
		} else {
			p.bus.Publish(bus.TopicChartUpdate, step.ID)
		}
	} else if p.chart != nil {
		p.chart.Destroy()
		p.chart = nil
		p.chartKind = ""
	}

	if step.Map.Visible {
		cities := p.store.Cities(step.Map.CitiesFile)
		if err := p.worldMap.Render(step.Map, cities); err != nil {
			log.Printf("[!] engine: map for %s: %v", step.ID, err)
		} else {
			p.bus.Publish(bus.TopicMapUpdate, step.ID)
		}
	} else {
		p.worldMap.Destroy()
	}

	if err := p.image.Render(step.Image); err != nil {
		log.Printf("[!] engine: image for %s: %v", step.ID, err)
	} else if step.Image.Visible {
		p.bus.Publish(bus.TopicImageUpdate, step.ID)
	}

	return nil
}

// renderChart reuses the current renderer when the chart kind is unchanged
// so transition mode can diff against the previous state.
func (p *Presentation) renderChart(spec config.ChartSpec) error {
	kind := spec.Layout
	if kind == "" {
		kind = spec.Type
	}
	if p.chart == nil || p.chartKind != kind {
		if p.chart != nil {
			p.chart.Destroy()
		}
		r, err := chart.NewRenderer(kind, p.width, p.height)
		if err != nil {
			return err
		}
		p.chart = r
		p.chartKind = kind
	}
	return p.chart.Render(p.store.Table(spec.DataFile), spec)
}

// Progress forwards scroll progress within the current step to the map's
// timeline reveal.
func (p *Presentation) Progress(progress float64, direction string) {
	if p.current < 0 {
		return
	}
	p.worldMap.Progress(progress, direction)
	p.bus.Publish(bus.TopicMapProgress, progress)
}

// Resize propagates a new canvas size to every renderer.
func (p *Presentation) Resize(width, height float64) {
	p.width, p.height = width, height
	p.worldMap.Resize(width, height)
	p.image.Resize(width, height)
	if p.chart != nil {
		p.chart.Resize(width, height)
	}
}

// Flush advances all renderer animations to the given offset in seconds.
func (p *Presentation) Flush(upTo float64) {
	p.worldMap.Tick(upTo)
	p.worldMap.Scheduler().Flush(upTo)
	p.image.Scheduler().Flush(upTo)
	if p.chart != nil {
		p.chart.Flush(upTo)
	}
}

// Animating reports whether any renderer still has animation work pending,
// so a live driver knows when to stop rebroadcasting frames.
func (p *Presentation) Animating() bool {
	if p.worldMap.Transitioning() || p.worldMap.Scheduler().Pending() > 0 {
		return true
	}
	if p.image.Scheduler().Pending() > 0 {
		return true
	}
	return p.chart != nil && p.chart.Animating()
}

// Frame composes the current renderer states into one scene.
func (p *Presentation) Frame() *scene.Scene {
	s := &scene.Scene{Width: p.width, Height: p.height, Background: "#ffffff"}
	s.Add(p.worldMap.Scene())
	if p.chart != nil {
		s.Add(p.chart.Scene())
	}
	s.Add(p.image.Scene())
	return s
}

// Close unsubscribes from the bus and tears the renderers down.
func (p *Presentation) Close() {
	for _, u := range p.unsubs {
		u()
	}
	p.unsubs = nil
	p.worldMap.Destroy()
	p.image.Destroy()
	if p.chart != nil {
		p.chart.Destroy()
		p.chart = nil
	}
}

// ExportFrames renders every step as a sequence of SVG frames sampled
// across the step's animation window. Scene mutation is sequential; file
// writes go through a worker pool.
func (p *Presentation) ExportFrames(ctx context.Context) error {
	startTime := time.Now()

	if err := os.MkdirAll(p.cfg.OutputDir, 0755); err != nil {
		return err
	}

	framesPerStep := p.cfg.FramesPerStep
	if framesPerStep < 1 {
		framesPerStep = 1
	}
	workers := p.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	type frameJob struct {
		path   string
		markup string
	}
	jobs := make(chan frameJob, workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for job := range jobs {
				buf := system.GetBuffer()
				buf.WriteString(job.markup)
				err := os.WriteFile(job.path, buf.Bytes(), 0644)
				system.PutBuffer(buf)
				if err != nil {
					return fmt.Errorf("writing %s: %w", job.path, err)
				}
			}
			return nil
		})
	}

	total := 0
	var renderErr error
	for i, step := range p.deck.Steps {
		if err := ctx.Err(); err != nil {
			renderErr = err
			break
		}
		if err := p.EnterStep(i); err != nil {
			renderErr = err
			break
		}

		window := stepWindow(step)
		for f := 0; f < framesPerStep; f++ {
			frac := 1.0
			if framesPerStep > 1 {
				frac = float64(f) / float64(framesPerStep-1)
			}
			if step.Map.Visible && step.Map.Mode == "timeline" {
				p.Progress(frac, "down")
			}
			p.Flush(window * frac)

			markup := svg.Render(p.Frame())
			name := fmt.Sprintf("step-%02d-frame-%02d.svg", i+1, f+1)
			select {
			case jobs <- frameJob{path: filepath.Join(p.cfg.OutputDir, name), markup: markup}:
				total++
			case <-ctx.Done():
				renderErr = ctx.Err()
			}
			if renderErr != nil {
				break
			}
		}
		if renderErr != nil {
			break
		}
		fmt.Printf("[>] Step ready: %d/%d\n", i+1, len(p.deck.Steps))
	}
	close(jobs)

	if err := g.Wait(); err != nil {
		return err
	}
	if renderErr != nil {
		return renderErr
	}

	totalTime := time.Since(startTime)
	fps := float64(total) / totalTime.Seconds()
	fmt.Printf("[+++] Exported %d frames to %s\n", total, p.cfg.OutputDir)

	if p.cfg.ShowStats {
		stats := system.Snapshot()
		report := fmt.Sprintf(
			"--- [PERFORMANCE REPORT] ---\n"+
				"Deck: %s | Steps: %d\n"+
				"Total Time: %.2fs\n"+
				"Frames: %d\n"+
				"Effective FPS: %.2f\n"+
				"%s\n"+
				"----------------------------\n",
			p.deck.Title, len(p.deck.Steps), totalTime.Seconds(), total, fps, stats,
		)
		fmt.Print(report)

		logEntry := fmt.Sprintf("[%s] Deck: %s | Steps: %d | Frames: %d | Total: %.2fs | FPS: %.2f | %s\n",
			time.Now().Format("2006-01-02 15:04:05"),
			p.deck.Title, len(p.deck.Steps), total, totalTime.Seconds(), fps, stats)
		f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			f.WriteString(logEntry)
			f.Close()
		} else {
			fmt.Printf("[!] Could not write benchmark.log: %v\n", err)
		}
	}

	return nil
}

// stepWindow is the animation span to sample for a step: the longest of
// its map transition and chart animation.
func stepWindow(step config.Step) float64 {
	w := step.Map.Transition.Duration
	if d := step.Chart.Animation.Duration; d > w {
		w = d
	}
	if w <= 0 {
		w = config.DefaultDuration
	}
	return w
}
