// Package server is the development server: it serves the deck and the
// rendered frames over HTTP and bridges scroll events between websocket
// clients and the engine's bus.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/bus"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/config"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/engine"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/svg"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// animInterval is the frame pacing of the live animation driver, roughly
// 30 frames per second.
const animInterval = 33 * time.Millisecond

// Server exposes one presentation over HTTP and websocket.
type Server struct {
	cfg  *config.Config
	bus  *bus.Bus
	pres *engine.Presentation
	deck *config.Deck

	hub        *Hub
	router     chi.Router
	httpServer *http.Server

	// events from all websocket clients are applied one at a time; the
	// engine is not concurrency safe by design.
	eventMu sync.Mutex
	// epoch is the wall-clock base of the animations started by the most
	// recent client event. Guarded by eventMu.
	epoch time.Time

	stopAnim chan struct{}
	stopOnce sync.Once
}

// New wires a server over an already-loaded presentation.
func New(cfg *config.Config, b *bus.Bus, pres *engine.Presentation, deck *config.Deck) *Server {
	s := &Server{
		cfg:      cfg,
		bus:      b,
		pres:     pres,
		deck:     deck,
		hub:      NewHub(),
		stopAnim: make(chan struct{}),
	}
	s.router = s.buildRouter()

	b.Subscribe(bus.TopicDataError, func(payload any) {
		s.hub.Broadcast(map[string]any{"type": "data-error", "file": payload})
	})

	go s.animate()
	return s
}

// animate drives renderer animations on wall-clock time between client
// events. While anything is in flight it advances the presentation to the
// elapsed time since the last event and rebroadcasts the frame, so view
// transitions, marker reveals and image fades play out for live clients the
// same way frame export samples them.
func (s *Server) animate() {
	tick := time.NewTicker(animInterval)
	defer tick.Stop()
	for {
		select {
		case <-s.stopAnim:
			return
		case <-tick.C:
		}

		s.eventMu.Lock()
		if s.epoch.IsZero() || !s.pres.Animating() {
			s.eventMu.Unlock()
			continue
		}
		s.pres.Flush(time.Since(s.epoch).Seconds())
		frame := map[string]any{
			"type": "frame",
			"step": s.pres.Current(),
			"svg":  svg.Render(s.pres.Frame()),
		}
		s.eventMu.Unlock()

		s.hub.Broadcast(frame)
	}
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.cfg.Server.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/api/deck", s.handleDeck)
	r.Get("/api/steps/{index}", s.handleStep)
	r.Get("/api/frame", s.handleFrame)
	r.Get("/ws", s.handleWebSocket)

	// Exported frames and the raw datasets, for static embedding.
	fileRoute(r, "/frames", s.cfg.OutputDir)
	fileRoute(r, "/data", s.cfg.DataDir)

	return r
}

func fileRoute(r chi.Router, prefix, dir string) {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	r.Get(prefix+"/*", func(w http.ResponseWriter, req *http.Request) {
		fs.ServeHTTP(w, req)
	})
}

// Router returns the router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// stepView is the client-facing shape of a step: the raw spec plus the
// narrative rendered to HTML.
type stepView struct {
	Index int         `json:"index"`
	ID    string      `json:"id"`
	HTML  string      `json:"html"`
	Step  config.Step `json:"step"`
}

func (s *Server) stepView(i int) (stepView, error) {
	step := s.deck.Steps[i]
	html, err := renderText(step.Text.Content)
	if err != nil {
		return stepView{}, err
	}
	return stepView{Index: i, ID: step.ID, HTML: html, Step: step}, nil
}

func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	views := make([]stepView, 0, len(s.deck.Steps))
	for i := range s.deck.Steps {
		v, err := s.stepView(i)
		if err != nil {
			httpError(w, http.StatusInternalServerError, err)
			return
		}
		views = append(views, v)
	}
	writeJSON(w, map[string]any{
		"title":   s.deck.Title,
		"disease": s.pres.Disease(),
		"steps":   views,
	})
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 || i >= len(s.deck.Steps) {
		httpError(w, http.StatusNotFound, fmt.Errorf("no such step"))
		return
	}
	v, err := s.stepView(i)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	s.eventMu.Lock()
	if !s.epoch.IsZero() {
		s.pres.Flush(time.Since(s.epoch).Seconds())
	}
	markup := svg.Render(s.pres.Frame())
	s.eventMu.Unlock()

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(markup))
}

// wsEvent is the inbound websocket message format.
type wsEvent struct {
	Type      string  `json:"type"` // "step", "progress", "resize"
	Index     int     `json:"index"`
	Progress  float64 `json:"progress"`
	Direction string  `json:"direction"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[!] server: websocket upgrade: %v", err)
		return
	}
	c := s.hub.add(conn)
	defer s.hub.remove(c)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[!] server: websocket read: %v", err)
			}
			return
		}

		var ev wsEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			s.hub.Broadcast(map[string]any{"type": "error", "error": "invalid message format"})
			continue
		}
		s.apply(ev)
	}
}

// apply routes one client event through the bus and broadcasts the
// resulting frame to every client, keeping multiple scroll views in sync.
func (s *Server) apply(ev wsEvent) {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()

	// Each event restarts the animation clock: renderers schedule their
	// work relative to the render the event triggers.
	s.epoch = time.Now()

	switch ev.Type {
	case "step":
		s.bus.Publish(bus.TopicStepEnter, engine.StepEvent{Index: ev.Index})
	case "progress":
		s.bus.Publish(bus.TopicStepProgress, engine.ProgressEvent{
			Progress:  ev.Progress,
			Direction: ev.Direction,
		})
	case "resize":
		s.bus.Publish(bus.TopicWindowResize, engine.ResizeEvent{
			Width:  ev.Width,
			Height: ev.Height,
		})
	default:
		s.hub.Broadcast(map[string]any{"type": "error", "error": "unknown event type: " + ev.Type})
		return
	}

	s.hub.Broadcast(map[string]any{
		"type": "frame",
		"step": s.pres.Current(),
		"svg":  svg.Render(s.pres.Frame()),
	})
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Printf("dev server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the listener, the animation driver and all clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopAnim) })
	s.hub.Close()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[!] server: encoding response: %v", err)
	}
}

func httpError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
