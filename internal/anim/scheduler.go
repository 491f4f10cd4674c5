package anim

import (
	"sort"
	"sync"
)

// Scheduler tracks the staggered sub-animations of one renderer so a new
// render can cancel everything still pending in one step. Each render bumps
// the generation; callbacks scheduled under an older generation no-op even
// when already queued. Time is always supplied by the caller through Flush:
// frame export feeds it virtual offsets, the dev server feeds it wall-clock
// elapsed time from its ticker.
type Scheduler struct {
	mu         sync.Mutex
	generation int
	pending    []*task
}

type task struct {
	generation int
	at         float64 // offset in seconds from the generation start
	fn         func()
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Generation returns the current generation counter.
func (s *Scheduler) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// CancelAll interrupts every pending task and bumps the generation.
// Renderers call it at the top of each render, before scheduling new work.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.pending = nil
}

// Pending returns the number of tasks of the current generation still
// waiting for a Flush. The dev server polls this to decide whether another
// frame is worth broadcasting.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if t.generation == s.generation {
			n++
		}
	}
	return n
}

// After schedules fn at the given offset (seconds) within the current
// generation. Nothing runs until Flush drives the queue.
func (s *Scheduler) After(offset float64, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, &task{generation: s.generation, at: offset, fn: fn})
}

// Flush runs every pending task of the current generation whose offset is
// <= upTo, in offset order, and drops them from the queue. Repeated calls
// with a growing upTo advance the animation incrementally.
func (s *Scheduler) Flush(upTo float64) {
	s.mu.Lock()
	gen := s.generation
	var due, rest []*task
	for _, t := range s.pending {
		if t.generation == gen && t.at <= upTo {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	s.pending = rest
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		// A task may itself call CancelAll; later tasks of the stale
		// generation must then be skipped.
		s.mu.Lock()
		live := t.generation == s.generation
		s.mu.Unlock()
		if live {
			t.fn()
		}
	}
}
