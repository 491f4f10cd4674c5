// Package bus implements the publish/subscribe registry that coordinates
// scroll input with the map, chart and image renderers. Delivery is
// synchronous and in subscription order; a panicking subscriber is logged
// and skipped so it cannot block the others. There is no replay for late
// subscribers.
package bus

import (
	"log"
	"sync"
)

// Topic names carried on the bus. Payload shapes are documented on the
// publishing side (engine, server).
const (
	TopicStepEnter    = "step-enter"
	TopicStepExit     = "step-exit"
	TopicStepProgress = "step-progress"
	TopicChartUpdate  = "chart-update"
	TopicMapUpdate    = "map-update"
	TopicMapProgress  = "map-progress"
	TopicImageUpdate  = "image-update"
	TopicWindowResize = "window-resize"
	TopicDataLoaded   = "data-loaded"
	TopicDataError    = "data-error"
)

// Handler receives the payload published for a topic.
type Handler func(payload any)

type subscriber struct {
	id int
	fn Handler
}

// Bus maps topic names to ordered subscriber lists.
type Bus struct {
	mu     sync.Mutex
	nextID int
	topics map[string][]subscriber
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{topics: make(map[string][]subscriber)}
}

// Subscribe registers fn for topic and returns an unsubscribe function.
// Unsubscribing twice is a no-op.
func (b *Bus) Subscribe(topic string, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.topics[topic] = append(b.topics[topic], subscriber{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.topics[topic]
		for i, s := range subs {
			if s.id == id {
				b.topics[topic] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers payload to every current subscriber of topic, in
// subscription order. Panics raised by a subscriber are recovered and
// logged; remaining subscribers still run.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.Lock()
	subs := make([]subscriber, len(b.topics[topic]))
	copy(subs, b.topics[topic])
	b.mu.Unlock()

	for _, s := range subs {
		deliver(topic, s.fn, payload)
	}
}

func deliver(topic string, fn Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[!] bus: subscriber for %q panicked: %v", topic, r)
		}
	}()
	fn(payload)
}
