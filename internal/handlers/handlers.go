package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"lycan/internal/config"
	"lycan/internal/game"
	"lycan/internal/store"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store    *store.MemoryStore
	eventBus *EventBus
	config   *config.ServerConfig
}

// New creates a new handler.
func New(s *store.MemoryStore, cfg *config.ServerConfig) *Handler {
	return &Handler{
		store:    s,
		eventBus: NewEventBus(),
		config:   cfg,
	}
}

// Store returns the handler's store (for testing).
func (h *Handler) Store() *store.MemoryStore { return h.store }

// Bus returns the event bus (for testing).
func (h *Handler) Bus() *EventBus { return h.eventBus }

// EventBus fans game events out to SSE subscribers per match code.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan game.Event
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]chan game.Event)}
}

// Subscribe registers a listener for a match's events.
func (b *EventBus) Subscribe(code string) chan game.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan game.Event, 32)
	b.subscribers[code] = append(b.subscribers[code], ch)
	return ch
}

// Unsubscribe removes a listener.
func (b *EventBus) Unsubscribe(code string, ch chan game.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[code]
	for i, sub := range subs {
		if sub == ch {
			b.subscribers[code] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
}

// Publish delivers an event to every subscriber of the match. Slow
// subscribers are skipped rather than blocking the rules engine.
func (b *EventBus) Publish(code string, e game.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[code] {
		select {
		case ch <- e:
		default:
			log.Printf("dropping event %s for a slow subscriber on match %s", e.Type, code)
		}
	}
}

// matchPublisher adapts the bus to the engine's one-method publisher
// contract, pinning the match code.
type matchPublisher struct {
	bus  *EventBus
	code string
}

func (p matchPublisher) Publish(e game.Event) {
	p.bus.Publish(p.code, e)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
