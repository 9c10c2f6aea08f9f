package server

import (
	"encoding/json"
	"sync"

	"harp/internal/core"
	"harp/pkg/schema"
)

// Outbound event names.
const (
	eventOSUpdate           = "os_update"
	eventSystemNotification = "system_notification"
	eventWisdomCategories   = "wisdom_categories"
	eventCategoryContent    = "wisdom_category_content"
)

// envelope is the wire frame for every event in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub tracks connected sessions and implements core.Notifier. Delivery is
// fire-and-forget: a session whose send buffer is full or that has gone
// away is dropped, never reported back to the publisher.
type Hub struct {
	log core.Logger

	mu       sync.RWMutex
	sessions map[string]*client
}

// NewHub creates an empty hub.
func NewHub(log core.Logger) *Hub {
	return &Hub{
		log:      log,
		sessions: make(map[string]*client),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[c.sessionID] = c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[c.sessionID] == c {
		delete(h.sessions, c.sessionID)
	}
}

// SessionCount returns the number of connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Send delivers an event to one session.
func (h *Hub) Send(sessionID, event string, data any) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		h.log.Error("encode event failed", "event", event, "error", err.Error())
		return
	}

	h.mu.RLock()
	c, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		h.log.Debug("send to unknown session dropped", "session", sessionID, "event", event)
		return
	}
	c.enqueue(frame)
}

// Broadcast delivers an event to every connected session.
func (h *Hub) Broadcast(event string, data any) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		h.log.Error("encode event failed", "event", event, "error", err.Error())
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.sessions {
		c.enqueue(frame)
	}
}

// PublishState implements core.Notifier.
func (h *Hub) PublishState(sessionID string, snap schema.StateSnapshot) {
	h.Send(sessionID, eventOSUpdate, stateUpdate{State: snap})
}

// BroadcastState implements core.Notifier.
func (h *Hub) BroadcastState(snap schema.StateSnapshot) {
	h.Broadcast(eventOSUpdate, stateUpdate{State: snap})
}

// Notify implements core.Notifier.
func (h *Hub) Notify(sessionID string, note schema.Notification) {
	h.Send(sessionID, eventSystemNotification, note)
}

type stateUpdate struct {
	State schema.StateSnapshot `json:"state"`
}

type categoryList struct {
	Categories []string `json:"categories"`
}

type categoryContent struct {
	Category string `json:"category"`
	Content  string `json:"content"`
}

func encodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: event, Data: raw})
}
