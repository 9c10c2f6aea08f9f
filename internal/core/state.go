package core

import (
	"sync"

	"harp/pkg/schema"
)

// GreetingText is the seeded assistant message every fresh history starts with.
const GreetingText = "Architect, welcome to the living interface. The HARP collective " +
	"is online and unified. How may we serve you?"

// DefaultAgentStatuses returns the seeded agent status map.
func DefaultAgentStatuses() map[string]string {
	return map[string]string{
		"Teacher":  "UNIFIED ✅",
		"Scribe":   "UNIFIED ✅",
		"Witness":  "UNIFIED ✅",
		"Governor": "UNIFIED ✅",
		"Ezra":     "UNIFIED ✅",
	}
}

// StateStore is the single process-wide conversation record. All access is
// serialized through a mutex: concurrent orchestration units may interleave
// in any order, but each individual mutation and snapshot is atomic. The
// history is append-only except for Reset, which replaces it with the
// seeded greeting.
type StateStore struct {
	mu       sync.RWMutex
	history  []schema.ChatMessage
	mode     schema.Mode
	projects []string
	agents   map[string]string
}

// NewStateStore creates the shared state with a seeded greeting, Wisdom
// mode, and the given initial project listing.
func NewStateStore(projects []string) *StateStore {
	return &StateStore{
		history:  []schema.ChatMessage{seedMessage()},
		mode:     schema.ModeWisdom,
		projects: append([]string{}, projects...),
		agents:   DefaultAgentStatuses(),
	}
}

func seedMessage() schema.ChatMessage {
	return schema.ChatMessage{Sender: schema.SenderEzra, Text: GreetingText}
}

// Append adds a message to the history.
func (s *StateStore) Append(msg schema.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msg)
}

// SetMode records the current process-wide mode.
func (s *StateStore) SetMode(mode schema.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

// SetProjects replaces the project listing. Last writer wins.
func (s *StateStore) SetProjects(projects []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append([]string{}, projects...)
}

// Reset replaces the history with the single seeded greeting.
func (s *StateStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = []schema.ChatMessage{seedMessage()}
}

// History returns a copy of the current history.
func (s *StateStore) History() []schema.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]schema.ChatMessage{}, s.history...)
}

// Snapshot returns a point-in-time copy of the full state for broadcast.
func (s *StateStore) Snapshot() schema.StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make(map[string]string, len(s.agents))
	for k, v := range s.agents {
		agents[k] = v
	}

	return schema.StateSnapshot{
		History:       append([]schema.ChatMessage{}, s.history...),
		CurrentMode:   s.mode,
		Projects:      append([]string{}, s.projects...),
		AgentStatuses: agents,
	}
}
