// Package streaming tracks per-response state for streamed chat messages.
// Response chunks share a UUID; outputs use the state to coalesce chunks
// into a single platform message edited in place, with a growth gate,
// an edit-interval throttle, and age-out of abandoned responses.
package streaming

import (
	"sync"
	"time"
)

// State tracks one streamed response message.
type State struct {
	// MessageRef is the platform handle of the posted message (Slack ts,
	// Discord message id). Empty until the first post.
	MessageRef string

	createdAt time.Time
	lastSent  time.Time
	lastLen   int

	interval time.Duration
	mu       sync.Mutex
}

// ShouldSend applies the streaming gates: the text must have grown, and
// intermediate chunks are throttled to the update interval. First and
// last chunks and completion always pass the throttle.
func (s *State) ShouldSend(textLen int, firstChunk, lastChunk, complete bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if textLen <= s.lastLen && !complete {
		return false
	}
	if firstChunk || lastChunk || complete {
		return true
	}
	return time.Since(s.lastSent) >= s.interval
}

// MarkSent records a successful post or edit.
func (s *State) MarkSent(textLen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSent = time.Now()
	if textLen > s.lastLen {
		s.lastLen = textLen
	}
}

// Table holds per-UUID streaming state with age-out.
type Table struct {
	interval time.Duration
	ttl      time.Duration

	states map[string]*State
	mu     sync.Mutex
}

// NewTable creates a state table with the given edit interval and state
// time-to-live. Non-positive values fall back to 1200ms and one minute.
func NewTable(interval, ttl time.Duration) *Table {
	if interval <= 0 {
		interval = 1200 * time.Millisecond
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Table{
		interval: interval,
		ttl:      ttl,
		states:   make(map[string]*State),
	}
}

// Get returns the state for a response UUID, creating it if needed and
// reporting whether it was created. The create path also ages out expired
// entries.
func (t *Table) Get(id string) (*State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if state, ok := t.states[id]; ok {
		return state, false
	}

	t.ageOutLocked()

	state := &State{
		createdAt: time.Now(),
		interval:  t.interval,
	}
	t.states[id] = state
	return state, true
}

// Delete removes a response's state.
func (t *Table) Delete(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, id)
}

// Len reports the number of active streaming states.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.states)
}

func (t *Table) ageOutLocked() {
	cutoff := time.Now().Add(-t.ttl)
	for id, state := range t.states {
		if state.createdAt.Before(cutoff) {
			delete(t.states, id)
		}
	}
}
