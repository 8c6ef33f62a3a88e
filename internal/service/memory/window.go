package memory

import (
	"sync"

	"github.com/veldt-labs/caresage/internal/core"
)

// window is the bounded recent-turn buffer of one conversation.
// Append past capacity evicts from the front.
type window struct {
	turns    []core.Turn
	capacity int
}

func newWindow(capacity int, turns []core.Turn) *window {
	w := &window{capacity: capacity}
	w.extend(turns...)
	return w
}

func (w *window) extend(turns ...core.Turn) {
	w.turns = append(w.turns, turns...)
	if over := len(w.turns) - w.capacity; over > 0 {
		w.turns = w.turns[over:]
	}
}

// snapshot returns a copy so callers never alias the live buffer.
func (w *window) snapshot() []core.Turn {
	out := make([]core.Turn, len(w.turns))
	copy(out, w.turns)
	return out
}

// windowSet holds per-conversation windows, created lazily.
type windowSet struct {
	mu       sync.Mutex
	capacity int
	windows  map[string]*window
}

func newWindowSet(capacity int) *windowSet {
	return &windowSet{
		capacity: capacity,
		windows:  make(map[string]*window),
	}
}

// snapshot returns the window contents when the conversation is
// already tracked.
func (s *windowSet) snapshot(conversationID string) ([]core.Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[conversationID]
	if !ok {
		return nil, false
	}
	return w.snapshot(), true
}

// seed installs a freshly loaded window unless a concurrent loader won
// the race, and returns the tracked contents either way.
func (s *windowSet) seed(conversationID string, turns []core.Turn) []core.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[conversationID]
	if !ok {
		w = newWindow(s.capacity, turns)
		s.windows[conversationID] = w
	}
	return w.snapshot()
}

func (s *windowSet) extend(conversationID string, turns ...core.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.windows[conversationID]; ok {
		w.extend(turns...)
	}
}
