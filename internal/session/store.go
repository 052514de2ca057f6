// Package session holds a conversation's message list and enforces the
// single-writer invariant: exactly one agent run may own the list at a time.
package session

import (
	"errors"
	"sync"

	"github.com/stratos/parley/internal/types"
)

// ErrRunActive is returned when a run is requested while another run still
// owns the conversation.
var ErrRunActive = errors.New("session: a run is already active")

// Store owns a conversation between runs. While a run is active the run
// holds exclusive write ownership; the store rejects concurrent acquisition
// and tolerates a new request arriving while a cancelled run's teardown is
// still completing.
type Store struct {
	mu       sync.Mutex
	messages []types.Message
	title    string
	active   bool
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{}
}

// Acquire hands exclusive ownership to a new run and returns a snapshot of
// the conversation with the user message appended. The user message is
// committed immediately so it survives a cancelled run.
func (s *Store) Acquire(user types.Message) ([]types.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return nil, ErrRunActive
	}
	s.active = true
	s.messages = append(s.messages, user)

	snapshot := make([]types.Message, len(s.messages))
	copy(snapshot, s.messages)
	return snapshot, nil
}

// Release merges the run's completed messages back and ends the run's
// ownership. Passing nil merges nothing, which is what a cancelled run with
// no completed output does.
func (s *Store) Release(produced []types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, produced...)
	s.active = false
}

// Active reports whether a run currently owns the conversation.
func (s *Store) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Messages returns a copy of the persisted conversation.
func (s *Store) Messages() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]types.Message, len(s.messages))
	copy(result, s.messages)
	return result
}

// Len returns the number of persisted messages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// SetTitle records the generated conversation title.
func (s *Store) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
}

// Title returns the conversation title, if one has been generated.
func (s *Store) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// Clear resets the conversation. It fails while a run is active.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return ErrRunActive
	}
	s.messages = nil
	s.title = ""
	return nil
}
