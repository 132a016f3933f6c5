// Package history provides the bounded undo/redo log for supplier actions.
package history

import (
	"sync"
	"time"

	"github.com/nfalk/supplierdesk/backend/internal/uuid"
)

// DefaultMaxEntries bounds the log when no explicit capacity is given.
const DefaultMaxEntries = 50

// Entry is one recorded action. Immutable once recorded.
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Action      Action    `json:"-"`
	Description string    `json:"description"`
}

// Store keeps a bounded, ordered log of actions with a cursor for linear
// undo/redo. cursor is the index of the most recently applied, not-yet-undone
// entry; -1 means nothing applied. One mutex guards entries and cursor as a
// unit because every operation reads then writes both.
type Store struct {
	mu         sync.Mutex
	entries    []Entry
	cursor     int
	maxEntries int
}

// NewStore creates an empty store bounded to maxEntries.
// A non-positive capacity falls back to DefaultMaxEntries.
func NewStore(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{
		entries:    make([]Entry, 0, maxEntries),
		cursor:     -1,
		maxEntries: maxEntries,
	}
}

// Record appends an action to the log and returns the new entry.
// Entries after the cursor (the undone branch) are discarded first; once the
// log exceeds its capacity the oldest entry is evicted and the cursor shifts
// down to keep its relative position.
func (s *Store) Record(action Action, description string) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A new action invalidates everything that was undone.
	if s.cursor < len(s.entries)-1 {
		s.entries = s.entries[:s.cursor+1]
	}

	entry := Entry{
		ID:          uuid.New(),
		Timestamp:   time.Now(),
		Action:      action,
		Description: description,
	}
	s.entries = append(s.entries, entry)
	s.cursor++

	for len(s.entries) > s.maxEntries {
		s.entries = s.entries[1:]
		s.cursor--
	}

	return entry
}

// Undo returns the action at the cursor and steps the cursor back.
// The entry is kept so it remains available for Redo. Returns false without
// changing state when there is nothing to undo.
func (s *Store) Undo() (Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor < 0 {
		return nil, false
	}
	action := s.entries[s.cursor].Action
	s.cursor--
	return action, true
}

// Redo steps the cursor forward and returns the action it now points at.
// Returns false without changing state when there is nothing to redo.
func (s *Store) Redo() (Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= len(s.entries)-1 {
		return nil, false
	}
	s.cursor++
	return s.entries[s.cursor].Action, true
}

// CanUndo reports whether an Undo would succeed.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor >= 0
}

// CanRedo reports whether a Redo would succeed.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor < len(s.entries)-1
}

// UndoDescription returns the label of the entry the next Undo would return.
func (s *Store) UndoDescription() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor < 0 {
		return "", false
	}
	return s.entries[s.cursor].Description, true
}

// RedoDescription returns the label of the entry the next Redo would return.
func (s *Store) RedoDescription() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= len(s.entries)-1 {
		return "", false
	}
	return s.entries[s.cursor+1].Description, true
}

// Entries returns a snapshot of the log in chronological order.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Cursor returns the current cursor position (-1 when nothing is applied).
func (s *Store) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Len returns the number of entries in the log.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear resets the store to its initial empty state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = s.entries[:0]
	s.cursor = -1
}
