// Package sessionstore persists the collection of authenticated
// Apia form sessions produced by the session acquisition service.
package sessionstore

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// DefaultWindow is the rolling validity window of a session:
// a session older than this is considered expired.
const DefaultWindow = 30 * time.Minute

// Session is one authenticated interaction context with the
// remote form engine. The json tags match the schema written by
// the acquisition service.
type Session struct {
	TabID      string    `json:"tabId"`
	TokenID    string    `json:"tokenId"`
	Timestamp1 string    `json:"timestamp1"`
	Timestamp2 string    `json:"timestamp2"`
	Cookie     string    `json:"cookie"`
	Datetime   time.Time `json:"datetime"`
}

// A Lease pairs a usable session with its index in the backing
// collection, so usage can be written back to the right record.
type Lease struct {
	Index   int
	Session Session
}

// Store owns the session collection for the duration of a run.
// The backing file holds the whole collection as one JSON array
// and is rewritten in full on every update, so all writes go
// through a single mutex.
type Store struct {
	path string

	mu       sync.Mutex
	sessions []Session
}

// Open reads the session collection at path.
func Open(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sessions []Session
	err = json.Unmarshal(raw, &sessions)
	if err != nil {
		return nil, fmt.Errorf("parse session collection %s: %w", path, err)
	}
	return &Store{path: path, sessions: sessions}, nil
}

// Sessions returns a copy of the full collection, expired
// records included.
func (s *Store) Sessions() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Valid returns leases for every session last used strictly
// after now minus window.
func (s *Store) Valid(now time.Time, window time.Duration) []Lease {
	s.mu.Lock()
	defer s.mu.Unlock()

	var leases []Lease
	for i, session := range s.sessions {
		if session.Datetime.After(now.Add(-window)) {
			leases = append(leases, Lease{Index: i, Session: session})
		}
	}
	return leases
}

// MarkUsed refreshes the last-used time of one session and
// persists the whole collection.
func (s *Store) MarkUsed(index int, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.sessions) {
		return fmt.Errorf("session index %d out of range", index)
	}
	s.sessions[index].Datetime = t
	return s.persistLocked()
}

// Prune drops every expired session from the collection and
// persists it, returning the number of sessions removed.
func (s *Store) Prune(now time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.sessions[:0]
	for _, session := range s.sessions {
		if session.Datetime.After(now.Add(-window)) {
			kept = append(kept, session)
		}
	}
	removed := len(s.sessions) - len(kept)
	s.sessions = kept
	if removed == 0 {
		return 0, nil
	}
	return removed, s.persistLocked()
}

func (s *Store) persistLocked() error {
	raw, err := json.MarshalIndent(s.sessions, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0644)
}
