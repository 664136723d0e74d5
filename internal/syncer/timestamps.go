package syncer

import (
	"fmt"
	"strings"
	"sync"
)

// Source names an integration direction whose last-synced time is tracked.
type Source string

const (
	SourceYardi      Source = "yardi"
	SourceQuickBooks Source = "quickbooks"
)

// DefaultUser is the operator key used when no user is specified. The store
// is keyed by user so a multi-operator deployment works without changes.
const DefaultUser = "default"

// Timestamps holds the advisory last-synced times for one user.
type Timestamps struct {
	YardiSync      *string `json:"yardiSync"`
	QuickBooksSync *string `json:"quickBooksSync"`
}

// TimestampStore keeps per-user last-synced markers in process memory.
type TimestampStore struct {
	mu      sync.RWMutex
	entries map[string]*Timestamps
}

// NewTimestampStore returns an empty store.
func NewTimestampStore() *TimestampStore {
	return &TimestampStore{entries: make(map[string]*Timestamps)}
}

// Set records the timestamp of a successful sync for a user and source.
func (s *TimestampStore) Set(userID string, source Source, timestamp string) error {
	switch Source(strings.ToLower(string(source))) {
	case SourceYardi, SourceQuickBooks:
	default:
		return fmt.Errorf("invalid source %q, must be %q or %q", source, SourceYardi, SourceQuickBooks)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID]
	if !ok {
		entry = &Timestamps{}
		s.entries[userID] = entry
	}

	if Source(strings.ToLower(string(source))) == SourceYardi {
		entry.YardiSync = &timestamp
	} else {
		entry.QuickBooksSync = &timestamp
	}

	return nil
}

// Get returns the user's timestamps, defaulting to empty markers for unknown
// users.
func (s *TimestampStore) Get(userID string) Timestamps {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, ok := s.entries[userID]; ok {
		return *entry
	}
	return Timestamps{}
}
