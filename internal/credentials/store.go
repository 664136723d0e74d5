// Package credentials holds the process-lifetime credential for a connected
// third-party account. The application assumes a single operator session, so
// the store keeps at most one credential per integration and last write wins.
package credentials

import "sync"

// Auxiliary is a secondary identifier discovered after connect, such as the
// Make.com team a token is scoped to.
type Auxiliary struct {
	ID   string
	Name string
}

// Credential is the stored secret plus its auxiliary identifiers.
type Credential struct {
	Secret      string
	DisplayName string
	Auxiliary   *Auxiliary
}

// Store is the injectable credential store. The in-memory implementation
// serves the single-tenant case; a multi-tenant deployment swaps in a
// session-keyed implementation without touching callers.
type Store interface {
	Set(cred Credential)
	Get() (Credential, bool)
	SetAuxiliary(aux Auxiliary)
	Clear() bool
}

type memoryStore struct {
	mu   sync.RWMutex
	cred *Credential
}

// NewMemoryStore returns an empty in-memory credential store.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Set(cred Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cred = &cred
}

func (s *memoryStore) Get() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cred == nil {
		return Credential{}, false
	}
	return *s.cred, true
}

// SetAuxiliary updates the auxiliary identifier while preserving the secret.
// A no-op when no credential is stored.
func (s *memoryStore) SetAuxiliary(aux Auxiliary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cred == nil {
		return
	}
	s.cred.Auxiliary = &aux
}

// Clear removes the credential and reports whether one was present.
func (s *memoryStore) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	had := s.cred != nil
	s.cred = nil
	return had
}
