package state

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps sessions in process. Loads and saves copy the state so
// callers never share a pointer with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionState
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*SessionState)}
}

func (m *MemoryStore) Load(ctx context.Context, sessionID string) (*SessionState, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return st.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, st *SessionState) error {
	if st == nil {
		return ErrNilSessionState
	}
	if err := st.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st.Version++
	m.sessions[st.SessionID] = st.Clone()
	return nil
}

func (m *MemoryStore) CreateIfAbsent(ctx context.Context, initial *SessionState) (*SessionState, error) {
	if initial == nil {
		return nil, ErrNilSessionState
	}
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[initial.SessionID]; ok {
		return existing.Clone(), nil
	}
	initial.Version++
	m.sessions[initial.SessionID] = initial.Clone()
	return initial, nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// Len reports the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
