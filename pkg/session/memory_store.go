package session

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MemoryStore implements Store with in-process storage. Sessions do not
// survive a restart, which is acceptable for sign-in flow state: the user
// simply signs in again.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ticker   *time.Ticker
	done     chan struct{}
	closeOne sync.Once
}

// NewMemoryStore creates an in-memory session store. A cleanupInterval of 0
// disables the background sweep.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	store := &MemoryStore{
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}

	if cleanupInterval > 0 {
		store.ticker = time.NewTicker(cleanupInterval)
		go store.cleanupLoop()
	}

	return store
}

// Create stores a new session.
func (m *MemoryStore) Create(ctx context.Context, session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.Token] = copySession(session)
	return nil
}

// Get retrieves a session by token, deleting it if expired.
func (m *MemoryStore) Get(ctx context.Context, token string) (*Session, error) {
	m.mu.RLock()
	session, exists := m.sessions[token]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return nil, ErrSessionExpired
	}

	return copySession(session), nil
}

// Update replaces an existing session.
func (m *MemoryStore) Update(ctx context.Context, session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.Token]; !exists {
		return ErrSessionNotFound
	}
	m.sessions[session.Token] = copySession(session)
	return nil
}

// Delete removes a session by token.
func (m *MemoryStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// DeleteExpired removes all expired sessions.
func (m *MemoryStore) DeleteExpired(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for token, session := range m.sessions {
		if now.After(session.ExpiresAt) {
			delete(m.sessions, token)
		}
	}
	return nil
}

// Close stops the background cleanup loop.
func (m *MemoryStore) Close() error {
	m.closeOne.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.done)
	})
	return nil
}

func (m *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-m.ticker.C:
			_ = m.DeleteExpired(context.Background())
		case <-m.done:
			return
		}
	}
}

// copySession returns a deep-enough copy so callers cannot mutate the stored
// record through the returned pointer.
func copySession(s *Session) *Session {
	cp := *s
	if s.Data != nil {
		cp.Data = make(map[string]any, len(s.Data))
		maps.Copy(cp.Data, s.Data)
	}
	return &cp
}
