package session

import "sync"

// Store maps user IDs to sessions. Implementations must be safe for
// concurrent use by different users.
type Store interface {
	// Get returns the user's session, or an idle session if none exists.
	Get(userID int64) Session
	// Put replaces the user's session. An idle session removes the entry.
	Put(userID int64, s Session)
}

// MemoryStore is an in-process Store. Sessions do not survive restarts.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]Session)}
}

func (m *MemoryStore) Get(userID int64) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID].Clone()
}

func (m *MemoryStore) Put(userID int64, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Stage == StageIdle {
		delete(m.sessions, userID)
		return
	}
	m.sessions[userID] = s.Clone()
}

// Len returns the number of non-idle sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
