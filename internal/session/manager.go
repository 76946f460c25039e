package session

import (
	"sync"
	"time"
)

// Manager tracks live sessions by token. A token is logged in while it has a
// session here or can be rehydrated into one; Revoke logs it out for good.
type Manager struct {
	mutex    sync.Mutex
	sessions map[string]*Session
	revoked  map[string]time.Time
	now      func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		revoked:  make(map[string]time.Time),
		now:      time.Now,
	}
}

// WithClock replaces the time source used to expire sessions.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) Put(sess *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.prune()
	m.sessions[sess.Token] = sess
}

// Get returns the live session for token, if any.
func (m *Manager) Get(token string) (*Session, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	sess, ok := m.sessions[token]
	if !ok {
		return nil, false
	}
	if !sess.ExpiresAt.IsZero() && !m.now().Before(sess.ExpiresAt) {
		delete(m.sessions, token)
		return nil, false
	}
	return sess, true
}

// PutIfAbsent stores sess unless another session already holds the token,
// and returns whichever session ends up stored.
func (m *Manager) PutIfAbsent(sess *Session) *Session {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if existing, ok := m.sessions[sess.Token]; ok {
		return existing
	}
	m.sessions[sess.Token] = sess
	return sess
}

// Drop forgets the session for token without revoking the token.
func (m *Manager) Drop(token string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, token)
}

// Revoke forgets the session and refuses the token until it expires.
func (m *Manager) Revoke(token string, until time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.prune()
	delete(m.sessions, token)
	m.revoked[token] = until
}

func (m *Manager) IsRevoked(token string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	until, ok := m.revoked[token]
	if !ok {
		return false
	}
	if !m.now().Before(until) {
		delete(m.revoked, token)
		return false
	}
	return true
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.sessions)
}

// prune drops expired sessions and revocations. Caller holds the mutex.
func (m *Manager) prune() {
	now := m.now()
	for token, sess := range m.sessions {
		if !sess.ExpiresAt.IsZero() && !now.Before(sess.ExpiresAt) {
			delete(m.sessions, token)
		}
	}
	for token, until := range m.revoked {
		if !now.Before(until) {
			delete(m.revoked, token)
		}
	}
}
