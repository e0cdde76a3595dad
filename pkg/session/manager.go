package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/digitalocean/registration-wizard/pkg/services"
)

var ErrSessionNotFound = errors.New("session not found")

var uuidNewString = uuid.NewString

type pendingSession struct {
	session   *Session
	expiresAt time.Time
}

// Manager keeps the live sessions. A session expires after ttl without use.
type Manager struct {
	registration services.RegistrationService
	posts        services.PostsService

	sessions map[string]*pendingSession
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(registration services.RegistrationService, posts services.PostsService, ttl time.Duration) *Manager {
	return &Manager{
		registration: registration,
		posts:        posts,
		sessions:     make(map[string]*pendingSession),
		ttl:          ttl,
		now:          time.Now,
	}
}

// Create starts a new session and its initial posts fetch
func (m *Manager) Create() *Session {
	s := newSession(uuidNewString(), m.registration, m.posts)

	m.mu.Lock()
	m.sessions[s.ID()] = &pendingSession{
		session:   s,
		expiresAt: m.now().Add(m.ttl),
	}
	m.mu.Unlock()

	s.Start()
	log.Printf("Created session %s", s.ID())
	return s
}

// Get returns a live session and extends its lifetime
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	pending, exists := m.sessions[id]
	if !exists {
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	if m.now().After(pending.expiresAt) {
		delete(m.sessions, id)
		m.mu.Unlock()
		pending.session.Close()
		return nil, ErrSessionNotFound
	}

	pending.expiresAt = m.now().Add(m.ttl)
	m.mu.Unlock()

	return pending.session, nil
}

// Delete ends a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	pending, exists := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}
	pending.session.Close()
	log.Printf("Deleted session %s", id)
	return nil
}

// Len returns the number of tracked sessions, expired ones included
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes expired sessions and returns how many were removed
func (m *Manager) Sweep() int {
	now := m.now()

	var expired []*Session
	m.mu.Lock()
	for id, pending := range m.sessions {
		if now.After(pending.expiresAt) {
			expired = append(expired, pending.session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		log.Printf("Expired %d sessions", len(expired))
	}
	return len(expired)
}

// Run sweeps expired sessions every interval until ctx is done
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Close ends every session
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*pendingSession)
	m.mu.Unlock()

	for _, pending := range sessions {
		pending.session.Close()
	}
}
