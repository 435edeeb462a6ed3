package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"qconnect/contexts/community-experience/interaction-engine/domain/entities"
)

type sessionKey struct {
	actorID string
	scope   entities.ItemKind
}

// Manager hands out one Session per (actor, scope) over a shared collection.
// Each Session serializes its own calls; the map itself is locked.
//
// Sessions unused for IdleTTL are dropped on the next acquire. When
// MaxSessions is reached the least recently used session is dropped to make
// room. Zero disables either limit.
type Manager struct {
	Template    Dependencies
	IdleTTL     time.Duration
	MaxSessions int

	mu       sync.Mutex
	sessions map[sessionKey]*managedSession
}

type managedSession struct {
	mu       sync.Mutex
	session  *Session
	lastUsed time.Time
}

// With runs fn against the actor's session, creating it on first use.
func (m *Manager) With(ctx context.Context, actorID string, scope entities.ItemKind, fn func(*Session) error) error {
	managed, err := m.acquire(ctx, actorID, scope)
	if err != nil {
		return err
	}
	managed.mu.Lock()
	defer managed.mu.Unlock()
	return fn(managed.session)
}

// End discards every session the actor holds.
func (m *Manager) End(actorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	actorID = strings.TrimSpace(actorID)
	for key := range m.sessions {
		if key.actorID == actorID {
			delete(m.sessions, key)
		}
	}
}

func (m *Manager) acquire(ctx context.Context, actorID string, scope entities.ItemKind) (*managedSession, error) {
	key := sessionKey{actorID: strings.TrimSpace(actorID), scope: scope}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions == nil {
		m.sessions = make(map[sessionKey]*managedSession)
	}
	now := m.now()
	m.evictIdle(now)
	if existing, ok := m.sessions[key]; ok {
		existing.lastUsed = now
		return existing, nil
	}

	deps := m.Template
	deps.ActorID = key.actorID
	deps.Scope = scope
	created, err := New(ctx, deps)
	if err != nil {
		return nil, err
	}
	if m.MaxSessions > 0 && len(m.sessions) >= m.MaxSessions {
		m.evictOldest()
	}
	managed := &managedSession{session: created, lastUsed: now}
	m.sessions[key] = managed
	return managed, nil
}

// Len reports how many sessions are held.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) now() time.Time {
	if m.Template.Clock != nil {
		return m.Template.Clock.Now()
	}
	return time.Now()
}

func (m *Manager) evictIdle(now time.Time) {
	if m.IdleTTL <= 0 {
		return
	}
	for key, managed := range m.sessions {
		if now.Sub(managed.lastUsed) >= m.IdleTTL {
			delete(m.sessions, key)
		}
	}
}

func (m *Manager) evictOldest() {
	var (
		oldestKey sessionKey
		oldest    *managedSession
	)
	for key, managed := range m.sessions {
		if oldest == nil || managed.lastUsed.Before(oldest.lastUsed) {
			oldestKey, oldest = key, managed
		}
	}
	if oldest != nil {
		delete(m.sessions, oldestKey)
	}
}
