package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/formweave/internal/formstore"
	"github.com/vk/formweave/internal/registry"
	"github.com/vk/formweave/internal/runtime"
)

// Session is one live viewer session: a dedicated runtime store bound to an
// applied form.
type Session struct {
	ID        string
	Store     *runtime.Store
	CreatedAt time.Time
}

// SessionManager owns the viewer sessions. Every session gets its own
// store, queue and reactive graph; sessions are fully isolated from each
// other.
type SessionManager struct {
	reg    *registry.Registry
	loader runtime.Loader

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty manager over the given component
// registry and form loader.
func NewSessionManager(reg *registry.Registry, loader runtime.Loader) *SessionManager {
	return &SessionManager{
		reg:      reg,
		loader:   loader,
		sessions: map[string]*Session{},
	}
}

// Create builds a session and applies the envelope. The session exists even
// when the apply fails: form load failures are recoverable and render as an
// error banner, so the returned error only annotates the response.
func (m *SessionManager) Create(ctx context.Context, env *formstore.Envelope, data map[string]any, lang string) (*Session, error) {
	store := runtime.NewStore(ctx, runtime.Options{
		Registry: m.reg,
		Loader:   m.loader,
		Language: lang,
	})
	err := store.ApplyPersistedForm(ctx, env, data)

	sess := &Session{
		ID:        uuid.NewString(),
		Store:     store,
		CreatedAt: time.Now(),
	}
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess, err
}

// Get resolves a session by id.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Close disposes a session's store and forgets it.
func (m *SessionManager) Close(ctx context.Context, id string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return false
	}
	sess.Store.Close(ctx)
	return true
}

// CloseAll disposes every session, used on server shutdown.
func (m *SessionManager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = map[string]*Session{}
	m.mu.Unlock()
	for _, sess := range sessions {
		sess.Store.Close(ctx)
	}
}

// Count reports the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
