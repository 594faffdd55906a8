package auth

import (
	"context"
	"sync"
)

// Identity is an authenticated caller
type Identity struct {
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
}

// DisplayName is the name recorded on audit fields such as a correction's requester
func (i Identity) DisplayName() string {
	if i.Email != "" {
		return i.Email
	}
	return "Unknown User"
}

type identityKey struct{}

// WithIdentity returns a context carrying identity
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// CurrentIdentity returns the identity carried by ctx, if any
func CurrentIdentity(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok && identity.UserID != ""
}

// IdentityListener is called with the new identity on sign-in and with nil on sign-out
type IdentityListener func(ctx context.Context, userID string, identity *Identity)

// SessionManager fans identity changes out to listeners
type SessionManager struct {
	mu        sync.RWMutex
	listeners map[int]IdentityListener
	nextID    int
}

// NewSessionManager creates a SessionManager
func NewSessionManager() *SessionManager {
	return &SessionManager{listeners: make(map[int]IdentityListener)}
}

// OnIdentityChange registers fn and returns a func that unregisters it
func (m *SessionManager) OnIdentityChange(fn IdentityListener) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// SignedIn notifies listeners that identity started a session
func (m *SessionManager) SignedIn(ctx context.Context, identity Identity) {
	m.notify(ctx, identity.UserID, &identity)
}

// SignedOut notifies listeners that userID ended a session
func (m *SessionManager) SignedOut(ctx context.Context, userID string) {
	m.notify(ctx, userID, nil)
}

func (m *SessionManager) notify(ctx context.Context, userID string, identity *Identity) {
	m.mu.RLock()
	listeners := make([]IdentityListener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.RUnlock()

	for _, fn := range listeners {
		fn(ctx, userID, identity)
	}
}
