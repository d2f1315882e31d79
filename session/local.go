package session

import (
	"context"
	"sync"
	"time"
)

// Local is an in-process session store for single-instance deployments and
// tests. It applies the same expiry rules as Store without sliding renewal.
type Local struct {
	mu       sync.Mutex
	lifetime time.Duration
	now      func() time.Time
	sessions map[string]Session
}

// NewLocal returns an empty Local store. lifetime defaults to 24h.
func NewLocal(lifetime time.Duration) *Local {
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return &Local{
		lifetime: lifetime,
		now:      time.Now,
		sessions: make(map[string]Session),
	}
}

func (l *Local) Save(_ context.Context, sess *Session) error {
	now := l.now()
	if sess.CreatedAt == 0 {
		sess.CreatedAt = now.Unix()
	}
	if sess.ExpiresAt == 0 {
		sess.ExpiresAt = time.Unix(sess.CreatedAt, 0).Add(l.lifetime).Unix()
	}
	sess.SchemaVersion = CurrentSchemaVersion

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessions[sess.SessionID] = *sess
	return nil
}

func (l *Local) Get(_ context.Context, sessionID string) (*Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sess, ok := l.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if l.now().Unix() >= sess.ExpiresAt {
		delete(l.sessions, sessionID)
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (l *Local) Delete(_ context.Context, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sessions, sessionID)
	return nil
}

// DeleteAllForUser removes every session of userID.
func (l *Local) DeleteAllForUser(_ context.Context, userID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for sid, sess := range l.sessions {
		if sess.UserID == userID {
			delete(l.sessions, sid)
		}
	}
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}
