package session

import (
	"context"
	"errors"

	goAccount "github.com/MrEthical07/goAccount"
)

// ErrNoSessionID is returned when an account is stored without a session ID
// bound to the context.
var ErrNoSessionID = errors.New("no session id in context")

// Backend is the persistence contract shared by Store and Local.
type Backend interface {
	Save(ctx context.Context, sess *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// Accounts adapts a Backend to goAccount.SessionStore. The session addressed
// by each call is the one bound to the context with WithID.
type Accounts struct {
	backend Backend
}

// NewAccounts returns an Accounts over backend.
func NewAccounts(backend Backend) *Accounts {
	return &Accounts{backend: backend}
}

// CurrentAccount returns the account of the bound session. A context without
// a session or a missing session yields (nil, nil).
func (a *Accounts) CurrentAccount(ctx context.Context) (*goAccount.Account, error) {
	sid, ok := IDFromContext(ctx)
	if !ok {
		return nil, nil
	}

	sess, err := a.backend.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &goAccount.Account{
		ID:                    sess.UserID,
		Name:                  sess.Name,
		Email:                 sess.Email,
		RegistrationConfirmed: sess.Confirmed,
		Rank:                  int(sess.Rank),
	}, nil
}

// SetCurrentAccount stores account in the bound session, or deletes the
// session when account is nil.
func (a *Accounts) SetCurrentAccount(ctx context.Context, account *goAccount.Account) error {
	sid, ok := IDFromContext(ctx)
	if !ok {
		if account == nil {
			return nil
		}
		return ErrNoSessionID
	}

	if account == nil {
		return a.backend.Delete(ctx, sid)
	}

	return a.backend.Save(ctx, &Session{
		SessionID: sid,
		UserID:    account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Rank:      int64(account.Rank),
		Confirmed: account.RegistrationConfirmed,
	})
}
