package goAccount

import (
	"context"
	"time"
)

// UnassignedID is the Account.ID of an account not yet persisted.
const UnassignedID int64 = -1

// Ranks. The Manager stores them but never branches on them.
const (
	RankDemoUser   = 100
	RankNormalUser = 200
	RankModerator  = 300
	RankAdmin      = 400
	RankWebmaster  = 500
)

// Account is a registered identity. Name is optional; the empty string means
// no name. Credential is nil for accounts without a self-chosen password.
type Account struct {
	ID                      int64
	Name                    string
	Email                   string
	RegistrationDate        time.Time
	RegistrationControlCode string
	RegistrationConfirmed   bool
	Credential              *Credential
	Rank                    int
}

// Credential is a hex digest and the hex salt it was computed with. The two
// always travel together.
type Credential struct {
	Hash string
	Salt string
}

// PasswordResetToken is a time-limited key permitting a password reset.
type PasswordResetToken struct {
	UserID       int64
	Key          string
	CreationTime time.Time
}

// SocialAccountDetails identifies an account at an external identity provider.
// The caller is responsible for having verified it.
type SocialAccountDetails struct {
	AccountType string
	AccountID   string
	Name        string
	Email       string
}

// EmailType selects a sample email for SendTestingEmail.
type EmailType uint8

const (
	EmailRegistration EmailType = iota
	EmailManualRegistration
	EmailLostPassword
)

func (t EmailType) String() string {
	switch t {
	case EmailRegistration:
		return "registration"
	case EmailManualRegistration:
		return "manual_registration"
	case EmailLostPassword:
		return "lost_password"
	default:
		return "unknown"
	}
}

// UserDatabase is the system of record. Lookups return an error matching
// ErrNotFound when the record is absent. Any other error is treated as a
// storage failure.
type UserDatabase interface {
	// AddUser persists a new account and returns the id storage assigned.
	AddUser(ctx context.Context, account *Account) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*Account, error)
	GetUserByName(ctx context.Context, name string) (*Account, error)
	GetUserIDByEmail(ctx context.Context, email string) (int64, error)
	IsEmailRegistered(ctx context.Context, email string) (bool, error)
	IsUserNameRegistered(ctx context.Context, name string) (bool, error)
	GetUserPassword(ctx context.Context, userID int64) (*Credential, error)
	SetUserPassword(ctx context.Context, userID int64, credential Credential) error
	DeleteUser(ctx context.Context, userID int64) error
	ConfirmUserRegistration(ctx context.Context, email string) error
	// RegisteredUserCount counts confirmed accounts registered at or after since.
	RegisteredUserCount(ctx context.Context, since time.Time) (int, error)
	AddPasswordResetToken(ctx context.Context, token PasswordResetToken) error
	// GetNewestPasswordResetToken returns the newest non-cancelled token for email.
	GetNewestPasswordResetToken(ctx context.Context, email string) (*PasswordResetToken, error)
	CancelAllPasswordResetTokens(ctx context.Context, userID int64) error
	MakeLoginRecord(ctx context.Context, userID int64, successful bool, clientAddress string) error
}

// SocialAccountDatabase is implemented by databases that can link accounts to
// external identities.
type SocialAccountDatabase interface {
	GetUserBySocialAccount(ctx context.Context, details SocialAccountDetails) (*Account, error)
	// AddUserWithSocialAccount persists account and its link to details and
	// returns the assigned id.
	AddUserWithSocialAccount(ctx context.Context, account *Account, details SocialAccountDetails) (int64, error)
}

// Notifier delivers account emails. A non-nil error means delivery failed.
type Notifier interface {
	SendRegistrationEmail(ctx context.Context, email, name string, userID int64, controlCode string) error
	// SendManualRegistrationEmail tells the recipient an administrator created
	// an account for them. registrator may be nil.
	SendManualRegistrationEmail(ctx context.Context, email, name string, userID int64, controlCode string, registrator *Account) error
	SendLostPasswordEmail(ctx context.Context, email, tokenKey string) error
}

// SessionStore holds the current account of the caller's session, which is
// identified through ctx. A nil account means none.
type SessionStore interface {
	CurrentAccount(ctx context.Context) (*Account, error)
	SetCurrentAccount(ctx context.Context, account *Account) error
}
