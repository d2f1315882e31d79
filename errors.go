package goAccount

import "errors"

// ErrNotFound is returned by collaborators when a looked-up record is absent.
// Adapters may wrap it; the Manager matches it with errors.Is.
var ErrNotFound = errors.New("goAccount: record not found")

// Construction errors returned by Builder.Build.
var (
	ErrBuilderUsed          = errors.New("goAccount: builder already used")
	ErrDatabaseRequired     = errors.New("goAccount: user database required")
	ErrNotifierRequired     = errors.New("goAccount: notifier required")
	ErrSessionStoreRequired = errors.New("goAccount: session store required")
)

// ErrSocialAccountsUnsupported is logged when social login is attempted on a
// database that does not implement SocialAccountDatabase.
var ErrSocialAccountsUnsupported = errors.New("goAccount: user database does not support social accounts")

// Sentinels returned by Result.Err.
var (
	ErrDatabase                       = errors.New("database error")
	ErrEmailAlreadyRegistered         = errors.New("email already registered")
	ErrUserNameAlreadyRegistered      = errors.New("user name already registered")
	ErrNoSuchUser                     = errors.New("no such user")
	ErrInvalidPassword                = errors.New("invalid password")
	ErrFailedToSendEmail              = errors.New("failed to send email")
	ErrNoValidPasswordResetToken      = errors.New("no valid password reset token")
	ErrRegistrationNotConfirmed       = errors.New("registration not confirmed")
	ErrRegistrationAlreadyConfirmed   = errors.New("registration already confirmed")
	ErrInvalidRegistrationControlCode = errors.New("invalid registration control code")
)
