package goAccount

import (
	"errors"
	"fmt"
)

// Result is the outcome of a Manager operation. Expected business outcomes are
// reported as Results, never as errors.
type Result uint8

const (
	// ResultOK reports success.
	ResultOK Result = iota
	// ResultDatabaseError reports a storage collaborator failure.
	ResultDatabaseError
	// ResultEmailAlreadyRegistered reports an email collision on registration.
	ResultEmailAlreadyRegistered
	// ResultUserNameAlreadyRegistered reports a user name collision on registration.
	ResultUserNameAlreadyRegistered
	// ResultNoSuchUser reports that the addressed account does not exist.
	ResultNoSuchUser
	// ResultInvalidPassword reports a password that does not match the stored credential.
	ResultInvalidPassword
	// ResultFailedToSendEmail reports a notifier failure. Writes made before the
	// send are kept.
	ResultFailedToSendEmail
	// ResultNoValidPasswordResetToken reports a missing, mismatched or expired reset token.
	ResultNoValidPasswordResetToken
	// ResultRegistrationNotConfirmed reports an attempt to log in to an unconfirmed account.
	ResultRegistrationNotConfirmed
	// ResultRegistrationAlreadyConfirmed reports a second confirmation attempt.
	ResultRegistrationAlreadyConfirmed
	// ResultInvalidRegistrationControlCode reports a control code mismatch.
	ResultInvalidRegistrationControlCode
	resultCount
)

var resultNames = [resultCount]string{
	ResultOK:                             "OK",
	ResultDatabaseError:                  "DATABASE_ERROR",
	ResultEmailAlreadyRegistered:         "EMAIL_ALREADY_REGISTERED",
	ResultUserNameAlreadyRegistered:      "USER_NAME_ALREADY_REGISTERED",
	ResultNoSuchUser:                     "NO_SUCH_USER",
	ResultInvalidPassword:                "INVALID_PASSWORD",
	ResultFailedToSendEmail:              "FAILED_TO_SEND_EMAIL",
	ResultNoValidPasswordResetToken:      "NO_VALID_PASSWORD_RESET_TOKEN",
	ResultRegistrationNotConfirmed:       "REGISTRATION_NOT_CONFIRMED",
	ResultRegistrationAlreadyConfirmed:   "REGISTRATION_ALREADY_CONFIRMED",
	ResultInvalidRegistrationControlCode: "INVALID_REGISTRATION_CONTROL_CODE",
}

var resultErrors = [resultCount]error{
	ResultDatabaseError:                  ErrDatabase,
	ResultEmailAlreadyRegistered:         ErrEmailAlreadyRegistered,
	ResultUserNameAlreadyRegistered:      ErrUserNameAlreadyRegistered,
	ResultNoSuchUser:                     ErrNoSuchUser,
	ResultInvalidPassword:                ErrInvalidPassword,
	ResultFailedToSendEmail:              ErrFailedToSendEmail,
	ResultNoValidPasswordResetToken:      ErrNoValidPasswordResetToken,
	ResultRegistrationNotConfirmed:       ErrRegistrationNotConfirmed,
	ResultRegistrationAlreadyConfirmed:   ErrRegistrationAlreadyConfirmed,
	ResultInvalidRegistrationControlCode: ErrInvalidRegistrationControlCode,
}

// String returns the canonical upper-snake name.
func (r Result) String() string {
	if r >= resultCount {
		return fmt.Sprintf("Result(%d)", uint8(r))
	}
	return resultNames[r]
}

// OK reports whether r is ResultOK.
func (r Result) OK() bool {
	return r == ResultOK
}

// Err returns nil for ResultOK and a sentinel error otherwise, so callers can
// use errors.Is.
func (r Result) Err() error {
	if r == ResultOK {
		return nil
	}
	if r >= resultCount {
		return fmt.Errorf("goAccount: unknown result %d", uint8(r))
	}
	return resultErrors[r]
}

// MarshalText implements encoding.TextMarshaler.
func (r Result) MarshalText() ([]byte, error) {
	if r >= resultCount {
		return nil, fmt.Errorf("goAccount: unknown result %d", uint8(r))
	}
	return []byte(resultNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Result) UnmarshalText(text []byte) error {
	parsed, err := ParseResult(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseResult maps a canonical name back to its Result.
func ParseResult(name string) (Result, error) {
	for i, n := range resultNames {
		if n == name {
			return Result(i), nil
		}
	}
	return 0, errors.New("goAccount: unknown result name " + name)
}

// PasswordCheckResult is the outcome of the standalone password input check.
// It never mixes with Result.
type PasswordCheckResult uint8

const (
	// PasswordOK reports an acceptable password and confirmation.
	PasswordOK PasswordCheckResult = iota
	// PasswordEmpty reports an empty password.
	PasswordEmpty
	// PasswordTooShort reports a password shorter than the configured minimum.
	PasswordTooShort
	// PasswordConfirmationEmpty reports an empty confirmation.
	PasswordConfirmationEmpty
	// PasswordConfirmationMismatch reports a confirmation that differs from the password.
	PasswordConfirmationMismatch
	passwordCheckCount
)

var passwordCheckNames = [passwordCheckCount]string{
	PasswordOK:                   "OK",
	PasswordEmpty:                "PASSWORD_EMPTY",
	PasswordTooShort:             "PASSWORD_TOO_SHORT",
	PasswordConfirmationEmpty:    "PASSWORD_CONFIRMATION_EMPTY",
	PasswordConfirmationMismatch: "PASSWORD_CONFIRMATION_MISMATCH",
}

func (r PasswordCheckResult) String() string {
	if r >= passwordCheckCount {
		return fmt.Sprintf("PasswordCheckResult(%d)", uint8(r))
	}
	return passwordCheckNames[r]
}

// OK reports whether r is PasswordOK.
func (r PasswordCheckResult) OK() bool {
	return r == PasswordOK
}

// MarshalText implements encoding.TextMarshaler.
func (r PasswordCheckResult) MarshalText() ([]byte, error) {
	if r >= passwordCheckCount {
		return nil, fmt.Errorf("goAccount: unknown password check result %d", uint8(r))
	}
	return []byte(passwordCheckNames[r]), nil
}
