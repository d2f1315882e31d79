package goAccount

import (
	"strings"
	"unicode/utf8"
)

// CheckRegistrationPreconditions combines the two collision checks. A name
// collision wins over an email collision.
func CheckRegistrationPreconditions(nameRegistered, emailRegistered bool) Result {
	if nameRegistered {
		return ResultUserNameAlreadyRegistered
	}
	if emailRegistered {
		return ResultEmailAlreadyRegistered
	}
	return ResultOK
}

// CheckConfirmationPreconditions checks, in order, that the account exists,
// is not yet confirmed and carries controlCode (case-insensitive).
func CheckConfirmationPreconditions(account *Account, controlCode string) Result {
	if account == nil {
		return ResultNoSuchUser
	}
	if account.RegistrationConfirmed {
		return ResultRegistrationAlreadyConfirmed
	}
	if !strings.EqualFold(account.RegistrationControlCode, controlCode) {
		return ResultInvalidRegistrationControlCode
	}
	return ResultOK
}

// CheckPassword validates user input in this order: password present, long
// enough (in characters), confirmation present, confirmation equal.
func CheckPassword(password, confirmation string, minLength int) PasswordCheckResult {
	if password == "" {
		return PasswordEmpty
	}
	if utf8.RuneCountInString(password) < minLength {
		return PasswordTooShort
	}
	if confirmation == "" {
		return PasswordConfirmationEmpty
	}
	if confirmation != password {
		return PasswordConfirmationMismatch
	}
	return PasswordOK
}
