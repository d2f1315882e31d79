package goAccount

import (
	"context"
	"errors"
	"log/slog"
)

// ConfirmRegistration flips the confirmed flag of the account registered
// under email when controlCode matches.
func (m *Manager) ConfirmRegistration(ctx context.Context, email, controlCode string) Result {
	r, userID := m.confirm(ctx, email, controlCode, nil)
	m.emitAudit(ctx, AuditRegistrationConfirm, userID, email, "", r, nil)
	return r
}

// ConfirmManualRegistration confirms a manually registered account and sets
// its password. The two writes are not atomic: if the password write fails
// the account stays confirmed with its placeholder credential and the call
// returns ResultDatabaseError.
func (m *Manager) ConfirmManualRegistration(ctx context.Context, email, controlCode, password string) Result {
	r, userID := m.confirm(ctx, email, controlCode, &password)
	m.emitAudit(ctx, AuditRegistrationConfirm, userID, email, "", r, map[string]string{
		"manual": "true",
	})
	return r
}

func (m *Manager) confirm(ctx context.Context, email, controlCode string, password *string) (Result, int64) {
	account, err := m.accountByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return m.databaseError(ctx, "get user by email", err, slog.String("email", email)), UnassignedID
	}
	if err != nil {
		account = nil
	}

	if r := CheckConfirmationPreconditions(account, controlCode); r != ResultOK {
		m.metrics.Inc(MetricRegistrationConfirmFailure)
		if account == nil {
			return r, UnassignedID
		}
		return r, account.ID
	}

	if err := m.db.ConfirmUserRegistration(ctx, email); err != nil {
		return m.databaseError(ctx, "confirm registration", err, slog.String("email", email)), account.ID
	}

	if password != nil {
		cred, err := m.newCredential(*password)
		if err != nil {
			return m.internalError(ctx, "hash password", err), account.ID
		}
		if err := m.db.SetUserPassword(ctx, account.ID, *cred); err != nil {
			return m.databaseError(ctx, "set password", err, slog.Int64("user_id", account.ID)), account.ID
		}
	}

	m.metrics.Inc(MetricRegistrationConfirmSuccess)
	return ResultOK, account.ID
}
