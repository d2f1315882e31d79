package goAccount

import (
	"context"
	"log/slog"
	"time"
)

// IsPasswordValid reports whether password matches the stored credential of
// userID. A missing user or credential, or a storage failure, yields false.
func (m *Manager) IsPasswordValid(ctx context.Context, userID int64, password string) bool {
	ok, err := m.storedPasswordMatches(ctx, userID, password)
	if err != nil && !isNotFound(err) {
		m.logger.LogAttrs(ctx, slog.LevelError, "goAccount: storage failure",
			slog.String("op", "get password"), slog.Int64("user_id", userID), slog.Any("error", err))
	}
	return ok
}

func (m *Manager) storedPasswordMatches(ctx context.Context, userID int64, password string) (bool, error) {
	cred, err := m.db.GetUserPassword(ctx, userID)
	if err != nil {
		return false, err
	}
	return m.credentialMatches(cred, password), nil
}

// ChangePassword replaces the password of userID after verifying oldPassword.
// An unknown user is reported as ResultInvalidPassword.
func (m *Manager) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) Result {
	r := m.changePassword(ctx, userID, oldPassword, newPassword)
	switch r {
	case ResultOK:
		m.metrics.Inc(MetricPasswordChangeSuccess)
	case ResultInvalidPassword:
		m.metrics.Inc(MetricPasswordChangeInvalidOld)
	}
	m.emitAudit(ctx, AuditPasswordChange, userID, "", "", r, nil)
	return r
}

func (m *Manager) changePassword(ctx context.Context, userID int64, oldPassword, newPassword string) Result {
	ok, err := m.storedPasswordMatches(ctx, userID, oldPassword)
	if err != nil && !isNotFound(err) {
		return m.databaseError(ctx, "get password", err, slog.Int64("user_id", userID))
	}
	if !ok {
		return ResultInvalidPassword
	}

	cred, err := m.newCredential(newPassword)
	if err != nil {
		return m.internalError(ctx, "hash password", err)
	}
	if err := m.db.SetUserPassword(ctx, userID, *cred); err != nil {
		return m.databaseError(ctx, "set password", err, slog.Int64("user_id", userID))
	}
	return ResultOK
}

// CancelRegistration deletes userID after verifying password.
func (m *Manager) CancelRegistration(ctx context.Context, userID int64, password string) Result {
	r := m.cancelRegistration(ctx, userID, password)
	if r == ResultOK {
		m.metrics.Inc(MetricAccountDeleted)
	}
	m.emitAudit(ctx, AuditAccountCancel, userID, "", "", r, nil)
	return r
}

func (m *Manager) cancelRegistration(ctx context.Context, userID int64, password string) Result {
	ok, err := m.storedPasswordMatches(ctx, userID, password)
	if err != nil {
		return m.lookupFailure(ctx, "get password", err, slog.Int64("user_id", userID))
	}
	if !ok {
		return ResultInvalidPassword
	}

	if err := m.db.DeleteUser(ctx, userID); err != nil {
		return m.databaseError(ctx, "delete user", err, slog.Int64("user_id", userID))
	}
	return ResultOK
}

// RegisteredUserCount counts confirmed accounts registered at or after since.
func (m *Manager) RegisteredUserCount(ctx context.Context, since time.Time) (int, error) {
	return m.db.RegisteredUserCount(ctx, since)
}
