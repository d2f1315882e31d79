package goAccount

import (
	"context"
	"log/slog"
	"strings"
)

// CreatePasswordResetToken supersedes any outstanding token for email with a
// new one and mails its key. When the send fails the token stays valid and
// ResultFailedToSendEmail is returned.
func (m *Manager) CreatePasswordResetToken(ctx context.Context, email string) Result {
	r, userID := m.createPasswordResetToken(ctx, email)
	if r == ResultOK || r == ResultFailedToSendEmail {
		m.metrics.Inc(MetricPasswordResetRequest)
	}
	m.emitAudit(ctx, AuditPasswordResetRequest, userID, email, "", r, nil)
	return r
}

func (m *Manager) createPasswordResetToken(ctx context.Context, email string) (Result, int64) {
	userID, err := m.db.GetUserIDByEmail(ctx, email)
	if err != nil {
		return m.lookupFailure(ctx, "get user id by email", err, slog.String("email", email)), UnassignedID
	}

	m.cancelResetTokens(ctx, userID)

	key, err := m.newOpaqueToken()
	if err != nil {
		return m.internalError(ctx, "generate reset key", err), userID
	}

	token := PasswordResetToken{
		UserID:       userID,
		Key:          key,
		CreationTime: m.now(),
	}
	if err := m.db.AddPasswordResetToken(ctx, token); err != nil {
		return m.databaseError(ctx, "add password reset token", err, slog.Int64("user_id", userID)), userID
	}

	if err := m.notifier.SendLostPasswordEmail(ctx, email, key); err != nil {
		return m.emailError(ctx, "send lost password email", email, err), userID
	}

	return ResultOK, userID
}

// IsPasswordResetTokenValid reports whether key matches the newest token for
// email (case-insensitive) and the token has not expired. A token is valid up
// to and including CreationTime plus the configured expiration.
func (m *Manager) IsPasswordResetTokenValid(ctx context.Context, email, key string) bool {
	if key == "" {
		return false
	}

	token, err := m.db.GetNewestPasswordResetToken(ctx, email)
	if err != nil {
		if !isNotFound(err) {
			m.logger.LogAttrs(ctx, slog.LevelError, "goAccount: storage failure",
				slog.String("op", "get newest password reset token"), slog.String("email", email), slog.Any("error", err))
		}
		return false
	}
	if token == nil {
		return false
	}

	if !strings.EqualFold(token.Key, key) {
		return false
	}

	expiry := token.CreationTime.Add(m.config.PasswordReset.TokenExpiration)
	return !m.now().After(expiry)
}

// ResetPassword sets newPassword for the account registered under email when
// key is a valid reset token, then cancels the account's tokens.
func (m *Manager) ResetPassword(ctx context.Context, email, key, newPassword string) Result {
	r, userID := m.resetPassword(ctx, email, key, newPassword)
	switch r {
	case ResultOK:
		m.metrics.Inc(MetricPasswordResetConfirmSuccess)
	case ResultNoValidPasswordResetToken:
		m.metrics.Inc(MetricPasswordResetConfirmFailure)
	}
	m.emitAudit(ctx, AuditPasswordResetConfirm, userID, email, "", r, nil)
	return r
}

func (m *Manager) resetPassword(ctx context.Context, email, key, newPassword string) (Result, int64) {
	if !m.IsPasswordResetTokenValid(ctx, email, key) {
		return ResultNoValidPasswordResetToken, UnassignedID
	}

	// the account may have been deleted after the token was issued
	userID, err := m.db.GetUserIDByEmail(ctx, email)
	if err != nil {
		return m.lookupFailure(ctx, "get user id by email", err, slog.String("email", email)), UnassignedID
	}

	cred, err := m.newCredential(newPassword)
	if err != nil {
		return m.internalError(ctx, "hash password", err), userID
	}
	if err := m.db.SetUserPassword(ctx, userID, *cred); err != nil {
		return m.databaseError(ctx, "set password", err, slog.Int64("user_id", userID)), userID
	}

	m.cancelResetTokens(ctx, userID)

	return ResultOK, userID
}

// CancelPasswordResetTokens cancels every outstanding token of userID.
func (m *Manager) CancelPasswordResetTokens(ctx context.Context, userID int64) Result {
	if err := m.db.CancelAllPasswordResetTokens(ctx, userID); err != nil {
		return m.databaseError(ctx, "cancel password reset tokens", err, slog.Int64("user_id", userID))
	}
	return ResultOK
}
