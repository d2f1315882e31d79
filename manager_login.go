package goAccount

import (
	"context"
	"log/slog"
	"time"
)

// LogIn authenticates identifier (an email or a user name) with password.
// On success the account becomes the session's current account, a
// successful login is recorded and outstanding reset tokens are cancelled.
// A wrong password records a failed login and leaves the session untouched.
func (m *Manager) LogIn(ctx context.Context, identifier, password, clientAddress string) Result {
	start := time.Now()
	r, userID := m.logIn(ctx, identifier, password, clientAddress)
	m.metrics.Observe(MetricLoginLatency, time.Since(start))

	event := AuditLoginSuccess
	switch r {
	case ResultOK:
		m.metrics.Inc(MetricLoginSuccess)
	case ResultRegistrationNotConfirmed:
		m.metrics.Inc(MetricLoginUnconfirmed)
		event = AuditLoginFailure
	case ResultNoSuchUser, ResultInvalidPassword:
		m.metrics.Inc(MetricLoginFailure)
		event = AuditLoginFailure
	default:
		event = AuditLoginFailure
	}
	m.emitAudit(ctx, event, userID, "", clientAddress, r, nil)

	return r
}

func (m *Manager) logIn(ctx context.Context, identifier, password, clientAddress string) (Result, int64) {
	account, err := m.findAccount(ctx, identifier)
	if err != nil {
		return m.lookupFailure(ctx, "find account", err, slog.String("identifier", identifier)), UnassignedID
	}

	if !account.RegistrationConfirmed {
		return ResultRegistrationNotConfirmed, account.ID
	}

	if password == "" || !m.credentialMatches(account.Credential, password) {
		m.makeLoginRecord(ctx, account.ID, false, clientAddress)
		return ResultInvalidPassword, account.ID
	}

	if err := m.sessions.SetCurrentAccount(ctx, account); err != nil {
		return m.databaseError(ctx, "set current account", err, slog.Int64("user_id", account.ID)), account.ID
	}

	m.makeLoginRecord(ctx, account.ID, true, clientAddress)
	m.cancelResetTokens(ctx, account.ID)

	return ResultOK, account.ID
}

// LogInWithoutPassword makes the account the session's current account
// without checking a password. It records no login and keeps reset tokens.
// Callers must restrict it to administrative use.
func (m *Manager) LogInWithoutPassword(ctx context.Context, identifier string) Result {
	r, userID := m.logInWithoutPassword(ctx, identifier)
	if r == ResultOK {
		m.metrics.Inc(MetricLoginWithoutPassword)
	}
	m.emitAudit(ctx, AuditLoginWithoutPassword, userID, "", "", r, nil)
	return r
}

func (m *Manager) logInWithoutPassword(ctx context.Context, identifier string) (Result, int64) {
	account, err := m.findAccount(ctx, identifier)
	if err != nil {
		return m.lookupFailure(ctx, "find account", err, slog.String("identifier", identifier)), UnassignedID
	}

	if !account.RegistrationConfirmed {
		return ResultRegistrationNotConfirmed, account.ID
	}

	if err := m.sessions.SetCurrentAccount(ctx, account); err != nil {
		return m.databaseError(ctx, "set current account", err, slog.Int64("user_id", account.ID)), account.ID
	}

	return ResultOK, account.ID
}

// LogOut clears the session's current account. It always succeeds; a session
// store failure is only logged.
func (m *Manager) LogOut(ctx context.Context) {
	var userID int64
	if current := m.CurrentAccount(ctx); current != nil {
		userID = current.ID
	}

	if err := m.sessions.SetCurrentAccount(ctx, nil); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "goAccount: failed to clear current account",
			slog.Int64("user_id", userID), slog.Any("error", err))
	}

	m.metrics.Inc(MetricLogout)
	m.emitAudit(ctx, AuditLogout, userID, "", "", ResultOK, nil)
}

// CurrentAccount returns the session's current account or nil.
func (m *Manager) CurrentAccount(ctx context.Context) *Account {
	account, err := m.sessions.CurrentAccount(ctx)
	if err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "goAccount: failed to read current account",
			slog.Any("error", err))
		return nil
	}
	return account
}

// LogInOrRegisterWithSocialAccount logs in the account linked to an already
// verified external identity, creating a confirmed account without password
// on first use. The storage collaborator must implement SocialAccountDatabase.
func (m *Manager) LogInOrRegisterWithSocialAccount(ctx context.Context, details SocialAccountDetails, clientAddress string) (*Account, Result) {
	account, r := m.logInSocial(ctx, details, clientAddress)

	userID := UnassignedID
	if account != nil {
		userID = account.ID
	}
	if r == ResultOK {
		m.metrics.Inc(MetricSocialLogin)
	}
	m.emitAudit(ctx, AuditLoginSocial, userID, details.Email, clientAddress, r, map[string]string{
		"account_type": details.AccountType,
	})

	return account, r
}

func (m *Manager) logInSocial(ctx context.Context, details SocialAccountDetails, clientAddress string) (*Account, Result) {
	social, ok := m.db.(SocialAccountDatabase)
	if !ok {
		return nil, m.databaseError(ctx, "social login", ErrSocialAccountsUnsupported)
	}

	account, err := found(social.GetUserBySocialAccount(ctx, details))
	switch {
	case err == nil:
	case isNotFound(err):
		account = &Account{
			ID:                    UnassignedID,
			Name:                  details.Name,
			Email:                 details.Email,
			RegistrationDate:      m.now(),
			RegistrationConfirmed: true,
			Rank:                  RankNormalUser,
		}
		id, err := social.AddUserWithSocialAccount(ctx, account, details)
		if err != nil {
			return nil, m.databaseError(ctx, "add social user", err,
				slog.String("account_type", details.AccountType), slog.String("email", details.Email))
		}
		account.ID = id
	default:
		return nil, m.databaseError(ctx, "get user by social account", err,
			slog.String("account_type", details.AccountType))
	}

	if err := m.sessions.SetCurrentAccount(ctx, account); err != nil {
		return nil, m.databaseError(ctx, "set current account", err, slog.Int64("user_id", account.ID))
	}
	m.makeLoginRecord(ctx, account.ID, true, clientAddress)

	return account, ResultOK
}
