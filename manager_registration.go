package goAccount

import (
	"context"
	"log/slog"
)

// RegisterUser creates an account with a self-chosen password. Unless
// autoConfirm is set, the notifier receives the control code needed to
// confirm it. A failed send leaves the account persisted and returns
// ResultFailedToSendEmail.
func (m *Manager) RegisterUser(ctx context.Context, email, name, password string, autoConfirm bool) Result {
	r, userID := m.registerUser(ctx, email, name, password, autoConfirm)
	m.emitAudit(ctx, AuditRegister, userID, email, "", r, map[string]string{
		"auto_confirm": boolString(autoConfirm),
	})
	return r
}

func (m *Manager) registerUser(ctx context.Context, email, name, password string, autoConfirm bool) (Result, int64) {
	if r := m.CheckRegistration(ctx, email, name); r != ResultOK {
		if r != ResultDatabaseError {
			m.metrics.Inc(MetricRegistrationRejected)
		}
		return r, UnassignedID
	}

	controlCode, err := m.newOpaqueToken()
	if err != nil {
		return m.internalError(ctx, "generate control code", err), UnassignedID
	}
	cred, err := m.newCredential(password)
	if err != nil {
		return m.internalError(ctx, "hash password", err), UnassignedID
	}

	account := &Account{
		ID:                      UnassignedID,
		Name:                    name,
		Email:                   email,
		RegistrationDate:        m.now(),
		RegistrationControlCode: controlCode,
		RegistrationConfirmed:   autoConfirm,
		Credential:              cred,
		Rank:                    RankNormalUser,
	}

	userID, err := m.db.AddUser(ctx, account)
	if err != nil {
		return m.databaseError(ctx, "add user", err, slog.String("email", email)), UnassignedID
	}
	m.metrics.Inc(MetricRegistrationSuccess)

	if autoConfirm {
		return ResultOK, userID
	}

	if err := m.notifier.SendRegistrationEmail(ctx, email, name, userID, controlCode); err != nil {
		return m.emailError(ctx, "send registration email", email, err), userID
	}

	return ResultOK, userID
}

// RegisterUserManually creates an account on someone else's behalf. The
// account has no usable password until ConfirmManualRegistration sets one.
// The notifier always receives the control code, with the session's current
// account (possibly nil) as registrator.
func (m *Manager) RegisterUserManually(ctx context.Context, email, name string, rank int, autoConfirm bool) Result {
	r, userID := m.registerUserManually(ctx, email, name, rank, autoConfirm)
	m.emitAudit(ctx, AuditRegisterManual, userID, email, "", r, map[string]string{
		"auto_confirm": boolString(autoConfirm),
	})
	return r
}

func (m *Manager) registerUserManually(ctx context.Context, email, name string, rank int, autoConfirm bool) (Result, int64) {
	if r := m.CheckRegistration(ctx, email, name); r != ResultOK {
		if r != ResultDatabaseError {
			m.metrics.Inc(MetricRegistrationRejected)
		}
		return r, UnassignedID
	}

	controlCode, err := m.newOpaqueToken()
	if err != nil {
		return m.internalError(ctx, "generate control code", err), UnassignedID
	}
	cred, err := m.newCredential("")
	if err != nil {
		return m.internalError(ctx, "hash password", err), UnassignedID
	}

	account := &Account{
		ID:                      UnassignedID,
		Name:                    name,
		Email:                   email,
		RegistrationDate:        m.now(),
		RegistrationControlCode: controlCode,
		RegistrationConfirmed:   autoConfirm,
		Credential:              cred,
		Rank:                    rank,
	}

	userID, err := m.db.AddUser(ctx, account)
	if err != nil {
		return m.databaseError(ctx, "add user", err, slog.String("email", email)), UnassignedID
	}
	m.metrics.Inc(MetricManualRegistration)

	registrator := m.CurrentAccount(ctx)

	if err := m.notifier.SendManualRegistrationEmail(ctx, email, name, userID, controlCode, registrator); err != nil {
		return m.emailError(ctx, "send manual registration email", email, err), userID
	}

	return ResultOK, userID
}

// ResendRegistrationEmail sends the registration email again with the
// account's original control code.
func (m *Manager) ResendRegistrationEmail(ctx context.Context, email string) Result {
	r, userID := m.resendRegistrationEmail(ctx, email)
	m.emitAudit(ctx, AuditRegistrationEmailResend, userID, email, "", r, nil)
	return r
}

func (m *Manager) resendRegistrationEmail(ctx context.Context, email string) (Result, int64) {
	account, err := m.accountByEmail(ctx, email)
	if err != nil {
		return m.lookupFailure(ctx, "get user by email", err, slog.String("email", email)), UnassignedID
	}

	if account.RegistrationConfirmed {
		return ResultRegistrationAlreadyConfirmed, account.ID
	}

	if err := m.notifier.SendRegistrationEmail(ctx, email, account.Name, account.ID, account.RegistrationControlCode); err != nil {
		return m.emailError(ctx, "resend registration email", email, err), account.ID
	}
	m.metrics.Inc(MetricRegistrationEmailResent)

	return ResultOK, account.ID
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
