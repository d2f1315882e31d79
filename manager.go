package goAccount

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/goAccount/internal"
	"github.com/MrEthical07/goAccount/internal/audit"
	"github.com/MrEthical07/goAccount/password"
)

// Manager sequences every account lifecycle operation against the storage,
// notifier and session collaborators. Construct it with Builder; it is safe
// for concurrent use and holds no per-call state.
type Manager struct {
	config   Config
	db       UserDatabase
	notifier Notifier
	sessions SessionStore
	hasher   *password.Hasher
	random   io.Reader
	now      func() time.Time
	logger   *slog.Logger
	audit    *audit.Dispatcher[AuditEvent]
	metrics  *Metrics
}

// Close flushes pending audit events and stops the dispatcher.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.audit.Close()
}

// MetricsSnapshot returns a copy of the in-process counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return m.metrics.Snapshot()
}

// AuditDropped reports audit events discarded because the buffer was full.
func (m *Manager) AuditDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.audit.Dropped()
}

// CheckPassword validates password input against the configured minimum length.
func (m *Manager) CheckPassword(password, confirmation string) PasswordCheckResult {
	return CheckPassword(password, confirmation, m.config.Password.MinLength)
}

// CheckRegistration looks up name and email collisions. An empty name is not checked.
func (m *Manager) CheckRegistration(ctx context.Context, email, name string) Result {
	nameRegistered := false
	if name != "" {
		taken, err := m.db.IsUserNameRegistered(ctx, name)
		if err != nil {
			return m.databaseError(ctx, "check user name", err, slog.String("name", name))
		}
		nameRegistered = taken
	}
	if nameRegistered {
		return CheckRegistrationPreconditions(true, false)
	}

	emailRegistered, err := m.db.IsEmailRegistered(ctx, email)
	if err != nil {
		return m.databaseError(ctx, "check email", err, slog.String("email", email))
	}
	return CheckRegistrationPreconditions(false, emailRegistered)
}

func (m *Manager) newCredential(password string) (*Credential, error) {
	salt, err := m.hasher.NewSalt()
	if err != nil {
		return nil, err
	}
	hash, err := m.hasher.Hash(password, salt)
	if err != nil {
		return nil, err
	}
	return &Credential{Hash: hash, Salt: salt}, nil
}

func (m *Manager) credentialMatches(cred *Credential, password string) bool {
	if cred == nil {
		return false
	}
	return m.hasher.Verify(password, cred.Hash, cred.Salt)
}

func (m *Manager) newOpaqueToken() (string, error) {
	return internal.NewOpaqueToken(m.random)
}

// findAccount resolves identifier as an email when it has email shape and as
// a user name otherwise.
func (m *Manager) findAccount(ctx context.Context, identifier string) (*Account, error) {
	if IsEmailValid(identifier) {
		return m.accountByEmail(ctx, identifier)
	}
	return found(m.db.GetUserByName(ctx, identifier))
}

func (m *Manager) accountByEmail(ctx context.Context, email string) (*Account, error) {
	return found(m.db.GetUserByEmail(ctx, email))
}

// found treats a nil account without error as absent.
func found(account *Account, err error) (*Account, error) {
	if err == nil && account == nil {
		return nil, ErrNotFound
	}
	return account, err
}

// lookupFailure maps a lookup error to NO_SUCH_USER or DATABASE_ERROR.
func (m *Manager) lookupFailure(ctx context.Context, op string, err error, attrs ...slog.Attr) Result {
	if errors.Is(err, ErrNotFound) {
		return ResultNoSuchUser
	}
	return m.databaseError(ctx, op, err, attrs...)
}

func (m *Manager) databaseError(ctx context.Context, op string, err error, attrs ...slog.Attr) Result {
	m.metrics.Inc(MetricDatabaseError)
	attrs = append(attrs, slog.String("op", op), slog.Any("error", err))
	m.logger.LogAttrs(ctx, slog.LevelError, "goAccount: storage failure", attrs...)
	return ResultDatabaseError
}

func (m *Manager) internalError(ctx context.Context, op string, err error) Result {
	m.logger.LogAttrs(ctx, slog.LevelError, "goAccount: internal failure",
		slog.String("op", op), slog.Any("error", err))
	return ResultDatabaseError
}

func (m *Manager) emailError(ctx context.Context, op, email string, err error) Result {
	m.metrics.Inc(MetricEmailSendFailure)
	m.logger.LogAttrs(ctx, slog.LevelError, "goAccount: email delivery failure",
		slog.String("op", op), slog.String("email", email), slog.Any("error", err))
	return ResultFailedToSendEmail
}

// cancelResetTokens is best effort: a failure is logged and never fails the caller.
func (m *Manager) cancelResetTokens(ctx context.Context, userID int64) {
	if err := m.db.CancelAllPasswordResetTokens(ctx, userID); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "goAccount: failed to cancel password reset tokens",
			slog.Int64("user_id", userID), slog.Any("error", err))
	}
}

func (m *Manager) makeLoginRecord(ctx context.Context, userID int64, successful bool, clientAddress string) {
	if err := m.db.MakeLoginRecord(ctx, userID, successful, clientAddress); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "goAccount: failed to make login record",
			slog.Int64("user_id", userID), slog.String("ip", clientAddress),
			slog.Bool("successful", successful), slog.Any("error", err))
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
