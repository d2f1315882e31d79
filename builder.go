package goAccount

import (
	"crypto/rand"
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/goAccount/internal/audit"
	"github.com/MrEthical07/goAccount/password"
)

// Builder assembles a Manager from configuration and collaborators.
//
// Builder instances are intended to be configured during initialization and
// used for exactly one Build call.
type Builder struct {
	config Config

	db       UserDatabase
	notifier Notifier
	sessions SessionStore

	logger    *slog.Logger
	auditSink AuditSink
	random    io.Reader
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithDatabase sets the system of record.
func (b *Builder) WithDatabase(db UserDatabase) *Builder {
	b.db = db
	return b
}

// WithNotifier sets the email notifier.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithSessionStore sets the session store.
func (b *Builder) WithSessionStore(s SessionStore) *Builder {
	b.sessions = s
	return b
}

// WithLogger sets the structured logger. Without one the Manager logs nothing.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit sink. Audit.Enabled must also be true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled overrides Config.Metrics.Enabled.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms overrides Config.Metrics.EnableLatencyHistograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithRandom overrides the random source used for salts, control codes and
// reset keys. It must be safe for concurrent use.
func (b *Builder) WithRandom(r io.Reader) *Builder {
	b.random = r
	return b
}

// WithClock overrides the time source used for registration dates and token expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates configuration and collaborators and returns a Manager. Its
// errors are fatal: the Manager cannot run without them.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.db == nil {
		return nil, ErrDatabaseRequired
	}
	if b.notifier == nil {
		return nil, ErrNotifierRequired
	}
	if b.sessions == nil {
		return nil, ErrSessionStoreRequired
	}

	random := b.random
	if random == nil {
		random = rand.Reader
	}

	hcfg := cfg.hasherConfig()
	hcfg.Random = random
	hasher, err := password.New(hcfg)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	sink := b.auditSink
	if sink == nil {
		sink = NoOpSink{}
	}

	m := &Manager{
		config:   cfg,
		db:       b.db,
		notifier: b.notifier,
		sessions: b.sessions,
		hasher:   hasher,
		random:   random,
		now:      now,
		logger:   logger,
		audit: audit.NewDispatcher[AuditEvent](audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sink),
		metrics: NewMetrics(cfg.Metrics),
	}

	b.built = true

	return m, nil
}
