package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/httpapi"
	"github.com/MrEthical07/goAccount/jwt"
	accountprom "github.com/MrEthical07/goAccount/metrics/export/prometheus"
	"github.com/MrEthical07/goAccount/notify"
	"github.com/MrEthical07/goAccount/session"
	"github.com/MrEthical07/goAccount/store/sqlstore"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the account HTTP API",
		Long: `Serve the account HTTP API. Accounts are stored in the configured SQL
database, sessions in Redis. With metrics enabled, Prometheus metrics are
served on /metrics.`,
		RunE: runServe,
	}
	cmd.Flags().String("http.addr", ":8080", "listen address")
	cmd.Flags().String("database.dialect", "sqlite", "database dialect (sqlite or postgres)")
	cmd.Flags().String("database.dsn", "file:goaccount.db", "database DSN")
	cmd.Flags().String("redis.addr", "localhost:6379", "redis address")
	cmd.Flags().String("notify.driver", "log", "email delivery (log, smtp or outbox)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Redis.Addr},
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	srv, err := newServer(ctx, cfg, rdb, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	if srv.relay != nil {
		go func() {
			if err := srv.relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox relay stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr)
		if err := srv.echo.Start(cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return oops.Code("SERVE_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.echo.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}

// server is the assembled service. Close releases everything newServer
// opened except the Redis client, which belongs to the caller.
type server struct {
	echo    *echo.Echo
	manager *goAccount.Manager
	db      *sqlstore.Store
	relay   *notify.Relay
}

func (s *server) Close() {
	s.manager.Close()
	_ = s.db.Close()
}

func newServer(ctx context.Context, cfg config, rdb redis.UniversalClient, logger *slog.Logger) (*server, error) {
	db, err := sqlstore.Open(ctx, sqlstore.Dialect(cfg.Database.Dialect), cfg.Database.DSN)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}
	}

	notifier, relay, err := newNotifier(cfg, rdb, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	handleCfg, err := cfg.JWT.toManager()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	handles, err := jwt.NewManager(handleCfg)
	if err != nil {
		_ = db.Close()
		return nil, oops.Code("CONFIG_INVALID").With("section", "jwt").Wrap(err)
	}

	sessions := session.NewStore(rdb, cfg.Session.toStore())
	manager, err := goAccount.New().
		WithConfig(cfg.Manager.toManager()).
		WithDatabase(db).
		WithNotifier(notifier).
		WithSessionStore(session.NewAccounts(sessions)).
		WithLogger(logger).
		WithAuditSink(goAccount.NewSlogSink(logger.With("component", "audit"))).
		Build()
	if err != nil {
		_ = db.Close()
		return nil, oops.Code("CONFIG_INVALID").With("section", "manager").Wrap(err)
	}

	e := httpapi.NewEcho(httpapi.New(manager, handles, cfg.HTTP.toAPI(), logger).WithSessionRevoker(sessions))
	e.GET("/healthz", healthz(db, sessions))
	if cfg.Manager.Metrics.Enabled {
		registry := prom.NewRegistry()
		registry.MustRegister(accountprom.NewCollector(manager))
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return &server{echo: e, manager: manager, db: db, relay: relay}, nil
}

type healthResponse struct {
	Status       string `json:"status"`
	Database     string `json:"database"`
	Redis        string `json:"redis"`
	RedisLatency string `json:"redis_latency,omitempty"`
}

// healthz answers 200 when the database and Redis respond, 503 otherwise.
func healthz(db *sqlstore.Store, sessions *session.Store) echo.HandlerFunc {
	return func(ec echo.Context) error {
		ctx := ec.Request().Context()
		resp := healthResponse{Status: "ok", Database: "ok", Redis: "ok"}

		if err := db.Ping(ctx); err != nil {
			resp.Status, resp.Database = "unavailable", err.Error()
		}
		if latency, err := sessions.Ping(ctx); err != nil {
			resp.Status, resp.Redis = "unavailable", err.Error()
		} else {
			resp.RedisLatency = latency.String()
		}

		if resp.Status != "ok" {
			return ec.JSON(http.StatusServiceUnavailable, resp)
		}
		return ec.JSON(http.StatusOK, resp)
	}
}

// newNotifier builds the Notifier for cfg.Notify.Driver. For the outbox
// driver it also returns the relay that drains the queue.
func newNotifier(cfg config, rdb redis.UniversalClient, logger *slog.Logger) (goAccount.Notifier, *notify.Relay, error) {
	renderer, err := notify.NewRenderer(cfg.Notify.SiteName, cfg.Notify.BaseURL, nil)
	if err != nil {
		return nil, nil, oops.Code("CONFIG_INVALID").With("section", "notify").Wrap(err)
	}

	switch cfg.Notify.Driver {
	case "", "log":
		return notify.NewMailer(renderer, notify.NewLog(logger)), nil, nil
	case "smtp":
		smtp, err := notify.NewSMTP(cfg.SMTP.toSender(), logger)
		if err != nil {
			return nil, nil, oops.Code("CONFIG_INVALID").With("section", "smtp").Wrap(err)
		}
		return notify.NewMailer(renderer, smtp), nil, nil
	case "outbox":
		var sender notify.Sender = notify.NewLog(logger)
		if cfg.SMTP.Addr != "" {
			smtp, err := notify.NewSMTP(cfg.SMTP.toSender(), logger)
			if err != nil {
				return nil, nil, oops.Code("CONFIG_INVALID").With("section", "smtp").Wrap(err)
			}
			sender = smtp
		}
		outbox := notify.NewOutbox(rdb, cfg.Notify.OutboxKey)
		return notify.NewMailer(renderer, outbox), notify.NewRelay(outbox, sender, logger), nil
	default:
		return nil, nil, oops.Code("CONFIG_INVALID").With("driver", cfg.Notify.Driver).Errorf("unknown notify driver")
	}
}
