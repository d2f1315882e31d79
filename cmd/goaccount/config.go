package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/httpapi"
	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/notify"
	"github.com/MrEthical07/goAccount/session"
)

// config is the YAML configuration of the goaccount command. Flags override
// file values; keys absent from both keep the defaults of defaultConfig.
type config struct {
	Manager  managerConfig  `koanf:"manager"`
	Session  sessionConfig  `koanf:"session"`
	Redis    redisConfig    `koanf:"redis"`
	Database databaseConfig `koanf:"database"`
	JWT      jwtConfig      `koanf:"jwt"`
	SMTP     smtpConfig     `koanf:"smtp"`
	HTTP     httpConfig     `koanf:"http"`
	Notify   notifyConfig   `koanf:"notify"`
	Log      logConfig      `koanf:"log"`
}

type managerConfig struct {
	Password struct {
		MinLength int    `koanf:"min_length"`
		Scheme    string `koanf:"scheme"`
		Encoding  string `koanf:"encoding"`
	} `koanf:"password"`
	PasswordReset struct {
		TokenExpiration time.Duration `koanf:"token_expiration"`
	} `koanf:"password_reset"`
	Audit struct {
		Enabled    bool `koanf:"enabled"`
		BufferSize int  `koanf:"buffer_size"`
	} `koanf:"audit"`
	Metrics struct {
		Enabled           bool `koanf:"enabled"`
		LatencyHistograms bool `koanf:"latency_histograms"`
	} `koanf:"metrics"`
}

type sessionConfig struct {
	Prefix   string        `koanf:"prefix"`
	TTL      time.Duration `koanf:"ttl"`
	Lifetime time.Duration `koanf:"lifetime"`
	Sliding  bool          `koanf:"sliding"`
}

type redisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type databaseConfig struct {
	Dialect     string `koanf:"dialect"`
	DSN         string `koanf:"dsn"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

type jwtConfig struct {
	SigningMethod  string        `koanf:"signing_method"`
	Secret         string        `koanf:"secret"`
	PrivateKeyFile string        `koanf:"private_key_file"`
	PublicKeyFile  string        `koanf:"public_key_file"`
	TTL            time.Duration `koanf:"ttl"`
	Issuer         string        `koanf:"issuer"`
	Audience       string        `koanf:"audience"`
	KeyID          string        `koanf:"key_id"`
}

type smtpConfig struct {
	Addr       string        `koanf:"addr"`
	Username   string        `koanf:"username"`
	Password   string        `koanf:"password"`
	From       string        `koanf:"from"`
	MaxRetries uint64        `koanf:"max_retries"`
	BaseDelay  time.Duration `koanf:"base_delay"`
}

type httpConfig struct {
	Addr            string        `koanf:"addr"`
	CookieName      string        `koanf:"cookie_name"`
	CookieSecure    bool          `koanf:"cookie_secure"`
	BodyLimit       string        `koanf:"body_limit"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// notifyConfig selects how emails leave the process: "log" writes them to
// the logger, "smtp" sends them inline and "outbox" queues them in Redis for
// the relay started by serve.
type notifyConfig struct {
	Driver    string `koanf:"driver"`
	SiteName  string `koanf:"site_name"`
	BaseURL   string `koanf:"base_url"`
	OutboxKey string `koanf:"outbox_key"`
}

type logConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() config {
	defaults := goAccount.DefaultConfig()

	var cfg config
	cfg.Manager.Password.MinLength = defaults.Password.MinLength
	cfg.Manager.Password.Scheme = defaults.Password.Scheme
	cfg.Manager.Password.Encoding = defaults.Password.Encoding
	cfg.Manager.PasswordReset.TokenExpiration = defaults.PasswordReset.TokenExpiration
	cfg.Manager.Audit.BufferSize = defaults.Audit.BufferSize
	cfg.Manager.Metrics.Enabled = true

	cfg.Session = sessionConfig{Prefix: "gas", TTL: 24 * time.Hour, Sliding: true}
	cfg.Redis = redisConfig{Addr: "localhost:6379"}
	cfg.Database = databaseConfig{Dialect: "sqlite", DSN: "file:goaccount.db", AutoMigrate: true}
	cfg.JWT = jwtConfig{SigningMethod: string(jwt.MethodHS256), TTL: 24 * time.Hour, Issuer: "goaccount"}
	cfg.SMTP = smtpConfig{MaxRetries: 3, BaseDelay: 500 * time.Millisecond}
	cfg.HTTP = httpConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second}
	cfg.Notify = notifyConfig{Driver: "log", SiteName: "goaccount", BaseURL: "http://localhost:8080"}
	cfg.Log = logConfig{Level: "info", Format: "text"}
	return cfg
}

// loadConfig reads path (when set) and then the changed flags of flags on top
// of the defaults.
func loadConfig(path string, flags *pflag.FlagSet) (config, error) {
	cfg := defaultConfig()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
	}
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return cfg, oops.Code("CONFIG_INVALID").With("operation", "load flags").Wrap(err)
		}
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, oops.Code("CONFIG_INVALID").With("operation", "decode config").Wrap(err)
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

func (c managerConfig) toManager() goAccount.Config {
	out := goAccount.DefaultConfig()
	out.Password.MinLength = c.Password.MinLength
	out.Password.Scheme = c.Password.Scheme
	out.Password.Encoding = c.Password.Encoding
	out.PasswordReset.TokenExpiration = c.PasswordReset.TokenExpiration
	out.Audit.Enabled = c.Audit.Enabled
	out.Audit.BufferSize = c.Audit.BufferSize
	out.Metrics.Enabled = c.Metrics.Enabled
	out.Metrics.EnableLatencyHistograms = c.Metrics.LatencyHistograms
	return out
}

func (c sessionConfig) toStore() session.Config {
	return session.Config{
		Prefix:   c.Prefix,
		TTL:      c.TTL,
		Lifetime: c.Lifetime,
		Sliding:  c.Sliding,
	}
}

func (c jwtConfig) toManager() (jwt.Config, error) {
	out := jwt.Config{
		TTL:           c.TTL,
		SigningMethod: jwt.SigningMethod(strings.ToLower(c.SigningMethod)),
		Issuer:        c.Issuer,
		Audience:      c.Audience,
		KeyID:         c.KeyID,
	}
	switch out.SigningMethod {
	case jwt.MethodHS256:
		if c.Secret == "" {
			return out, oops.Code("CONFIG_INVALID").Errorf("jwt.secret is required for hs256")
		}
		out.PrivateKey = []byte(c.Secret)
	case jwt.MethodEd25519:
		if c.PrivateKeyFile != "" {
			key, err := os.ReadFile(c.PrivateKeyFile)
			if err != nil {
				return out, oops.Code("CONFIG_INVALID").With("path", c.PrivateKeyFile).Wrap(err)
			}
			out.PrivateKey = key
		}
		if c.PublicKeyFile != "" {
			key, err := os.ReadFile(c.PublicKeyFile)
			if err != nil {
				return out, oops.Code("CONFIG_INVALID").With("path", c.PublicKeyFile).Wrap(err)
			}
			out.PublicKey = key
		}
	}
	return out, nil
}

func (c smtpConfig) toSender() notify.SMTPConfig {
	return notify.SMTPConfig{
		Addr:       c.Addr,
		Username:   c.Username,
		Password:   c.Password,
		From:       c.From,
		MaxRetries: c.MaxRetries,
		BaseDelay:  c.BaseDelay,
	}
}

func (c httpConfig) toAPI() httpapi.Config {
	return httpapi.Config{
		CookieName:   c.CookieName,
		CookieSecure: c.CookieSecure,
		BodyLimit:    c.BodyLimit,
	}
}

func newLogger(c logConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
