package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// SMTPConfig configures direct SMTP delivery.
type SMTPConfig struct {
	Addr     string
	Username string
	Password string
	From     string

	// MaxRetries bounds retries after the first attempt.
	MaxRetries uint64
	BaseDelay  time.Duration
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP sends messages with net/smtp, retrying transient failures with
// exponential backoff.
type SMTP struct {
	cfg      SMTPConfig
	auth     smtp.Auth
	logger   *slog.Logger
	sendMail sendMailFunc
}

// NewSMTP validates cfg. Username enables PLAIN auth against the host in Addr.
func NewSMTP(cfg SMTPConfig, logger *slog.Logger) (*SMTP, error) {
	host, _, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("notify: smtp addr: %w", err)
	}
	if cfg.From == "" {
		return nil, errors.New("notify: smtp from address required")
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &SMTP{cfg: cfg, logger: logger, sendMail: smtp.SendMail}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}
	return s, nil
}

// Send delivers msg. Permanent (5xx) SMTP replies are not retried.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("notify: message has no recipient")
	}
	raw := s.format(msg)

	backoff := retry.WithMaxRetries(s.cfg.MaxRetries, retry.NewExponential(s.cfg.BaseDelay))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := s.sendMail(s.cfg.Addr, s.auth, s.cfg.From, []string{msg.To}, raw)
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return err
		}
		s.logger.WarnContext(ctx, "smtp send failed",
			slog.String("kind", string(msg.Kind)),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		return retry.RetryableError(err)
	})
}

func (s *SMTP) format(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.cfg.From + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

func isPermanent(err error) bool {
	var tpErr *textproto.Error
	return errors.As(err, &tpErr) && tpErr.Code >= 500
}
