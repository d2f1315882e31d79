package goAccount

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"
)

// AuditEventType names the operation an AuditEvent records.
type AuditEventType string

const (
	AuditRegister                AuditEventType = "register"
	AuditRegisterManual          AuditEventType = "register_manual"
	AuditRegistrationConfirm     AuditEventType = "registration_confirm"
	AuditRegistrationEmailResend AuditEventType = "registration_email_resend"
	AuditLoginSuccess            AuditEventType = "login_success"
	AuditLoginFailure            AuditEventType = "login_failure"
	AuditLoginWithoutPassword    AuditEventType = "login_without_password"
	AuditLoginSocial             AuditEventType = "login_social"
	AuditLogout                  AuditEventType = "logout"
	AuditPasswordChange          AuditEventType = "password_change"
	AuditAccountCancel           AuditEventType = "account_cancel"
	AuditPasswordResetRequest    AuditEventType = "password_reset_request"
	AuditPasswordResetConfirm    AuditEventType = "password_reset_confirm"
)

// AuditEvent records one account lifecycle operation. It never carries
// passwords, control codes or reset keys.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType AuditEventType    `json:"event_type"`
	UserID    int64             `json:"user_id,omitempty"`
	Email     string            `json:"email,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Result    string            `json:"result"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives audit events from the dispatcher goroutine. Emit must not
// retain event.Metadata after returning.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// AuditSinkFunc adapts a function to AuditSink.
type AuditSinkFunc func(ctx context.Context, event AuditEvent)

func (f AuditSinkFunc) Emit(ctx context.Context, event AuditEvent) { f(ctx, event) }

// NoOpSink discards events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink hands events to a consumer goroutine. Emit waits for buffer
// space until ctx ends.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{events: make(chan AuditEvent, max(buffer, 1))}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent { return s.events }

// JSONWriterSink writes events to w as JSON lines. Encoding failures are
// dropped.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		return &JSONWriterSink{}
	}
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

func (s *JSONWriterSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil || s.enc == nil {
		return
	}
	s.mu.Lock()
	_ = s.enc.Encode(event)
	s.mu.Unlock()
}

// SlogSink logs each event at Info level under the "audit" message, with
// metadata grouped under "metadata".
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Emit(ctx context.Context, event AuditEvent) {
	attrs := make([]slog.Attr, 0, 7)
	attrs = append(attrs,
		slog.String("event_type", string(event.EventType)),
		slog.Int64("user_id", event.UserID),
		slog.String("email", event.Email),
		slog.String("ip", event.IP),
		slog.Bool("success", event.Success),
		slog.String("result", event.Result),
	)
	if len(event.Metadata) > 0 {
		meta := make([]any, 0, len(event.Metadata))
		for k, v := range event.Metadata {
			meta = append(meta, slog.String(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", meta...))
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)
}
