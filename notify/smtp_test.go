package notify

import (
	"context"
	"errors"
	"net/smtp"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSMTP(t *testing.T, retries uint64, fn sendMailFunc) *SMTP {
	t.Helper()
	s, err := NewSMTP(SMTPConfig{
		Addr:       "mail.example.com:587",
		Username:   "user",
		Password:   "pass",
		From:       "noreply@example.com",
		MaxRetries: retries,
		BaseDelay:  time.Millisecond,
	}, nil)
	require.NoError(t, err)
	s.sendMail = fn
	return s
}

func TestSMTPRetriesTransientFailures(t *testing.T) {
	calls := 0
	var raw string
	s := newTestSMTP(t, 3, func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		assert.Equal(t, "mail.example.com:587", addr)
		assert.Equal(t, "noreply@example.com", from)
		assert.Equal(t, []string{"a@example.com"}, to)
		raw = string(msg)
		return nil
	})

	err := s.Send(context.Background(), Message{To: "a@example.com", Subject: "hi", Body: "line1\nline2"})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, raw, "Subject: hi\r\n")
	assert.True(t, strings.HasSuffix(raw, "line1\r\nline2"))
}

func TestSMTPGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	s := newTestSMTP(t, 2, func(string, smtp.Auth, string, []string, []byte) error {
		calls++
		return errors.New("timeout")
	})

	err := s.Send(context.Background(), Message{To: "a@example.com"})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestSMTPPermanentFailureIsNotRetried(t *testing.T) {
	calls := 0
	s := newTestSMTP(t, 5, func(string, smtp.Auth, string, []string, []byte) error {
		calls++
		return &textproto.Error{Code: 550, Msg: "mailbox unavailable"}
	})

	err := s.Send(context.Background(), Message{To: "a@example.com"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestNewSMTPValidates(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{Addr: "no-port", From: "a@example.com"}, nil)
	assert.Error(t, err)

	_, err = NewSMTP(SMTPConfig{Addr: "mail.example.com:25"}, nil)
	assert.Error(t, err)

	err = newTestSMTP(t, 0, nil).Send(context.Background(), Message{})
	assert.Error(t, err)
}
