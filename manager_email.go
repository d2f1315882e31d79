package goAccount

import (
	"context"
	"log/slog"
)

const (
	testingUserName    = "[userName]"
	testingControlCode = "63ab83e73fee9c2113f625fab4ac8c65"
)

// SendTestingEmail sends a sample email of the given type to address with
// placeholder values, so operators can check templates and delivery.
func (m *Manager) SendTestingEmail(ctx context.Context, emailType EmailType, address string) bool {
	var err error
	switch emailType {
	case EmailRegistration:
		err = m.notifier.SendRegistrationEmail(ctx, address, testingUserName, 0, testingControlCode)
	case EmailManualRegistration:
		registrator := &Account{
			Name:                  "[adminName]",
			Email:                 "admin@test.com",
			RegistrationConfirmed: true,
			Rank:                  RankAdmin,
		}
		err = m.notifier.SendManualRegistrationEmail(ctx, address, testingUserName, 0, testingControlCode, registrator)
	case EmailLostPassword:
		err = m.notifier.SendLostPasswordEmail(ctx, address, testingControlCode)
	default:
		return false
	}

	if err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "goAccount: testing email failed",
			slog.String("type", emailType.String()), slog.String("email", address), slog.Any("error", err))
		return false
	}
	return true
}
