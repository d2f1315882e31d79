package notify

import (
	"context"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
)

// Message is one rendered email.
type Message struct {
	Kind     Kind      `json:"kind"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}

// Sender delivers or queues a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer renders account emails and passes them to a Sender.
type Mailer struct {
	renderer *Renderer
	sender   Sender
}

// NewMailer returns a goAccount.Notifier.
func NewMailer(renderer *Renderer, sender Sender) *Mailer {
	return &Mailer{renderer: renderer, sender: sender}
}

func (m *Mailer) send(ctx context.Context, kind Kind, data Data) error {
	msg, err := m.renderer.Render(kind, data)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, msg)
}

func (m *Mailer) SendRegistrationEmail(ctx context.Context, email, name string, userID int64, controlCode string) error {
	return m.send(ctx, KindRegistration, Data{Email: email, Name: name, UserID: userID, ControlCode: controlCode})
}

func (m *Mailer) SendManualRegistrationEmail(ctx context.Context, email, name string, userID int64, controlCode string, registrator *goAccount.Account) error {
	data := Data{Email: email, Name: name, UserID: userID, ControlCode: controlCode}
	if registrator != nil {
		data.Registrator = registrator.Name
		if data.Registrator == "" {
			data.Registrator = registrator.Email
		}
	}
	return m.send(ctx, KindManualRegistration, data)
}

func (m *Mailer) SendLostPasswordEmail(ctx context.Context, email, tokenKey string) error {
	return m.send(ctx, KindLostPassword, Data{Email: email, TokenKey: tokenKey})
}

var _ goAccount.Notifier = (*Mailer)(nil)
