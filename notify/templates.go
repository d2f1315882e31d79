package notify

import (
	"bytes"
	"fmt"
	"net/url"
	"text/template"
)

// Kind names an email template.
type Kind string

const (
	KindRegistration       Kind = "registration"
	KindManualRegistration Kind = "manual_registration"
	KindLostPassword       Kind = "lost_password"
)

// Template is a subject and body pair.
type Template struct {
	Subject string
	Body    string
}

// Data is the value every template executes against.
type Data struct {
	Email       string
	Name        string
	UserID      int64
	ControlCode string
	TokenKey    string
	Registrator string
	Link        string
	SiteName    string
}

// DefaultTemplates returns the built-in English templates.
func DefaultTemplates() map[Kind]Template {
	return map[Kind]Template{
		KindRegistration: {
			Subject: "Confirm your {{.SiteName}} account",
			Body: `Hello{{if .Name}} {{.Name}}{{end}},

thank you for registering at {{.SiteName}}. Confirm your email address by opening:

{{.Link}}

If you did not register, ignore this message.
`,
		},
		KindManualRegistration: {
			Subject: "An account was created for you at {{.SiteName}}",
			Body: `Hello{{if .Name}} {{.Name}}{{end}},

{{if .Registrator}}{{.Registrator}} created{{else}}an administrator created{{end}} a {{.SiteName}} account for {{.Email}}.
Choose your password and activate the account at:

{{.Link}}
`,
		},
		KindLostPassword: {
			Subject: "Reset your {{.SiteName}} password",
			Body: `A password reset was requested for {{.Email}}. Choose a new password at:

{{.Link}}

The link expires soon. If you did not ask for a reset, ignore this message.
`,
		},
	}
}

type compiled struct {
	subject *template.Template
	body    *template.Template
}

// Renderer turns template Data into Messages.
type Renderer struct {
	siteName  string
	baseURL   string
	templates map[Kind]compiled
}

// NewRenderer parses every template. Kinds missing from overrides fall back
// to DefaultTemplates.
func NewRenderer(siteName, baseURL string, overrides map[Kind]Template) (*Renderer, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("notify: invalid base url: %w", err)
	}

	sources := DefaultTemplates()
	for kind, tpl := range overrides {
		sources[kind] = tpl
	}

	r := &Renderer{siteName: siteName, baseURL: baseURL, templates: make(map[Kind]compiled, len(sources))}
	for kind, src := range sources {
		subject, err := template.New(string(kind) + ".subject").Option("missingkey=error").Parse(src.Subject)
		if err != nil {
			return nil, fmt.Errorf("notify: parse %s subject: %w", kind, err)
		}
		body, err := template.New(string(kind) + ".body").Option("missingkey=error").Parse(src.Body)
		if err != nil {
			return nil, fmt.Errorf("notify: parse %s body: %w", kind, err)
		}
		r.templates[kind] = compiled{subject: subject, body: body}
	}
	return r, nil
}

// Render executes kind's templates. SiteName and Link are filled in when
// empty.
func (r *Renderer) Render(kind Kind, data Data) (Message, error) {
	tpl, ok := r.templates[kind]
	if !ok {
		return Message{}, fmt.Errorf("notify: no template for %q", kind)
	}
	if data.SiteName == "" {
		data.SiteName = r.siteName
	}
	if data.Link == "" {
		data.Link = r.link(kind, data)
	}

	var subject, body bytes.Buffer
	if err := tpl.subject.Execute(&subject, data); err != nil {
		return Message{}, fmt.Errorf("notify: render %s subject: %w", kind, err)
	}
	if err := tpl.body.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("notify: render %s body: %w", kind, err)
	}

	return Message{
		Kind:    kind,
		To:      data.Email,
		Subject: subject.String(),
		Body:    body.String(),
	}, nil
}

func (r *Renderer) link(kind Kind, data Data) string {
	q := url.Values{}
	q.Set("email", data.Email)

	var path string
	switch kind {
	case KindRegistration:
		path = "/register/confirm"
		q.Set("code", data.ControlCode)
	case KindManualRegistration:
		path = "/register/confirm-manual"
		q.Set("code", data.ControlCode)
	case KindLostPassword:
		path = "/password/reset"
		q.Set("key", data.TokenKey)
	}
	return r.baseURL + path + "?" + q.Encode()
}
