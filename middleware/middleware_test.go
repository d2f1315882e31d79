package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/session"
)

type fakeParser map[string]string

func (f fakeParser) ParseHandle(token string) (*jwt.HandleClaims, error) {
	sid, ok := f[token]
	if !ok {
		return nil, errors.New("invalid handle")
	}
	return &jwt.HandleClaims{SID: sid}, nil
}

type fakeAccounts map[string]*goAccount.Account

func (f fakeAccounts) CurrentAccount(ctx context.Context) *goAccount.Account {
	sid, ok := session.IDFromContext(ctx)
	if !ok {
		return nil
	}
	return f[sid]
}

func sessionIDOf(t *testing.T, h func(http.Handler) http.Handler, req *http.Request) string {
	t.Helper()
	var got string
	h(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = session.IDFromContext(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestSessionBindsBearerHandle(t *testing.T) {
	mw := Session(fakeParser{"tok": "sid-1"}, "")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")

	if got := sessionIDOf(t, mw, req); got != "sid-1" {
		t.Fatalf("expected sid-1, got %q", got)
	}
}

func TestSessionBindsCookieHandle(t *testing.T) {
	mw := Session(fakeParser{"tok": "sid-2"}, "sess")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sess", Value: "tok"})

	if got := sessionIDOf(t, mw, req); got != "sid-2" {
		t.Fatalf("expected sid-2, got %q", got)
	}
}

func TestSessionBearerWinsOverCookie(t *testing.T) {
	mw := Session(fakeParser{"a": "sid-a", "b": "sid-b"}, "")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer a")
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "b"})

	if got := sessionIDOf(t, mw, req); got != "sid-a" {
		t.Fatalf("expected bearer session, got %q", got)
	}
}

func TestSessionInvalidHandleIsAnonymous(t *testing.T) {
	mw := Session(fakeParser{}, "")
	for _, header := range []string{"Bearer nope", "Bearer ", "Basic abc", ""} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if got := sessionIDOf(t, mw, req); got != "" {
			t.Fatalf("header %q: expected anonymous request, got %q", header, got)
		}
	}
}

func TestRequireAccount(t *testing.T) {
	alice := &goAccount.Account{ID: 7, Email: "a@example.com"}
	guard := RequireAccount(fakeAccounts{"sid": alice})

	var seen *goAccount.Account
	h := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = AccountFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(session.WithID(req.Context(), "sid"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d", rec.Code)
	}
	if seen == nil || seen.ID != 7 {
		t.Fatalf("expected account 7 in context, got %+v", seen)
	}
}

func TestRequireAccountNilSource(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireAccount(nil)(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
