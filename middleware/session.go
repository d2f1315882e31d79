package middleware

import (
	"net/http"
	"strings"

	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/session"
)

// DefaultCookieName is the session handle cookie used when none is configured.
const DefaultCookieName = "goaccount_session"

// HandleParser verifies a session handle.
type HandleParser interface {
	ParseHandle(token string) (*jwt.HandleClaims, error)
}

// Session binds the session named by a valid handle to the request context.
// A missing or invalid handle leaves the request anonymous.
func Session(parser HandleParser, cookieName string) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if parser == nil {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := HandleFromRequest(r, cookieName)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := parser.ParseHandle(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := session.WithID(r.Context(), claims.SID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HandleFromRequest prefers an Authorization bearer token over the cookie.
func HandleFromRequest(r *http.Request, cookieName string) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
