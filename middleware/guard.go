package middleware

import (
	"context"
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
)

type accountContextKey struct{}

// AccountSource resolves the current account of the session bound to ctx.
// *goAccount.Manager implements it.
type AccountSource interface {
	CurrentAccount(ctx context.Context) *goAccount.Account
}

func AccountFromContext(ctx context.Context) (*goAccount.Account, bool) {
	account, ok := ctx.Value(accountContextKey{}).(*goAccount.Account)
	return account, ok && account != nil
}

// WithAccount binds account to ctx as RequireAccount does.
func WithAccount(ctx context.Context, account *goAccount.Account) context.Context {
	return context.WithValue(ctx, accountContextKey{}, account)
}

// RequireAccount answers 401 unless the request's session has a current
// account. It must run after Session.
func RequireAccount(source AccountSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if source == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			account := source.CurrentAccount(r.Context())
			if account == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
		})
	}
}
