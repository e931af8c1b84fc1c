package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alexjbarnes/esi-proxy/internal/models"
)

type contextKey int

const (
	ctxAccount contextKey = iota
)

// AccountLookup loads an account by id.
type AccountLookup interface {
	GetAccount(id int64) (*models.Account, error)
}

// RequestAccount returns the logged-in account from the context, or nil.
func RequestAccount(ctx context.Context) *models.Account {
	v, _ := ctx.Value(ctxAccount).(*models.Account)
	return v
}

// WithAccount returns a context carrying acct.
func WithAccount(ctx context.Context, acct *models.Account) context.Context {
	return context.WithValue(ctx, ctxAccount, acct)
}

// Middleware resolves the session's account id into an account and
// stores it in the request context. Requests without a session, or whose
// account no longer exists or is inactive, continue anonymously.
func Middleware(sess *Sessions, accounts AccountLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sess.AccountID(r)
			if id == 0 {
				next.ServeHTTP(w, r)
				return
			}

			acct, err := accounts.GetAccount(id)
			if err != nil || !acct.Active {
				logger.Debug("middleware: session account unavailable",
					slog.Int64("account_id", id),
					slog.String("path", r.URL.Path),
				)
				next.ServeHTTP(w, r)

				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acct)))
		})
	}
}
