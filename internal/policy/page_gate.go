// Package policy enforces page access on HTTP routes and resolves login
// credentials against the configured account directory.
package policy

import (
	"errors"
	"net/http"

	"github.com/diabetecam/diabetecam/auth"
	"github.com/diabetecam/diabetecam/gate"
	"github.com/diabetecam/diabetecam/httpx"
	"github.com/diabetecam/diabetecam/internal/metrics"
	"go.uber.org/zap"
)

// DeniedFunc renders the access-denied page for HTML clients.
type DeniedFunc func(w http.ResponseWriter, r *http.Request, page gate.Page)

// PageGate checks the session's permissions when a page route is entered.
type PageGate struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	denied  DeniedFunc
}

func NewPageGate(log *zap.Logger, m *metrics.Metrics, denied DeniedFunc) *PageGate {
	if log == nil {
		log = zap.NewNop()
	}
	if denied == nil {
		denied = func(w http.ResponseWriter, _ *http.Request, _ gate.Page) {
			http.Error(w, "Forbidden", http.StatusForbidden)
		}
	}
	return &PageGate{log: log, metrics: m, denied: denied}
}

// Require returns middleware admitting only sessions allowed to open page.
// Anonymous HTML clients are sent to /login; JSON clients get 401.
func (g *PageGate) Require(page gate.Page) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := auth.FromContext(r.Context())
			err := gate.Authorize(s, page.Label())
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, gate.ErrNotLoggedIn):
				g.metrics.Denied(string(page), "anonymous")
				if httpx.WantsJSON(r) {
					httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
					return
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
			default:
				g.metrics.Denied(string(page), "forbidden")
				fields := []zap.Field{zap.String("page", string(page)), zap.String("path", r.URL.Path)}
				if u := s.User(); u != nil {
					fields = append(fields, zap.String("username", u.Username))
				}
				g.log.Info("page access denied", fields...)
				if httpx.WantsJSON(r) {
					httpx.JSONError(w, http.StatusForbidden, "access_denied", map[string]string{"page": string(page)})
					return
				}
				g.denied(w, r, page)
			}
		})
	}
}
