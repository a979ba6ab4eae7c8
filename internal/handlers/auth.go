package handlers

import (
	"errors"
	"net/http"

	"github.com/diabetecam/diabetecam/auth"
	"github.com/diabetecam/diabetecam/gate"
	"github.com/diabetecam/diabetecam/internal/metrics"
	"github.com/diabetecam/diabetecam/internal/middleware"
	"github.com/diabetecam/diabetecam/internal/policy"
	"github.com/diabetecam/diabetecam/internal/services"
	"go.uber.org/zap"
)

type AuthHandler struct {
	dir      policy.Directory
	sessions *auth.Manager
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// NewAuthHandler serves login and logout. dir is nil when authentication
// is disabled; the login page then just redirects home.
func NewAuthHandler(dir policy.Directory, sessions *auth.Manager, m *metrics.Metrics, log *zap.Logger) *AuthHandler {
	return &AuthHandler{dir: dir, sessions: sessions, metrics: m, log: log}
}

func (h *AuthHandler) loginPage(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Title"] = "login.title"
	data["Roles"] = gate.Roles
	if _, ok := data["Role"]; !ok {
		data["Role"] = gate.RoleMedecin
	}
	render(h.log, w, r, status, "login.html", data)
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.dir == nil || auth.FromContext(r.Context()).IsLoggedIn() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.loginPage(w, r, http.StatusOK, nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.dir == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	f := newForm(r)
	username, password := f.String("username"), f.r.FormValue("password")
	role, roleErr := gate.ParseRole(f.String("role"))
	data := map[string]any{"Username": username, "Role": role}

	if username == "" || password == "" {
		data["Error"] = "login.missing"
		h.loginPage(w, r, http.StatusBadRequest, data)
		return
	}
	var u *auth.User
	err := services.ErrInvalidCredentials
	if roleErr == nil {
		u, err = h.dir.Authenticate(r.Context(), username, password, role)
	}
	if errors.Is(err, services.ErrInvalidCredentials) {
		h.metrics.Login("invalid")
		h.log.Info("login refused", zap.String("username", username), zap.String("role", string(role)))
		data["Error"] = "login.invalid"
		h.loginPage(w, r, http.StatusUnauthorized, data)
		return
	}
	if err != nil {
		h.metrics.Login("error")
		h.log.Error("login lookup failed", zap.Error(err))
		data["Error"] = "db.unavailable"
		h.loginPage(w, r, http.StatusServiceUnavailable, data)
		return
	}
	if _, err := h.sessions.Login(w, r, u); err != nil {
		h.log.Error("session login failed", zap.Error(err))
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	h.metrics.Login("success")
	h.log.Info("user logged in", zap.String("username", u.Username), zap.String("role", string(u.Role)))
	middleware.Flash(w, r, "login.welcome")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Root sends the user to their first visible page. A session with no
// visible page gets an explicit empty state instead of an error.
func (h *AuthHandler) Root(w http.ResponseWriter, r *http.Request) {
	s := auth.FromContext(r.Context())
	if !s.IsLoggedIn() {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	dest, err := policy.Landing(s)
	if errors.Is(err, gate.ErrNoPages) {
		render(h.log, w, r, http.StatusOK, "empty.html", map[string]any{"Title": "nav.title"})
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}
