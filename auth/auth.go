package auth

import (
	"context"
	"net/http"
	"time"

)

type ctxKey string

const (
	sessionCookieName = "diabetecam_session"
	sessionCtxKey     = ctxKey("session")
)

// Options configures a Manager.
type Options struct {
	Secret []byte
	TTL    time.Duration
	Secure bool
	// AutoLogin, when set, makes every new session start logged in as this
	// user. Used by the single-user mode where there is no login page.
	AutoLogin *User
}

// Manager issues session cookies and resolves them to server-side sessions.
type Manager struct {
	store *Store
	opts  Options
}

// NewManager creates a manager with its own in-memory store.
func NewManager(opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 12 * time.Hour
	}
	if len(opts.Secret) == 0 {
		opts.Secret = []byte("devsessionsecret")
	}
	return &Manager{store: NewStore(opts.TTL), opts: opts}
}

// Store exposes the underlying session store.
func (m *Manager) Store() *Store { return m.store }

// Login replaces the request's session with a fresh logged-in one and
// writes its cookie. The old session id is discarded.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, u *User) (*Session, error) {
	s := m.store.login(FromContext(r.Context()), u)
	if err := m.writeCookie(w, s); err != nil {
		m.store.Delete(s.ID)
		return nil, err
	}
	return s, nil
}

// Logout deletes the session and its cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) {
	if s := FromContext(r.Context()); s != nil {
		m.store.Delete(s.ID)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Parse resolves the request cookie to a live session.
func (m *Manager) Parse(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	sid, err := sessionIDFromToken(c.Value, m.opts.Secret)
	if err != nil {
		return nil, false
	}
	return m.store.Get(sid)
}

// Middleware attaches a session to every request. Without a valid cookie
// the request gets a transient anonymous session and no cookie is written,
// unless AutoLogin is set.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := m.Parse(r)
		if !ok {
			s = m.store.Anonymous()
			if m.opts.AutoLogin != nil {
				s = m.store.login(nil, m.opts.AutoLogin)
				if err := m.writeCookie(w, s); err != nil {
					m.store.Delete(s.ID)
					http.Error(w, "session error", http.StatusInternalServerError)
					return
				}
			}
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

func (m *Manager) writeCookie(w http.ResponseWriter, s *Session) error {
	token, err := generateToken(s.ID, m.opts.Secret, s.ExpiresAt)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// WithSession stores the session in context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, s)
}

// FromContext extracts the session, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionCtxKey).(*Session)
	return s
}

// CookieName is exposed for tests and clients that forward the cookie.
func CookieName() string { return sessionCookieName }
