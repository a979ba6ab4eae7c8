package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/diabetecam/diabetecam/auth"
	"github.com/diabetecam/diabetecam/gate"
	"github.com/diabetecam/diabetecam/internal/config"
	"github.com/diabetecam/diabetecam/internal/content"
	"github.com/diabetecam/diabetecam/internal/dataset"
	"github.com/diabetecam/diabetecam/internal/handlers"
	"github.com/diabetecam/diabetecam/internal/logging"
	"github.com/diabetecam/diabetecam/internal/metrics"
	"github.com/diabetecam/diabetecam/internal/middleware"
	"github.com/diabetecam/diabetecam/internal/ml"
	"github.com/diabetecam/diabetecam/internal/policy"
	"github.com/diabetecam/diabetecam/internal/services"
	"github.com/diabetecam/diabetecam/view"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps is everything the application needs from the outside world.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Data    *dataset.Dataset
	Content *content.Library
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// App is the main application handler that sets up all routes.
type App struct {
	router   chi.Router
	sessions *auth.Manager
	gate     *policy.PageGate
	log      *zap.Logger
}

// NewApp wires services, handlers and routes.
func NewApp(d Deps) (*App, error) {
	if d.Config == nil || d.DB == nil {
		return nil, errors.New("app: config and database are required")
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Data == nil {
		d.Data = dataset.Empty()
	}
	if d.Content == nil {
		lib, err := content.Default()
		if err != nil {
			return nil, err
		}
		d.Content = lib
	}
	cfg := d.Config

	users := services.NewUserService(d.DB, d.Log)
	patients := services.NewPatientService(d.DB, d.Log)
	measurements := services.NewMeasurementService(d.DB, d.Log)

	dir, autoLogin, err := directory(cfg.App.AuthMode, users)
	if err != nil {
		return nil, err
	}
	sessions := auth.NewManager(auth.Options{
		Secret:    []byte(cfg.Session.Secret),
		TTL:       cfg.Session.TTL,
		Secure:    cfg.Session.Secure,
		AutoLogin: autoLogin,
	})

	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, err
	}

	a := &App{
		router:   chi.NewRouter(),
		sessions: sessions,
		gate:     policy.NewPageGate(d.Log, d.Metrics, handlers.Denied(d.Log)),
		log:      d.Log,
	}
	a.routes(routeHandlers{
		auth:     handlers.NewAuthHandler(dir, sessions, d.Metrics, d.Log),
		dataset:  handlers.NewDatasetHandler(d.Data, d.Log),
		models:   handlers.NewModelHandler(ml.NewTrainer(d.Data), d.Metrics, d.Log),
		patients: handlers.NewPatientHandler(patients, measurements, d.Metrics, d.Log),
		content:  handlers.NewContentHandler(d.Content, d.Log),
		admin: handlers.NewAdminHandler(users, patients, measurements, d.Data, handlers.Settings{
			Backend:  cfg.Database.Backend,
			AuthMode: cfg.App.AuthMode,
			Dataset:  cfg.App.DatasetPath,
			Dev:      cfg.App.Dev,
		}, d.Log),
		health: handlers.NewHealthHandler(sqlDB, d.Log),
	}, d.Metrics, cfg.Server.CORSOrigins)
	return a, nil
}

// directory picks the credential source for mode. In "none" mode there is
// no login page; every session starts as the local administrator.
func directory(mode string, users *services.UserService) (policy.Directory, *auth.User, error) {
	switch mode {
	case config.AuthStatic:
		d, err := policy.NewStaticDirectory()
		if err != nil {
			return nil, nil, err
		}
		return d, nil, nil
	case config.AuthNone:
		return nil, policy.LocalAdmin(), nil
	}
	return policy.NewDBDirectory(users), nil, nil
}

type routeHandlers struct {
	auth     *handlers.AuthHandler
	dataset  *handlers.DatasetHandler
	models   *handlers.ModelHandler
	patients *handlers.PatientHandler
	content  *handlers.ContentHandler
	admin    *handlers.AdminHandler
	health   *handlers.HealthHandler
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *App) routes(h routeHandlers, m *metrics.Metrics, origins []string) {
	r := a.router
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Middleware(a.log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	if m != nil {
		r.Use(m.Middleware)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Operations (no session)
	// ─────────────────────────────────────────────────────────────────────────
	r.Get("/health", h.health.Health)
	r.Get("/healthz", h.health.Ready)
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(view.StaticDir()))))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Prefs)
		r.Use(a.sessions.Middleware)

		// ─────────────────────────────────────────────────────────────────────
		// Public routes
		// ─────────────────────────────────────────────────────────────────────
		r.Get("/", h.auth.Root)
		r.Get("/login", h.auth.LoginForm)
		r.Post("/login", h.auth.Login)
		r.Post("/logout", h.auth.Logout)

		// ─────────────────────────────────────────────────────────────────────
		// Pages, each behind its permission
		// ─────────────────────────────────────────────────────────────────────
		a.page(r, gate.PageAccueil, func(r chi.Router) {
			r.Get("/accueil", h.dataset.Home)
		})
		a.page(r, gate.PageVisualisations, func(r chi.Router) {
			r.Get("/visualisations", h.dataset.Visualisations)
			r.Get("/visualisations/charts/{name}", h.dataset.Chart)
		})
		a.page(r, gate.PageRegression, func(r chi.Router) {
			r.Get("/modeles/regression", h.models.LogRegPage)
			r.Post("/modeles/regression/train", h.models.TrainLogReg)
			r.Post("/modeles/regression/predict", h.models.PredictLogReg)
			r.Get("/modeles/regression/confusion", h.models.ConfusionLogReg)
		})
		a.page(r, gate.PageArbre, func(r chi.Router) {
			r.Get("/modeles/arbre", h.models.TreePage)
			r.Post("/modeles/arbre/train", h.models.TrainTree)
			r.Post("/modeles/arbre/predict", h.models.PredictTree)
			r.Get("/modeles/arbre/confusion", h.models.ConfusionTree)
		})
		a.page(r, gate.PageNouveauPatient, func(r chi.Router) {
			r.Get("/patients/nouveau", h.patients.NewForm)
			r.Post("/patients/nouveau", h.patients.Create)
		})
		a.page(r, gate.PageSuiviPatient, func(r chi.Router) {
			r.Get("/patients/suivi", h.patients.Suivi)
			r.Post("/patients/suivi", h.patients.Record)
			r.Get("/patients/suivi/{id}/charts/{metric}", h.patients.Trend)
		})
		a.page(r, gate.PageNutrition, func(r chi.Router) {
			r.Get("/nutrition", h.content.Nutrition)
		})
		a.page(r, gate.PageCentresSante, func(r chi.Router) {
			r.Get("/centres", h.content.Centres)
		})
		a.page(r, gate.PageFormation, func(r chi.Router) {
			r.Get("/formation", h.content.Formation)
		})
		a.page(r, gate.PageUtilisateurs, func(r chi.Router) {
			r.Get("/admin/utilisateurs", h.admin.Users)
			r.Post("/admin/utilisateurs", h.admin.CreateUser)
		})
		a.page(r, gate.PageConfiguration, func(r chi.Router) {
			r.Get("/admin/configuration", h.admin.Stats)
		})

		// ─────────────────────────────────────────────────────────────────────
		// JSON API
		// ─────────────────────────────────────────────────────────────────────
		r.Route("/api/v1", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   corsOrigins(origins),
				AllowedMethods:   []string{"GET", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Content-Type"},
				ExposedHeaders:   []string{"X-Request-ID"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
			r.With(a.gate.Require(gate.PageSuiviPatient)).Get("/patients/{id}/mesures", h.patients.HistoryAPI)
		})
	})
}

func (a *App) page(r chi.Router, p gate.Page, routes func(r chi.Router)) {
	r.Group(func(r chi.Router) {
		r.Use(a.gate.Require(p))
		routes(r)
	})
}

func corsOrigins(configured []string) []string {
	if len(configured) > 0 {
		return configured
	}
	return []string{"http://localhost:*"}
}
