package handlers

import (
	"errors"
	"net/http"

	"github.com/diabetecam/diabetecam/gate"
	"github.com/diabetecam/diabetecam/internal/dataset"
	"github.com/diabetecam/diabetecam/internal/services"
	"github.com/diabetecam/diabetecam/validation"
	"go.uber.org/zap"
)

// Settings is the effective configuration shown on the configuration page.
type Settings struct {
	Backend  string
	AuthMode string
	Dataset  string
	Dev      bool
}

type AdminHandler struct {
	users        *services.UserService
	patients     *services.PatientService
	measurements *services.MeasurementService
	data         *dataset.Dataset
	settings     Settings
	log          *zap.Logger
}

func NewAdminHandler(u *services.UserService, p *services.PatientService, m *services.MeasurementService, d *dataset.Dataset, settings Settings, log *zap.Logger) *AdminHandler {
	if d == nil {
		d = dataset.Empty()
	}
	return &AdminHandler{users: u, patients: p, measurements: m, data: d, settings: settings, log: log}
}

func (h *AdminHandler) usersPage(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Title"] = "🔐 Gestion Utilisateurs"
	data["Roles"] = gate.Roles
	data["Pages"] = gate.AllPages
	if _, ok := data["Form"]; !ok {
		data["Form"] = services.NewUser{Role: string(gate.RoleMedecin)}
	}
	list, err := h.users.List(r.Context())
	if err != nil {
		h.log.Error("list users failed", zap.Error(err))
		data["Error"] = "db.unavailable"
		status = http.StatusServiceUnavailable
	}
	data["Users"] = list
	render(h.log, w, r, status, "admin_users.html", data)
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	h.usersPage(w, r, http.StatusOK, nil)
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	f := newForm(r)
	in := services.NewUser{
		Username:    f.String("username"),
		FullName:    f.String("full_name"),
		Password:    f.r.FormValue("password"),
		Role:        f.String("role"),
		Permissions: f.r.Form["permissions"],
	}
	u, err := h.users.Create(r.Context(), in)
	in.Password = ""
	var v validation.Violations
	switch {
	case errors.As(err, &v):
		h.usersPage(w, r, http.StatusBadRequest, map[string]any{"Form": in, "Errors": v, "Error": "form.invalid"})
		return
	case errors.Is(err, services.ErrUsernameTaken):
		h.usersPage(w, r, http.StatusConflict, map[string]any{"Form": in, "Error": "user.taken"})
		return
	case err != nil:
		h.log.Error("create user failed", zap.Error(err))
		h.usersPage(w, r, http.StatusServiceUnavailable, map[string]any{"Form": in, "Error": "db.unavailable"})
		return
	}
	h.usersPage(w, r, http.StatusCreated, map[string]any{"Created": u, "Success": "user.created"})
}

// Stats shows record counts, the session's trained models and the
// effective configuration.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := map[string]any{
		"Title":       "⚙️ Configuration & Stats",
		"Settings":    h.settings,
		"DatasetRows": h.data.Len(),
		"Dropped":     h.data.Dropped(),
	}
	status := http.StatusOK
	counts := map[string]int64{}
	for name, count := range map[string]func() (int64, error){
		"Users":        func() (int64, error) { return h.users.Count(ctx) },
		"Patients":     func() (int64, error) { return h.patients.Count(ctx) },
		"Measurements": func() (int64, error) { return h.measurements.Count(ctx) },
	} {
		n, err := count()
		if err != nil {
			h.log.Error("count failed", zap.String("table", name), zap.Error(err))
			data["Error"] = "db.unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		counts[name] = n
	}
	data["Counts"] = counts
	trained := 0
	if sessionLogReg(r) != nil {
		trained++
	}
	if sessionTree(r) != nil {
		trained++
	}
	data["Trained"] = trained
	data["LogReg"] = sessionLogReg(r)
	data["Tree"] = sessionTree(r)
	render(h.log, w, r, status, "admin_config.html", data)
}
