package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/diabetecam/diabetecam/auth"
	"github.com/diabetecam/diabetecam/gate"
	"github.com/diabetecam/diabetecam/internal/ml"
	"github.com/diabetecam/diabetecam/validation"
	"github.com/diabetecam/diabetecam/view"
	"go.uber.org/zap"
)

// Session keys for the models trained on the model pages.
const (
	keyLogReg = "model.logreg"
	keyTree   = "model.tree"
)

func render(log *zap.Logger, w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if err := view.RenderStatus(w, r, status, name, data); err != nil {
		log.Error("render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// Denied renders the access-denied page; it backs policy.PageGate.
func Denied(log *zap.Logger) func(http.ResponseWriter, *http.Request, gate.Page) {
	return func(w http.ResponseWriter, r *http.Request, page gate.Page) {
		render(log, w, r, http.StatusForbidden, "denied.html", map[string]any{
			"Title": page.Label(),
			"Page":  page,
		})
	}
}

func sessionLogReg(r *http.Request) *ml.LogRegModel {
	m, _ := auth.Value[*ml.LogRegModel](auth.FromContext(r.Context()), keyLogReg)
	return m
}

func sessionTree(r *http.Request) *ml.TreeModel {
	m, _ := auth.Value[*ml.TreeModel](auth.FromContext(r.Context()), keyTree)
	return m
}

// form reads typed values out of a parsed request form, recording a
// violation for every field that does not parse.
type form struct {
	r *http.Request
	v validation.Violations
}

func newForm(r *http.Request) *form {
	_ = r.ParseForm()
	return &form{r: r, v: validation.Violations{}}
}

func (f *form) String(name string) string {
	return strings.TrimSpace(f.r.FormValue(name))
}

func (f *form) Float(name string) float64 {
	raw := strings.Replace(f.String(name), ",", ".", 1)
	if raw == "" {
		f.v.Add(name, "required")
		return 0
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		f.v.Add(name, "invalid")
	}
	return n
}

func (f *form) Int(name string) int {
	raw := f.String(name)
	if raw == "" {
		f.v.Add(name, "required")
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		f.v.Add(name, "invalid")
	}
	return n
}

func (f *form) Uint(name string) uint {
	raw := f.String(name)
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		f.v.Add(name, "required")
	}
	return uint(n)
}

// merge folds struct validation into the parse violations; parse errors win.
func (f *form) merge(v validation.Violations) validation.Violations {
	for field, code := range v {
		f.v.Add(field, code)
	}
	return f.v
}

func pathID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
