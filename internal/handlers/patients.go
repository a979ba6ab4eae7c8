package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/diabetecam/diabetecam/httpx"
	"github.com/diabetecam/diabetecam/internal/charts"
	"github.com/diabetecam/diabetecam/internal/metrics"
	"github.com/diabetecam/diabetecam/internal/models"
	"github.com/diabetecam/diabetecam/internal/services"
	"github.com/diabetecam/diabetecam/validation"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PatientHandler struct {
	patients     *services.PatientService
	measurements *services.MeasurementService
	metrics      *metrics.Metrics
	log          *zap.Logger
	now          func() time.Time
}

func NewPatientHandler(p *services.PatientService, m *services.MeasurementService, mt *metrics.Metrics, log *zap.Logger) *PatientHandler {
	return &PatientHandler{patients: p, measurements: m, metrics: mt, log: log, now: time.Now}
}

func (h *PatientHandler) newPage(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Title"] = "📝 Nouveau Patient"
	data["Sexes"] = models.Sexes
	data["Cities"] = models.Cities
	data["Today"] = h.now().Format("2006-01-02")
	if _, ok := data["Form"]; !ok {
		data["Form"] = services.NewPatient{DateNaissance: "1980-01-01", Sexe: models.Sexes[0], Ville: models.Cities[0]}
	}
	render(h.log, w, r, status, "patient_new.html", data)
}

func (h *PatientHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.newPage(w, r, http.StatusOK, nil)
}

func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	f := newForm(r)
	in := services.NewPatient{
		Nom:           f.String("nom"),
		Prenom:        f.String("prenom"),
		DateNaissance: f.String("date_naissance"),
		Sexe:          f.String("sexe"),
		Telephone:     f.String("telephone"),
		Ville:         f.String("ville"),
		Quartier:      f.String("quartier"),
	}
	p, err := h.patients.Create(r.Context(), in)
	var v validation.Violations
	switch {
	case errors.As(err, &v):
		h.newPage(w, r, http.StatusBadRequest, map[string]any{"Form": in, "Errors": v, "Error": "form.invalid"})
		return
	case err != nil:
		h.log.Error("create patient failed", zap.Error(err))
		h.newPage(w, r, http.StatusServiceUnavailable, map[string]any{"Form": in, "Error": "db.unavailable"})
		return
	}
	h.newPage(w, r, http.StatusCreated, map[string]any{"Created": p})
}

// Suivi lists patients and, for the one picked with ?patient=, the
// measurement form and history.
func (h *PatientHandler) Suivi(w http.ResponseWriter, r *http.Request) {
	h.suivi(w, r, http.StatusOK, nil)
}

func (h *PatientHandler) suivi(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Title"] = "📈 Suivi Patient"
	data["Analysed"] = sessionLogReg(r) != nil
	ctx := r.Context()

	list, err := h.patients.List(ctx)
	if err != nil {
		h.log.Error("list patients failed", zap.Error(err))
		data["Error"] = "db.unavailable"
		render(h.log, w, r, http.StatusServiceUnavailable, "patient_suivi.html", data)
		return
	}
	data["Patients"] = list
	if len(list) == 0 {
		render(h.log, w, r, status, "patient_suivi.html", data)
		return
	}

	id, ok := pathID(r.FormValue("patient"))
	if !ok {
		id = list[0].ID
	}
	p, err := h.patients.Get(ctx, id)
	if errors.Is(err, services.ErrPatientNotFound) {
		data["Error"] = "patient.not_found"
		render(h.log, w, r, http.StatusNotFound, "patient_suivi.html", data)
		return
	}
	if err != nil {
		h.log.Error("get patient failed", zap.Error(err))
		data["Error"] = "db.unavailable"
		render(h.log, w, r, http.StatusServiceUnavailable, "patient_suivi.html", data)
		return
	}
	history, err := h.measurements.History(ctx, p.ID)
	if err != nil {
		h.log.Error("history failed", zap.Error(err))
		data["Error"] = "db.unavailable"
		render(h.log, w, r, http.StatusServiceUnavailable, "patient_suivi.html", data)
		return
	}
	data["Patient"] = p
	data["Age"] = p.Age(h.now())
	data["History"] = history
	data["Trends"] = charts.TrendMetrics
	data["CanTrend"] = len(history) >= 2
	if _, ok := data["Form"]; !ok {
		data["Form"] = services.MeasurementInput{
			PatientID:        p.ID,
			Pregnancies:      0,
			Glucose:          100,
			BloodPressure:    80,
			SkinThickness:    20,
			Insulin:          80,
			BMI:              25,
			DiabetesPedigree: 0.5,
			Age:              p.DefaultMeasureAge(h.now()),
		}
	}
	render(h.log, w, r, status, "patient_suivi.html", data)
}

func (h *PatientHandler) Record(w http.ResponseWriter, r *http.Request) {
	f := newForm(r)
	in := services.MeasurementInput{
		PatientID:        f.Uint("patient_id"),
		Pregnancies:      f.Int("pregnancies"),
		Glucose:          f.Float("glucose"),
		BloodPressure:    f.Int("blood_pressure"),
		SkinThickness:    f.Float("skin_thickness"),
		Insulin:          f.Float("insulin"),
		BMI:              f.Float("bmi"),
		DiabetesPedigree: f.Float("diabetes_pedigree"),
		Age:              f.Int("age"),
	}
	r.Form.Set("patient", strconv.FormatUint(uint64(in.PatientID), 10))
	if !f.v.Empty() {
		h.suivi(w, r, http.StatusBadRequest, map[string]any{"Form": in, "Errors": f.v, "Error": "form.invalid"})
		return
	}

	// a nil interface, not a typed nil pointer, when no model was trained
	var model services.Predictor
	if m := sessionLogReg(r); m != nil {
		model = m
	}
	m, pred, err := h.measurements.Record(r.Context(), in, model)
	var v validation.Violations
	switch {
	case errors.As(err, &v):
		h.suivi(w, r, http.StatusBadRequest, map[string]any{"Form": in, "Errors": v, "Error": "form.invalid"})
		return
	case errors.Is(err, services.ErrPatientNotFound):
		h.suivi(w, r, http.StatusNotFound, map[string]any{"Form": in, "Error": "patient.not_found"})
		return
	case err != nil:
		h.log.Error("record measurement failed", zap.Error(err))
		h.suivi(w, r, http.StatusServiceUnavailable, map[string]any{"Form": in, "Error": "db.unavailable"})
		return
	}
	h.metrics.Measured(m.RisqueNiveau)
	h.suivi(w, r, http.StatusCreated, map[string]any{"Recorded": m, "Prediction": pred, "Success": "measure.saved"})
}

// Trend writes one trend chart for a patient.
func (h *PatientHandler) Trend(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	history, err := h.measurements.History(r.Context(), id)
	if err != nil {
		h.log.Error("history failed", zap.Error(err))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	c, err := charts.Trend(charts.TrendMetric(chi.URLParam(r, "metric")), history)
	switch {
	case errors.Is(err, charts.ErrUnknownChart):
		http.NotFound(w, r)
		return
	case errors.Is(err, charts.ErrTooFewPoints):
		http.Error(w, "need at least two measurements", http.StatusUnprocessableEntity)
		return
	case err != nil:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeChart(h.log, w, c)
}

// HistoryAPI returns a patient's measurements as JSON, newest first.
func (h *PatientHandler) HistoryAPI(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "id"))
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if _, err := h.patients.Get(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrPatientNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "patient_not_found", nil)
			return
		}
		h.log.Error("get patient failed", zap.Error(err))
		httpx.JSONError(w, http.StatusServiceUnavailable, "database_unavailable", nil)
		return
	}
	history, err := h.measurements.History(r.Context(), id)
	if err != nil {
		h.log.Error("history failed", zap.Error(err))
		httpx.JSONError(w, http.StatusServiceUnavailable, "database_unavailable", nil)
		return
	}
	if history == nil {
		history = []models.Measurement{}
	}
	httpx.OK(w, history)
}
