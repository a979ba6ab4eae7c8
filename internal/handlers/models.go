package handlers

import (
	"errors"
	"net/http"

	"github.com/diabetecam/diabetecam/auth"
	"github.com/diabetecam/diabetecam/internal/charts"
	"github.com/diabetecam/diabetecam/internal/dataset"
	"github.com/diabetecam/diabetecam/internal/metrics"
	"github.com/diabetecam/diabetecam/internal/ml"
	"github.com/diabetecam/diabetecam/validation"
	"go.uber.org/zap"
)

// FeatureField describes a prediction form input.
type FeatureField struct {
	Name    string
	Label   string
	Min     float64
	Max     float64
	Default float64
	Step    float64
}

var featureFields = map[string]FeatureField{
	"Glucose":                  {"Glucose", "🍬 Glucose (mg/dL)", 50, 300, 120, 1},
	"BMI":                      {"BMI", "⚖️ BMI (kg/m²)", 15, 60, 25, 0.1},
	"Age":                      {"Age", "🎂 Âge (années)", 18, 100, 35, 1},
	"BloodPressure":            {"BloodPressure", "💉 Pression artérielle", 40, 200, 80, 1},
	"Pregnancies":              {"Pregnancies", "🤰 Nombre de grossesses", 0, 15, 1, 1},
	"SkinThickness":            {"SkinThickness", "📏 Épaisseur de peau", 0, 100, 25, 0.1},
	"Insulin":                  {"Insulin", "💉 Insuline", 0, 900, 100, 1},
	"DiabetesPedigreeFunction": {"DiabetesPedigreeFunction", "🧬 Hérédité (DPF)", 0, 2.5, 0.4, 0.01},
}

func fieldsFor(features []string) []FeatureField {
	out := make([]FeatureField, 0, len(features))
	for _, f := range features {
		if ff, ok := featureFields[f]; ok {
			out = append(out, ff)
		}
	}
	return out
}

type trainForm struct {
	Features []string `form:"features"`
	TestSize int      `form:"test_size" validate:"gte=10,lte=50"`
}

type modelKind struct {
	name     string // metrics label
	key      string // session key
	template string
	title    string
	path     string
}

var (
	kindLogReg = modelKind{"logreg", keyLogReg, "model_logreg.html", "🤖 ML Model 1 (Régression)", "/modeles/regression"}
	kindTree   = modelKind{"tree", keyTree, "model_tree.html", "🌳 ML Model 2 (Arbre)", "/modeles/arbre"}
)

// ModelHandler trains the classifiers into the caller's session and scores
// readings typed on the model pages.
type ModelHandler struct {
	trainer *ml.Trainer
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewModelHandler(t *ml.Trainer, m *metrics.Metrics, log *zap.Logger) *ModelHandler {
	return &ModelHandler{trainer: t, metrics: m, log: log}
}

func (h *ModelHandler) page(w http.ResponseWriter, r *http.Request, kind modelKind, status int, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Title"] = kind.title
	data["Action"] = kind.path
	data["Empty"] = h.trainer.Dataset().IsEmpty()
	data["AllFeatures"] = dataset.Features
	if _, ok := data["Selected"]; !ok {
		data["Selected"] = ml.DefaultOptions().Features
	}
	if _, ok := data["TestSize"]; !ok {
		data["TestSize"] = 20
	}
	var features []string
	switch kind {
	case kindLogReg:
		if m := sessionLogReg(r); m != nil {
			data["Model"], features = m, m.Features
		}
	case kindTree:
		if m := sessionTree(r); m != nil {
			data["Model"], features = m, m.Features
		}
	}
	data["Fields"] = fieldsFor(features)
	render(h.log, w, r, status, kind.template, data)
}

func (h *ModelHandler) LogRegPage(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, kindLogReg, http.StatusOK, nil)
}

func (h *ModelHandler) TreePage(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, kindTree, http.StatusOK, nil)
}

func (h *ModelHandler) TrainLogReg(w http.ResponseWriter, r *http.Request) {
	h.train(w, r, kindLogReg)
}

func (h *ModelHandler) TrainTree(w http.ResponseWriter, r *http.Request) {
	h.train(w, r, kindTree)
}

func (h *ModelHandler) train(w http.ResponseWriter, r *http.Request, kind modelKind) {
	f := newForm(r)
	in := trainForm{Features: f.r.Form["features"], TestSize: f.Int("test_size")}
	v := f.merge(validation.Struct(in))
	data := map[string]any{"Selected": in.Features, "TestSize": in.TestSize}
	if !v.Empty() {
		data["Errors"] = v
		data["Error"] = "form.invalid"
		h.page(w, r, kind, http.StatusBadRequest, data)
		return
	}

	s := auth.FromContext(r.Context())
	opts := ml.Options{Features: in.Features, TestSize: float64(in.TestSize) / 100, Seed: ml.DefaultSeed}
	var (
		model any
		err   error
	)
	if kind == kindLogReg {
		model, err = h.trainer.TrainLogReg(r.Context(), s, opts)
	} else {
		model, err = h.trainer.TrainTree(r.Context(), s, opts)
	}
	if err != nil {
		status, code := trainFailure(err)
		h.metrics.Trained(kind.name, code)
		if status == http.StatusInternalServerError {
			h.log.Error("training failed", zap.String("model", kind.name), zap.Error(err))
		}
		data["Error"] = code
		h.page(w, r, kind, status, data)
		return
	}
	s.Set(kind.key, model)
	h.metrics.Trained(kind.name, "success")
	h.log.Info("model trained", zap.String("model", kind.name), zap.Strings("features", in.Features), zap.Int("test_size", in.TestSize))
	data["Success"] = "model.trained"
	h.page(w, r, kind, http.StatusOK, data)
}

func trainFailure(err error) (int, string) {
	switch {
	case errors.Is(err, ml.ErrBusy):
		return http.StatusConflict, "model.busy"
	case errors.Is(err, ml.ErrNoFeatures):
		return http.StatusBadRequest, "model.no_features"
	case errors.Is(err, ml.ErrEmptyDataset):
		return http.StatusServiceUnavailable, "dataset.empty"
	case errors.Is(err, ml.ErrTestSize), errors.Is(err, ml.ErrUnknownFeature):
		return http.StatusBadRequest, "form.invalid"
	case errors.Is(err, ml.ErrSingleClass):
		return http.StatusUnprocessableEntity, "model.single_class"
	}
	return http.StatusInternalServerError, "model.failed"
}

func (h *ModelHandler) PredictLogReg(w http.ResponseWriter, r *http.Request) {
	m := sessionLogReg(r)
	if m == nil {
		h.page(w, r, kindLogReg, http.StatusConflict, map[string]any{"Error": "model.missing"})
		return
	}
	h.predict(w, r, kindLogReg, m.Features, m)
}

func (h *ModelHandler) PredictTree(w http.ResponseWriter, r *http.Request) {
	m := sessionTree(r)
	if m == nil {
		h.page(w, r, kindTree, http.StatusConflict, map[string]any{"Error": "model.missing"})
		return
	}
	h.predict(w, r, kindTree, m.Features, m)
}

type predictor interface {
	Predict(input map[string]float64) (int, float64, error)
}

func (h *ModelHandler) predict(w http.ResponseWriter, r *http.Request, kind modelKind, features []string, p predictor) {
	f := newForm(r)
	input := make(map[string]float64, len(features))
	for _, ff := range fieldsFor(features) {
		val := f.Float(ff.Name)
		validation.RangeFloat(ff.Name, val, ff.Min, ff.Max, f.v)
		input[ff.Name] = val
	}
	data := map[string]any{"Input": input}
	if !f.v.Empty() {
		data["Errors"] = f.v
		data["Error"] = "form.invalid"
		h.page(w, r, kind, http.StatusBadRequest, data)
		return
	}
	class, prob, err := p.Predict(input)
	if err != nil {
		h.log.Warn("prediction failed", zap.String("model", kind.name), zap.Error(err))
		data["Error"] = "model.predict_failed"
		h.page(w, r, kind, http.StatusBadRequest, data)
		return
	}
	data["Prediction"] = map[string]any{
		"Class":       class,
		"Label":       ml.ClassLabels[class],
		"Probability": prob,
		"Risk":        string(ml.Bracket(prob)),
	}
	h.page(w, r, kind, http.StatusOK, data)
}

// ConfusionLogReg draws the confusion matrix of the session's model.
func (h *ModelHandler) ConfusionLogReg(w http.ResponseWriter, r *http.Request) {
	m := sessionLogReg(r)
	if m == nil {
		http.NotFound(w, r)
		return
	}
	writeChart(h.log, w, charts.ConfusionMatrix(m.Eval.Confusion, "Matrice de confusion - Régression"))
}

func (h *ModelHandler) ConfusionTree(w http.ResponseWriter, r *http.Request) {
	m := sessionTree(r)
	if m == nil {
		http.NotFound(w, r)
		return
	}
	writeChart(h.log, w, charts.ConfusionMatrix(m.Eval.Confusion, "Matrice de confusion - Arbre"))
}
