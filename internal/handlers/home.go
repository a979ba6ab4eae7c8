package handlers

import (
	"errors"
	"net/http"

	"github.com/diabetecam/diabetecam/internal/charts"
	"github.com/diabetecam/diabetecam/internal/dataset"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DatasetHandler serves the pages built on the loaded dataset: the home
// page preview and the visualisations.
type DatasetHandler struct {
	data *dataset.Dataset
	log  *zap.Logger
}

func NewDatasetHandler(d *dataset.Dataset, log *zap.Logger) *DatasetHandler {
	if d == nil {
		d = dataset.Empty()
	}
	return &DatasetHandler{data: d, log: log}
}

func (h *DatasetHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title":   "🏠 Accueil",
		"Empty":   h.data.IsEmpty(),
		"Rows":    h.data.Len(),
		"Dropped": h.data.Dropped(),
		"Columns": dataset.Columns,
	}
	if !h.data.IsEmpty() {
		data["Head"] = h.data.Head(5)
		data["Summary"] = h.data.Describe()
		if y := h.data.Labels(); len(y) > 0 {
			pos := 0
			for _, v := range y {
				pos += v
			}
			data["Positive"] = pos
			data["PositiveShare"] = float64(pos) / float64(len(y))
		}
	}
	render(h.log, w, r, http.StatusOK, "home.html", data)
}

func (h *DatasetHandler) Visualisations(w http.ResponseWriter, r *http.Request) {
	render(h.log, w, r, http.StatusOK, "visualisations.html", map[string]any{
		"Title":  "📊 Visualisations",
		"Empty":  h.data.IsEmpty(),
		"Charts": charts.DatasetCharts(),
	})
}

// Chart writes one standalone chart page, embedded by the visualisations page.
func (h *DatasetHandler) Chart(w http.ResponseWriter, r *http.Request) {
	c, err := charts.ForDataset(chi.URLParam(r, "name"), h.data)
	switch {
	case errors.Is(err, charts.ErrUnknownChart):
		http.NotFound(w, r)
		return
	case errors.Is(err, charts.ErrNoData):
		http.Error(w, "no data", http.StatusServiceUnavailable)
		return
	case err != nil:
		h.log.Error("chart build failed", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeChart(h.log, w, c)
}

func writeChart(log *zap.Logger, w http.ResponseWriter, c charts.Renderer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(w); err != nil {
		log.Error("chart render failed", zap.Error(err))
	}
}
