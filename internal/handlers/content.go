package handlers

import (
	"net/http"

	"github.com/diabetecam/diabetecam/internal/content"
	"go.uber.org/zap"
)

type ContentHandler struct {
	lib *content.Library
	log *zap.Logger
}

func NewContentHandler(lib *content.Library, log *zap.Logger) *ContentHandler {
	return &ContentHandler{lib: lib, log: log}
}

func (h *ContentHandler) Nutrition(w http.ResponseWriter, r *http.Request) {
	n := h.lib.Nutrition
	var recipe content.Recipe
	if len(n.Recipes) > 0 {
		recipe = n.Recipes[0]
	}
	if name := r.URL.Query().Get("recette"); name != "" {
		for _, rc := range n.Recipes {
			if rc.Name == name {
				recipe = rc
			}
		}
	}
	render(h.log, w, r, http.StatusOK, "nutrition.html", map[string]any{
		"Title":     "🥘 Conseils Nutrition",
		"Nutrition": n,
		"Recipe":    recipe,
	})
}

func (h *ContentHandler) Centres(w http.ResponseWriter, r *http.Request) {
	c := h.lib.Centres
	render(h.log, w, r, http.StatusOK, "centres.html", map[string]any{
		"Title":    "🏥 Centres de Santé",
		"Cities":   c.CityNames(),
		"City":     c.City(r.URL.Query().Get("ville")),
		"Services": c.Services,
	})
}

func (h *ContentHandler) Formation(w http.ResponseWriter, r *http.Request) {
	render(h.log, w, r, http.StatusOK, "formation.html", map[string]any{
		"Title":   "📚 Formation Diabète",
		"Modules": h.lib.Formation.Modules,
	})
}
