package gate

import "strings"

// Page identifies one screen of the dashboard by its canonical permission name.
// The set of pages is closed: stored permissions are parsed against it.
type Page string

const (
	PageAccueil        Page = "Accueil"
	PageVisualisations Page = "Visualisations"
	PageRegression     Page = "ML Model 1"
	PageArbre          Page = "ML Model 2"
	PageNouveauPatient Page = "Nouveau Patient"
	PageSuiviPatient   Page = "Suivi Patient"
	PageNutrition      Page = "Nutrition"
	PageCentresSante   Page = "Centres Santé"
	PageFormation      Page = "Formation"
	PageUtilisateurs   Page = "Gestion Utilisateurs"
	PageConfiguration  Page = "Configuration & Stats"
)

type pageMeta struct {
	label string
	path  string
}

var pages = map[Page]pageMeta{
	PageAccueil:        {"🏠 Accueil", "/accueil"},
	PageVisualisations: {"📊 Visualisations", "/visualisations"},
	PageRegression:     {"🤖 ML Model 1 (Régression)", "/modeles/regression"},
	PageArbre:          {"🌳 ML Model 2 (Arbre)", "/modeles/arbre"},
	PageNouveauPatient: {"📝 Nouveau Patient", "/patients/nouveau"},
	PageSuiviPatient:   {"📈 Suivi Patient", "/patients/suivi"},
	PageNutrition:      {"🥘 Conseils Nutrition", "/nutrition"},
	PageCentresSante:   {"🏥 Centres de Santé", "/centres"},
	PageFormation:      {"📚 Formation Diabète", "/formation"},
	PageUtilisateurs:   {"🔐 Gestion Utilisateurs", "/admin/utilisateurs"},
	PageConfiguration:  {"⚙️ Configuration & Stats", "/admin/configuration"},
}

// AllPages is the master navigation order.
var AllPages = []Page{
	PageAccueil,
	PageVisualisations,
	PageRegression,
	PageArbre,
	PageNouveauPatient,
	PageSuiviPatient,
	PageNutrition,
	PageCentresSante,
	PageFormation,
	PageUtilisateurs,
	PageConfiguration,
}

var labelIndex = func() map[string]Page {
	m := make(map[string]Page, len(pages))
	for p, meta := range pages {
		m[meta.label] = p
	}
	return m
}()

// Label returns the decorated menu label.
func (p Page) Label() string {
	if meta, ok := pages[p]; ok {
		return meta.label
	}
	return string(p)
}

// Path returns the route serving the page.
func (p Page) Path() string {
	if meta, ok := pages[p]; ok {
		return meta.path
	}
	return ""
}

// Valid reports whether p belongs to the closed page set.
func (p Page) Valid() bool {
	_, ok := pages[p]
	return ok
}

func (p Page) String() string { return string(p) }

// Canonical maps a page identifier to its permission name.
// Decorated labels reduce to their canonical name; any other identifier
// is returned unchanged.
func Canonical(id string) string {
	if p, ok := labelIndex[id]; ok {
		return string(p)
	}
	return id
}

// ParsePage resolves a canonical name or a decorated label to a Page.
func ParsePage(s string) (Page, error) {
	p := Page(Canonical(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrUnknownPage
	}
	return p, nil
}
