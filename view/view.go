package view

import (
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/diabetecam/diabetecam/auth"
	"github.com/diabetecam/diabetecam/gate"
	"github.com/diabetecam/diabetecam/i18n"
	"github.com/diabetecam/diabetecam/internal/content"
	"github.com/diabetecam/diabetecam/internal/middleware"
	"github.com/diabetecam/diabetecam/internal/policy"
)

var (
	baseDir  string
	baseMu   sync.Mutex
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}
	assetManifest     atomic.Pointer[map[string]string]
	assetManifestOnce sync.Once
	devMode           bool
)

// SetDev disables the template cache so edits show up on reload.
func SetDev(dev bool) { devMode = dev }

func detectBase() string {
	baseMu.Lock()
	defer baseMu.Unlock()
	if baseDir != "" {
		return baseDir
	}
	candidates := []string{"templates", "../templates", "../../templates", "../../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Join(c, "layout.html")); err == nil && !fi.IsDir() {
			baseDir = filepath.Clean(c)
			return baseDir
		}
	}
	baseDir = "templates"
	return baseDir
}

// SetBaseDir overrides the template base directory (useful for tests or custom setups).
func SetBaseDir(path string) {
	if path == "" {
		return
	}
	baseMu.Lock()
	baseDir = filepath.Clean(path)
	baseMu.Unlock()
	ResetCache()
}

// ResetCache drops parsed templates.
func ResetCache() {
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
}

// Funcs returns the standard func map bound to r: translation, session
// helpers and formatting.
func Funcs(r *http.Request) template.FuncMap {
	lang, theme := i18n.Default, "system"
	var s *auth.Session
	if r != nil {
		lang, theme = middleware.LangFrom(r), middleware.ThemeFrom(r)
		s = auth.FromContext(r.Context())
	}
	return template.FuncMap{
		"t":          func(code string) string { return i18n.T(lang, code) },
		"lang":       func() string { return lang },
		"theme":      func() string { return theme },
		"can":        func(page string) bool { return gate.Can(s, page) },
		"isLoggedIn": func() bool { return s.IsLoggedIn() },
		"user":       func() *auth.User { return s.User() },
		"menu": func() []policy.MenuItem {
			path := ""
			if r != nil {
				path = r.URL.Path
			}
			return policy.Menu(s, path)
		},
		"emergency": func() content.Emergency {
			lib, err := content.Default()
			if err != nil {
				return content.Emergency{}
			}
			return lib.Emergency
		},
		"year":  func() int { return time.Now().Year() },
		"asset": func(path string) string { return resolveAsset(path) },
		"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
		"f2":    func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"f3":    func(v float64) string { return fmt.Sprintf("%.3f", v) },
		"date":  func(t time.Time) string { return t.Format("02/01/2006 15:04") },
		"riskClass": func(risk string) string {
			switch risk {
			case "Élevé", "Erreur":
				return "danger"
			case "Modéré":
				return "warning"
			case "Faible":
				return "success"
			}
			return "info"
		},
		"has": func(list []string, v string) bool {
			for _, x := range list {
				if x == v {
					return true
				}
			}
			return false
		},
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// StaticDir is the static asset directory next to the templates.
func StaticDir() string {
	return filepath.Join(filepath.Dir(detectBase()), "static")
}

// versionedAsset returns /static/<name>?v=<hash> for cache busting.
func versionedAsset(rel string) string {
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") || strings.HasPrefix(rel, "//") {
		return rel
	}
	b, err := os.ReadFile(filepath.Join(StaticDir(), rel))
	if err != nil {
		return "/static/" + rel
	}
	h := sha1.Sum(b)
	return "/static/" + rel + "?v=" + fmt.Sprintf("%x", h[:8])
}

// resolveAsset prefers a hashed filename from manifest.json then falls back to query param versioning.
func resolveAsset(rel string) string {
	if devMode {
		parseManifest()
	} else {
		assetManifestOnce.Do(parseManifest)
	}
	if m := assetManifest.Load(); m != nil {
		if h, ok := (*m)[rel]; ok {
			return "/static/" + h
		}
	}
	return versionedAsset(rel)
}

func parseManifest() {
	b, err := os.ReadFile(filepath.Join(StaticDir(), "manifest.json"))
	if err != nil {
		return
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return
	}
	assetManifest.Store(&m)
}

// parse builds the template set for name: the layout, every partial and
// the page itself. Pages that are full documents skip the layout.
func parse(name string) (*template.Template, error) {
	base := detectBase()
	mainPath := filepath.Join(base, name)
	src, err := os.ReadFile(mainPath)
	if err != nil {
		return nil, err
	}
	// placeholder funcs; the real ones are bound per request after Clone
	funcs := Funcs(nil)
	if bytes.Contains(bytes.ToLower(src), []byte("<!doctype")) {
		return template.New(filepath.Base(name)).Funcs(funcs).ParseFiles(mainPath)
	}
	files := []string{filepath.Join(base, "layout.html"), mainPath}
	partials, _ := filepath.Glob(filepath.Join(base, "partials", "*.html"))
	files = append(files, partials...)
	return template.New("layout.html").Funcs(funcs).ParseFiles(files...)
}

func lookup(name string) (*template.Template, error) {
	if !devMode {
		tplCache.RLock()
		t, ok := tplCache.m[name]
		tplCache.RUnlock()
		if ok {
			return t, nil
		}
	}
	t, err := parse(name)
	if err != nil {
		return nil, err
	}
	if !devMode {
		tplCache.Lock()
		tplCache.m[name] = t
		tplCache.Unlock()
	}
	return t, nil
}

// Render executes the page template name with status 200.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus renders into a buffer first so a template error can still
// produce a 500 instead of a half-written page.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	if _, exists := data["Flash"]; !exists {
		data["Flash"] = middleware.TakeFlash(w, r)
	}
	if _, exists := data["Path"]; !exists {
		data["Path"] = r.URL.Path
	}
	t, err := lookup(name)
	if err != nil {
		return err
	}
	bound, err := t.Clone()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := bound.Funcs(Funcs(r)).Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}
