package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"en-US,en;q=0.9", "en"},
		{"EN-gb", "en"},
		{"fr-CM,fr;q=0.8,en;q=0.5", "fr"},
		{"de-DE, en;q=0.7", "en"},
		{"es-ES", "fr"},
		{"", "fr"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, DetectLanguage(tc.header), tc.header)
	}
}

func TestT_RenderedMessages(t *testing.T) {
	assert.Equal(t, "❌ Identifiants incorrects", T("fr", "login.invalid"))
	assert.Equal(t, "❌ Invalid credentials", T("en", "login.invalid"))
	assert.Contains(t, T("fr", "access.denied"), "Accès refusé")
	assert.Contains(t, T("en", "access.denied"), "Access denied")
	assert.Contains(t, T("fr", "nav.empty"), "Aucune page disponible")
	assert.Contains(t, T("fr", "dataset.empty"), "Données non chargées")
	assert.Contains(t, T("fr", "measure.need_two"), "au moins 2 mesures")
}

func TestT_Fallbacks(t *testing.T) {
	assert.Equal(t, "Hors limites", T("es", "out_of_range"), "unknown language falls back to French")
	assert.Equal(t, "model.unknown", T("en", "model.unknown"), "unknown code is returned as is")
}

func TestCatalogueParity(t *testing.T) {
	for code := range messages[Default] {
		_, ok := messages["en"][code]
		assert.True(t, ok, "missing en entry for %q", code)
	}
	for code := range messages["en"] {
		_, ok := messages[Default][code]
		assert.True(t, ok, "en entry %q has no French reference", code)
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("fr"))
	assert.True(t, Supported("en"))
	assert.False(t, Supported("es"))
	assert.False(t, Supported(""))
}

func TestLangContext(t *testing.T) {
	assert.Equal(t, Default, LangFrom(context.Background()))
	assert.Equal(t, "en", LangFrom(WithLang(context.Background(), "en")))
	assert.Equal(t, Default, LangFrom(WithLang(context.Background(), "")))
}
