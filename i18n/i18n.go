// Package i18n holds the fr/en message catalogue used by templates and
// validation messages. French is the reference language.
package i18n

import (
	"context"
	"strings"
)

type ctxKey struct{}

const Default = "fr"

var messages = map[string]map[string]string{
	"fr": {
		"app.name":             "DiabèteCam",
		"app.tagline":          "Votre partenaire santé au Cameroun",
		"nav.title":            "📍 Navigation",
		"nav.empty":            "Aucune page disponible. Veuillez vous connecter.",
		"nav.logout":           "🚪 Se Déconnecter",
		"login.title":          "Connexion Sécurisée",
		"login.role":           "👤 Profil",
		"login.username":       "📧 Nom d'utilisateur",
		"login.password":       "🔒 Mot de passe",
		"login.submit":         "🚀 Se Connecter",
		"login.invalid":        "❌ Identifiants incorrects",
		"login.missing":        "⚠️ Veuillez remplir tous les champs",
		"login.welcome":        "✅ Bienvenue",
		"access.denied":        "🔒 Accès refusé : Vous n'avez pas les permissions pour cette page.",
		"dataset.empty":        "Données non chargées. Veuillez vérifier le fichier diabetes.csv.",
		"db.unavailable":       "❌ Base de données indisponible. Réessayez plus tard.",
		"model.busy":           "⏳ Un entraînement est déjà en cours pour cette session.",
		"model.no_features":    "⚠️ Veuillez sélectionner au moins un critère !",
		"model.trained":        "✅ Modèle entraîné avec succès !",
		"model.single_class":   "⚠️ Les données d'entraînement ne contiennent qu'une seule classe.",
		"model.failed":         "❌ L'entraînement du modèle a échoué.",
		"model.missing":        "⚠️ Veuillez d'abord entraîner le modèle.",
		"model.predict_failed": "❌ Erreur de prédiction.",
		"patient.saved":        "✅ Patient enregistré avec succès !",
		"patient.not_found":    "❌ Patient introuvable.",
		"patient.none":         "Aucun patient n'est actuellement enregistré dans la base de données.",
		"measure.saved":        "✅ Mesure enregistrée avec succès !",
		"measure.none":         "ℹ️ Aucune mesure enregistrée pour ce patient",
		"measure.need_two":     "📊 Besoin d'au moins 2 mesures pour afficher l'évolution",
		"user.created":         "✅ Utilisateur créé et enregistré en base de données.",
		"user.taken":           "❌ Ce nom d'utilisateur existe déjà.",
		"form.invalid":         "⚠️ Veuillez corriger les champs en erreur.",
		"required":             "Requis",
		"out_of_range":         "Hors limites",
		"invalid_choice":       "Choix invalide",
		"invalid_date":         "Date invalide",
		"too_short":            "Trop court",
		"invalid":              "Valeur invalide",
		"emergency.title":      "🚨 URGENCES",
		"emergency.call":       "☎️ APPELEZ :",
	},
	"en": {
		"app.name":             "DiabèteCam",
		"app.tagline":          "Your health partner in Cameroon",
		"nav.title":            "📍 Navigation",
		"nav.empty":            "No page available. Please log in.",
		"nav.logout":           "🚪 Log out",
		"login.title":          "Secure sign-in",
		"login.role":           "👤 Profile",
		"login.username":       "📧 Username",
		"login.password":       "🔒 Password",
		"login.submit":         "🚀 Sign in",
		"login.invalid":        "❌ Invalid credentials",
		"login.missing":        "⚠️ Please fill in every field",
		"login.welcome":        "✅ Welcome",
		"access.denied":        "🔒 Access denied: you do not have permission for this page.",
		"dataset.empty":        "Data not loaded. Please check the diabetes.csv file.",
		"db.unavailable":       "❌ Database unavailable. Please retry later.",
		"model.busy":           "⏳ A training run is already in progress for this session.",
		"model.no_features":    "⚠️ Please select at least one feature!",
		"model.trained":        "✅ Model trained successfully!",
		"model.single_class":   "⚠️ The training data holds a single class.",
		"model.failed":         "❌ Model training failed.",
		"model.missing":        "⚠️ Please train the model first.",
		"model.predict_failed": "❌ Prediction failed.",
		"patient.saved":        "✅ Patient saved successfully!",
		"patient.not_found":    "❌ Patient not found.",
		"patient.none":         "No patient is registered yet.",
		"measure.saved":        "✅ Measurement saved!",
		"measure.none":         "ℹ️ No measurement recorded for this patient",
		"measure.need_two":     "📊 At least 2 measurements are needed to show a trend",
		"user.created":         "✅ User created.",
		"user.taken":           "❌ This username already exists.",
		"form.invalid":         "⚠️ Please fix the highlighted fields.",
		"required":             "Required",
		"out_of_range":         "Out of range",
		"invalid_choice":       "Invalid choice",
		"invalid_date":         "Invalid date",
		"too_short":            "Too short",
		"invalid":              "Invalid value",
		"emergency.title":      "🚨 EMERGENCIES",
		"emergency.call":       "☎️ CALL:",
	},
}

// T translates code into lang, falling back to French then to the code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[Default][code]; ok {
		return s
	}
	return code
}

// DetectLanguage picks "en" or "fr" from an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		if strings.HasPrefix(tag, "en") {
			return "en"
		}
		if strings.HasPrefix(tag, "fr") {
			return "fr"
		}
	}
	return Default
}

// Supported reports whether lang has a catalogue.
func Supported(lang string) bool {
	_, ok := messages[lang]
	return ok
}

// WithLang stores the request language in context.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFrom returns the request language, defaulting to French.
func LangFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return Default
}
