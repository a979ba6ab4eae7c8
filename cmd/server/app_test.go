package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/diabetecam/diabetecam/auth"
	"github.com/diabetecam/diabetecam/internal/config"
	"github.com/diabetecam/diabetecam/internal/dataset"
	"github.com/diabetecam/diabetecam/internal/db"
	"github.com/diabetecam/diabetecam/internal/metrics"
	"github.com/diabetecam/diabetecam/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	auth.HashCost = bcrypt.MinCost
}

func testConfig(authMode string) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Backend: config.BackendSQLite},
		Session:  config.SessionConfig{Secret: "test-secret", TTL: time.Hour},
		App:      config.AppConfig{AuthMode: authMode, DatasetPath: "synthetic.csv"},
	}
}

// syntheticDataset is separable on glucose and BMI.
func syntheticDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	var b strings.Builder
	b.WriteString(strings.Join(dataset.Columns, ",") + "\n")
	for i := 0; i < 200; i++ {
		glucose := 80 + (i*37)%150
		bmi := 20 + (i*13)%25
		outcome := 0
		if glucose+2*bmi > 230 {
			outcome = 1
		}
		fmt.Fprintf(&b, "%d,%d,%d,20,80,%d,0.5,%d,%d\n", i%6, glucose, 60+i%30, bmi, 21+i%50, outcome)
	}
	d, err := dataset.Parse(strings.NewReader(b.String()))
	require.NoError(t, err)
	return d
}

func newTestServer(t *testing.T, authMode string) (*httptest.Server, *gorm.DB) {
	t.Helper()
	conn, err := db.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	require.NoError(t, db.Seed(conn))

	app, err := NewApp(Deps{
		Config:  testConfig(authMode),
		DB:      conn,
		Data:    syntheticDataset(t),
		Metrics: metrics.New(),
		Log:     zap.NewNop(),
	})
	require.NoError(t, err)
	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)
	return srv, conn
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func noRedirect(c *http.Client) *http.Client {
	cp := *c
	cp.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return &cp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func login(t *testing.T, c *http.Client, base, username, password, role string) *http.Response {
	t.Helper()
	resp, err := c.PostForm(base+"/login", url.Values{
		"username": {username},
		"password": {password},
		"role":     {role},
	})
	require.NoError(t, err)
	return resp
}

func TestAnonymousAccess(t *testing.T) {
	srv, _ := newTestServer(t, config.AuthDatabase)
	c := noRedirect(newClient(t))

	resp, err := c.Get(srv.URL + "/accueil")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/patients/1/mesures", nil)
	req.Header.Set("Accept", "application/json")
	resp, err = c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = c.Get(srv.URL + "/login")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Connexion Sécurisée")
}

func TestNurseMenuAndDeniedPage(t *testing.T) {
	srv, _ := newTestServer(t, config.AuthDatabase)
	c := newClient(t)

	resp := login(t, c, srv.URL, "inf.ngono", "infirmier123", "infirmier")
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/accueil", resp.Request.URL.Path, "landing is the first visible page")
	assert.Contains(t, body, "Bienvenue")

	for _, path := range []string{"/accueil", "/patients/nouveau", "/patients/suivi", "/nutrition", "/formation"} {
		assert.Contains(t, body, `href="`+path+`"`)
	}
	for _, path := range []string{"/visualisations", "/modeles/regression", "/centres", "/admin/utilisateurs"} {
		assert.NotContains(t, body, `href="`+path+`"`)
	}

	resp, err := c.Get(srv.URL + "/centres")
	require.NoError(t, err)
	body = readBody(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, "Accès refusé")

	resp, err = c.Get(srv.URL + "/nutrition")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWrongCredentials(t *testing.T) {
	srv, _ := newTestServer(t, config.AuthDatabase)
	c := newClient(t)

	resp := login(t, c, srv.URL, "dr.kamga", "medecin123", "infirmier")
	body := readBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Identifiants incorrects")

	resp, err := noRedirect(c).Get(srv.URL + "/accueil")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode, "still anonymous")
}

func TestMeasurementFlow(t *testing.T) {
	srv, conn := newTestServer(t, config.AuthDatabase)
	c := newClient(t)
	resp := login(t, c, srv.URL, "dr.kamga", "medecin123", "medecin")
	readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := c.PostForm(srv.URL+"/patients/nouveau", url.Values{
		"nom":            {"ESSOMBA"},
		"prenom":         {"Claire"},
		"date_naissance": {"1972-06-30"},
		"sexe":           {"Femme"},
		"telephone":      {"699 11 22 33"},
		"ville":          {"Yaoundé"},
		"quartier":       {"Bastos"},
	})
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var p models.Patient
	require.NoError(t, conn.Where("nom = ?", "ESSOMBA").First(&p).Error)

	reading := url.Values{
		"patient_id":        {fmt.Sprint(p.ID)},
		"pregnancies":       {"2"},
		"glucose":           {"210"},
		"blood_pressure":    {"85"},
		"skin_thickness":    {"25"},
		"insulin":           {"90"},
		"bmi":               {"41"},
		"diabetes_pedigree": {"0.6"},
		"age":               {"52"},
	}

	// no model trained in this session yet
	resp, err = c.PostForm(srv.URL+"/patients/suivi", reading)
	require.NoError(t, err)
	body := readBody(t, resp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, body, "<strong>Non analysé</strong>")
	assert.Contains(t, body, "À évaluer")

	resp, err = c.PostForm(srv.URL+"/modeles/regression/train", url.Values{
		"features":  {"Glucose", "BMI"},
		"test_size": {"20"},
	})
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = c.PostForm(srv.URL+"/patients/suivi", reading)
	require.NoError(t, err)
	body = readBody(t, resp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, body, "<strong>Diabétique</strong>")

	var rows []models.Measurement
	require.NoError(t, conn.Where("patient_id = ?", p.ID).Order("id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, models.PredictionNone, rows[0].Prediction)
	assert.Equal(t, models.RiskPending, rows[0].RisqueNiveau)
	assert.Equal(t, models.PredictionDiabetic, rows[1].Prediction)

	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/v1/patients/%d/mesures", srv.URL, p.ID), nil)
	req.Header.Set("Accept", "application/json")
	resp, err = c.Do(req)
	require.NoError(t, err)
	var payload struct {
		Data []models.Measurement `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, payload.Data, 2)
}

func TestAuthModeNone(t *testing.T) {
	srv, _ := newTestServer(t, config.AuthNone)
	c := newClient(t)

	resp, err := c.Get(srv.URL + "/")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/accueil", resp.Request.URL.Path)
	assert.Contains(t, body, `href="/admin/configuration"`)

	resp, err = c.Get(srv.URL + "/login")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, "/accueil", resp.Request.URL.Path, "no login page without authentication")
}

func TestAuthModeStatic(t *testing.T) {
	srv, _ := newTestServer(t, config.AuthStatic)
	c := newClient(t)

	resp := login(t, c, srv.URL, "admin", "admin123", "admin")
	readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/accueil", resp.Request.URL.Path)
}

func TestOperationsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, config.AuthDatabase)
	c := newClient(t)

	for _, path := range []string{"/health", "/healthz"} {
		resp, err := c.Get(srv.URL + path)
		require.NoError(t, err)
		body := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, body, `"status":"ok"`, path)
	}

	resp := login(t, c, srv.URL, "inf.ngono", "wrong", "infirmier")
	readBody(t, resp)

	resp, err := c.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `diabetecam_logins_total{outcome="invalid"} 1`)

	resp, err = c.Get(srv.URL + "/static/css/app.css")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
