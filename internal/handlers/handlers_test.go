package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/diabetecam/diabetecam/auth"
	"github.com/diabetecam/diabetecam/gate"
	"github.com/diabetecam/diabetecam/internal/dataset"
	"github.com/diabetecam/diabetecam/internal/db"
	"github.com/diabetecam/diabetecam/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	auth.HashCost = bcrypt.MinCost
}

type testEnv struct {
	db           *gorm.DB
	users        *services.UserService
	patients     *services.PatientService
	measurements *services.MeasurementService
	sessions     *auth.Manager
	log          *zap.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := db.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	log := zap.NewNop()
	return &testEnv{
		db:           conn,
		users:        services.NewUserService(conn, log),
		patients:     services.NewPatientService(conn, log),
		measurements: services.NewMeasurementService(conn, log),
		sessions:     auth.NewManager(auth.Options{Secret: []byte("test")}),
		log:          log,
	}
}

func medecin() *auth.User {
	return &auth.User{
		ID:          1,
		Username:    "dr.kamga",
		FullName:    "Dr. Jean KAMGA",
		Role:        gate.RoleMedecin,
		Permissions: gate.RoleMedecin.DefaultPermissions(),
	}
}

func admin() *auth.User {
	return &auth.User{
		ID:          3,
		Username:    "admin",
		FullName:    "Administrateur Système",
		Role:        gate.RoleAdmin,
		Permissions: gate.RoleAdmin.DefaultPermissions(),
	}
}

// login returns a logged-in session for u; a nil u gives an anonymous one.
func (e *testEnv) login(t *testing.T, u *auth.User) *auth.Session {
	t.Helper()
	anon := e.sessions.Store().Anonymous()
	if u == nil {
		return anon
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithSession(req.Context(), anon))
	s, err := e.sessions.Login(httptest.NewRecorder(), req, u)
	require.NoError(t, err)
	return s
}

func (e *testEnv) createPatient(t *testing.T, nom string) uint {
	t.Helper()
	p, err := e.patients.Create(t.Context(), services.NewPatient{
		Nom:           nom,
		Prenom:        "Marie",
		DateNaissance: "1975-03-14",
		Sexe:          "Femme",
		Telephone:     "699 00 00 00",
		Ville:         "Douala",
	})
	require.NoError(t, err)
	return p.ID
}

// do serves one request; form values are sent url-encoded when non-nil.
func do(h http.Handler, method, target string, form url.Values, s *auth.Session) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if s != nil {
		req = req.WithContext(auth.WithSession(req.Context(), s))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// route mounts fn on a chi router so URL parameters resolve.
func route(method, pattern string, fn http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, fn)
	return r
}

func measurementForm(patientID uint, glucose, bmi string) url.Values {
	return url.Values{
		"patient_id":        {fmt.Sprint(patientID)},
		"pregnancies":       {"1"},
		"glucose":           {glucose},
		"blood_pressure":    {"80"},
		"skin_thickness":    {"20"},
		"insulin":           {"80"},
		"bmi":               {bmi},
		"diabetes_pedigree": {"0,5"},
		"age":               {"45"},
	}
}

// syntheticDataset is separable on glucose and BMI, with a few flipped labels.
func syntheticDataset(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	var b strings.Builder
	b.WriteString(strings.Join(dataset.Columns, ",") + "\n")
	for i := 0; i < n; i++ {
		glucose := 80 + (i*37)%150
		bmi := 20 + (i*13)%25
		outcome := 0
		if glucose+2*bmi > 230 {
			outcome = 1
		}
		if i%17 == 0 {
			outcome = 1 - outcome
		}
		fmt.Fprintf(&b, "%d,%d,%d,20,80,%d,0.5,%d,%d\n", i%6, glucose, 60+i%30, bmi, 21+i%50, outcome)
	}
	d, err := dataset.Parse(strings.NewReader(b.String()))
	require.NoError(t, err)
	return d
}

func sampleDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	d, err := dataset.Load("../dataset/testdata/sample.csv")
	require.NoError(t, err)
	return d
}
