package gate_test

import (
	"errors"
	"testing"

	"github.com/diabetecam/diabetecam/gate"
)

func TestCan_NotLoggedIn(t *testing.T) {
	// A user record is present but the session is not logged in.
	s := &gate.StaticSubject{LoggedIn: false, Perms: gate.NewPermissionSet(gate.AllPages...)}
	for _, p := range gate.AllPages {
		if gate.Can(s, p.Label()) || gate.Can(s, string(p)) {
			t.Errorf("expected %q to be refused when logged out", p)
		}
	}
	if gate.Can(nil, "Accueil") {
		t.Error("expected nil subject to be refused")
	}
}

func TestCan_LabelAndCanonical(t *testing.T) {
	s := gate.NewStaticSubject(gate.PageRegression)
	if !gate.Can(s, "🤖 ML Model 1 (Régression)") {
		t.Error("expected decorated label to map to ML Model 1")
	}
	if !gate.Can(s, "ML Model 1") {
		t.Error("expected canonical name to be accepted")
	}
	if gate.Can(s, "🌳 ML Model 2 (Arbre)") {
		t.Error("expected ML Model 2 to be refused")
	}
}

func TestCan_UnmappedPassThrough(t *testing.T) {
	s := gate.NewStaticSubject(gate.AllPages...)
	if gate.Can(s, "Rapports") {
		t.Error("unknown identifiers are tested as-is and are never members")
	}
	if got := gate.Canonical("Rapports"); got != "Rapports" {
		t.Errorf("Canonical() = %q, want pass-through", got)
	}
}

func TestAuthorize(t *testing.T) {
	s := gate.NewStaticSubject(gate.PageAccueil)
	if err := gate.Authorize(s, "🏠 Accueil"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := gate.Authorize(s, "Formation"); !errors.Is(err, gate.ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
	if err := gate.Authorize(&gate.StaticSubject{}, "Accueil"); !errors.Is(err, gate.ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestVisiblePages_SubsetAndOrder(t *testing.T) {
	for _, role := range gate.Roles {
		s := &gate.StaticSubject{LoggedIn: true, Perms: role.DefaultPermissions()}
		visible := gate.VisiblePages(s)

		// every visible page appears in AllPages at a strictly increasing index
		last := -1
		for _, p := range visible {
			idx := indexOf(gate.AllPages, p)
			if idx < 0 {
				t.Fatalf("%s: page %q not in master list", role, p)
			}
			if idx <= last {
				t.Fatalf("%s: order not preserved at %q", role, p)
			}
			last = idx
		}
		if len(visible) != len(role.DefaultPermissions()) {
			t.Errorf("%s: got %d pages, want %d", role, len(visible), len(role.DefaultPermissions()))
		}
	}
}

func TestVisiblePages_Infirmier(t *testing.T) {
	s := &gate.StaticSubject{LoggedIn: true, Perms: gate.RoleInfirmier.DefaultPermissions()}
	want := []gate.Page{
		gate.PageAccueil, gate.PageNouveauPatient, gate.PageSuiviPatient,
		gate.PageNutrition, gate.PageCentresSante, gate.PageFormation,
	}
	got := gate.VisiblePages(s)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("page %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMenu_Empty(t *testing.T) {
	_, err := gate.Menu(gate.NewStaticSubject())
	if !errors.Is(err, gate.ErrNoPages) {
		t.Errorf("expected ErrNoPages, got %v", err)
	}
	_, err = gate.Menu(nil)
	if !errors.Is(err, gate.ErrNoPages) {
		t.Errorf("expected ErrNoPages for nil subject, got %v", err)
	}
}

func TestParsePage(t *testing.T) {
	p, err := gate.ParsePage("⚙️ Configuration & Stats")
	if err != nil || p != gate.PageConfiguration {
		t.Errorf("ParsePage(label) = %q, %v", p, err)
	}
	if _, err := gate.ParsePage("Inconnue"); !errors.Is(err, gate.ErrUnknownPage) {
		t.Errorf("expected ErrUnknownPage, got %v", err)
	}
}

func indexOf(pp []gate.Page, p gate.Page) int {
	for i, q := range pp {
		if q == p {
			return i
		}
	}
	return -1
}
