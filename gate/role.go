package gate

import "strings"

// Role is the professional profile a user logs in with.
type Role string

const (
	RoleMedecin   Role = "medecin"
	RoleInfirmier Role = "infirmier"
	RoleAdmin     Role = "admin"
)

// Roles lists roles in login-form order.
var Roles = []Role{RoleMedecin, RoleInfirmier, RoleAdmin}

var roleLabels = map[Role]string{
	RoleMedecin:   "👨‍⚕️ Médecin",
	RoleInfirmier: "👩‍⚕️ Infirmier(ère)",
	RoleAdmin:     "🔐 Administrateur",
}

// ParseRole accepts one of the fixed role names.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleLabels[r]; !ok {
		return "", ErrUnknownRole
	}
	return r, nil
}

func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// DefaultPermissions returns the pages granted to new accounts of this role.
func (r Role) DefaultPermissions() PermissionSet {
	switch r {
	case RoleMedecin:
		return NewPermissionSet(
			PageAccueil, PageVisualisations, PageRegression, PageArbre,
			PageNouveauPatient, PageSuiviPatient, PageNutrition, PageCentresSante, PageFormation,
		)
	case RoleInfirmier:
		return NewPermissionSet(
			PageAccueil, PageNouveauPatient, PageSuiviPatient,
			PageNutrition, PageCentresSante, PageFormation,
		)
	case RoleAdmin:
		return NewPermissionSet(AllPages...)
	}
	return PermissionSet{}
}
