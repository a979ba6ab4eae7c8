package db

import (
	"errors"
	"fmt"

	"github.com/diabetecam/diabetecam/auth"
	"github.com/diabetecam/diabetecam/gate"
	"github.com/diabetecam/diabetecam/internal/models"
	"gorm.io/gorm"
)

// DemoAccount is one of the built-in demonstration logins.
type DemoAccount struct {
	Username    string
	Password    string
	Role        gate.Role
	FullName    string
	Permissions gate.PermissionSet
}

// DemoAccounts returns the three demonstration logins. The nurse account
// does not see the health centre directory.
func DemoAccounts() []DemoAccount {
	return []DemoAccount{
		{
			Username:    "dr.kamga",
			Password:    "medecin123",
			Role:        gate.RoleMedecin,
			FullName:    "Dr. Jean KAMGA",
			Permissions: gate.RoleMedecin.DefaultPermissions(),
		},
		{
			Username: "inf.ngono",
			Password: "infirmier123",
			Role:     gate.RoleInfirmier,
			FullName: "Marie NGONO",
			Permissions: gate.NewPermissionSet(
				gate.PageAccueil, gate.PageNouveauPatient, gate.PageSuiviPatient,
				gate.PageNutrition, gate.PageFormation,
			),
		},
		{
			Username:    "admin",
			Password:    "admin123",
			Role:        gate.RoleAdmin,
			FullName:    "Administrateur Système",
			Permissions: gate.RoleAdmin.DefaultPermissions(),
		},
	}
}

// Seed inserts the demo accounts that are missing. It is idempotent.
func Seed(db *gorm.DB) error {
	for _, acc := range DemoAccounts() {
		var existing models.User
		err := db.Where("username = ?", acc.Username).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup %s: %w", acc.Username, err)
		}
		hash, err := auth.HashPassword(acc.Password)
		if err != nil {
			return err
		}
		u := models.User{
			Username:     acc.Username,
			PasswordHash: hash,
			Role:         acc.Role,
			FullName:     acc.FullName,
			Permissions:  acc.Permissions,
		}
		if err := db.Create(&u).Error; err != nil {
			return fmt.Errorf("seed %s: %w", acc.Username, err)
		}
	}
	return nil
}
