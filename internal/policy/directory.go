package policy

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/diabetecam/diabetecam/auth"
	"github.com/diabetecam/diabetecam/gate"
	"github.com/diabetecam/diabetecam/internal/db"
	"github.com/diabetecam/diabetecam/internal/services"
)

// Directory resolves login credentials to a session user.
// Every failure cause is reported as services.ErrInvalidCredentials.
type Directory interface {
	Authenticate(ctx context.Context, username, password string, role gate.Role) (*auth.User, error)
}

// DBDirectory looks accounts up in the utilisateurs table.
type DBDirectory struct {
	Users *services.UserService
}

func NewDBDirectory(users *services.UserService) *DBDirectory {
	return &DBDirectory{Users: users}
}

func (d *DBDirectory) Authenticate(ctx context.Context, username, password string, role gate.Role) (*auth.User, error) {
	u, err := d.Users.Authenticate(ctx, username, password, role)
	if err != nil {
		return nil, err
	}
	return u.SessionUser(), nil
}

type staticAccount struct {
	user *auth.User
	hash string
}

// StaticDirectory serves the built-in demo accounts without a database.
type StaticDirectory struct {
	accounts map[string]staticAccount
	burn     string
}

// NewStaticDirectory hashes the demo passwords once at startup.
func NewStaticDirectory() (*StaticDirectory, error) {
	d := &StaticDirectory{accounts: map[string]staticAccount{}}
	for i, acc := range db.DemoAccounts() {
		hash, err := auth.HashPassword(acc.Password)
		if err != nil {
			return nil, fmt.Errorf("hash demo password: %w", err)
		}
		if i == 0 {
			d.burn = hash
		}
		d.accounts[acc.Username] = staticAccount{
			hash: hash,
			user: &auth.User{
				ID:          uint(i + 1),
				Username:    acc.Username,
				FullName:    acc.FullName,
				Role:        acc.Role,
				Permissions: acc.Permissions,
			},
		}
	}
	return d, nil
}

func (d *StaticDirectory) Authenticate(_ context.Context, username, password string, role gate.Role) (*auth.User, error) {
	acc, ok := d.accounts[username]
	if !ok {
		auth.CheckPassword(d.burn, password)
		return nil, services.ErrInvalidCredentials
	}
	roleOK := subtle.ConstantTimeCompare([]byte(acc.user.Role), []byte(role)) == 1
	if !auth.CheckPassword(acc.hash, password) || !roleOK {
		return nil, services.ErrInvalidCredentials
	}
	u := *acc.user
	return &u, nil
}

// LocalAdmin is the synthetic account used when authentication is disabled.
func LocalAdmin() *auth.User {
	return &auth.User{
		Username:    "local",
		FullName:    "Utilisateur local",
		Role:        gate.RoleAdmin,
		Permissions: gate.RoleAdmin.DefaultPermissions(),
	}
}
