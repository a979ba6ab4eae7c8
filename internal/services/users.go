package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/diabetecam/diabetecam/auth"
	"github.com/diabetecam/diabetecam/gate"
	"github.com/diabetecam/diabetecam/internal/models"
	"github.com/diabetecam/diabetecam/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewUser is the admin "create user" form.
type NewUser struct {
	Username    string   `form:"username" validate:"required,max=100"`
	FullName    string   `form:"full_name" validate:"required,max=255"`
	Password    string   `form:"password" validate:"required,min=6"`
	Role        string   `form:"role" validate:"required,oneof=medecin infirmier admin"`
	Permissions []string `form:"permissions"`
}

type UserService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUserService(db *gorm.DB, log *zap.Logger) *UserService {
	return &UserService{db: db, log: log}
}

var (
	dummyHash     string
	dummyHashOnce sync.Once
)

// burnCompare spends one bcrypt comparison so unknown usernames take as long
// as wrong passwords.
func burnCompare(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = auth.HashPassword("diabetecam-timing-equaliser")
	})
	auth.CheckPassword(dummyHash, password)
}

// Authenticate checks username, password and role together. Every failure
// cause yields ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string, role gate.Role) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || !role.Valid() {
		burnCompare(password)
		return nil, ErrInvalidCredentials
	}
	var u models.User
	err := s.db.WithContext(ctx).
		Where("username = ? AND role = ?", username, role).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		burnCompare(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// Create stores a new account. Without selected permissions the role defaults apply.
// Invalid input is returned as validation.Violations.
func (s *UserService) Create(ctx context.Context, in NewUser) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	v := validation.Struct(in)

	perms := gate.PermissionSet{}
	for _, name := range in.Permissions {
		p, err := gate.ParsePage(name)
		if err != nil {
			v.Add("permissions", "invalid_choice")
			break
		}
		perms[p] = struct{}{}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	role := gate.Role(in.Role)
	if len(perms) == 0 {
		perms = role.DefaultPermissions()
	}

	var existing int64
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Where("username = ?", in.Username).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrUsernameTaken
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username:     in.Username,
		PasswordHash: hash,
		Role:         role,
		FullName:     in.FullName,
		Permissions:  perms,
	}
	if err := db.Create(u).Error; err != nil {
		// lost a race against the unique index
		if db.Model(&models.User{}).Where("username = ?", in.Username).Count(&existing).Error == nil && existing > 0 {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user created", zap.String("username", u.Username), zap.String("role", string(u.Role)))
	return u, nil
}

// List returns every account ordered by role then username.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("role, username").Find(&users).Error
	return users, err
}

func (s *UserService) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}
