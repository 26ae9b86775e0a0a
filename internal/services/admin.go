package services

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/uni-magazine/apiserver/internal/apperr"
	"github.com/uni-magazine/apiserver/internal/store"
	"github.com/uni-magazine/apiserver/types"
)

var validRoles = map[string]bool{
	types.RoleGuest:                true,
	types.RoleStudent:              true,
	types.RoleMarketingCoordinator: true,
	types.RoleMarketingManager:     true,
	types.RoleAdmin:                true,
}

// facultyRoles must belong to a faculty; the cross-faculty roles must not.
var facultyRoles = map[string]bool{
	types.RoleGuest:                true,
	types.RoleStudent:              true,
	types.RoleMarketingCoordinator: true,
}

// AdminService encapsulates the admin's user-management use-cases.
type AdminService struct {
	users UserRepository
}

func NewAdminService(users UserRepository) *AdminService {
	return &AdminService{users: users}
}

// ListUsers returns every account with its faculty name.
func (s *AdminService) ListUsers(ctx context.Context) ([]types.User, error) {
	return s.users.List(ctx)
}

// CreateUserParams is the admin account-creation input. Any role is allowed.
type CreateUserParams struct {
	Email     string
	Password  string
	Name      string
	Role      string
	FacultyID string
}

// CreateUser creates an account with any role, enforcing the faculty rules
// for the role.
func (s *AdminService) CreateUser(ctx context.Context, params CreateUserParams) (types.User, error) {
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.Name = strings.TrimSpace(params.Name)

	if params.Email == "" || params.Password == "" || params.Name == "" {
		return types.User{}, apperr.Validation("email, password and name are required")
	}
	if err := validateRoleFaculty(params.Role, params.FacultyID); err != nil {
		return types.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.users.Create(ctx, types.User{
		Email:        params.Email,
		Name:         params.Name,
		Role:         params.Role,
		FacultyID:    params.FacultyID,
		Status:       types.UserStatusActive,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return types.User{}, apperr.Validation("email already registered")
		}
		if store.IsForeignKeyViolation(err) || store.IsInvalidID(err) {
			return types.User{}, apperr.Validation("unknown faculty")
		}
		return types.User{}, err
	}
	return user, nil
}

// UpdateUserParams is the admin account-update input. An empty Password
// leaves the stored one untouched.
type UpdateUserParams struct {
	Role      string
	FacultyID string
	Status    string
	Password  string
}

// UpdateUser changes an account's role, faculty, status or password.
func (s *AdminService) UpdateUser(ctx context.Context, id string, params UpdateUserParams) (types.User, error) {
	if err := validateRoleFaculty(params.Role, params.FacultyID); err != nil {
		return types.User{}, err
	}
	if params.Status != types.UserStatusActive && params.Status != types.UserStatusInactive {
		return types.User{}, apperr.Validation("status must be active or inactive")
	}

	hash := ""
	if params.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
		if err != nil {
			return types.User{}, err
		}
		hash = string(hashed)
	}

	if err := s.users.Update(ctx, id, params.Role, params.FacultyID, params.Status, hash); err != nil {
		if store.IsForeignKeyViolation(err) || store.IsInvalidID(err) {
			return types.User{}, apperr.Validation("unknown faculty")
		}
		return types.User{}, err
	}
	return s.users.GetByID(ctx, id)
}

// MostActiveUsers returns the top accounts by lifetime logins.
func (s *AdminService) MostActiveUsers(ctx context.Context, limit int) ([]types.User, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.users.MostActive(ctx, limit)
}

// BrowserUsage returns the per-browser account counts.
func (s *AdminService) BrowserUsage(ctx context.Context) ([]types.BrowserUsage, error) {
	return s.users.BrowserUsage(ctx)
}

func validateRoleFaculty(role, facultyID string) error {
	if !validRoles[role] {
		return apperr.Validation("unknown role")
	}
	if facultyRoles[role] && facultyID == "" {
		return apperr.Validation("faculty is required for this role")
	}
	if !facultyRoles[role] && facultyID != "" {
		return apperr.Validation("this role cannot belong to a faculty")
	}
	return nil
}
