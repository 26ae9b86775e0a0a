package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/uni-magazine/apiserver/internal/apperr"
	"github.com/uni-magazine/apiserver/internal/store"
	"github.com/uni-magazine/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, id, role, facultyID, status, passwordHash string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	RecordLogin(ctx context.Context, id, browser string, at time.Time) error
	List(ctx context.Context) ([]types.User, error)
	ListByFacultyAndRole(ctx context.Context, facultyID, role string) ([]types.User, error)
	FindCoordinatorByFaculty(ctx context.Context, facultyID string) (types.User, error)
	MostActive(ctx context.Context, limit int) ([]types.User, error)
	BrowserUsage(ctx context.Context) ([]types.BrowserUsage, error)
	CountByFaculty(ctx context.Context, facultyID string) (int, error)
}

// UserService encapsulates authentication and account use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// RegisterParams is the self-service signup input. Only guest and student
// accounts can be created this way.
type RegisterParams struct {
	Email     string
	Password  string
	Name      string
	Role      string
	FacultyID string
}

// Register creates a guest or student account.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (types.User, error) {
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.Name = strings.TrimSpace(params.Name)

	if params.Email == "" || params.Password == "" || params.Name == "" {
		return types.User{}, apperr.Validation("email, password and name are required")
	}
	if params.Role != types.RoleGuest && params.Role != types.RoleStudent {
		return types.User{}, apperr.Validation("role must be guest or student")
	}
	if params.FacultyID == "" {
		return types.User{}, apperr.Validation("faculty is required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.repo.Create(ctx, types.User{
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

// Login verifies credentials, rejects inactive accounts and records the
// login audit trail.
func (s *UserService) Login(ctx context.Context, email, password, browser string) (types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return types.User{}, apperr.Validation("email and password are required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.Unauthorized("invalid credentials")
		}
		return types.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, apperr.Unauthorized("invalid credentials")
	}
	if user.Status != types.UserStatusActive {
		return types.User{}, apperr.Unauthorized("account is inactive")
	}

	now := time.Now()
	if err := s.repo.RecordLogin(ctx, user.ID, browser, now); err != nil {
		return types.User{}, err
	}
	user.LastLogin = &now
	user.TotalLogins++
	if browser != "" {
		user.Browser = browser
	}
	return user, nil
}

// GetByID loads one account.
func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if next == "" {
		return apperr.Validation("new password is required")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperr.Unauthorized("invalid credentials")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userID, string(hashed))
}
