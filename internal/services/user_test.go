package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/uni-magazine/apiserver/internal/apperr"
	"github.com/uni-magazine/apiserver/types"
)

type loginUserRepo struct {
	fakeUserRepo
	user       types.User
	loginAt    time.Time
	loginAgent string
}

func (f *loginUserRepo) GetByEmail(context.Context, string) (types.User, error) {
	return f.user, nil
}

func (f *loginUserRepo) RecordLogin(_ context.Context, _ string, browser string, at time.Time) error {
	f.loginAt = at
	f.loginAgent = browser
	return nil
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}

func TestLoginRecordsAudit(t *testing.T) {
	repo := &loginUserRepo{user: types.User{
		ID:           "user-1",
		Email:        "ana@example.edu",
		Status:       types.UserStatusActive,
		PasswordHash: hashOf(t, "secret"),
		TotalLogins:  3,
	}}
	service := NewUserService(repo)

	user, err := service.Login(context.Background(), "Ana@Example.edu", "secret", "firefox")
	require.NoError(t, err)
	assert.Equal(t, 4, user.TotalLogins)
	assert.Equal(t, "firefox", user.Browser)
	assert.Equal(t, "firefox", repo.loginAgent)
	assert.False(t, repo.loginAt.IsZero())
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repo := &loginUserRepo{user: types.User{
		Status:       types.UserStatusActive,
		PasswordHash: hashOf(t, "secret"),
	}}
	service := NewUserService(repo)

	_, err := service.Login(context.Background(), "ana@example.edu", "wrong", "")
	assert.True(t, apperr.IsUnauthorized(err))
	assert.True(t, repo.loginAt.IsZero())
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	repo := &loginUserRepo{user: types.User{
		Status:       types.UserStatusInactive,
		PasswordHash: hashOf(t, "secret"),
	}}
	service := NewUserService(repo)

	_, err := service.Login(context.Background(), "ana@example.edu", "secret", "")
	assert.True(t, apperr.IsUnauthorized(err))
	assert.True(t, repo.loginAt.IsZero())
}

func TestRegisterRestrictsRoles(t *testing.T) {
	service := NewUserService(&fakeUserRepo{})

	for _, role := range []string{types.RoleAdmin, types.RoleMarketingManager, types.RoleMarketingCoordinator} {
		_, err := service.Register(context.Background(), RegisterParams{
			Email: "x@example.edu", Password: "pw", Name: "X", Role: role, FacultyID: "fac-1",
		})
		assert.True(t, apperr.IsValidation(err), "role %s must not self-register", role)
	}

	user, err := service.Register(context.Background(), RegisterParams{
		Email: "X@Example.edu", Password: "pw", Name: "X", Role: types.RoleStudent, FacultyID: "fac-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "x@example.edu", user.Email)
	assert.Equal(t, types.UserStatusActive, user.Status)
	assert.NotEqual(t, "pw", user.PasswordHash)
}

func TestUploadURLValidatesExtensions(t *testing.T) {
	service := NewUploadService(&fakeObjects{})

	_, err := service.NewUploadURL(context.Background(), "user-1", types.AssetArticle, "essay.png")
	assert.True(t, apperr.IsValidation(err))

	_, err = service.NewUploadURL(context.Background(), "user-1", "video", "clip.mp4")
	assert.True(t, apperr.IsValidation(err))

	ticket, err := service.NewUploadURL(context.Background(), "user-1", types.AssetArticle, "Essay.DOCX")
	require.NoError(t, err)
	assert.Contains(t, ticket.Key, "uploads/user-1/")
	assert.Contains(t, ticket.Key, ".docx")
	assert.Contains(t, ticket.URL, "https://signed.example/put/")
}
