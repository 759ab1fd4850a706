package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"intake-system/internal/dto"
	"intake-system/pkg/constants"
	apperrors "intake-system/pkg/errors"
	"intake-system/pkg/service"
)

func newAuthFixture() (*fakeUserRepo, AuthServiceInterface) {
	userRepo := newFakeUserRepo()
	jwtSvc := service.NewJWTService("test-secret", time.Hour, 24*time.Hour)
	return userRepo, NewAuthService(userRepo, jwtSvc, zap.NewNop())
}

func TestRegisterCreatesCustomer(t *testing.T) {
	userRepo, svc := newAuthFixture()

	tokens, err := svc.Register(context.Background(), dto.RegisterDTO{
		Email:     "somchai@example.com",
		Password:  "secret-password",
		FirstName: "Somchai",
		LastName:  "Jaidee",
		Phone:     "+66812345678",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	user, err := userRepo.FindByEmail(context.Background(), "somchai@example.com")
	require.NoError(t, err)
	assert.Equal(t, constants.RoleCustomer, user.Role)
	assert.NotEqual(t, "secret-password", user.PasswordHash)
}

func TestLoginWrongPassword(t *testing.T) {
	_, svc := newAuthFixture()

	_, err := svc.Register(context.Background(), dto.RegisterDTO{
		Email:     "somchai@example.com",
		Password:  "secret-password",
		FirstName: "Somchai",
		LastName:  "Jaidee",
		Phone:     "+66812345678",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), dto.LoginDTO{
		Email:    "somchai@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	_, svc := newAuthFixture()

	_, err := svc.Login(context.Background(), dto.LoginDTO{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	_, svc := newAuthFixture()

	tokens, err := svc.Register(context.Background(), dto.RegisterDTO{
		Email:     "somchai@example.com",
		Password:  "secret-password",
		FirstName: "Somchai",
		LastName:  "Jaidee",
		Phone:     "+66812345678",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), dto.RefreshDTO{RefreshToken: tokens.AccessToken})
	assert.ErrorIs(t, err, apperrors.ErrTokenIsNotRefresh)
}

func TestRefreshIssuesNewPair(t *testing.T) {
	_, svc := newAuthFixture()

	tokens, err := svc.Register(context.Background(), dto.RegisterDTO{
		Email:     "somchai@example.com",
		Password:  "secret-password",
		FirstName: "Somchai",
		LastName:  "Jaidee",
		Phone:     "+66812345678",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), dto.RefreshDTO{RefreshToken: tokens.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEmpty(t, refreshed.RefreshToken)
}
