package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/authcore/services/credentials"
	"github.com/tech-arch1tect/authcore/services/jwt"
	"github.com/tech-arch1tect/authcore/services/lockout"
	"github.com/tech-arch1tect/authcore/services/refreshtoken"
	"github.com/tech-arch1tect/authcore/testutils"
	"gorm.io/gorm"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "Password123"
)

func newTestAuth(t *testing.T) (*Service, *credentials.Service, *gorm.DB) {
	t.Helper()

	cfg := testutils.GetTestConfig()
	db := testutils.SetupTestDB(t, &credentials.User{}, &refreshtoken.RefreshToken{})

	credentialsSvc := credentials.NewService(db, cfg, nil)
	lockoutSvc := lockout.NewService(lockout.NewGormStore(db), cfg, nil)
	tokenSvc := refreshtoken.NewService(refreshtoken.NewGormStore(db), cfg, nil)
	jwtSvc := jwt.NewService(cfg, nil)

	service := NewService(credentialsSvc, lockoutSvc, tokenSvc, jwtSvc, nil)

	_, err := credentialsSvc.CreateUser(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	return service, credentialsSvc, db
}

func userByEmail(t *testing.T, db *gorm.DB, email string) *credentials.User {
	t.Helper()
	var user credentials.User
	require.NoError(t, db.Where("email = ?", email).First(&user).Error)
	return &user
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("success issues access and refresh tokens", func(t *testing.T) {
		service, _, db := newTestAuth(t)

		result, err := service.Authenticate(ctx, testEmail, testPassword, refreshtoken.TokenSessionInfo{
			IPAddress: "10.0.0.1",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, result.UserID, result.AccessClaims.UserID)
		assert.True(t, result.RefreshExpiresAt.After(time.Now()))

		user := userByEmail(t, db, testEmail)
		assert.Zero(t, user.FailedLoginAttempts)
		assert.Nil(t, user.LockoutUntil)
	})

	t.Run("wrong password counts a failure", func(t *testing.T) {
		service, _, db := newTestAuth(t)

		_, err := service.Authenticate(ctx, testEmail, "WrongPassword1", refreshtoken.TokenSessionInfo{})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		user := userByEmail(t, db, testEmail)
		assert.Equal(t, 1, user.FailedLoginAttempts)
	})

	t.Run("unknown identifier reports invalid credentials", func(t *testing.T) {
		service, _, _ := newTestAuth(t)

		_, err := service.Authenticate(ctx, "nobody@example.com", testPassword, refreshtoken.TokenSessionInfo{})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive account is rejected after verification", func(t *testing.T) {
		service, credentialsSvc, db := newTestAuth(t)
		user := userByEmail(t, db, testEmail)
		require.NoError(t, credentialsSvc.SetActive(ctx, user.ID, false))

		_, err := service.Authenticate(ctx, testEmail, testPassword, refreshtoken.TokenSessionInfo{})

		assert.ErrorIs(t, err, ErrAccountInactive)
	})
}

func TestService_Authenticate_Lockout(t *testing.T) {
	ctx := context.Background()
	service, _, db := newTestAuth(t)

	for i := 0; i < 5; i++ {
		_, err := service.Authenticate(ctx, testEmail, "WrongPassword1", refreshtoken.TokenSessionInfo{})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	t.Run("locked account rejects even the correct password", func(t *testing.T) {
		_, err := service.Authenticate(ctx, testEmail, testPassword, refreshtoken.TokenSessionInfo{})
		assert.ErrorIs(t, err, ErrAccountLocked)
	})

	t.Run("lock holds without further counter growth", func(t *testing.T) {
		_, err := service.Authenticate(ctx, testEmail, "WrongPassword1", refreshtoken.TokenSessionInfo{})
		assert.ErrorIs(t, err, ErrAccountLocked)

		user := userByEmail(t, db, testEmail)
		assert.Equal(t, 5, user.FailedLoginAttempts)
	})

	t.Run("login after the window clears the state", func(t *testing.T) {
		past := time.Now().UTC().Add(-time.Minute)
		require.NoError(t, db.Model(&credentials.User{}).
			Where("email = ?", testEmail).
			UpdateColumn("lockout_until", past).Error)

		result, err := service.Authenticate(ctx, testEmail, testPassword, refreshtoken.TokenSessionInfo{})

		require.NoError(t, err)
		assert.NotEmpty(t, result.RefreshToken)

		user := userByEmail(t, db, testEmail)
		assert.Zero(t, user.FailedLoginAttempts)
		assert.Nil(t, user.LockoutUntil)
	})
}

func TestService_Refresh(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestAuth(t)

	login, err := service.Authenticate(ctx, testEmail, testPassword, refreshtoken.TokenSessionInfo{})
	require.NoError(t, err)

	refreshed, err := service.Refresh(ctx, login.RefreshToken, refreshtoken.TokenSessionInfo{})

	require.NoError(t, err)
	assert.Equal(t, login.UserID, refreshed.UserID)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.NotEmpty(t, refreshed.AccessToken)

	t.Run("replaying the consumed token burns the session", func(t *testing.T) {
		_, err := service.Refresh(ctx, login.RefreshToken, refreshtoken.TokenSessionInfo{})
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = service.Refresh(ctx, refreshed.RefreshToken, refreshtoken.TokenSessionInfo{})
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestAuth(t)

	login, err := service.Authenticate(ctx, testEmail, testPassword, refreshtoken.TokenSessionInfo{})
	require.NoError(t, err)

	revoked, err := service.Logout(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = service.Logout(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.False(t, revoked)

	_, err = service.Refresh(ctx, login.RefreshToken, refreshtoken.TokenSessionInfo{})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_LogoutAllSessions(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestAuth(t)

	first, err := service.Authenticate(ctx, testEmail, testPassword, refreshtoken.TokenSessionInfo{})
	require.NoError(t, err)
	second, err := service.Authenticate(ctx, testEmail, testPassword, refreshtoken.TokenSessionInfo{})
	require.NoError(t, err)

	count, err := service.LogoutAllSessions(ctx, first.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = service.Refresh(ctx, first.RefreshToken, refreshtoken.TokenSessionInfo{})
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = service.Refresh(ctx, second.RefreshToken, refreshtoken.TokenSessionInfo{})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
