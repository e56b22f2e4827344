package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/treegpt/treegpt/internal/middleware"
	"github.com/treegpt/treegpt/internal/model"
	"github.com/treegpt/treegpt/internal/store"
	"github.com/treegpt/treegpt/pkg/logger"
)

const testJWTSecret = "test-secret"

func newAuthService() *AuthService {
	return NewAuthService(store.NewMemory().Users(), testJWTSecret, time.Hour, bcrypt.MinCost, logger.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, &model.RegisterRequest{
		Username: "ada",
		Email:    "ada@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.NotEqual(t, "correct horse", user.PasswordHash)

	token, err := svc.Login(ctx, &model.LoginRequest{
		Email:    "ada@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	claims := &middleware.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	require.Equal(t, user.ID, claims.Subject)
	require.Equal(t, "ada@example.com", claims.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{
		Username: "ada",
		Email:    "ada@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &model.RegisterRequest{
		Username: "other",
		Email:    "Ada@Example.com",
		Password: "password456",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{
		Username: "ada",
		Email:    "ada@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestProfile(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, &model.RegisterRequest{
		Username: "ada",
		Email:    "ada@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	got, err := svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "ada", got.Username)

	_, err = svc.Profile(ctx, "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}
