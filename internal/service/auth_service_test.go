package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

func newAuthService() *AuthService {
	return NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Minute, Issuer: "identity"})
}

func TestAuthServiceValidatesIssuedToken(t *testing.T) {
	svc := newAuthService()
	token, expires, err := svc.IssueToken("user-1", models.RoleCoordinator, "coord@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expires, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleCoordinator, claims.Role)
	assert.Equal(t, "coord@example.com", claims.Email)
}

func TestAuthServiceRejectsWrongSecret(t *testing.T) {
	other := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other", Issuer: "identity"})
	token, _, err := other.IssueToken("user-1", models.RoleAdmin, "")
	require.NoError(t, err)

	_, err = newAuthService().ValidateToken(token)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRejectsWrongIssuer(t *testing.T) {
	other := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "someone-else"})
	token, _, err := other.IssueToken("user-1", models.RoleAdmin, "")
	require.NoError(t, err)

	_, err = newAuthService().ValidateToken(token)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	claims := &models.JWTClaims{
		UserID: "user-1",
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = newAuthService().ValidateToken(token)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRejectsTokenWithoutRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "identity"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = newAuthService().ValidateToken(token)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRejectsGarbage(t *testing.T) {
	_, err := newAuthService().ValidateToken("not-a-token")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}
