package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	// Arrange
	maker, err := NewTokenMaker(testSecret, time.Hour)
	require.NoError(t, err)

	// Act
	token, err := maker.CreateToken(42, RoleCustomer)
	require.NoError(t, err)
	claims, err := maker.VerifyToken(token)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, RoleCustomer, claims.Rol)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestExpiredToken(t *testing.T) {
	// Arrange: duração negativa produz um token já expirado
	maker, err := NewTokenMaker(testSecret, -time.Minute)
	require.NoError(t, err)

	token, err := maker.CreateToken(42, RoleAdmin)
	require.NoError(t, err)

	// Act
	claims, err := maker.VerifyToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestWrongSecret(t *testing.T) {
	// Arrange
	maker, err := NewTokenMaker(testSecret, time.Hour)
	require.NoError(t, err)
	other, err := NewTokenMaker(strings.Repeat("x", minSecretSize), time.Hour)
	require.NoError(t, err)

	token, err := maker.CreateToken(42, RoleCustomer)
	require.NoError(t, err)

	// Act
	claims, err := other.VerifyToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestSecretTooShort(t *testing.T) {
	maker, err := NewTokenMaker("short", time.Hour)

	assert.Error(t, err)
	assert.Nil(t, maker)
}

func TestCreateTokenRejectsUnknownRole(t *testing.T) {
	maker, err := NewTokenMaker(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := maker.CreateToken(42, Role("superuser"))

	assert.Error(t, err)
	assert.Empty(t, token)
}

func TestVerifyTokenRejectsNoneAlgorithm(t *testing.T) {
	// Arrange: token sem assinatura, método "none"
	maker, err := NewTokenMaker(testSecret, time.Hour)
	require.NoError(t, err)

	claims := Claims{
		UserID: 42,
		Rol:    RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	// Act
	parsed, err := maker.VerifyToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, parsed)
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleCustomer.Valid())
	assert.False(t, Role("").Valid())
	assert.False(t, Role("root").Valid())
}
