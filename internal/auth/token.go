package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role representa o nível de autorização carregado no token
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "usuario"
)

// Valid verifica se o role é um dos valores conhecidos
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCustomer:
		return true
	}
	return false
}

var (
	ErrInvalidToken = errors.New("token is invalid")
	ErrExpiredToken = errors.New("token has expired")
)

const minSecretSize = 32

// Claims é o payload assinado dentro do token bearer
type Claims struct {
	UserID int64 `json:"id"`
	Rol    Role  `json:"rol"`
	jwt.RegisteredClaims
}

// TokenMaker cria e verifica tokens JWT assinados com HMAC.
// O segredo é injetado uma vez na inicialização e imutável depois.
type TokenMaker struct {
	secret   []byte
	duration time.Duration
}

// NewTokenMaker cria uma nova instância de TokenMaker
func NewTokenMaker(secret string, duration time.Duration) (*TokenMaker, error) {
	if len(secret) < minSecretSize {
		return nil, fmt.Errorf("invalid secret size: must be at least %d characters", minSecretSize)
	}
	return &TokenMaker{
		secret:   []byte(secret),
		duration: duration,
	}, nil
}

// CreateToken gera um token assinado carregando {id, rol}
func (m *TokenMaker) CreateToken(userID int64, rol Role) (string, error) {
	if !rol.Valid() {
		return "", fmt.Errorf("unknown role %q", rol)
	}

	now := time.Now()
	claims := Claims{
		UserID: userID,
		Rol:    rol,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// VerifyToken valida a assinatura e a expiração e devolve o payload
func (m *TokenMaker) VerifyToken(tokenValue string) (*Claims, error) {
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}

	token, err := jwt.ParseWithClaims(tokenValue, &Claims{}, keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !claims.Rol.Valid() {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
