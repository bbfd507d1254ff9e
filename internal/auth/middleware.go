package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer"

	// ClaimsKey é a chave do payload autenticado dentro do gin.Context
	ClaimsKey = "auth_claims"
)

// RequireAuth exige um token bearer válido e guarda o payload no contexto
func RequireAuth(maker *TokenMaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authorizationHeader)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authorization token required",
				"code":  "unauthorized",
			})
			return
		}

		fields := strings.Fields(header)
		if len(fields) != 2 || !strings.EqualFold(fields[0], bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization header format",
				"code":  "unauthorized",
			})
			return
		}

		claims, err := maker.VerifyToken(fields[1])
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, ErrExpiredToken) {
				msg = "token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": msg,
				"code":  "unauthorized",
			})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireAdmin exige que o token autenticado carregue o role admin.
// Deve ser registrado depois de RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authorization token required",
				"code":  "unauthorized",
			})
			return
		}

		switch claims.Rol {
		case RoleAdmin:
			c.Next()
		case RoleCustomer:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "admin role required",
				"code":  "forbidden",
			})
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "unknown role",
				"code":  "forbidden",
			})
		}
	}
}

// ClaimsFrom recupera o payload autenticado do contexto
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*Claims)
	return claims, ok
}
