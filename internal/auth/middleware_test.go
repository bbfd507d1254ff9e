package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthRouter(t *testing.T, maker *TokenMaker) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	protected := r.Group("/", RequireAuth(maker))
	protected.GET("/perfil", func(c *gin.Context) {
		claims, _ := ClaimsFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": claims.UserID, "rol": claims.Rol})
	})
	admin := protected.Group("/", RequireAdmin())
	admin.GET("/admin", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doRequest(r *gin.Engine, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	maker, err := NewTokenMaker(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := maker.CreateToken(42, RoleCustomer)
	require.NoError(t, err)

	expiredMaker, err := NewTokenMaker(testSecret, -time.Minute)
	require.NoError(t, err)
	expired, err := expiredMaker.CreateToken(42, RoleCustomer)
	require.NoError(t, err)

	r := setupAuthRouter(t, maker)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc123", http.StatusUnauthorized},
		{"missing token", "Bearer", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
		{"lowercase bearer", "bearer " + token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(r, "/perfil", tc.header)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status != http.StatusOK {
				assert.Contains(t, rec.Body.String(), `"code":"unauthorized"`)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	maker, err := NewTokenMaker(testSecret, time.Hour)
	require.NoError(t, err)
	r := setupAuthRouter(t, maker)

	cases := []struct {
		rol    Role
		status int
	}{
		{RoleAdmin, http.StatusOK},
		{RoleCustomer, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(string(tc.rol), func(t *testing.T) {
			token, err := maker.CreateToken(1, tc.rol)
			require.NoError(t, err)

			rec := doRequest(r, "/admin", fmt.Sprintf("Bearer %s", token))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestClaimsFromWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	claims, ok := ClaimsFrom(c)

	assert.False(t, ok)
	assert.Nil(t, claims)
}
