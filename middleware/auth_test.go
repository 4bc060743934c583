package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tetra/auth"
)

func setupRouter(issuer *auth.Issuer, handled *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireAuth(issuer), func(c *gin.Context) {
		*handled = true
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString("userId")})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	issuer := auth.NewIssuer("test-secret", time.Hour)

	t.Run("valid token passes user id through", func(t *testing.T) {
		token, err := issuer.Issue("user-42")
		require.NoError(t, err)

		var handled bool
		r := setupRouter(issuer, &handled)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, handled)
		assert.Contains(t, w.Body.String(), "user-42")
	})

	t.Run("missing header", func(t *testing.T) {
		var handled bool
		r := setupRouter(issuer, &handled)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, handled, "handler must not run without a token")
	})

	t.Run("bad scheme", func(t *testing.T) {
		var handled bool
		r := setupRouter(issuer, &handled)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, handled)
	})

	t.Run("garbage token", func(t *testing.T) {
		var handled bool
		r := setupRouter(issuer, &handled)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, handled)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := auth.NewIssuer("test-secret", -time.Minute)
		token, err := expired.Issue("user-42")
		require.NoError(t, err)

		var handled bool
		r := setupRouter(issuer, &handled)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, handled)
		assert.Contains(t, w.Body.String(), "expired")
	})
}
