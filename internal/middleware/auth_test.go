package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/models"
)

func newRouter(tokens *auth.Tokens) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identify(tokens, zap.NewNop()))
	r.GET("/public", func(c *gin.Context) {
		id := IdentityFrom(c)
		if id == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, id.UserID)
	})
	r.GET("/me", RequireUser(), func(c *gin.Context) {
		c.String(http.StatusOK, auth.FromContext(c.Request.Context()).UserID)
	})
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdentifyAndGates(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	r := newRouter(tokens)

	userToken, _, err := tokens.Issue(models.User{ID: "u1", Role: models.RoleUser})
	require.NoError(t, err)
	adminToken, _, err := tokens.Issue(models.User{ID: "a1", Role: models.RoleAdmin})
	require.NoError(t, err)

	w := do(r, "/public", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())

	w = do(r, "/public", "Bearer "+userToken)
	assert.Equal(t, "u1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "/public", "Bearer nope").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/public", "Token "+userToken).Code)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	w = do(r, "/me", "bearer "+userToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", "Bearer "+userToken).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", "Bearer "+adminToken).Code)
}
