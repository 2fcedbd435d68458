package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-ga/internal/service"
	"github.com/noah-isme/timetable-ga/pkg/config"
)

func newTokenService(t *testing.T) *service.ServiceTokenService {
	t.Helper()
	return service.NewServiceTokenService(config.ServiceTokenConfig{
		Secret:     "mw-secret",
		Expiration: time.Hour,
	})
}

func runServiceTokenMiddleware(t *testing.T, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := newTokenService(t)

	w := httptest.NewRecorder()
	_, engine := gin.CreateTestContext(w)
	engine.Use(ServiceToken(tokens))
	engine.GET("/guarded", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	engine.ServeHTTP(w, req)
	return w
}

func TestServiceTokenMiddlewareRejectsMissingHeader(t *testing.T) {
	w := runServiceTokenMiddleware(t, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServiceTokenMiddlewareRejectsMalformedHeader(t *testing.T) {
	w := runServiceTokenMiddleware(t, "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServiceTokenMiddlewareRejectsInvalidToken(t *testing.T) {
	w := runServiceTokenMiddleware(t, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServiceTokenMiddlewareAcceptsValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := newTokenService(t)
	signed, _, err := tokens.Issue("scheduler")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	_, engine := gin.CreateTestContext(w)
	engine.Use(ServiceToken(tokens))

	var subject any
	engine.GET("/guarded", func(c *gin.Context) {
		subject, _ = c.Get(ContextServiceSubjectKey)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "scheduler", subject)
}
