package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newGuardRouter(demoMode bool) (*gin.Engine, *bool) {
	gin.SetMode(gin.TestMode)
	called := false
	r := gin.New()
	r.POST("/admin/wipe", DemoGuard(demoMode), func(c *gin.Context) {
		called = true
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r, &called
}

func TestDemoGuardBlocksWhenEnabled(t *testing.T) {
	router, called := newGuardRouter(true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/wipe", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	require.JSONEq(t, `{"error": "admin operations are disabled in demo mode"}`, w.Body.String())
	require.False(t, *called, "handler must not run when demo mode blocks the request")
}

func TestDemoGuardPassesThroughWhenDisabled(t *testing.T) {
	router, called := newGuardRouter(false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/wipe", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, *called)
}

func TestLoggingMiddlewarePreservesResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoggingMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusTeapot, "pong")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusTeapot, w.Code)
	require.Equal(t, "pong", w.Body.String())
}
