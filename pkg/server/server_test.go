package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/burrow/config"
	"github.com/stratastor/burrow/internal/common"
	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T, ready func(context.Context) error) *gin.Engine {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "server-test")
	require.NoError(t, err)
	cfg := &config.Config{Environment: "test"}
	engine := newEngine(cfg, l, ready)
	gin.SetMode(gin.TestMode)

	engine.GET("/fail", func(c *gin.Context) {
		common.APIError(c, errors.New(errors.ZFSPoolNotFound, "tank").
			WithMetadata("pool", "tank"))
	})
	engine.GET("/ok", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return engine
}

func TestHealthEndpoint(t *testing.T) {
	engine := testEngine(t, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	assert.Empty(t, w.Header().Get("X-Request-Id"))
}

func TestHealthEndpointNotReady(t *testing.T) {
	engine := testEngine(t, func(context.Context) error {
		return errors.New(errors.StoreOpen, "database is locked")
	})
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"unhealthy"`)
}

func TestLoggerMiddlewareRequestID(t *testing.T) {
	engine := testEngine(t, nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))
	assert.Contains(t, w.Body.String(), `"pool":"tank"`)
}

func TestErrorAttrs(t *testing.T) {
	errs := []*gin.Error{
		{Err: errors.NewCommandError("zpool offline", 1, "cannot offline sda")},
	}
	args := logAttrs(errorAttrs(errs))

	fields := map[string]any{}
	for i := 0; i < len(args); i += 2 {
		fields[args[i].(string)] = args[i+1]
	}
	assert.Equal(t, "cannot offline sda", fields["error_details"])
	assert.Equal(t, "zpool offline", fields["error_metadata_command"])
	assert.Equal(t, "1", fields["error_metadata_exit_code"])
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("alerts.interval", "")
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = parseDuration("alerts.interval", "90s")
	require.NoError(t, err)
	assert.Equal(t, 90.0, d.Seconds())

	_, err = parseDuration("alerts.interval", "soon")
	assert.True(t, errors.Is(err, errors.ConfigInvalid))
}

func TestShutdownWithoutStart(t *testing.T) {
	assert.NoError(t, Shutdown(t.Context()))
}
