package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func serveSystem(h *SystemHandler, path string) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/info", h.GetSystemInfo)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSystemHandler_Health(t *testing.T) {
	w := serveSystem(NewSystemHandler("apcontrols", "1.2.0", nil), "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeData[HealthResponse](t, decode(t, w)).Status)
}

func TestSystemHandler_Ready(t *testing.T) {
	t.Run("database reachable", func(t *testing.T) {
		db := new(MockPinger)
		db.On("Ping", mock.Anything).Return(nil)

		w := serveSystem(NewSystemHandler("apcontrols", "1.2.0", db), "/ready")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "up", decodeData[HealthResponse](t, decode(t, w)).Database)
	})

	t.Run("database down", func(t *testing.T) {
		db := new(MockPinger)
		db.On("Ping", mock.Anything).Return(errors.New("dial tcp: connection refused"))

		w := serveSystem(NewSystemHandler("apcontrols", "1.2.0", db), "/ready")

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		env := decode(t, w)
		assert.False(t, env.Success)
		assert.Equal(t, "DEPENDENCY_UNAVAILABLE", env.Error.Code)
		assert.Equal(t, "down", decodeData[HealthResponse](t, env).Database)
	})
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	w := serveSystem(NewSystemHandler("apcontrols", "1.2.0", nil), "/info")
	require.Equal(t, http.StatusOK, w.Code)
	info := decodeData[SystemInfoResponse](t, decode(t, w))
	assert.Equal(t, "apcontrols", info.Name)
	assert.Equal(t, "1.2.0", info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
