package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("NODE_ENV", "")

	cfg := LoadConfig()
	assert.Equal(t, ":3001", cfg.Addr)
	assert.Equal(t, devOrigins, cfg.AllowedOrigins)
}

func TestLoadConfigExplicitOrigins(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ALLOWED_ORIGINS", "https://world.pump.fun , https://staging.pump.fun,")
	t.Setenv("NODE_ENV", "production")

	cfg := LoadConfig()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, []string{"https://world.pump.fun", "https://staging.pump.fun"}, cfg.AllowedOrigins)
}

func TestLoadConfigProductionWithoutOrigins(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("NODE_ENV", "production")

	cfg := LoadConfig()
	assert.Empty(t, cfg.AllowedOrigins, "production without explicit allowlist admits no browser origin")
}

func TestUpgraderOriginCheck(t *testing.T) {
	up := newUpgrader([]string{"https://world.pump.fun"})

	mkReq := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, up.CheckOrigin(mkReq("")), "non-browser clients carry no Origin")
	assert.True(t, up.CheckOrigin(mkReq("https://world.pump.fun")))
	assert.True(t, up.CheckOrigin(mkReq("HTTPS://WORLD.PUMP.FUN")))
	assert.False(t, up.CheckOrigin(mkReq("https://evil.example")))
}

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body["message"], "running")
}

func TestHandleMetricsShape(t *testing.T) {
	w := newTestWorld(t)
	connect(t, w, "a")

	rec := httptest.NewRecorder()
	w.HandleMetrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Online  int64            `json:"online"`
		Metrics map[string]int64 `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body.Online)
	assert.EqualValues(t, 1, body.Metrics["connects"])
}

func TestHandleAdminConfigHotUpdate(t *testing.T) {
	w := newTestWorld(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/config",
		strings.NewReader(`{"reapIntervalSec":5,"idleTimeoutSec":30}`))
	w.HandleAdminConfig(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 5*time.Second, w.reapInterval())
	assert.Equal(t, 30*time.Second, w.idleTimeout())

	rec = httptest.NewRecorder()
	w.HandleAdminConfig(rec, httptest.NewRequest(http.MethodGet, "/admin/config", nil))
	var got map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 5, got["reapIntervalSec"])
	assert.Equal(t, 30, got["idleTimeoutSec"])

	// 非法值不生效
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/config", strings.NewReader(`{"reapIntervalSec":-1}`))
	w.HandleAdminConfig(rec, req)
	assert.Equal(t, 5*time.Second, w.reapInterval())

	rec = httptest.NewRecorder()
	w.HandleAdminConfig(rec, httptest.NewRequest(http.MethodDelete, "/admin/config", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
