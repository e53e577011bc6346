package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// HandleAdminConfig 提供清理参数的读取与热更新
// GET /admin/config  返回当前配置
// POST /admin/config 以 JSON 载荷更新部分字段
func (w *World) HandleAdminConfig(rw http.ResponseWriter, r *http.Request) {
	type cfg struct {
		ReapIntervalSec *int `json:"reapIntervalSec,omitempty"`
		IdleTimeoutSec  *int `json:"idleTimeoutSec,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		interval := int(w.reapInterval() / time.Second)
		timeout := int(w.idleTimeout() / time.Second)
		cur := cfg{ReapIntervalSec: &interval, IdleTimeoutSec: &timeout}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(cur)
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(rw, "invalid json", http.StatusBadRequest)
			return
		}
		if body.ReapIntervalSec != nil && *body.ReapIntervalSec > 0 {
			w.reapIntervalNs.Store(int64(time.Duration(*body.ReapIntervalSec) * time.Second))
		}
		if body.IdleTimeoutSec != nil && *body.IdleTimeoutSec > 0 {
			w.idleTimeoutNs.Store(int64(time.Duration(*body.IdleTimeoutSec) * time.Second))
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true})
		Log.Infof("config updated: reapInterval=%s idleTimeout=%s", w.reapInterval(), w.idleTimeout())
	default:
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleHealth 健康检查（部署平台探活用）
// GET /health
func HandleHealth(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(rw).Encode(map[string]string{
		"status":  "ok",
		"message": "Pump.Fun World Server is running!",
	})
}
