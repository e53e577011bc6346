package server

import (
	"os"
	"strings"
)

// 开发环境默认允许的前端来源（本地 Vite / CRA）
var devOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// Config 服务运行配置：全部来自环境变量（无 CLI 参数、无配置文件）
type Config struct {
	Addr           string   // 监听地址，如 ":3001"
	AllowedOrigins []string // WebSocket 升级允许的来源；空表示拒绝所有带 Origin 的请求
}

// LoadConfig 读取环境变量并填充默认值
// PORT: 监听端口（默认 3001）
// ALLOWED_ORIGINS: 逗号分隔的来源白名单
// NODE_ENV: 非 production 且未显式配置白名单时，放行本地开发来源
func LoadConfig() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	var origins []string
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				origins = append(origins, o)
			}
		}
	} else if os.Getenv("NODE_ENV") != "production" {
		origins = append(origins, devOrigins...)
	}

	return Config{Addr: ":" + port, AllowedOrigins: origins}
}
