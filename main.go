package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pumpworld/server"
)

// Pump.Fun World 同步服入口：启动 HTTP + WebSocket 服务和世界循环
func main() {
	// 使用第三方 zap 日志库写入 world.log（带滚动）
	if err := server.InitLogger("world.log"); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	cfg := server.LoadConfig()
	world := server.NewWorld(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", world.HandleWS)
	mux.HandleFunc("/health", server.HandleHealth)
	// 管理与监控接口
	mux.HandleFunc("/metrics", world.HandleMetrics)
	mux.HandleFunc("/admin/config", world.HandleAdminConfig)

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	// 优雅退出（Ctrl+C / SIGTERM）
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		world.Run(ctx)
		return nil
	})
	g.Go(func() error {
		server.Log.Infof("Pump.Fun World server listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		server.Log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		server.Log.Fatalf("server: %v", err)
	}
}
