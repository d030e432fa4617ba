// Mock hub server
//
// Features:
// - Hub-shaped model/dataset metadata and paths-info APIs
// - Byte-range file downloads from a local fixture tree
// - Cached content digests (in-memory or Redis)
// - Prometheus metrics & structured logging (zap)
package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fakehub/fakehub/internal/api"
	"github.com/fakehub/fakehub/internal/config"
	"github.com/fakehub/fakehub/internal/hashcache"
	"github.com/fakehub/fakehub/internal/logging"
	"github.com/fakehub/fakehub/internal/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Can't use structured logging yet
		panic("configuration error: " + err.Error())
	}

	// Initialize structured logging
	if err := logging.Init(logging.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		LogRequests: cfg.LogRequests,
		Redact:      cfg.LogRedact,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	logging.Info("fakehub server starting...",
		zap.String("listen", cfg.ListenAddr),
		zap.String("metrics", cfg.MetricsAddr),
		zap.String("hub_root", cfg.AbsHubRoot()))

	// Select the digest cache backend
	var store hashcache.Store
	switch cfg.HashCache {
	case config.HashCacheRedis:
		redisStore, err := hashcache.NewRedisStore(hashcache.RedisConfig{
			URL: cfg.RedisURL,
			TTL: cfg.RedisTTL,
		})
		if err != nil {
			logging.Fatal("redis connection failed", zap.Error(err))
		}
		defer redisStore.Close()
		store = redisStore
		logging.Info("digest cache: redis")
	case config.HashCacheOff:
		store = hashcache.Disabled{}
		logging.Info("digest cache: disabled")
	default:
		store = hashcache.NewMemoryStore()
		logging.Info("digest cache: in-memory")
	}
	hasher := hashcache.New(store)

	srv := api.NewServer(cfg, hasher)

	// Start metrics server
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logging.Info("shutting down...")
		httpServer.Close()
		metricsServer.Close()
	}()

	logging.Info("server listening (HTTP)", zap.String("addr", cfg.ListenAddr))
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("server error", zap.Error(err))
	}
}
