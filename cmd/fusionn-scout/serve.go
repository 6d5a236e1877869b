package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/fusionn-scout/internal/config"
	"github.com/fusionn-scout/internal/handler"
	"github.com/fusionn-scout/internal/scheduler"
	"github.com/fusionn-scout/internal/version"
	"github.com/fusionn-scout/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(configPath)
	},
}

func serve(path string) error {
	logger.Init(isDev())
	defer logger.Sync()

	version.PrintBanner(nil)

	logger.Infof("📁 Loading config: %s", path)
	cfgMgr, err := config.NewManager(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg := cfgMgr.Get()
	initLogger(cfg)

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// Initialize scheduler
	sched := scheduler.New(a.discovery)
	if err := sched.Start(cfg.Scheduler.Cron); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	cfgMgr.OnChange(func(old, cur *config.Config) {
		if err := sched.Reschedule(cur.Scheduler.Cron); err != nil {
			logger.Errorf("❌ Invalid cron %q, keeping %q: %v", cur.Scheduler.Cron, old.Scheduler.Cron, err)
		}
		if needsRestart(old, cur) {
			logger.Warn("⚠️  Indexer, source and discovery changes apply after a restart")
		}
	})

	// Initialize HTTP server
	if !isDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	h := handler.New(a.discovery, sched, a.series, a.queue)
	h.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // POST /discovery/run waits for the whole run
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("❌ Server error: %v", err)
		}
	}()

	logger.Infof("🌐 API server: http://localhost:%d", cfg.Server.Port)
	logger.Info("")
	logger.Info("────────────────────────────────────────────────────────────────")
	logger.Info("✅  Ready! Waiting for scheduled runs...")
	logger.Info("────────────────────────────────────────────────────────────────")

	// Run immediately on startup if configured
	if cfg.Scheduler.RunOnStart {
		logger.Info("")
		logger.Info("🚀 Running initial discovery (run_on_start=true)...")
		sched.RunNow()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("")
	logger.Info("🛑 Shutting down...")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("❌ Shutdown error: %v", err)
	}

	logger.Info("👋 Goodbye!")
	return nil
}

// needsRestart reports whether a reload touched settings that are only read
// when the app is built. Only the cron schedule is applied live.
func needsRestart(old, cur *config.Config) bool {
	return !reflect.DeepEqual(old.Indexers, cur.Indexers) ||
		old.Progress != cur.Progress ||
		old.Queue != cur.Queue ||
		old.Discovery != cur.Discovery
}

// requestLogger returns a gin middleware for logging HTTP requests
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		// Only log non-health endpoints or errors
		status := c.Writer.Status()
		if path != "/api/v1/health" || status >= 400 {
			latency := time.Since(start)
			logger.Debugf("HTTP %s %s → %d (%v)", c.Request.Method, path, status, latency)
		}
	}
}
