package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sdmtech/sdmcrm/internal/application/services"
	"github.com/sdmtech/sdmcrm/internal/bootstrap"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/persistence"
	"github.com/sdmtech/sdmcrm/internal/interfaces/rest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger
	if cfg.UsesDefaultSecret() {
		logger.Warn("⚠️  JWT secret is the built-in default; set JWT_SECRET before going to production")
	}
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := a.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	data, err := bootstrap.LoadSeedData()
	if err != nil {
		return err
	}
	seeder := bootstrap.NewSeeder(persistence.NewContentRepository(db), persistence.NewServiceOfferingRepository(db), logger)
	if err := seeder.Seed(ctx, data); err != nil {
		logger.Warn("⚠️  Failed to seed site content", zap.Error(err))
	}

	svcMgr, err := services.NewServiceManager(db, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("🔧 Service manager initialized")

	if cfg.Scheduler.Enabled {
		svcMgr.Scheduler.Start()
	}

	router := rest.NewRouter(svcMgr, rest.RouterConfig{
		CORSOrigins: cfg.Server.CORSOrigins,
		Ping:        db.Ping,
	}, logger)

	port := cfg.Server.Port
	banner := logger.Sugar()
	banner.Info("═══════════════════════════════════════════════════════════════════════════")
	banner.Info("🚀 SDM CRM Backend Started Successfully")
	banner.Info("═══════════════════════════════════════════════════════════════════════════")
	banner.Infof("📍 Server:         http://localhost:%s", port)
	banner.Infof("🔐 Auth API:       http://localhost:%s/api/auth", port)
	banner.Infof("🌐 Site API:       http://localhost:%s/api/site", port)
	banner.Infof("📋 CRM API:        http://localhost:%s/api/crm", port)
	banner.Infof("🛠️  Admin API:      http://localhost:%s/api/admin", port)
	banner.Infof("💚 Health check:   http://localhost:%s/health", port)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-quit:
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	svcMgr.Shutdown(shutdownCtx)
	logger.Info("🛑 Background workers stopped")

	logger.Info("Server exiting")
	return nil
}
