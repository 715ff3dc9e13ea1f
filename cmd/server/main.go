package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"posture-service/internal/factory"
	"posture-service/internal/handler"
	"posture-service/internal/scheduler"
	"posture-service/internal/util"
)

func main() {
	// Initialize factory (which loads config and initializes all clients)
	f, err := factory.NewFactory()
	if err != nil {
		util.Fatal("Failed to initialize factory", util.ErrorField(err))
	}
	defer f.Close()

	cfg := f.Config()

	// Setup HTTP router with handlers using Chi
	router := setupRouter(f)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Background loops stop on shutdown
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	serviceFactory := f.ServiceFactory()
	sched := scheduler.New(
		serviceFactory.Orchestrator(),
		serviceFactory.SnapshotService(),
		cfg.Sync.Interval,
		cfg.Sync.SnapshotHour,
		util.Get(),
	)
	sched.Start(runCtx)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Fatal("Server failed to start", util.ErrorField(err))
		}
	}()

	util.Info("Server started successfully",
		util.String("environment", cfg.Environment),
		util.String("address", server.Addr),
		util.Duration("sync_interval", cfg.Sync.Interval),
	)

	waitForShutdown(f, cancelRun, server)
}

// setupRouter creates the HTTP router with all handlers using Chi
func setupRouter(f *factory.Factory) http.Handler {
	serviceFactory := f.ServiceFactory()

	syncHandler := handler.NewSyncHandler(
		serviceFactory.Orchestrator(),
		f.SyncLogStore(),
		util.Get(),
	)
	dashboardHandler := handler.NewDashboardHandler(
		serviceFactory.DashboardService(),
		serviceFactory.SnapshotService(),
		serviceFactory.AlertIndexer(),
		util.Get(),
	)

	health := func(ctx context.Context) error {
		if !f.IsHealthy(ctx) {
			return fmt.Errorf("one or more backing stores unreachable")
		}
		return nil
	}

	return handler.NewRouter(syncHandler, dashboardHandler, health, util.Get())
}

func waitForShutdown(f *factory.Factory, cancelRun context.CancelFunc, server *http.Server) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-signalChan
	util.Info("Received shutdown signal", util.String("signal", sig.String()))

	cancelRun()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		util.Error("Failed to shutdown server gracefully", util.ErrorField(err))
	} else {
		util.Info("Server shutdown completed")
	}
	f.Close()
}
