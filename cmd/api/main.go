package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nottechincal/StuffedLamb-Final/internal/catalog"
	"github.com/nottechincal/StuffedLamb-Final/internal/config"
	"github.com/nottechincal/StuffedLamb-Final/internal/db"
	"github.com/nottechincal/StuffedLamb-Final/internal/httpserver"
	"github.com/nottechincal/StuffedLamb-Final/internal/notify"
	customerrepo "github.com/nottechincal/StuffedLamb-Final/internal/repository/customer"
	orderrepo "github.com/nottechincal/StuffedLamb-Final/internal/repository/order"
	sessionrepo "github.com/nottechincal/StuffedLamb-Final/internal/repository/session"
	cartsvc "github.com/nottechincal/StuffedLamb-Final/internal/service/cart"
	ordersvc "github.com/nottechincal/StuffedLamb-Final/internal/service/order"
	pickupsvc "github.com/nottechincal/StuffedLamb-Final/internal/service/pickup"
	pricingsvc "github.com/nottechincal/StuffedLamb-Final/internal/service/pricing"
	sessionsvc "github.com/nottechincal/StuffedLamb-Final/internal/service/session"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	cat, err := catalog.Load()
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	store, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("init session store: %v", err)
	}
	defer store.Close()

	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	customerRepo := customerrepo.NewPostgres(dbpool, logger)

	deps := httpserver.Deps{
		Catalog:  cat,
		Sessions: sessionsvc.New(store, cfg.ContaminationTurnLimit, logger),
		Cart:     cartsvc.New(cat, cartsvc.MergePolicy{Window: cfg.MergeWindow}),
		Pricing:  pricingsvc.New(cat),
		Pickup:   pickupsvc.New(cat),
		Orders:   ordersvc.New(orderRepo, customerRepo, cat.Location(), logger),
		Notifier: notify.NewLog(logger, cfg.MenuURL),
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, deps, cfg.AllowedOrigins)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

// newSessionStore picks Redis when configured, otherwise an in-process
// store. Single-instance deployments do not need Redis at all.
func newSessionStore(ctx context.Context, cfg config.Config, logger *log.Logger) (sessionrepo.Store, error) {
	if cfg.RedisAddr != "" {
		return sessionrepo.NewRedis(ctx, sessionrepo.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.SessionTTL,
		}, logger)
	}
	logger.Printf("REDIS_ADDR not set, using in-memory session store")
	return sessionrepo.NewMemory(sessionrepo.MemoryConfig{
		TTL:           cfg.SessionTTL,
		MaxSessions:   cfg.MaxSessions,
		SweepInterval: cfg.SessionSweepInterval,
	}), nil
}
