package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/diallo-dev/coffrefort-backend/api/controllers"
	"github.com/diallo-dev/coffrefort-backend/api/routes"
	"github.com/diallo-dev/coffrefort-backend/internal/audit"
	"github.com/diallo-dev/coffrefort-backend/internal/dashboard"
	"github.com/diallo-dev/coffrefort-backend/internal/invalidation"
	"github.com/diallo-dev/coffrefort-backend/internal/inventories"
	"github.com/diallo-dev/coffrefort-backend/internal/ledger"
	"github.com/diallo-dev/coffrefort-backend/internal/memberships"
	"github.com/diallo-dev/coffrefort-backend/internal/movements"
	"github.com/diallo-dev/coffrefort-backend/internal/safes"
	"github.com/diallo-dev/coffrefort-backend/pkg/cache"
	"github.com/diallo-dev/coffrefort-backend/pkg/config"
	"github.com/diallo-dev/coffrefort-backend/pkg/db"
	"github.com/diallo-dev/coffrefort-backend/pkg/logger"
	"github.com/diallo-dev/coffrefort-backend/pkg/metrics"
	"github.com/diallo-dev/coffrefort-backend/pkg/migrate"
	"github.com/diallo-dev/coffrefort-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	if cfg.Flags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cacheMetrics := metrics.NewCacheMetrics(registry)

	var store cache.Store
	var redisPinger controllers.Pinger
	if cfg.Cache.UseRedis() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		store = cache.NewRedis(redisClient, logg, cacheMetrics)
		redisPinger = redisClient
	} else {
		memory := cache.NewMemory(cacheMetrics)
		memory.StartSweeper(cfg.Cache.SweepInterval)
		defer memory.Close()
		store = memory
	}

	ledgerRepo := ledger.NewRepository(dbClient.DB())
	membersRepo := memberships.NewRepository(dbClient.DB())
	safesRepo := safes.NewRepository(dbClient.DB())
	movementsRepo := movements.NewRepository(dbClient.DB())
	inventoriesRepo := inventories.NewRepository(dbClient.DB())

	recorder, err := audit.NewRecorder(dbClient.DB(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit recorder", err)
		os.Exit(1)
	}
	hook, err := invalidation.NewHook(store, logg, cacheMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create invalidation hook", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledgerRepo, store, cfg.Cache.BalanceTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	safesService, err := safes.NewService(safesRepo, membersRepo, dbClient, hook, ledgerService, recorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create safes service", err)
		os.Exit(1)
	}
	movementsService, err := movements.NewService(movementsRepo, membersRepo, dbClient, hook, recorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create movements service", err)
		os.Exit(1)
	}
	inventoriesService, err := inventories.NewService(inventoriesRepo, membersRepo, dbClient, hook, recorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventories service", err)
		os.Exit(1)
	}
	dashboardService, err := dashboard.NewService(ledgerRepo, membersRepo, store, cfg.Cache.DashboardTTL, cacheMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DBPinger:    dbClient,
			RedisPinger: redisPinger,
			Registry:    registry,
			Safes:       safesService,
			Movements:   movementsService,
			Inventories: inventoriesService,
			Ledger:      ledgerService,
			Dashboard:   dashboardService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
