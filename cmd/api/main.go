package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/copperstill/stillhouse-backend/api/routes"
	"github.com/copperstill/stillhouse-backend/internal/consumption"
	"github.com/copperstill/stillhouse-backend/internal/costs"
	"github.com/copperstill/stillhouse-backend/internal/items"
	"github.com/copperstill/stillhouse-backend/internal/ledger"
	"github.com/copperstill/stillhouse-backend/internal/lots"
	"github.com/copperstill/stillhouse-backend/internal/materials"
	"github.com/copperstill/stillhouse-backend/internal/recipes"
	"github.com/copperstill/stillhouse-backend/internal/stock"
	"github.com/copperstill/stillhouse-backend/pkg/config"
	"github.com/copperstill/stillhouse-backend/pkg/db"
	"github.com/copperstill/stillhouse-backend/pkg/logger"
	"github.com/copperstill/stillhouse-backend/pkg/metrics"
	"github.com/copperstill/stillhouse-backend/pkg/migrate"
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

	consumptionMetrics := metrics.NewConsumptionMetrics(prometheus.DefaultRegisterer)

	ledgerRepo := ledger.NewRepository(dbClient.DB())
	itemRepo := items.NewRepository(dbClient.DB())
	lotRepo := lots.NewRepository(dbClient.DB())
	recipeRepo := recipes.NewRepository(dbClient.DB())
	materialRepo := materials.NewRepository(dbClient.DB())
	costRepo := costs.NewRepository(dbClient.DB())

	ledgerService, err := ledger.NewService(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	stockService, err := stock.NewService(ledgerRepo, lotRepo, itemRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}

	lotsService, err := lots.NewService(dbClient, lotRepo, itemRepo, ledgerService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create lots service", err)
		os.Exit(1)
	}

	recipesService, err := recipes.NewService(recipeRepo, cfg.Production.DefaultBaselineVolume(), consumptionMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create recipes service", err)
		os.Exit(1)
	}

	consumptionService, err := consumption.NewService(dbClient, lotRepo, itemRepo, ledgerService, materialRepo, stockService, consumptionMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create consumption service", err)
		os.Exit(1)
	}

	costsService, err := costs.NewService(costRepo, materialRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create costs service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			stockService,
			lotsService,
			recipesService,
			consumptionService,
			costsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
