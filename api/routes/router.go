package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/copperstill/stillhouse-backend/api/controllers"
	"github.com/copperstill/stillhouse-backend/api/middleware"
	"github.com/copperstill/stillhouse-backend/internal/consumption"
	"github.com/copperstill/stillhouse-backend/internal/costs"
	"github.com/copperstill/stillhouse-backend/internal/lots"
	"github.com/copperstill/stillhouse-backend/internal/recipes"
	"github.com/copperstill/stillhouse-backend/internal/stock"
	"github.com/copperstill/stillhouse-backend/pkg/config"
	"github.com/copperstill/stillhouse-backend/pkg/db"
	"github.com/copperstill/stillhouse-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	stockService stock.Service,
	lotsService lots.Service,
	recipesService recipes.Service,
	consumptionService consumption.Service,
	costsService costs.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OrgContext(logg))

		r.Route("/items/{itemID}", func(r chi.Router) {
			r.Get("/stock", controllers.ItemStock(stockService, logg))
			r.Get("/lots", controllers.ItemLots(lotsService, logg))
			r.Get("/transactions", controllers.ItemTransactions(stockService, logg))
		})

		r.Route("/stock", func(r chi.Router) {
			r.Post("/availability", controllers.StockAvailability(stockService, logg))
			r.Post("/adjust", controllers.StockAdjust(lotsService, logg))
		})

		r.Post("/lots", controllers.LotReceive(lotsService, logg))
		r.Get("/lots/{lotID}/stock", controllers.LotStockDetail(stockService, logg))
		r.Post("/recipes/{recipeID}/scale", controllers.RecipeScale(recipesService, logg))

		r.Route("/batches/{batchID}", func(r chi.Router) {
			r.Post("/consume", controllers.BatchConsume(consumptionService, logg))
			r.Post("/costs/recompute", controllers.BatchCostRecompute(costsService, logg))
			r.Get("/costs", controllers.BatchCosts(costsService, logg))
		})
	})

	return r
}
