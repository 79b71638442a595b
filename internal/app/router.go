package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom-hq/stockroom/internal/auth"
	"github.com/stockroom-hq/stockroom/internal/importer"
	"github.com/stockroom-hq/stockroom/internal/inventory"
	"github.com/stockroom-hq/stockroom/internal/masterdata/categories"
	"github.com/stockroom-hq/stockroom/internal/masterdata/products"
	"github.com/stockroom-hq/stockroom/internal/masterdata/suppliers"
	"github.com/stockroom-hq/stockroom/internal/masterdata/warehouses"
	"github.com/stockroom-hq/stockroom/internal/observability"
	"github.com/stockroom-hq/stockroom/internal/procurement"
	"github.com/stockroom-hq/stockroom/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	AuthHandler        *auth.Handler
	CategoriesHandler  *categories.Handler
	SuppliersHandler   *suppliers.Handler
	WarehousesHandler  *warehouses.Handler
	ProductsHandler    *products.Handler
	InventoryHandler   *inventory.Handler
	ProcurementHandler *procurement.Handler
	ImportHandler      *importer.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
	Middlewares        []func(http.Handler) http.Handler
}

// NewRouter constructs the chi.Router with Stockroom defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range params.Middlewares {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/categories", params.CategoriesHandler.MountRoutes)
	r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
	r.Route("/warehouses", params.WarehousesHandler.MountRoutes)
	r.Route("/products", params.ProductsHandler.MountRoutes)
	r.Route("/stock", params.InventoryHandler.MountRoutes)
	r.Route("/purchase-orders", params.ProcurementHandler.MountRoutes)
	if params.ImportHandler != nil {
		r.Route("/import", params.ImportHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
