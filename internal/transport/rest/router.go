package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/employee"
	"github.com/frahmantamala/employee-directory/internal/metrics"
	"github.com/frahmantamala/employee-directory/internal/transport"
	"github.com/frahmantamala/employee-directory/internal/transport/middleware"
	"github.com/frahmantamala/employee-directory/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultBasePath = "/api"

type RouterDeps struct {
	DB              Database
	EmployeeHandler *employee.Handler
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
	// Gatherer backs the metrics endpoint; nil leaves it unmounted.
	Gatherer    prometheus.Gatherer
	MetricsPath string
	BasePath    string
}

func RegisterAllRoutes(router *chi.Mux, deps RouterDeps) {
	healthHandler := NewHealthHandler(deps.DB)
	base := transport.NewBaseHandler(deps.Logger)

	basePath := deps.BasePath
	if basePath == "" {
		basePath = DefaultBasePath
	}

	// Apply global middleware
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID(base.Logger))
	router.Use(middleware.Metrics(deps.Metrics))
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RecoveryMiddleware(base))
	router.Use(chiMiddleware.StripSlashes)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, r, internal.NewNotFoundError("Not found.", internal.ErrCodeNotFound))
	})

	// Serve the OpenAPI document at root (outside API prefix)
	router.Get(swagger.DocumentPath, swagger.DocumentHandler)
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	if deps.Gatherer != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	router.Route(basePath, func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Get("/ping", healthHandler.Ping)

		if h := deps.EmployeeHandler; h != nil {
			r.Route("/employees", func(er chi.Router) {
				er.Get("/", h.List)
				er.Post("/", h.Create)

				// static segments win over {id} in chi's tree
				er.Get("/export_pdf", h.ExportPDF)
				er.Get("/export_excel", h.ExportExcel)

				er.Get("/{id}", h.Retrieve)
				er.Put("/{id}", h.Update)
				er.Patch("/{id}", h.PartialUpdate)
				er.Delete("/{id}", h.Delete)
			})
		}
	})
}
