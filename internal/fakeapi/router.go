package fakeapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(s *Server, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestIDResponse)
	r.Use(RequestLogger(logger))
	r.Use(Recovery(logger))
	r.Use(Maintenance(s.maintenance.Load))

	r.Get("/health", s.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RequireAPIKey(s.opts.APIKey))

		for _, kind := range []string{KindConjunctions, KindEphemeris, KindDataProducts} {
			r.Route("/"+kind, func(r chi.Router) {
				r.Post("/search", s.SubmitSearch(kind))
				r.Get("/requests/{requestId}", s.RequestStatus(kind))
				r.Delete("/requests/{requestId}", s.CancelSearch(kind))
				r.Get("/requests/{requestId}/data", s.RequestData(kind))
				r.Post("/requests/{requestId}/data", s.RequestData(kind))
			})
		}

		r.Post("/utils/describe/query/conjunction", s.DescribeQuery(KindConjunctions))
		r.Post("/utils/describe/query/ephemeris", s.DescribeQuery(KindEphemeris))
		r.Post("/utils/describe/query/data_products", s.DescribeQuery(KindDataProducts))

		r.Route("/utils/admin/search_requests", func(r chi.Router) {
			r.Use(RequireAPIKey(s.opts.AdminAPIKey))
			r.Get("/", s.ListRequests)
			r.Delete("/{requestId}", s.DeleteRequest)
		})

		r.Get("/data_sources", s.ListDataSources)
		r.Get("/data_sources/{identifier}", s.GetDataSource)
		r.Delete("/data_sources/{identifier}", s.DeleteDataSource)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "endpoint not found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	return r
}
