// Package api exposes the image registry over HTTP: register a firmware
// image by uploading it, then inspect what its embedded record said.
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the chi router for the server. Split out from StartServer
// so tests can drive the full middleware stack without a listener.
func NewRouter(server *Server) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.Handler())

	m := server.metrics
	r.Get("/health", m.InstrumentHandler("GET", "/health", server.handleHealth))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/images", m.InstrumentHandler("GET", "/api/v1/images", server.handleListImages))
		r.Post("/images", m.InstrumentHandler("POST", "/api/v1/images", server.handleRegisterImage))
		r.Get("/images/{id}", m.InstrumentHandler("GET", "/api/v1/images/{id}", server.handleGetImage))
		r.Delete("/images/{id}", m.InstrumentHandler("DELETE", "/api/v1/images/{id}", server.handleDeleteImage))
	})

	return r
}

// StartServer starts the HTTP server with all routes configured
func StartServer(store Store, config ServerConfig) error {
	metrics := NewMetrics()
	server := NewServer(store, config, metrics)
	router := NewRouter(server)

	addr := fmt.Sprintf(":%d", config.Port)
	fmt.Printf("Starting infomem REST API server on %s\n", addr)
	fmt.Printf("Metrics available at: http://localhost:%d/metrics\n", config.Port)
	return http.ListenAndServe(addr, router)
}
