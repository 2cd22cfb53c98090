/*
Package handler provides the local debug HTTP server of the client.

This file defines the Router, applying request id, logging and panic recovery middleware
before delegating to the health, metrics and state handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"watchparty/internal/pkg/logx"
	"watchparty/internal/pkg/resp"
)

// Router sets up the debug routing table.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "watchparty",
			"server":  deps.Config.ServerURL,
		}
		resp.RespondSuccess(w, r, data)
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/state", HandleState(deps))

	return r
}
