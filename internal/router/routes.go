package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	v1 "github.com/TRIBUI106/czGDriveDownloader/api/v1"
	"github.com/TRIBUI106/czGDriveDownloader/internal/auth"
	"github.com/TRIBUI106/czGDriveDownloader/internal/progress"
	"github.com/TRIBUI106/czGDriveDownloader/internal/service"
)

// Pinger reports whether the upstream drive endpoint is reachable. Readiness
// fails while it errors.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New sets up the application routes and required middleware.
func New(logger *slog.Logger, batchSvc service.Batch, bus *progress.Bus, remote Pinger) *mux.Router {

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.Error("write healthz response", "err", err)
		}
	}).Methods("GET")

	r.HandleFunc("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if remote != nil {
			if err := remote.Ping(req.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	batchHandler := v1.NewBatchHandler(logger, batchSvc)
	eventsHandler := v1.NewEventsHandler(logger, bus)

	r.Use(v1.RequestID)
	r.Use(batchHandler.Log)
	r.Use(auth.Middleware)

	api := r.PathPrefix("/v1").Subrouter()

	// GETs
	get := api.Methods("GET").Subrouter()
	get.HandleFunc("/batches", batchHandler.ListBatches)
	get.HandleFunc("/batches/{id}", batchHandler.GetBatch)
	get.HandleFunc("/batches/{id}/tasks", batchHandler.ListBatchTasks)
	get.HandleFunc("/tasks", batchHandler.ListTasks)
	get.HandleFunc("/tasks/{id}", batchHandler.GetTask)
	get.Handle("/events", eventsHandler)

	// POSTs
	post := api.Methods("POST").Subrouter()
	post.HandleFunc("/batches", batchHandler.AddBatch)
	post.Use(v1.MiddlewareBatchValidation)

	// DELETEs
	del := api.Methods("DELETE").Subrouter()
	del.HandleFunc("/tasks/{id}", batchHandler.DeleteTask)

	return r
}
