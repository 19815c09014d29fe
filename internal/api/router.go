// Package api assembles the HTTP routes of the banking profile service.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/iQube-Protocol/moneypenny/internal/api/handlers"
	"github.com/iQube-Protocol/moneypenny/internal/api/middleware"
	"github.com/iQube-Protocol/moneypenny/internal/gcsuploader"
	"github.com/iQube-Protocol/moneypenny/internal/jobs"
	"github.com/iQube-Protocol/moneypenny/internal/metrics"
	"github.com/iQube-Protocol/moneypenny/internal/pipeline"
	"github.com/iQube-Protocol/moneypenny/internal/records"
	"github.com/rs/zerolog"
)

// Deps are the collaborators behind the routes. Only Service is required.
type Deps struct {
	Service   *pipeline.Service
	Archive   gcsuploader.RawArchive
	Publisher jobs.Publisher
	JobStore  jobs.JobStore
	History   records.HistoryReader
	Now       func() time.Time
}

// NewRouter returns the fully wrapped handler.
func NewRouter(log zerolog.Logger, deps Deps) http.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	bank := handlers.NewBankHandler(deps.Service, deps.Archive, deps.Publisher)
	prof := handlers.NewProfileHandler(deps.Service, deps.History)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", method(http.MethodGet, handlers.Health(deps.Now)))

	// Bank endpoints
	mux.HandleFunc("/bank/ingest", method(http.MethodPost, bank.Ingest))
	mux.HandleFunc("/bank/extract", method(http.MethodPost, bank.Extract))
	mux.HandleFunc("/bank/bulk_extract", method(http.MethodPost, bank.BulkExtract))
	mux.HandleFunc("/bank/extract/jobs", method(http.MethodPost, bank.EnqueueExtract))

	// Profile endpoints
	mux.HandleFunc("/profile/aggregate", method(http.MethodPost, prof.Aggregate))
	mux.HandleFunc("/profile/history", method(http.MethodGet, prof.History))

	// Jobs endpoints
	if deps.JobStore != nil {
		jobsHandler := handlers.NewJobsHandler(deps.JobStore)

		mux.HandleFunc("/api/jobs", method(http.MethodGet, jobsHandler.ListJobs))
		mux.HandleFunc("/api/jobs/", method(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		}))
	}

	mux.Handle("/metrics", metrics.Handler())

	return middleware.Chain(log, mux)
}

func method(allowed string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != allowed {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}
