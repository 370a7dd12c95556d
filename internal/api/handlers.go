package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"morapack/internal/opt"
	"morapack/internal/store"
)

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler pings the store when it supports it.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	type pinger interface {
		Ping(ctx context.Context) error
	}
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, r, http.StatusServiceUnavailable, "Not Ready", err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// RunsHandler lists stored reports, newest first.
func (s *Server) RunsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := parseLimit(q)
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, "Invalid limit", err.Error())
		return
	}
	items, err := s.Store.ListReports(r.Context(), q.Get("dataset"), limit)
	if err != nil {
		writeProblem(w, r, http.StatusInternalServerError, "List runs failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) RunByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := validateRunID(id); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "Invalid run id", err.Error())
		return
	}
	rep, err := s.Store.GetReport(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, r, http.StatusNotFound, "Run not found", "")
		return
	}
	if err != nil {
		writeProblem(w, r, http.StatusInternalServerError, "Get run failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// PlanMetricsHandler exposes the in-process search metrics of a dataset.
// Weight snapshots are only included when includeWeights is set.
func (s *Server) PlanMetricsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dataset := q.Get("dataset")
	if dataset == "" {
		writeJSON(w, http.StatusOK, map[string]any{"datasets": opt.Datasets()})
		return
	}
	includeWeights := parseBool(q.Get("includeWeights"))

	type item struct {
		RunID string `json:"runId"`
		opt.Metrics
	}
	items := []item{}
	for runID, m := range opt.GetMetrics(dataset) {
		if !includeWeights {
			m.Snapshots = nil
		}
		items = append(items, item{RunID: runID, Metrics: m})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].RunID < items[j].RunID })
	writeJSON(w, http.StatusOK, map[string]any{"dataset": dataset, "items": items})
}
