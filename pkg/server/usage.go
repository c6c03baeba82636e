package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/BuongiornoTexas/pwdusage/pkg/engine"
	"github.com/BuongiornoTexas/pwdusage/pkg/log"
	"github.com/BuongiornoTexas/pwdusage/pkg/metrics"
	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

// queryRequest is the JSON datasource query body: a time range plus targets,
// of which only the first target's payload is honoured.
type queryRequest struct {
	Range struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"range"`
	Targets []struct {
		Target  string             `json:"target"`
		Payload types.QueryPayload `json:"payload"`
	} `json:"targets"`
}

// handleReload reloads the configuration. The datasource front end calls this
// on its health check, which doubles as the manual reload hook.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.engine.Reload(ctx); err != nil {
		metrics.ObserveReload(metrics.ResultError)
		log.Ctx(ctx).ErrorContext(ctx, "configuration reload failed", slog.Any("error", err))
		writeJSONError(w, err.Error(), statusUpstreamError)
		return
	}
	metrics.ObserveReload(metrics.ResultSuccess)
	writeJSON(w, struct {
		Status string `json:"status"`
	}{Status: "configuration loaded"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	began := time.Now()

	q, err := parseQuery(r)
	if err != nil {
		metrics.ObserveQuery(metrics.ResultError, time.Since(began))
		metrics.IncQueryError("request")
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	table, err := s.engine.Usage(ctx, q)
	if err != nil {
		metrics.ObserveQuery(metrics.ResultError, time.Since(began))
		metrics.IncQueryError(errorKind(err))
		log.Ctx(ctx).ErrorContext(ctx, "usage query failed", slog.Any("error", err))
		writeJSONError(w, err.Error(), statusUpstreamError)
		return
	}

	metrics.ObserveQuery(metrics.ResultSuccess, time.Since(began))
	writeJSON(w, []*types.Table{table})
}

// handleListMetrics answers the datasource's metric discovery call. The
// engine exposes a single queryable target.
func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, []struct {
		Label string `json:"label"`
		Value string `json:"value"`
	}{
		{Label: "Usage", Value: "usage"},
	})
}

func parseQuery(r *http.Request) (engine.Query, error) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return engine.Query{}, fmt.Errorf("invalid query body: %w", err)
	}

	start, err := time.Parse(time.RFC3339, req.Range.From)
	if err != nil {
		return engine.Query{}, fmt.Errorf("invalid range start: %w", err)
	}
	stop, err := time.Parse(time.RFC3339, req.Range.To)
	if err != nil {
		return engine.Query{}, fmt.Errorf("invalid range stop: %w", err)
	}

	q := engine.Query{Start: start, Stop: stop}
	if len(req.Targets) > 0 {
		q.Payload = req.Targets[0].Payload
	}
	return q, nil
}

// errorKind buckets a query failure for the error counter.
func errorKind(err error) string {
	var configErr *types.ConfigError
	var rangeErr *types.DateOutOfRangeError
	var ambiguousErr *types.AmbiguousScheduleError
	var noScheduleErr *types.NoScheduleError
	switch {
	case errors.As(err, &configErr):
		return "config"
	case errors.Is(err, types.ErrUpstreamData):
		return "upstream"
	case errors.As(err, &rangeErr):
		return "range"
	case errors.As(err, &ambiguousErr), errors.As(err, &noScheduleErr):
		return "schedule"
	default:
		return "internal"
	}
}
