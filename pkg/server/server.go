// Package server exposes the usage engine over the simple JSON datasource
// protocol the dashboard front end speaks, plus health and scrape endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/levenlabs/go-lflag"

	"github.com/BuongiornoTexas/pwdusage/pkg/engine"
	"github.com/BuongiornoTexas/pwdusage/pkg/log"
	"github.com/BuongiornoTexas/pwdusage/pkg/metrics"
)

// statusUpstreamError is the non-standard status the front end treats as
// "engine could not answer". Kept distinct from 500 so dashboard panels can
// tell a bad query from a broken engine.
const statusUpstreamError = 599

// Server handles the HTTP API for the usage engine.
type Server struct {
	engine *engine.Engine

	listenAddr string
	serverName string
	httpServer *http.Server
}

// Configured initializes the Server around an engine. It uses lflag to
// register command-line flags for configuration.
func Configured(e *engine.Engine) *Server {
	srv := &Server{
		engine:     e,
		serverName: "pwdusage",
	}

	port := os.Getenv("USAGE_PORT")
	if port == "" {
		port = "9050"
	}
	bind := os.Getenv("USAGE_BIND_ADDRESS")

	listenAddr := lflag.String("http-listen", bind+":"+port, "HTTP server listen address")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /usage_engine", s.handleReload)
	mux.HandleFunc("POST /usage_engine/query", s.handleQuery)
	mux.HandleFunc("POST /usage_engine/metrics", s.handleListMetrics)
	mux.HandleFunc("POST /usage_engine/export", s.handleExport)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("/", s.handleNotFound)
	return s.serverNameMiddleware(gziphandler.GzipHandler(mux))
}

// Run starts the HTTP server and blocks until the context is canceled or an
// error occurs. It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, "not found", http.StatusNotFound)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) serverNameMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}
