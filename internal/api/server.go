// Package api serves stored crop calendars over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chrissnell/ctsmpost/internal/log"
	"github.com/chrissnell/ctsmpost/internal/store"
	"github.com/chrissnell/ctsmpost/pkg/responseformat"
)

// CalendarStore is the part of the store the API serves.
type CalendarStore interface {
	Cases(ctx context.Context) ([]string, error)
	Runs(ctx context.Context) ([]store.Run, error)
	Run(ctx context.Context, id string) (store.Run, error)
	Calendars(ctx context.Context, runID, pft string) ([]store.Season, error)
	Failures(ctx context.Context, runID string) ([]store.Failure, error)
	DeleteRun(ctx context.Context, id string) error
}

// Server represents the calendar REST server
type Server struct {
	ctx       context.Context
	wg        *sync.WaitGroup
	store     CalendarStore
	formatter *responseformat.Formatter
	logger    *zap.SugaredLogger
	errs      chan error
	Server    http.Server
}

// NewServer creates a server listening on addr once started.
func NewServer(ctx context.Context, wg *sync.WaitGroup, addr string, calendars CalendarStore, logger *zap.SugaredLogger) *Server {
	s := &Server{
		ctx:       ctx,
		wg:        wg,
		store:     calendars,
		formatter: responseformat.NewFormatter(),
		logger:    logger,
		errs:      make(chan error, 1),
	}
	s.Server.Addr = addr
	s.Server.Handler = s.setupRouter()
	s.Server.ReadHeaderTimeout = 10 * time.Second
	return s
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler { return s.Server.Handler }

// Start runs the server in the background until the context is cancelled.
func (s *Server) Start() {
	s.logger.Infow("starting calendar API", "addr", s.Server.Addr)
	s.wg.Add(2)

	go func() {
		defer s.wg.Done()
		if err := s.Server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("calendar API server error: %v", err)
			s.errs <- fmt.Errorf("calendar API on %s: %w", s.Server.Addr, err)
		}
	}()

	go func() {
		defer s.wg.Done()
		<-s.ctx.Done()
		s.logger.Info("shutting down the calendar API...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Server.Shutdown(shutdownCtx)
	}()
}

// Errors receives the error that stopped the server, if it failed rather
// than being shut down.
func (s *Server) Errors() <-chan error { return s.errs }

// setupRouter configures the HTTP router with all endpoints
func (s *Server) setupRouter() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.getHealth).Methods(http.MethodGet)
	router.HandleFunc("/cases", s.getCases).Methods(http.MethodGet)
	router.HandleFunc("/runs", s.getRuns).Methods(http.MethodGet)
	router.HandleFunc("/runs/{run}", s.getRun).Methods(http.MethodGet)
	router.HandleFunc("/runs/{run}", s.deleteRun).Methods(http.MethodDelete)
	router.HandleFunc("/runs/{run}/calendars", s.getCalendars).Methods(http.MethodGet)
	router.HandleFunc("/runs/{run}/calendars/{pft}", s.getCalendars).Methods(http.MethodGet)
	router.HandleFunc("/runs/{run}/failures", s.getFailures).Methods(http.MethodGet)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.formatter.WriteError(w, req, http.StatusNotFound, "no such endpoint")
	})
	return s.logRequests(router)
}

// logRequests wraps h with an access log line per request.
func (s *Server) logRequests(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		m := httpsnoop.CaptureMetrics(h, w, req)
		log.LogHTTPRequest(s.logger, log.HTTPLogEntry{
			Method:     req.Method,
			Path:       req.URL.Path,
			Status:     m.Code,
			Duration:   m.Duration,
			Size:       m.Written,
			RemoteAddr: req.RemoteAddr,
			UserAgent:  req.UserAgent(),
		})
	})
}
