package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/chrissnell/ctsmpost/internal/store"
)

// RunDetail is a run together with its failed categories.
type RunDetail struct {
	store.Run
	Failures []store.Failure `json:"failures"`
}

func (s *Server) getHealth(w http.ResponseWriter, req *http.Request) {
	s.formatter.WriteResponse(w, req, map[string]string{"status": "ok"})
}

func (s *Server) getCases(w http.ResponseWriter, req *http.Request) {
	cases, err := s.store.Cases(req.Context())
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.formatter.WriteResponse(w, req, cases)
}

func (s *Server) getRuns(w http.ResponseWriter, req *http.Request) {
	runs, err := s.store.Runs(req.Context())
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.formatter.WriteResponse(w, req, runs)
}

func (s *Server) getRun(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["run"]
	run, err := s.store.Run(req.Context(), id)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	failures, err := s.store.Failures(req.Context(), id)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.formatter.WriteResponse(w, req, RunDetail{Run: run, Failures: failures})
}

func (s *Server) deleteRun(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["run"]
	if err := s.store.DeleteRun(req.Context(), id); err != nil {
		s.fail(w, req, err)
		return
	}
	s.logger.Infow("deleted run", "run", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getCalendars(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	seasons, err := s.store.Calendars(req.Context(), vars["run"], vars["pft"])
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.formatter.WriteResponse(w, req, seasons)
}

func (s *Server) getFailures(w http.ResponseWriter, req *http.Request) {
	failures, err := s.store.Failures(req.Context(), mux.Vars(req)["run"])
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.formatter.WriteResponse(w, req, failures)
}

// fail maps store errors onto HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, req *http.Request, err error) {
	if errors.Is(err, store.ErrRunNotFound) {
		s.formatter.WriteError(w, req, http.StatusNotFound, "run not found")
		return
	}
	s.logger.Errorw("calendar query failed", "path", req.URL.Path, "error", err)
	s.formatter.WriteError(w, req, http.StatusInternalServerError, "error reading calendars")
}
