package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/apiextract/internal/app"
	"github.com/raysh454/apiextract/internal/logging"
	"github.com/raysh454/apiextract/internal/store"
)

// handleHealth godoc
// @Summary Liveness probe
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleExtractURLs godoc
// @Summary Capture the API URLs called by the configured page
// @Description Loads the configured base URL in headless Chrome, waits for network idle and returns
// @Description the distinct XHR/fetch URLs that start with the base URL.
// @Tags extract
// @Produce json
// @Success 200 {object} ExtractSuccessResponse
// @Failure 500 {object} ExtractErrorResponse
// @Router /extract-urls [get]
func (s *Server) handleExtractURLs(w http.ResponseWriter, r *http.Request) {
	rec, err := s.orchestrator.Extract(r.Context())
	if err != nil {
		s.logger.Warn("extracting urls", logging.Field{Key: "error", Value: err.Error()})
		writeJSON(w, http.StatusInternalServerError, ExtractErrorResponse{Status: "error", Message: err.Error()})
		return
	}
	s.logger.Info("extracted urls",
		logging.Field{Key: "capture_id", Value: rec.ID},
		logging.Field{Key: "count", Value: len(rec.URLs)})
	writeJSON(w, http.StatusOK, ExtractSuccessResponse{Status: "success", Data: rec.URLs})
}

// Capture history

func (s *Server) historyStore(w http.ResponseWriter) *store.Store {
	st := s.orchestrator.Store()
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "capture history is disabled")
	}
	return st
}

// handleListCaptures godoc
// @Summary List recent captures
// @Tags captures
// @Produce json
// @Param limit query int false "Maximum number of captures"
// @Success 200 {array} capture.Record
// @Failure 503 {object} ErrorResponse
// @Router /captures [get]
func (s *Server) handleListCaptures(w http.ResponseWriter, r *http.Request) {
	st := s.historyStore(w)
	if st == nil {
		return
	}

	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}

	recs, err := st.List(r.Context(), limit)
	if err != nil {
		s.logger.Warn("listing captures", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleGetCapture godoc
// @Summary Get one capture with its URLs
// @Tags captures
// @Produce json
// @Param id path string true "Capture ID"
// @Success 200 {object} capture.Record
// @Failure 404 {object} ErrorResponse
// @Router /captures/{id} [get]
func (s *Server) handleGetCapture(w http.ResponseWriter, r *http.Request) {
	st := s.historyStore(w)
	if st == nil {
		return
	}

	rec, err := st.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrCaptureNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Warn("getting capture", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDiffCaptures godoc
// @Summary Compare the URLs of two captures
// @Tags captures
// @Produce json
// @Param from path string true "Older capture ID"
// @Param to path string true "Newer capture ID"
// @Success 200 {object} store.Diff
// @Failure 404 {object} ErrorResponse
// @Router /captures/{from}/diff/{to} [get]
func (s *Server) handleDiffCaptures(w http.ResponseWriter, r *http.Request) {
	st := s.historyStore(w)
	if st == nil {
		return
	}

	d, err := st.Diff(r.Context(), chi.URLParam(r, "from"), chi.URLParam(r, "to"))
	if errors.Is(err, store.ErrCaptureNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Warn("diffing captures", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Jobs

// handleStartExtractJob godoc
// @Summary Crawl a site and capture every page in the background
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body StartExtractJobRequest false "Target site, defaults to the configured base URL"
// @Success 202 {object} app.Job
// @Failure 400 {object} ErrorResponse
// @Router /jobs/extract [post]
func (s *Server) handleStartExtractJob(w http.ResponseWriter, r *http.Request) {
	var body StartExtractJobRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn("decoding start job body", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	job, err := s.orchestrator.StartExtractJob(body.Target)
	if err != nil {
		s.logger.Warn("starting extract job", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// handleListJobs godoc
// @Summary List jobs
// @Tags jobs
// @Produce json
// @Success 200 {array} app.Job
// @Router /jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orchestrator.ListJobs())
}

// handleGetJob godoc
// @Summary Get a job
// @Tags jobs
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} app.Job
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{jobID} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := s.orchestrator.GetJob(jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleCancelJob godoc
// @Summary Cancel a job
// @Tags jobs
// @Param jobID path string true "Job ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{jobID} [delete]
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if err := s.orchestrator.CancelJob(jobID); errors.Is(err, app.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID})
	w.WriteHeader(http.StatusNoContent)
}
