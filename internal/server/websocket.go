package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/raysh454/apiextract/internal/app"
	"github.com/raysh454/apiextract/internal/logging"
)

// handleExtractWS starts an extract job for ?target= and streams its events.
// Closing the socket cancels the job.
func (s *Server) handleExtractWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	job, err := s.orchestrator.StartExtractJob(r.URL.Query().Get("target"))
	if err != nil {
		s.logger.Warn("starting extract job", logging.Field{Key: "error", Value: err.Error()})
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return
	}

	jobID := job.ID
	go watchClose(conn, func() {
		// Canceling a finished job is a no-op, so a normal close is harmless.
		if err := s.orchestrator.CancelJob(jobID); err == nil {
			s.logger.Debug("websocket closed, job canceled", logging.Field{Key: "job_id", Value: jobID})
		}
	})

	if !s.streamJob(conn, job) {
		_ = s.orchestrator.CancelJob(jobID)
	}
}

// handleJobWS follows an existing job until it ends.
func (s *Server) handleJobWS(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := s.orchestrator.GetJob(jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	go watchClose(conn, func() {})
	s.streamJob(conn, job)
}

// watchClose reads from conn until the peer goes away, then calls onGone.
// Reading also lets gorilla answer pings and close frames.
func watchClose(conn *websocket.Conn, onGone func()) {
	for {
		if _, _, err := conn.NextReader(); err != nil {
			onGone()
			return
		}
	}
}

// streamJob writes the job snapshot followed by its events. It reports false
// if the client went away before the job ended.
func (s *Server) streamJob(conn *websocket.Conn, job *app.Job) bool {
	if err := conn.WriteJSON(job); err != nil {
		return false
	}

	events, err := s.orchestrator.JobEvents(job.ID)
	if err != nil {
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return true
	}
	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			s.logger.Debug("websocket client gone", logging.Field{Key: "job_id", Value: job.ID})
			return false
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
	return true
}
