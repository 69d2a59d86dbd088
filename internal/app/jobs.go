package app

import (
	"errors"
	"time"
)

var ErrJobNotFound = errors.New("job not found")

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// For progress
	Phase     string `json:"phase,omitempty"` // "crawl" | "capture"
	Page      string `json:"page,omitempty"`
	Processed int    `json:"processed,omitempty"`
	Total     int    `json:"total,omitempty"`

	// For results
	URLs []string `json:"urls,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

func (s JobStatus) Finished() bool {
	return s == JobDone || s == JobFailed || s == JobCanceled
}

// Job is a crawl-then-capture run over one site.
type Job struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Target    string        `json:"target"`
	Status    JobStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at,omitempty"`
	Events    chan JobEvent `json:"-"`

	// Pages were captured successfully, Failed could not be crawled or captured.
	Pages  []string `json:"pages,omitempty"`
	Failed []string `json:"failed,omitempty"`

	// URLs is the sorted union of API URLs under Target across all pages.
	URLs []string `json:"urls,omitempty"`
}
