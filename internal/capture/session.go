package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/raysh454/apiextract/internal/logging"
)

// Config bounds capture sessions.
type Config struct {
	// Timeout caps one session, including any wait for a free slot, up to
	// network idle. Zero disables it.
	Timeout time.Duration

	// MaxConcurrent caps sessions running at once across the process. Zero or
	// negative means unlimited.
	MaxConcurrent int64
}

// Record is the outcome of one capture session.
type Record struct {
	ID         string    `json:"id"`
	BaseURL    string    `json:"base_url"`
	Target     string    `json:"target"`
	URLs       []string  `json:"urls"`
	Requests   int       `json:"requests"`
	Responses  int       `json:"responses"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// Capturer runs capture sessions against an Engine. It holds no per-session
// state, so one Capturer serves concurrent callers.
type Capturer struct {
	engine Engine
	cfg    Config
	sem    *semaphore.Weighted
	logger logging.Logger
}

func NewCapturer(engine Engine, cfg Config, logger logging.Logger) *Capturer {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Capturer{
		engine: engine,
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "capture"}),
	}
	if cfg.MaxConcurrent > 0 {
		c.sem = semaphore.NewWeighted(cfg.MaxConcurrent)
	}
	return c
}

// Capture navigates to base and returns the API URLs under base.
func (c *Capturer) Capture(ctx context.Context, base string) (*Record, error) {
	return c.CaptureTarget(ctx, base, base)
}

// CaptureTarget navigates to target and returns the API URLs under base.
// On any failure no partial result is returned. Engine errors are passed
// through unchanged so callers can surface their text.
func (c *Capturer) CaptureTarget(ctx context.Context, target, base string) (*Record, error) {
	if strings.TrimSpace(base) == "" {
		return nil, ErrEmptyBase
	}
	if target == "" {
		target = base
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			sessionsTotal.WithLabelValues(outcome(err)).Inc()
			return nil, fmt.Errorf("waiting for capture slot: %w", err)
		}
		defer c.sem.Release(1)
	}

	rec := &Record{
		ID:        uuid.New().String(),
		BaseURL:   base,
		Target:    target,
		StartedAt: time.Now().UTC(),
	}
	log := c.logger.With(logging.Field{Key: "session", Value: rec.ID})
	log.Info("capture started", logging.Field{Key: "target", Value: target})

	sessionsInFlight.Inc()
	recorder := NewRecorder()
	err := c.engine.Observe(ctx, target, recorder)
	sessionsInFlight.Dec()

	elapsed := time.Since(rec.StartedAt)
	sessionDuration.Observe(elapsed.Seconds())
	sessionsTotal.WithLabelValues(outcome(err)).Inc()

	if err != nil {
		log.Error("capture failed",
			logging.Field{Key: "target", Value: target},
			logging.Field{Key: "elapsed", Value: elapsed.String()},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, err
	}

	rec.Requests = len(recorder.Requests())
	rec.Responses = len(recorder.Responses())
	rec.URLs = recorder.Result(base)
	rec.DurationMS = elapsed.Milliseconds()
	urlsCaptured.Observe(float64(len(rec.URLs)))

	log.Info("capture finished",
		logging.Field{Key: "urls", Value: len(rec.URLs)},
		logging.Field{Key: "requests", Value: rec.Requests},
		logging.Field{Key: "responses", Value: rec.Responses},
		logging.Field{Key: "elapsed", Value: elapsed.String()})
	return rec, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
