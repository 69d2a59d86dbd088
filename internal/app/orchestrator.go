package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/apiextract/internal/capture"
	"github.com/raysh454/apiextract/internal/crawler"
	"github.com/raysh454/apiextract/internal/logging"
	"github.com/raysh454/apiextract/internal/store"
	"github.com/raysh454/apiextract/internal/urlutil"
)

// Crawler discovers the pages of a site.
type Crawler interface {
	Crawl(ctx context.Context, base string) (*crawler.Result, error)
}

// Orchestrator ties the capturer, crawler and optional history store together
// and owns the background extract jobs.
type Orchestrator struct {
	cfg      *Config
	capturer *capture.Capturer
	crawler  Crawler
	store    *store.Store
	logger   logging.Logger
	closers  []io.Closer

	baseCtx   context.Context
	cancelAll context.CancelFunc

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
	wg         sync.WaitGroup
}

// NewOrchestrator wires the components. st may be nil to disable history.
func NewOrchestrator(cfg *Config, capturer *capture.Capturer, cr Crawler, st *store.Store, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cfg:        cfg,
		capturer:   capturer,
		crawler:    cr,
		store:      st,
		logger:     logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
		baseCtx:    ctx,
		cancelAll:  cancel,
		jobs:       make(map[string]*Job),
		jobCancels: make(map[string]context.CancelFunc),
	}
}

// BaseURL is the configured capture target.
func (o *Orchestrator) BaseURL() string {
	return o.cfg.BaseURL
}

// Store returns the history store, nil when disabled.
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// Extract captures the configured base URL once.
func (o *Orchestrator) Extract(ctx context.Context) (*capture.Record, error) {
	rec, err := o.capturer.Capture(ctx, o.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	o.remember(ctx, rec)
	return rec, nil
}

// remember saves rec to history. A failed save is logged, never surfaced.
func (o *Orchestrator) remember(ctx context.Context, rec *capture.Record) {
	if o.store == nil {
		return
	}
	if err := o.store.Save(context.WithoutCancel(ctx), rec); err != nil {
		o.logger.Warn("saving capture to history",
			logging.Field{Key: "id", Value: rec.ID},
			logging.Field{Key: "error", Value: err.Error()})
	}
}

// Crawl runs the crawler directly.
func (o *Orchestrator) Crawl(ctx context.Context, target string) (*crawler.Result, error) {
	if target == "" {
		target = o.cfg.BaseURL
	}
	return o.crawler.Crawl(ctx, target)
}

// ─── Jobs ──────────────────────────────────────────────────────────────

func (o *Orchestrator) emitJobEvent(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	job, ok := o.jobs[jobID]
	if !ok || job.Events == nil {
		return
	}
	ev.JobID = jobID

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) setStatus(jobID string, status JobStatus, errMsg string) {
	o.jobsMu.Lock()
	if j, ok := o.jobs[jobID]; ok {
		j.Status = status
		j.Error = errMsg
	}
	o.jobsMu.Unlock()
	o.emitJobEvent(jobID, JobEvent{Type: JobEventStatus, Status: status, Error: errMsg})
}

// StartExtractJob crawls target (the base URL when empty) and captures every
// page found, in the background.
func (o *Orchestrator) StartExtractJob(target string) (*Job, error) {
	if target == "" {
		target = o.cfg.BaseURL
	}
	if !urlutil.IsHTTP(target) {
		return nil, fmt.Errorf("invalid target %q: %w", target, urlutil.ErrNotHTTP)
	}
	o.pruneJobs()

	jobID := uuid.New().String()
	job := &Job{
		ID:        jobID,
		Type:      "extract",
		Target:    target,
		Status:    JobPending,
		StartedAt: time.Now().UTC(),
		Events:    make(chan JobEvent, 64),
	}

	jobCtx, cancel := context.WithCancel(o.baseCtx)
	o.jobsMu.Lock()
	o.jobs[jobID] = job
	o.jobCancels[jobID] = cancel
	o.jobsMu.Unlock()

	o.emitJobEvent(jobID, JobEvent{Type: JobEventStatus, Status: JobPending})

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			cancel()
			o.jobsMu.Lock()
			if j, ok := o.jobs[jobID]; ok {
				j.EndedAt = time.Now().UTC()
				// Close events channel so websocket loop can terminate cleanly
				close(j.Events)
			}
			delete(o.jobCancels, jobID)
			o.jobsMu.Unlock()
		}()

		o.setStatus(jobID, JobRunning, "")
		urls, err := o.runExtractJob(jobCtx, jobID, target)

		switch {
		case jobCtx.Err() != nil:
			o.setStatus(jobID, JobCanceled, jobCtx.Err().Error())
		case err != nil:
			o.logger.Error("extract job failed",
				logging.Field{Key: "job_id", Value: jobID},
				logging.Field{Key: "error", Value: err.Error()})
			o.setStatus(jobID, JobFailed, err.Error())
		default:
			o.jobsMu.Lock()
			if j, ok := o.jobs[jobID]; ok {
				j.Status = JobDone
				j.URLs = urls
			}
			o.jobsMu.Unlock()
			o.emitJobEvent(jobID, JobEvent{Type: JobEventResult, Status: JobDone, URLs: urls})
		}
	}()

	o.logger.Info("started extract job",
		logging.Field{Key: "job_id", Value: jobID},
		logging.Field{Key: "target", Value: target})
	return o.GetJob(jobID)
}

func (o *Orchestrator) runExtractJob(ctx context.Context, jobID, target string) ([]string, error) {
	o.emitJobEvent(jobID, JobEvent{Type: JobEventProgress, Phase: "crawl", Page: target})
	res, err := o.crawler.Crawl(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("crawling %s: %w", target, err)
	}

	o.jobsMu.Lock()
	if j, ok := o.jobs[jobID]; ok {
		j.Failed = append(j.Failed, res.Failed...)
	}
	o.jobsMu.Unlock()

	seen := make(map[string]struct{})
	var pages []string
	total := len(res.Visited)
	for i, page := range res.Visited {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		rec, err := o.capturer.CaptureTarget(ctx, page, target)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			o.logger.Warn("capturing page failed",
				logging.Field{Key: "job_id", Value: jobID},
				logging.Field{Key: "page", Value: page},
				logging.Field{Key: "error", Value: err.Error()})
			o.jobsMu.Lock()
			if j, ok := o.jobs[jobID]; ok {
				j.Failed = append(j.Failed, page)
			}
			o.jobsMu.Unlock()
		} else {
			o.remember(ctx, rec)
			pages = append(pages, page)
			for _, u := range rec.URLs {
				seen[u] = struct{}{}
			}
		}
		o.emitJobEvent(jobID, JobEvent{
			Type:      JobEventProgress,
			Phase:     "capture",
			Page:      page,
			Processed: i + 1,
			Total:     total,
		})
	}

	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	o.jobsMu.Lock()
	if j, ok := o.jobs[jobID]; ok {
		j.Pages = pages
	}
	o.jobsMu.Unlock()
	return urls, nil
}

// GetJob returns a snapshot of the job.
func (o *Orchestrator) GetJob(jobID string) (*Job, error) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	j, ok := o.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return j.snapshot(), nil
}

// JobEvents returns the live event channel of a job. It is closed when the
// job ends; only one reader receives each event.
func (o *Orchestrator) JobEvents(jobID string) (<-chan JobEvent, error) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	j, ok := o.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return j.Events, nil
}

// ListJobs returns snapshots of all known jobs, oldest first.
func (o *Orchestrator) ListJobs() []*Job {
	o.pruneJobs()
	o.jobsMu.Lock()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, j.snapshot())
	}
	o.jobsMu.Unlock()
	sort.Slice(out, func(i, k int) bool { return out[i].StartedAt.Before(out[k].StartedAt) })
	return out
}

// CancelJob stops a running job. Canceling a finished job is a no-op.
func (o *Orchestrator) CancelJob(jobID string) error {
	o.jobsMu.Lock()
	_, known := o.jobs[jobID]
	cancel := o.jobCancels[jobID]
	o.jobsMu.Unlock()
	if !known {
		return ErrJobNotFound
	}
	if cancel != nil {
		cancel()
	}
	return nil
}

func (o *Orchestrator) pruneJobs() {
	if o.cfg.JobRetention <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-o.cfg.JobRetention)
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	for id, j := range o.jobs {
		if j.Status.Finished() && !j.EndedAt.IsZero() && j.EndedAt.Before(cutoff) {
			delete(o.jobs, id)
		}
	}
}

// Close cancels running jobs, waits for them and releases the store and
// HTTP client.
func (o *Orchestrator) Close() error {
	o.cancelAll()
	o.wg.Wait()
	var errs []error
	for _, c := range o.closers {
		errs = append(errs, c.Close())
	}
	if o.store != nil {
		errs = append(errs, o.store.Close())
	}
	return errors.Join(errs...)
}

func (j *Job) snapshot() *Job {
	cp := *j
	cp.Pages = append([]string(nil), j.Pages...)
	cp.Failed = append([]string(nil), j.Failed...)
	cp.URLs = append([]string(nil), j.URLs...)
	return &cp
}
