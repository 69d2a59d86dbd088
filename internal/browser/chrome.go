// Package browser drives headless Chrome through chromedp and implements
// capture.Engine.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/apiextract/internal/capture"
	"github.com/raysh454/apiextract/internal/logging"
)

type Config struct {
	// IdleAfter is the quiet window that counts as network idle.
	IdleAfter time.Duration

	Headless bool

	// ExecPath overrides the Chrome binary chromedp looks up.
	ExecPath string

	// NoSandbox is needed when running as root inside containers.
	NoSandbox bool
}

func DefaultConfig() Config {
	return Config{
		IdleAfter: 500 * time.Millisecond,
		Headless:  true,
	}
}

// ChromeEngine launches a fresh browser for every Observe call. Nothing is
// pooled or shared between calls.
type ChromeEngine struct {
	cfg    Config
	logger logging.Logger
}

func NewChromeEngine(cfg Config, logger logging.Logger) *ChromeEngine {
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = DefaultConfig().IdleAfter
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ChromeEngine{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "backend", Value: "chromedp"}),
	}
}

func (e *ChromeEngine) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !e.cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if e.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(e.cfg.ExecPath))
	}
	if e.cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	return opts
}

// Observe launches Chrome, attaches the network listeners, navigates to target
// and waits for network idle. The browser is torn down on every return path.
func (e *ChromeEngine) Observe(ctx context.Context, target string, obs capture.Observer) error {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, e.allocatorOptions()...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	// An empty Run starts the browser and opens the tab. The launch error is
	// returned as is so callers report chromedp's own text.
	if err := chromedp.Run(tabCtx); err != nil {
		e.logger.Error("launching browser",
			logging.Field{Key: "exec_path", Value: e.cfg.ExecPath},
			logging.Field{Key: "error", Value: err.Error()})
		return err
	}

	idle := newIdleTracker(e.cfg.IdleAfter)
	defer idle.stop()

	// Listeners go in before Navigate so the first requests are not missed.
	chromedp.ListenTarget(tabCtx, func(ev any) {
		switch ev := ev.(type) {
		case *network.EventRequestWillBeSent:
			idle.started(ev.RequestID)
			obs.ObserveRequest(ev.Request.URL, capture.ResourceKind(ev.Type))
		case *network.EventResponseReceived:
			obs.ObserveResponse(ev.Response.URL, capture.ResourceKind(ev.Type))
		case *network.EventLoadingFinished:
			idle.finished(ev.RequestID)
		case *network.EventLoadingFailed:
			idle.finished(ev.RequestID)
		}
	})

	if err := chromedp.Run(tabCtx, network.Enable(), chromedp.Navigate(target)); err != nil {
		return fmt.Errorf("navigating to %s: %w", target, err)
	}
	e.logger.Debug("page loaded, waiting for network idle",
		logging.Field{Key: "target", Value: target},
		logging.Field{Key: "idle_after", Value: e.cfg.IdleAfter.String()})

	idle.arm()
	select {
	case <-idle.idle():
		return nil
	case <-tabCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("browser closed before network idle: %w", tabCtx.Err())
	}
}
