package app

import (
	"fmt"

	"github.com/raysh454/apiextract/internal/browser"
	"github.com/raysh454/apiextract/internal/capture"
	"github.com/raysh454/apiextract/internal/crawler"
	"github.com/raysh454/apiextract/internal/logging"
	"github.com/raysh454/apiextract/internal/store"
	"github.com/raysh454/apiextract/internal/webclient"
)

// Build wires the production components described by cfg: headless Chrome
// for captures, a retrying HTTP client for the crawler and, when StorePath
// is set, the SQLite history store.
func Build(cfg *Config, logger logging.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	engine := browser.NewChromeEngine(cfg.BrowserConfig(), logger)
	capturer := capture.NewCapturer(engine, cfg.CaptureConfig(), logger)

	wc, err := webclient.NewNetHTTPClient(cfg.WebClientConfig(), logger, nil)
	if err != nil {
		return nil, fmt.Errorf("creating web client: %w", err)
	}
	cr := crawler.New(wc, cfg.CrawlerConfig(), logger)

	var st *store.Store
	if cfg.StorePath != "" {
		st, err = store.Open(cfg.StorePath, logger)
		if err != nil {
			_ = wc.Close()
			return nil, fmt.Errorf("opening capture history: %w", err)
		}
	}

	o := NewOrchestrator(cfg, capturer, cr, st, logger)
	o.closers = append(o.closers, wc)
	return o, nil
}
