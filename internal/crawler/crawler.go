// Package crawler discovers the pages of a site that live under a base prefix.
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/raysh454/apiextract/internal/logging"
	"github.com/raysh454/apiextract/internal/urlutil"
	"github.com/raysh454/apiextract/internal/webclient"
)

type Config struct {
	// Delay is the minimum spacing between two page fetches.
	Delay time.Duration

	// MaxPages stops the crawl once this many pages were visited. Zero means no limit.
	MaxPages int
}

func DefaultConfig() Config {
	return Config{
		Delay:    time.Second,
		MaxPages: 200,
	}
}

// Result lists the pages reached, in visit order, by normalized URL.
type Result struct {
	Visited []string `json:"visited"`
	Failed  []string `json:"failed"`
}

// Crawler walks same-prefix links depth-first starting at a base URL. Only
// pages whose last path segment has no extension are followed, so documents
// and assets are never fetched.
type Crawler struct {
	wc     webclient.WebClient
	cfg    Config
	logger logging.Logger
}

func New(wc webclient.WebClient, cfg Config, logger logging.Logger) *Crawler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Crawler{
		wc:     wc,
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "crawler"}),
	}
}

type crawlState struct {
	base     string
	frontier []string
	visited  map[string]struct{}
	failed   map[string]struct{}
	result   *Result
}

// Crawl visits base and every reachable page under it. Fetch failures are
// recorded in Result.Failed and do not stop the crawl; a done context does.
func (c *Crawler) Crawl(ctx context.Context, base string) (*Result, error) {
	if !urlutil.IsHTTP(base) {
		return nil, fmt.Errorf("crawl base %q: %w", base, urlutil.ErrNotHTTP)
	}

	limit := rate.Inf
	if c.cfg.Delay > 0 {
		limit = rate.Every(c.cfg.Delay)
	}
	limiter := rate.NewLimiter(limit, 1)

	st := &crawlState{
		base:     base,
		frontier: []string{base},
		visited:  make(map[string]struct{}),
		failed:   make(map[string]struct{}),
		result:   &Result{Visited: []string{}, Failed: []string{}},
	}

	started := time.Now()
	for len(st.frontier) > 0 {
		if c.cfg.MaxPages > 0 && len(st.result.Visited) >= c.cfg.MaxPages {
			c.logger.Warn("page limit reached, stopping crawl",
				logging.Field{Key: "max_pages", Value: c.cfg.MaxPages},
				logging.Field{Key: "pending", Value: len(st.frontier)})
			break
		}

		current := st.frontier[len(st.frontier)-1]
		st.frontier = st.frontier[:len(st.frontier)-1]

		norm, err := urlutil.NormalizePage(current)
		if err != nil {
			continue
		}
		if _, seen := st.visited[norm]; seen {
			continue
		}
		if _, bad := st.failed[norm]; bad {
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("crawling %s: %w", base, err)
		}

		links, err := c.fetchLinks(ctx, current)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("crawling %s: %w", base, ctx.Err())
			}
			st.failed[norm] = struct{}{}
			st.result.Failed = append(st.result.Failed, norm)
			c.logger.Warn("failed to fetch page",
				logging.Field{Key: "url", Value: current},
				logging.Field{Key: "error", Value: err.Error()})
			continue
		}

		st.visited[norm] = struct{}{}
		st.result.Visited = append(st.result.Visited, norm)
		st.enqueue(links)
	}

	c.logger.Info("crawl finished",
		logging.Field{Key: "base", Value: base},
		logging.Field{Key: "visited", Value: len(st.result.Visited)},
		logging.Field{Key: "failed", Value: len(st.result.Failed)},
		logging.Field{Key: "elapsed", Value: time.Since(started).String()})
	return st.result, nil
}

func (st *crawlState) enqueue(links []string) {
	for _, link := range links {
		norm, err := urlutil.NormalizePage(link)
		if err != nil {
			continue
		}
		if _, seen := st.visited[norm]; seen {
			continue
		}
		if _, bad := st.failed[norm]; bad {
			continue
		}
		if !strings.HasPrefix(norm, st.base) || !urlutil.HasNoExtension(norm) {
			continue
		}
		st.frontier = append(st.frontier, link)
	}
}

// fetchLinks GETs target and returns every absolute http(s) link on it.
func (c *Crawler) fetchLinks(ctx context.Context, target string) ([]string, error) {
	resp, err := c.wc.Get(ctx, target)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	ct := resp.Headers.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "html") {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", target, err)
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		full, err := urlutil.Resolve(target, href)
		if err != nil || !urlutil.IsHTTP(full) {
			return
		}
		links = append(links, full)
	})
	return links, nil
}
