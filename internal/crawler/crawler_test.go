package crawler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/raysh454/apiextract/internal/crawler"
	"github.com/raysh454/apiextract/internal/testutil"
	"github.com/raysh454/apiextract/internal/webclient"
)

func html(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, body)
}

func siteServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		html(w, `
		<a href="/a">A</a>
		<a href="b/">B</a>
		<a href="/files/report.pdf">PDF</a>
		<a href="https://third-party.example/x">elsewhere</a>
		<a href="mailto:someone@example.com">mail</a>
		<a href="/a?x=1#frag">A again</a>
		`)
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		html(w, `<a href="/a/deep">deep</a><a href="/">home</a>`)
	})
	mux.HandleFunc("/a/deep", func(w http.ResponseWriter, r *http.Request) {
		html(w, `<p>no links here</p>`)
	})
	mux.HandleFunc("/b/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/files/report.pdf", func(w http.ResponseWriter, r *http.Request) {
		panic("assets must not be fetched")
	})
	return httptest.NewServer(mux)
}

func newCrawler(t *testing.T, ts *httptest.Server, cfg crawler.Config) *crawler.Crawler {
	t.Helper()
	wcCfg := webclient.DefaultConfig()
	wcCfg.RetryMax = 0
	wc, err := webclient.NewNetHTTPClient(wcCfg, nil, ts.Client())
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	return crawler.New(wc, cfg, &testutil.DummyLogger{})
}

func TestCrawl_SamePrefixDepthFirst(t *testing.T) {
	t.Parallel()
	ts := siteServer()
	defer ts.Close()

	c := newCrawler(t, ts, crawler.Config{})
	res, err := c.Crawl(context.Background(), ts.URL+"/")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	wantVisited := []string{ts.URL, ts.URL + "/a", ts.URL + "/a/deep"}
	if !reflect.DeepEqual(res.Visited, wantVisited) {
		t.Errorf("Visited = %v, want %v", res.Visited, wantVisited)
	}
	wantFailed := []string{ts.URL + "/b"}
	if !reflect.DeepEqual(res.Failed, wantFailed) {
		t.Errorf("Failed = %v, want %v", res.Failed, wantFailed)
	}
}

func TestCrawl_MaxPages(t *testing.T) {
	t.Parallel()
	ts := siteServer()
	defer ts.Close()

	c := newCrawler(t, ts, crawler.Config{MaxPages: 1})
	res, err := c.Crawl(context.Background(), ts.URL+"/")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(res.Visited) != 1 {
		t.Errorf("Visited = %v, want only the base page", res.Visited)
	}
}

func TestCrawl_DelaySpacesFetches(t *testing.T) {
	t.Parallel()
	ts := siteServer()
	defer ts.Close()

	c := newCrawler(t, ts, crawler.Config{Delay: 30 * time.Millisecond})
	start := time.Now()
	res, err := c.Crawl(context.Background(), ts.URL+"/")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	// Four fetches (three pages plus the failing one) need at least three gaps.
	fetches := len(res.Visited) + len(res.Failed)
	if floor := time.Duration(fetches-1) * 30 * time.Millisecond; time.Since(start) < floor {
		t.Errorf("crawl took %v, expected at least %v", time.Since(start), floor)
	}
}

func TestCrawl_CanceledContext(t *testing.T) {
	t.Parallel()
	ts := siteServer()
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newCrawler(t, ts, crawler.Config{})
	if _, err := c.Crawl(ctx, ts.URL+"/"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestCrawl_RejectsNonHTTPBase(t *testing.T) {
	t.Parallel()
	c := crawler.New(nil, crawler.Config{}, nil)
	if _, err := c.Crawl(context.Background(), "ftp://example.com/"); err == nil {
		t.Fatal("expected error for non-http base")
	}
}

func TestCrawl_UnreachableBaseIsFailedNotError(t *testing.T) {
	t.Parallel()
	wcCfg := webclient.DefaultConfig()
	wcCfg.RetryMax = 0
	wc, _ := webclient.NewNetHTTPClient(wcCfg, nil, nil)
	c := crawler.New(wc, crawler.Config{}, nil)

	res, err := c.Crawl(context.Background(), "http://127.0.0.1:1/")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(res.Visited) != 0 || len(res.Failed) != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}
