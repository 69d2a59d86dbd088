package demoserver_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os/exec"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/apiextract/internal/browser"
	"github.com/raysh454/apiextract/internal/capture"
	"github.com/raysh454/apiextract/internal/crawler"
	"github.com/raysh454/apiextract/internal/demoserver"
	"github.com/raysh454/apiextract/internal/testutil"
	"github.com/raysh454/apiextract/internal/webclient"
)

func newSite(t *testing.T) (*demoserver.DemoServer, *httptest.Server) {
	t.Helper()
	ds := demoserver.NewDemoServer(demoserver.DefaultConfig(), &testutil.DummyLogger{})
	ts := httptest.NewServer(ds.Handler())
	t.Cleanup(ts.Close)
	return ds, ts
}

func get(t *testing.T, ts *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func postForm(t *testing.T, ts *httptest.Server, path string, form url.Values) int {
	t.Helper()
	resp, err := ts.Client().PostForm(ts.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

// ─── Pages ─────────────────────────────────────────────────────────────

func TestPage_ScriptCallsAPIs(t *testing.T) {
	t.Parallel()
	_, ts := newSite(t)

	code, body := get(t, ts, "/")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	for _, want := range []string{`"/api/summary"`, `"/api/releases/latest"`, "third-party.example", `href="/about"`} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %s", want)
		}
	}
}

func TestPage_EmptyCallListsRenderAsArrays(t *testing.T) {
	t.Parallel()
	_, ts := newSite(t)

	_, body := get(t, ts, "/about")
	if strings.Contains(body, "null") {
		t.Errorf("about page renders null call list:\n%s", body)
	}
}

func TestAPIAndStatic(t *testing.T) {
	t.Parallel()
	_, ts := newSite(t)

	code, body := get(t, ts, "/api/data/population?state=all")
	if code != http.StatusOK {
		t.Fatalf("api status = %d", code)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatalf("api body: %v", err)
	}
	if doc["path"] != "/api/data/population" || doc["query"] != "state=all" {
		t.Errorf("api doc = %v", doc)
	}

	resp, err := ts.Client().Get(ts.URL + "/static/logo.png")
	if err != nil {
		t.Fatalf("static: %v", err)
	}
	resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("static Content-Type = %q", ct)
	}
}

// ─── Versions ──────────────────────────────────────────────────────────

func versions(t *testing.T, ts *httptest.Server) map[string]int {
	t.Helper()
	_, body := get(t, ts, "/demo/get-versions")
	var pages []demoserver.PageInfo
	if err := json.Unmarshal([]byte(body), &pages); err != nil {
		t.Fatalf("decoding versions: %v", err)
	}
	out := make(map[string]int, len(pages))
	for _, p := range pages {
		out[p.Path] = p.CurrentVersion
	}
	return out
}

func TestVersions_SetBumpReset(t *testing.T) {
	t.Parallel()
	_, ts := newSite(t)

	if code := postForm(t, ts, "/demo/set-version", url.Values{"path": {"/"}, "version": {"2"}}); code != http.StatusOK {
		t.Fatalf("set-version status = %d", code)
	}
	_, body := get(t, ts, "/")
	if !strings.Contains(body, "/api/v2/highlights") || strings.Contains(body, "/api/releases/latest") {
		t.Errorf("home v2 calls wrong APIs:\n%s", body)
	}

	postForm(t, ts, "/demo/bump-all", nil)
	v := versions(t, ts)
	if v["/"] != 2 || v["/statistics"] != 2 || v["/about"] != 1 {
		t.Errorf("after bump versions = %v", v)
	}

	postForm(t, ts, "/demo/reset", nil)
	for p, n := range versions(t, ts) {
		if n != 1 {
			t.Errorf("%s at v%d after reset", p, n)
		}
	}
}

func TestVersions_RejectsBadInput(t *testing.T) {
	t.Parallel()
	_, ts := newSite(t)

	if code := postForm(t, ts, "/demo/set-version", url.Values{"path": {"/"}, "version": {"x"}}); code != http.StatusBadRequest {
		t.Errorf("bad version status = %d, want 400", code)
	}
	if code := postForm(t, ts, "/demo/set-version", url.Values{"path": {"/nope"}, "version": {"1"}}); code != http.StatusNotFound {
		t.Errorf("unknown page status = %d, want 404", code)
	}
}

func TestControlPanel(t *testing.T) {
	t.Parallel()
	_, ts := newSite(t)

	code, body := get(t, ts, "/demo/control")
	if code != http.StatusOK || !strings.Contains(body, "/statistics/population") {
		t.Errorf("control panel status %d, body missing pages", code)
	}
}

// ─── Crawling the demo site ────────────────────────────────────────────

func crawlSite(t *testing.T, ts *httptest.Server) *crawler.Result {
	t.Helper()
	wcCfg := webclient.DefaultConfig()
	wcCfg.RetryMax = 0
	wc, err := webclient.NewNetHTTPClient(wcCfg, nil, ts.Client())
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	cr := crawler.New(wc, crawler.Config{Delay: time.Millisecond, MaxPages: 50}, &testutil.DummyLogger{})
	res, err := cr.Crawl(context.Background(), ts.URL+"/")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	sort.Strings(res.Visited)
	return res
}

func TestCrawl_FollowsVersionedLinks(t *testing.T) {
	t.Parallel()
	_, ts := newSite(t)

	res := crawlSite(t, ts)
	want := []string{
		ts.URL,
		ts.URL + "/about",
		ts.URL + "/releases",
		ts.URL + "/statistics",
		ts.URL + "/statistics/population",
	}
	if !reflect.DeepEqual(res.Visited, want) {
		t.Errorf("v1 visited = %v, want %v", res.Visited, want)
	}
	if len(res.Failed) != 0 {
		t.Errorf("failed = %v", res.Failed)
	}

	postForm(t, ts, "/demo/bump-all", nil)
	res = crawlSite(t, ts)
	for _, p := range []string{"/dashboard", "/statistics/trade"} {
		found := false
		for _, v := range res.Visited {
			found = found || v == ts.URL+p
		}
		if !found {
			t.Errorf("v2 crawl did not reach %s: %v", p, res.Visited)
		}
	}
}

// ─── Capturing the demo site in Chrome ─────────────────────────────────

func TestCapture_HomePage(t *testing.T) {
	t.Parallel()
	execPath := ""
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if p, err := exec.LookPath(name); err == nil {
			execPath = p
			break
		}
	}
	if execPath == "" {
		t.Skip("Skipping chromedp test (no Chrome binary in PATH)")
	}
	_, ts := newSite(t)

	bcfg := browser.DefaultConfig()
	bcfg.ExecPath = execPath
	bcfg.NoSandbox = true
	logger := &testutil.DummyLogger{}
	c := capture.NewCapturer(browser.NewChromeEngine(bcfg, logger), capture.Config{Timeout: 30 * time.Second, MaxConcurrent: 1}, logger)

	rec, err := c.Capture(context.Background(), ts.URL+"/")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	got := append([]string(nil), rec.URLs...)
	sort.Strings(got)
	want := []string{
		ts.URL + "/api/indicators?lang=en",
		ts.URL + "/api/releases/latest",
		ts.URL + "/api/summary",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("URLs = %v, want %v", got, want)
	}
}
