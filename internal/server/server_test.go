package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raysh454/apiextract/internal/app"
	"github.com/raysh454/apiextract/internal/capture"
	"github.com/raysh454/apiextract/internal/crawler"
	"github.com/raysh454/apiextract/internal/server"
	"github.com/raysh454/apiextract/internal/store"
	"github.com/raysh454/apiextract/internal/testutil"
)

const site = "https://open.dosm.gov.my/"

type stubCrawler struct {
	res *crawler.Result
}

func (c stubCrawler) Crawl(ctx context.Context, base string) (*crawler.Result, error) {
	if c.res == nil {
		return &crawler.Result{Visited: []string{base}}, nil
	}
	return c.res, nil
}

func newServer(t *testing.T, engine *testutil.FakeEngine, st *store.Store) *server.Server {
	t.Helper()
	cfg := app.DefaultConfig()
	logger := &testutil.DummyLogger{}
	orch := app.NewOrchestrator(cfg, capture.NewCapturer(engine, cfg.CaptureConfig(), logger), stubCrawler{}, st, logger)
	t.Cleanup(func() { orch.Close() })
	return server.NewServer(server.Config{ListenAddr: ":0", Logger: logger}, orch)
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "captures.db"), nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	return st
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func dosmEvents() []testutil.NetEvent {
	return []testutil.NetEvent{
		testutil.Req(site+"api/a", capture.KindFetch),
		testutil.Req(site+"api/b", capture.KindXHR),
		testutil.Req("https://third-party.example/x", capture.KindFetch),
		testutil.Resp(site+"api/a", capture.KindFetch),
		testutil.Req(site+"logo.png", capture.ResourceKind("Image")),
	}
}

// ─── /extract-urls ─────────────────────────────────────────────────────

func TestExtractURLs_Success(t *testing.T) {
	t.Parallel()
	s := newServer(t, &testutil.FakeEngine{Events: dosmEvents()}, nil)

	rec := do(t, s, http.MethodGet, "/extract-urls", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got server.ExtractSuccessResponse
	decode(t, rec, &got)
	want := []string{site + "api/a", site + "api/b"}
	if got.Status != "success" || !reflect.DeepEqual(got.Data, want) {
		t.Errorf("got %+v, want data %v", got, want)
	}
}

func TestExtractURLs_NoAPICallsIsEmptyArray(t *testing.T) {
	t.Parallel()
	s := newServer(t, &testutil.FakeEngine{}, nil)

	rec := do(t, s, http.MethodGet, "/extract-urls", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"status":"success","data":[]}` {
		t.Errorf("body = %s", body)
	}
}

func TestExtractURLs_LaunchFailure(t *testing.T) {
	t.Parallel()
	launchErr := errors.New("exec: \"google-chrome\": executable file not found in $PATH")
	s := newServer(t, &testutil.FakeEngine{Err: launchErr}, nil)

	rec := do(t, s, http.MethodGet, "/extract-urls", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var got server.ExtractErrorResponse
	decode(t, rec, &got)
	if got.Status != "error" || got.Message != launchErr.Error() {
		t.Errorf("got %+v, want message %q", got, launchErr.Error())
	}
}

func TestExtractURLs_NavigationFailureHasNoData(t *testing.T) {
	t.Parallel()
	engine := &testutil.FakeEngine{
		Events:      dosmEvents(),
		FailTargets: map[string]bool{site: true},
	}
	s := newServer(t, engine, nil)

	rec := do(t, s, http.MethodGet, "/extract-urls", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var raw map[string]any
	decode(t, rec, &raw)
	if _, ok := raw["data"]; ok {
		t.Errorf("error response carries data: %v", raw)
	}
	if msg, _ := raw["message"].(string); msg == "" {
		t.Error("error message is empty")
	}
}

// ─── System routes ─────────────────────────────────────────────────────

func TestHealthAndCORS(t *testing.T) {
	t.Parallel()
	s := newServer(t, &testutil.FakeEngine{}, nil)

	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	pre := do(t, s, http.MethodOptions, "/extract-urls", "")
	if pre.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", pre.Code)
	}
	if got := pre.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "GET") {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
}

func TestMetricsExposeCaptureCounters(t *testing.T) {
	t.Parallel()
	s := newServer(t, &testutil.FakeEngine{Events: dosmEvents()}, nil)
	do(t, s, http.MethodGet, "/extract-urls", "")

	rec := do(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "apiextract_capture_sessions_total") {
		t.Error("capture session counter missing from /metrics")
	}
}

func TestSwaggerDoc(t *testing.T) {
	t.Parallel()
	s := newServer(t, &testutil.FakeEngine{}, nil)

	rec := do(t, s, http.MethodGet, "/swagger/doc.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/extract-urls") {
		t.Error("swagger doc does not describe /extract-urls")
	}
}

// ─── Captures ──────────────────────────────────────────────────────────

func TestCaptures_DisabledWithoutStore(t *testing.T) {
	t.Parallel()
	s := newServer(t, &testutil.FakeEngine{}, nil)

	for _, path := range []string{"/captures", "/captures/x", "/captures/x/diff/y"} {
		if rec := do(t, s, http.MethodGet, path, ""); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", path, rec.Code)
		}
	}
}

func TestCaptures_HistoryAndDiff(t *testing.T) {
	t.Parallel()
	engine := &testutil.FakeEngine{Events: dosmEvents()}
	s := newServer(t, engine, openStore(t))

	do(t, s, http.MethodGet, "/extract-urls", "")
	engine.Events = []testutil.NetEvent{
		testutil.Req(site+"api/b", capture.KindXHR),
		testutil.Req(site+"api/c", capture.KindFetch),
	}
	do(t, s, http.MethodGet, "/extract-urls", "")

	rec := do(t, s, http.MethodGet, "/captures?limit=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var recs []capture.Record
	decode(t, rec, &recs)
	if len(recs) != 2 {
		t.Fatalf("got %d captures, want 2", len(recs))
	}
	newer, older := recs[0], recs[1]

	rec = do(t, s, http.MethodGet, "/captures/"+older.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got capture.Record
	decode(t, rec, &got)
	if !reflect.DeepEqual(got.URLs, []string{site + "api/a", site + "api/b"}) {
		t.Errorf("older URLs = %v", got.URLs)
	}

	rec = do(t, s, http.MethodGet, "/captures/"+older.ID+"/diff/"+newer.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("diff status = %d", rec.Code)
	}
	var d store.Diff
	decode(t, rec, &d)
	if !reflect.DeepEqual(d.Added, []string{site + "api/c"}) || !reflect.DeepEqual(d.Removed, []string{site + "api/a"}) {
		t.Errorf("diff = %+v", d)
	}

	if rec := do(t, s, http.MethodGet, "/captures/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown capture status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/captures/missing/diff/"+newer.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown diff status = %d, want 404", rec.Code)
	}
}

// ─── Jobs ──────────────────────────────────────────────────────────────

func waitJob(t *testing.T, h http.Handler, id string) app.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := do(t, h, http.MethodGet, "/jobs/"+id, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("get job status = %d", rec.Code)
		}
		var j app.Job
		decode(t, rec, &j)
		if j.Status.Finished() && !j.EndedAt.IsZero() {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return app.Job{}
}

func TestJobs_Lifecycle(t *testing.T) {
	t.Parallel()
	s := newServer(t, &testutil.FakeEngine{Events: dosmEvents()}, nil)

	rec := do(t, s, http.MethodPost, "/jobs/extract", `{"target":"`+site+`"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start status = %d; body %s", rec.Code, rec.Body.String())
	}
	var started app.Job
	decode(t, rec, &started)
	if started.ID == "" || started.Target != site {
		t.Fatalf("started job = %+v", started)
	}

	done := waitJob(t, s, started.ID)
	if done.Status != app.JobDone {
		t.Fatalf("status = %s (%s)", done.Status, done.Error)
	}
	if want := []string{site + "api/a", site + "api/b"}; !reflect.DeepEqual(done.URLs, want) {
		t.Errorf("URLs = %v, want %v", done.URLs, want)
	}

	rec = do(t, s, http.MethodGet, "/jobs", "")
	var jobs []app.Job
	decode(t, rec, &jobs)
	if len(jobs) != 1 || jobs[0].ID != started.ID {
		t.Errorf("jobs = %+v", jobs)
	}

	if rec := do(t, s, http.MethodDelete, "/jobs/"+started.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("cancel finished job status = %d, want 204", rec.Code)
	}
}

func TestJobs_EmptyBodyUsesBaseURL(t *testing.T) {
	t.Parallel()
	s := newServer(t, &testutil.FakeEngine{}, nil)

	rec := do(t, s, http.MethodPost, "/jobs/extract", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d; body %s", rec.Code, rec.Body.String())
	}
	var j app.Job
	decode(t, rec, &j)
	if j.Target != app.DefaultConfig().BaseURL {
		t.Errorf("target = %q", j.Target)
	}
}

func TestJobs_BadRequests(t *testing.T) {
	t.Parallel()
	s := newServer(t, &testutil.FakeEngine{}, nil)

	if rec := do(t, s, http.MethodPost, "/jobs/extract", "{not json"); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/jobs/extract", `{"target":"ftp://example.com"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("non-http target status = %d, want 400", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/jobs/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown job status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/jobs/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("cancel unknown job status = %d, want 404", rec.Code)
	}
}

func TestJobs_WebSocketStream(t *testing.T) {
	t.Parallel()
	s := newServer(t, &testutil.FakeEngine{Events: dosmEvents()}, nil)
	ts := httptest.NewServer(s)
	defer ts.Close()

	job, err := s.Orchestrator().StartExtractJob(site)
	if err != nil {
		t.Fatalf("StartExtractJob: %v", err)
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/jobs/" + job.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snapshot app.Job
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if snapshot.ID != job.ID {
		t.Errorf("snapshot id = %q", snapshot.ID)
	}

	var last app.JobEvent
	for {
		var ev app.JobEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("reading events: %v", err)
			}
			break
		}
		last = ev
	}
	if last.Type != app.JobEventResult || last.Status != app.JobDone {
		t.Errorf("last event = %+v, want result/done", last)
	}
}

func TestJobs_WebSocketUnknownJob(t *testing.T) {
	t.Parallel()
	s := newServer(t, &testutil.FakeEngine{}, nil)

	if rec := do(t, s, http.MethodGet, "/ws/jobs/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestJobs_ClosingExtractSocketCancelsJob(t *testing.T) {
	t.Parallel()
	s := newServer(t, &testutil.FakeEngine{Events: dosmEvents(), Delay: 3 * time.Second}, nil)
	ts := httptest.NewServer(s)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/extract?target=" + site
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snapshot app.Job
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := s.Orchestrator().GetJob(snapshot.ID)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if job.Status == app.JobCanceled {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	job, _ := s.Orchestrator().GetJob(snapshot.ID)
	t.Fatalf("job still %s after the client closed its socket", job.Status)
}
