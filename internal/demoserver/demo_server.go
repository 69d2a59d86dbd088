package demoserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/apiextract/internal/logging"
)

// DemoServer is a small site whose pages call same-origin JSON APIs and one
// third-party URL from script. Page versions can be switched at runtime so
// repeated captures differ.
type DemoServer struct {
	cfg      Config
	logger   logging.Logger
	pages    map[string]PageDefinition
	versions map[string]int // path -> current version
	mu       sync.RWMutex
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config, logger logging.Logger) *DemoServer {
	if logger == nil {
		logger = logging.NewNop()
	}
	pageMap := make(map[string]PageDefinition)
	versions := make(map[string]int)
	for _, p := range GetAllPages() {
		pageMap[p.Path] = p
		versions[p.Path] = cfg.InitialVersion
	}

	return &DemoServer{
		cfg:      cfg,
		logger:   logger.With(logging.Field{Key: "component", Value: "demoserver"}),
		pages:    pageMap,
		versions: versions,
	}
}

// Handler returns the site's routes.
func (s *DemoServer) Handler() http.Handler {
	r := chi.NewRouter()

	for p := range s.pages {
		r.Get(p, s.pageHandler(p))
	}
	r.Get("/api/*", s.apiHandler)
	r.Get("/static/*", s.staticHandler)

	// Control panel for version switching
	r.Get("/demo/control", s.controlPanelHandler)
	r.Post("/demo/set-version", s.setVersionHandler)
	r.Get("/demo/get-versions", s.getVersionsHandler)
	r.Post("/demo/bump-all", s.bumpAllVersionsHandler)
	r.Post("/demo/reset", s.resetVersionsHandler)
	return r
}

// Start serves the site until ctx is canceled.
func (s *DemoServer) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("demo server listening",
			logging.Field{Key: "url", Value: fmt.Sprintf("http://localhost:%d/", s.cfg.Port)},
			logging.Field{Key: "control_panel", Value: fmt.Sprintf("http://localhost:%d/demo/control", s.cfg.Port)})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// currentVersion returns the page revision served for p, falling back to the
// closest lower version that exists.
func (s *DemoServer) currentVersion(p string) (PageVersion, int, bool) {
	s.mu.RLock()
	def, ok := s.pages[p]
	version := s.versions[p]
	s.mu.RUnlock()
	if !ok {
		return PageVersion{}, 0, false
	}
	for v := version; v >= 1; v-- {
		if pv, exists := def.Versions[v]; exists {
			return pv, v, true
		}
	}
	return def.Versions[1], 1, true
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Demo Site - {{.Title}} v{{.Version}}</title>
</head>
<body>
    <h1>{{.Title}}</h1>
    <nav>{{range .Links}}<a href="{{.}}">{{.}}</a> {{end}}</nav>
    {{range .Assets}}<img src="{{.}}" alt="">{{end}}
    <pre id="out"></pre>
    <script>
        const out = document.getElementById("out");
        const fetches = {{.Fetch}};
        const xhrs = {{.XHR}};
        const thirdParty = {{.ThirdParty}};
        fetches.forEach(p => fetch(p).then(r => r.json()).then(d => { out.textContent += JSON.stringify(d) + "\n"; }).catch(() => {}));
        xhrs.forEach(p => { const x = new XMLHttpRequest(); x.open("GET", p); x.send(); });
        if (thirdParty) { fetch(thirdParty, {mode: "no-cors"}).catch(() => {}); }
    </script>
</body>
</html>`))

// pageHandler returns a handler for a specific page path.
func (s *DemoServer) pageHandler(p string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pv, version, ok := s.currentVersion(p)
		if !ok {
			http.NotFound(w, r)
			return
		}

		data := struct {
			Title      string
			Version    int
			Links      []string
			Assets     []string
			Fetch      []string
			XHR        []string
			ThirdParty string
		}{
			Title:      pv.Title,
			Version:    version,
			Links:      pv.Links,
			Assets:     pv.Assets,
			Fetch:      orEmpty(pv.Fetch),
			XHR:        orEmpty(pv.XHR),
			ThirdParty: s.cfg.ThirdPartyURL,
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTemplate.Execute(w, data); err != nil {
			s.logger.Warn("rendering page",
				logging.Field{Key: "path", Value: p},
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// apiHandler answers every /api/ path with a small JSON document.
func (s *DemoServer) apiHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"path":  r.URL.Path,
		"query": r.URL.RawQuery,
		"items": []int{1, 2, 3},
	})
}

// staticHandler serves placeholder static files typed by extension.
func (s *DemoServer) staticHandler(w http.ResponseWriter, r *http.Request) {
	ct := mime.TypeByExtension(path.Ext(r.URL.Path))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	_, _ = w.Write([]byte("demo static file: " + r.URL.Path))
}

// controlPanelHandler serves the control panel for version management.
func (s *DemoServer) controlPanelHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := struct {
		Pages    map[string]PageDefinition
		Versions map[string]int
	}{
		Pages:    s.pages,
		Versions: s.versions,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = controlPanelTemplate.Execute(w, data)
}

// setVersionHandler sets the version for a specific page.
func (s *DemoServer) setVersionHandler(w http.ResponseWriter, r *http.Request) {
	p := r.FormValue("path")
	version, err := strconv.Atoi(r.FormValue("version"))
	if err != nil || version < 1 {
		http.Error(w, "Invalid version number", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	_, ok := s.pages[p]
	if ok {
		s.versions[p] = version
	}
	s.mu.Unlock()
	if !ok {
		http.Error(w, "Unknown page", http.StatusNotFound)
		return
	}

	s.logger.Info("page version set",
		logging.Field{Key: "path", Value: p},
		logging.Field{Key: "version", Value: version})
	writeJSON(w, map[string]any{
		"success": true,
		"path":    p,
		"version": version,
	})
}

// PageInfo describes a page and its available versions.
type PageInfo struct {
	Path              string `json:"path"`
	Description       string `json:"description"`
	CurrentVersion    int    `json:"current_version"`
	AvailableVersions []int  `json:"available_versions"`
}

// getVersionsHandler returns the current versions of all pages.
func (s *DemoServer) getVersionsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pages := make([]PageInfo, 0, len(s.pages))
	for p, def := range s.pages {
		versions := make([]int, 0, len(def.Versions))
		for v := range def.Versions {
			versions = append(versions, v)
		}
		sort.Ints(versions)
		pages = append(pages, PageInfo{
			Path:              p,
			Description:       def.Description,
			CurrentVersion:    s.versions[p],
			AvailableVersions: versions,
		})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Path < pages[j].Path })
	writeJSON(w, pages)
}

// bumpAllVersionsHandler increments the version of all pages, capped at the
// highest version each page has.
func (s *DemoServer) bumpAllVersionsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	for p := range s.versions {
		maxV := 1
		for v := range s.pages[p].Versions {
			maxV = max(maxV, v)
		}
		s.versions[p] = min(s.versions[p]+1, maxV)
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"success": true,
		"message": "All versions bumped",
	})
}

// resetVersionsHandler resets all pages to version 1.
func (s *DemoServer) resetVersionsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	for p := range s.versions {
		s.versions[p] = 1
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"success": true,
		"message": "All versions reset to 1",
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

var controlPanelTemplate = template.Must(template.New("control").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Demo Server Control Panel</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 960px; margin: 0 auto; padding: 20px; }
        .page-card { border: 1px solid #ddd; border-radius: 6px; padding: 12px 16px; margin: 10px 0; }
        .current { font-weight: bold; color: #28a745; }
        button.active { background: #007bff; color: white; }
    </style>
</head>
<body>
    <h1>Demo Server Control Panel</h1>
    <p>Switch page versions to change which APIs the pages call, then capture again and diff.</p>
    <button onclick="post('/demo/bump-all')">Bump all versions</button>
    <button onclick="post('/demo/reset')">Reset all to v1</button>
    {{range $path, $page := .Pages}}
    <div class="page-card">
        <a href="{{$path}}" target="_blank">{{$path}}</a>
        <span class="current">v{{index $.Versions $path}}</span>
        <div>{{$page.Description}}</div>
        {{range $v, $_ := $page.Versions}}
        <button class="{{if eq (index $.Versions $path) $v}}active{{end}}"
                onclick="post('/demo/set-version', 'path=' + encodeURIComponent('{{$path}}') + '&version={{$v}}')">v{{$v}}</button>
        {{end}}
    </div>
    {{end}}
    <script>
        function post(url, body) {
            fetch(url, {method: 'POST', headers: {'Content-Type': 'application/x-www-form-urlencoded'}, body: body || ''})
                .then(() => location.reload());
        }
    </script>
</body>
</html>`))
