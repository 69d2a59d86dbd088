// Package capture turns one headless page load into the list of API URLs the
// page called. A Capturer drives an Engine through a single navigation, the
// Engine feeds every network call it sees into a Recorder, and the Recorder
// merges what it saw into a Capture Result.
package capture

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ResourceKind is the rendering engine's classification of a network call.
// Values follow the Chrome DevTools protocol spelling ("XHR", "Fetch", "Image", ...).
type ResourceKind string

const (
	KindXHR   ResourceKind = "XHR"
	KindFetch ResourceKind = "Fetch"
)

// IsAPI reports whether k is one of the kinds an API call can have.
func (k ResourceKind) IsAPI() bool {
	return strings.EqualFold(string(k), string(KindXHR)) || strings.EqualFold(string(k), string(KindFetch))
}

var ErrEmptyBase = errors.New("base url is empty")

// Observer receives network events from an Engine.
type Observer interface {
	ObserveRequest(url string, kind ResourceKind)
	ObserveResponse(url string, kind ResourceKind)
}

// Engine navigates a fresh page to target and reports its network calls to obs.
//
// Implementations must register obs before starting navigation and return only
// after the page has gone network-idle, the context is done, or the engine failed.
// All browser resources acquired for the call are released before returning.
type Engine interface {
	Observe(ctx context.Context, target string, obs Observer) error
}

// Recorder collects the request and response URLs of API calls. It is safe
// for concurrent use since engines may deliver events from several goroutines.
type Recorder struct {
	mu        sync.Mutex
	requests  []string
	responses []string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) ObserveRequest(url string, kind ResourceKind) {
	if !kind.IsAPI() {
		return
	}
	r.mu.Lock()
	r.requests = append(r.requests, url)
	r.mu.Unlock()
}

func (r *Recorder) ObserveResponse(url string, kind ResourceKind) {
	if !kind.IsAPI() {
		return
	}
	r.mu.Lock()
	r.responses = append(r.responses, url)
	r.mu.Unlock()
}

// Requests returns a copy of the request URLs seen so far.
func (r *Recorder) Requests() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.requests...)
}

// Responses returns a copy of the response URLs seen so far.
func (r *Recorder) Responses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.responses...)
}

// Result merges everything recorded so far, see Merge.
func (r *Recorder) Result(base string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Merge(r.requests, r.responses, base)
}

// Merge concatenates requests and responses, drops repeated URLs keeping the
// first occurrence, and keeps only URLs starting with base. The result is
// never nil.
func Merge(requests, responses []string, base string) []string {
	seen := make(map[string]struct{}, len(requests)+len(responses))
	out := make([]string, 0)
	for _, list := range [][]string{requests, responses} {
		for _, u := range list {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			if strings.HasPrefix(u, base) {
				out = append(out, u)
			}
		}
	}
	return out
}
