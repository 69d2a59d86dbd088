// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without a browser or network.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/raysh454/apiextract/internal/capture"
	"github.com/raysh454/apiextract/internal/logging"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ErrorCount returns how many Error entries were logged.
func (l *DummyLogger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Errors)
}

// ─── Engine ────────────────────────────────────────────────────────────

// NetEvent is one network event replayed by FakeEngine.
type NetEvent struct {
	Response bool
	URL      string
	Kind     capture.ResourceKind
}

// Req is shorthand for a request event.
func Req(url string, kind capture.ResourceKind) NetEvent {
	return NetEvent{URL: url, Kind: kind}
}

// Resp is shorthand for a response event.
func Resp(url string, kind capture.ResourceKind) NetEvent {
	return NetEvent{Response: true, URL: url, Kind: kind}
}

// FakeEngine implements capture.Engine by replaying canned events.
// Set Err to fail every navigation, or Pages[target] to give a target its own events.
type FakeEngine struct {
	Events []NetEvent
	Pages  map[string][]NetEvent
	Err    error
	// FailTargets makes only the listed targets fail with Err (or a generic error).
	FailTargets map[string]bool
	// Delay simulates time until network idle; it honors ctx.
	Delay time.Duration

	mu      sync.Mutex
	Targets []string
}

type fakeEngineError string

func (e fakeEngineError) Error() string { return string(e) }

func (f *FakeEngine) Observe(ctx context.Context, target string, obs capture.Observer) error {
	f.mu.Lock()
	f.Targets = append(f.Targets, target)
	f.mu.Unlock()

	if f.FailTargets[target] {
		if f.Err != nil {
			return f.Err
		}
		return fakeEngineError("navigation failed: " + target)
	}
	if f.Err != nil && f.FailTargets == nil {
		return f.Err
	}

	events := f.Events
	if pe, ok := f.Pages[target]; ok {
		events = pe
	}
	for _, ev := range events {
		if ev.Response {
			obs.ObserveResponse(ev.URL, ev.Kind)
		} else {
			obs.ObserveRequest(ev.URL, ev.Kind)
		}
	}

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Visited returns a copy of the targets navigated to.
func (f *FakeEngine) Visited() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Targets...)
}
