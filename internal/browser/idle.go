package browser

import (
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
)

// idleTracker signals once no request has been in flight for idleAfter.
// The timer only runs after arm is called, so the quiet window is measured
// from the end of navigation rather than from tab creation.
type idleTracker struct {
	idleAfter time.Duration

	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	armed    bool
	timer    *time.Timer
	// gen identifies the current timer; callbacks from older timers are ignored.
	gen uint64

	done chan struct{}
	once sync.Once
}

func newIdleTracker(idleAfter time.Duration) *idleTracker {
	return &idleTracker{
		idleAfter: idleAfter,
		inflight:  make(map[network.RequestID]struct{}),
		done:      make(chan struct{}),
	}
}

// started records a request. Redirects reuse the request id, so they count once.
func (t *idleTracker) started(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startedLocked(id)
}

func (t *idleTracker) startedLocked(id network.RequestID) {
	t.inflight[id] = struct{}{}
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *idleTracker) finished(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finishedLocked(id)
}

func (t *idleTracker) finishedLocked(id network.RequestID) {
	if _, ok := t.inflight[id]; !ok {
		return
	}
	delete(t.inflight, id)
	t.maybeStartTimer()
}

func (t *idleTracker) arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = true
	t.maybeStartTimer()
}

// maybeStartTimer must be called with mu held.
func (t *idleTracker) maybeStartTimer() {
	if !t.armed || len(t.inflight) > 0 {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(t.idleAfter, func() {
		t.mu.Lock()
		// A timer that fired while a newer one was being armed has lost its window.
		quiet := gen == t.gen && len(t.inflight) == 0
		t.mu.Unlock()
		if quiet {
			t.once.Do(func() { close(t.done) })
		}
	})
}

func (t *idleTracker) idle() <-chan struct{} {
	return t.done
}

func (t *idleTracker) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
}
