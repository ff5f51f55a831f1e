package middleware

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// RequestTracker counts in-flight requests so shutdown can report and wait
// for them
type RequestTracker struct {
	active       int64
	shuttingDown atomic.Bool
	shutdownAt   atomic.Value
	wg           sync.WaitGroup
}

// NewRequestTracker creates a new request tracker middleware
func NewRequestTracker() *RequestTracker {
	return &RequestTracker{}
}

// Middleware returns the HTTP middleware function
func (rt *RequestTracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rt.wg.Add(1)
		atomic.AddInt64(&rt.active, 1)
		defer func() {
			atomic.AddInt64(&rt.active, -1)
			rt.wg.Done()
		}()

		next.ServeHTTP(w, r)
	})
}

// Active returns the number of requests currently in flight
func (rt *RequestTracker) Active() int64 {
	return atomic.LoadInt64(&rt.active)
}

// BeginShutdown marks the tracker as shutting down
func (rt *RequestTracker) BeginShutdown() {
	if rt.shuttingDown.CompareAndSwap(false, true) {
		rt.shutdownAt.Store(time.Now())
	}
}

// ShutdownState reports whether shutdown began and when
func (rt *RequestTracker) ShutdownState() (bool, time.Time) {
	if !rt.shuttingDown.Load() {
		return false, time.Time{}
	}
	at, _ := rt.shutdownAt.Load().(time.Time)
	return true, at
}

// Wait blocks until all tracked requests finished or the timeout elapsed.
// It reports whether every request finished.
func (rt *RequestTracker) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		rt.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
