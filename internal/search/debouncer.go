// Package search debounces interactive user search.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"snapfeed/internal/models"
	"snapfeed/internal/observability"
)

// DefaultDelay is the quiet period after the last keystroke before a search runs.
const DefaultDelay = 300 * time.Millisecond

// Func performs one search.
type Func func(ctx context.Context, query string) ([]models.User, error)

// Result is the outcome for one query.
type Result struct {
	Query string
	Users []models.User
	Err   error
}

// Debouncer runs Func for the most recent query once input has been quiet for the delay.
// Results for superseded queries are never published.
type Debouncer struct {
	fn    Func
	delay time.Duration

	results chan Result

	mu      sync.Mutex
	seq     uint64
	timer   *time.Timer
	cancel  context.CancelFunc
	closed  bool
	running sync.WaitGroup
}

// NewDebouncer returns a Debouncer. A non-positive delay means DefaultDelay.
func NewDebouncer(fn Func, delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{
		fn:      fn,
		delay:   delay,
		results: make(chan Result, 1),
	}
}

// Results delivers the latest outcome. When the reader is slow, an unread older
// result is replaced by the newer one. The channel is closed by Close.
func (d *Debouncer) Results() <-chan Result {
	return d.results
}

// Query records new input. Pending and in-flight searches for earlier input are abandoned.
// A blank query publishes an empty result immediately.
func (d *Debouncer) Query(q string) {
	q = strings.TrimSpace(q)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.seq++
	seq := d.seq
	d.stopLocked()

	if q == "" {
		d.publishLocked(Result{Query: q, Users: []models.User{}})
		return
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq, q) })
}

func (d *Debouncer) fire(seq uint64, q string) {
	d.mu.Lock()
	if d.closed || seq != d.seq {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.running.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.running.Done()
		defer cancel()
		users, err := d.fn(ctx, q)
		if users == nil {
			users = []models.User{}
		}

		d.mu.Lock()
		defer d.mu.Unlock()
		if d.closed || seq != d.seq {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			observability.GlobalLogger.WarnContext(ctx, "search failed", "query", q, "error", err.Error())
		}
		d.publishLocked(Result{Query: q, Users: users, Err: err})
	}()
}

// stopLocked abandons the pending timer and in-flight search. Callers hold d.mu.
func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// publishLocked replaces any unread result with r. Callers hold d.mu.
func (d *Debouncer) publishLocked(r Result) {
	select {
	case <-d.results:
	default:
	}
	d.results <- r
}

// Close stops pending work, waits for in-flight searches to return, and closes Results.
func (d *Debouncer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.stopLocked()
	d.mu.Unlock()

	d.running.Wait()
	close(d.results)
}
