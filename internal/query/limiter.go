package query

// limiter.go caps how many queries read files at the same time.
//
// A query holds its slot from opening the file until the result is
// materialized. When every slot is taken the query queues for up to maxWait
// and then fails with ErrTooManyQueries. Occupancy and queueing are exported
// as the in_flight and queued gauges; the time spent queueing goes to
// queue_wait_seconds by outcome.

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrTooManyQueries is returned when no query slot frees up within the wait
// timeout. Clients should retry after a short delay.
var ErrTooManyQueries = errors.New("too many concurrent queries, please try again later")

// DefaultMaxConcurrentQueries is the default limit for parallel queries.
const DefaultMaxConcurrentQueries = 16

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 5 * time.Second

// Queue wait outcomes.
const (
	waitAcquired  = "acquired"
	waitBusy      = "busy"
	waitCancelled = "cancelled"
)

// QueryLimiter is a counting semaphore over query slots.
type QueryLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	inFlight  prometheus.Gauge
	queued    prometheus.Gauge
	queueWait *prometheus.HistogramVec

	mu      sync.Mutex
	active  int
	waiting int
	idle    chan struct{} // closed whenever active is zero
}

// NewQueryLimiter creates a limiter that allows at most maxConcurrent
// simultaneous queries. Non-positive arguments select the defaults.
func NewQueryLimiter(maxConcurrent int, maxWait time.Duration) *QueryLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentQueries
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	idle := make(chan struct{})
	close(idle)

	return &QueryLimiter{
		slots:     make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
		inFlight:  queriesInFlight,
		queued:    queriesQueued,
		queueWait: queueWait,
		idle:      idle,
	}
}

// Acquire takes a query slot, queueing for at most maxWait when none is free.
// Returns nil on success, ErrTooManyQueries if the wait times out, or the
// context error if ctx is already done or ends while queued. The caller must
// call Release after a successful Acquire.
func (l *QueryLimiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.TryAcquire() {
		l.queueWait.WithLabelValues(waitAcquired).Observe(0)
		return nil
	}

	start := time.Now()
	l.enqueue(1)
	defer l.enqueue(-1)

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.enter()
		l.queueWait.WithLabelValues(waitAcquired).Observe(time.Since(start).Seconds())
		return nil

	case <-timer.C:
		l.queueWait.WithLabelValues(waitBusy).Observe(time.Since(start).Seconds())
		return ErrTooManyQueries

	case <-ctx.Done():
		l.queueWait.WithLabelValues(waitCancelled).Observe(time.Since(start).Seconds())
		return ctx.Err()
	}
}

// TryAcquire takes a slot without blocking and reports whether it got one.
func (l *QueryLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.enter()
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *QueryLimiter) Release() {
	l.mu.Lock()
	if l.active == 0 {
		l.mu.Unlock()
		panic("query: Release without a matching Acquire")
	}
	l.active--
	l.inFlight.Dec()
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.slots
}

func (l *QueryLimiter) enter() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.inFlight.Inc()
}

func (l *QueryLimiter) enqueue(delta int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.waiting += delta
	l.queued.Add(float64(delta))
}

// ActiveCount returns the number of queries currently holding a slot.
func (l *QueryLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// WaitForDrain blocks until no query holds a slot or ctx is done. Queries
// that start after it returns are not waited for.
func (l *QueryLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	default:
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LimiterStatus is a snapshot of the limiter's state.
type LimiterStatus struct {
	Active        int `json:"active"`
	Queued        int `json:"queued"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for health checks.
func (l *QueryLimiter) Status() LimiterStatus {
	l.mu.Lock()
	active, waiting := l.active, l.waiting
	l.mu.Unlock()

	return LimiterStatus{
		Active:        active,
		Queued:        waiting,
		Available:     cap(l.slots) - active,
		MaxConcurrent: cap(l.slots),
	}
}
