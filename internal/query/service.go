package query

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/linequery/internal/logging"
	"github.com/google/uuid"
)

// Record describes one finished query for the history store. Only request
// metadata is kept; result lines are never recorded.
type Record struct {
	ID        uuid.UUID
	FileName  string
	Commands  string
	Lines     int
	Outcome   string
	ErrorCode string
	Error     string
	Duration  time.Duration
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

// Recorder stores query records.
type Recorder interface {
	RecordQuery(ctx context.Context, rec Record) error
}

// Request is a single query: a file identifier and the operators to apply.
type Request struct {
	FileName string
	Commands Commands
}

// Result is the materialized output of a query.
type Result struct {
	ID       uuid.UUID
	Lines    []string
	Duration time.Duration
}

// Service runs queries against a line source, bounding concurrency and
// recording each query's outcome.
type Service struct {
	source   Opener
	limiter  *QueryLimiter
	recorder Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithLimiter replaces the default query limiter.
func WithLimiter(l *QueryLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithRecorder enables the query history.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a Service reading from source.
func NewService(source Opener, opts ...Option) *Service {
	s := &Service{
		source:  source,
		limiter: NewQueryLimiter(DefaultMaxConcurrentQueries, DefaultMaxWaitTime),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query runs req and returns its lines. Errors keep their kind (see MapError)
// so the caller can tell a missing file from a bad argument.
func (s *Service) Query(ctx context.Context, req Request) (*Result, error) {
	id := uuid.New()
	logger := logging.WithFields(ctx,
		"query_id", id.String(),
		"file", req.FileName,
		"commands", req.Commands.String(),
	)

	if err := s.limiter.Acquire(ctx); err != nil {
		queriesTotal.WithLabelValues(Kind(err)).Inc()
		logger.Warn("query rejected", "error", err)
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	lines, err := Run(ctx, s.source, req.FileName, req.Commands)
	elapsed := time.Since(start)

	outcome := Kind(err)
	queriesTotal.WithLabelValues(outcome).Inc()
	queryDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())

	s.record(ctx, id, req, len(lines), elapsed, err)

	if err != nil {
		logger.Info("query failed",
			"outcome", outcome,
			"error", err,
			"duration_ms", elapsed.Milliseconds(),
		)
		return nil, fmt.Errorf("query %s: %w", req.FileName, err)
	}

	for _, name := range req.Commands.Names() {
		operatorUse.WithLabelValues(name).Inc()
	}
	resultLines.Observe(float64(len(lines)))
	logger.Debug("query completed",
		"lines", len(lines),
		"duration_ms", elapsed.Milliseconds(),
	)

	return &Result{ID: id, Lines: lines, Duration: elapsed}, nil
}

// LimiterStatus reports the limiter's current state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForQueries blocks until running queries finish or ctx is done.
func (s *Service) WaitForQueries(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// record writes the query to the history. Failures are logged and never
// change the query's own outcome.
func (s *Service) record(ctx context.Context, id uuid.UUID, req Request, n int, elapsed time.Duration, qerr error) {
	if s.recorder == nil {
		return
	}

	rec := Record{
		ID:        id,
		FileName:  req.FileName,
		Commands:  req.Commands.String(),
		Lines:     n,
		Outcome:   Kind(qerr),
		Duration:  elapsed,
		IPAddress: IPAddressFromContext(ctx),
		UserAgent: UserAgentFromContext(ctx),
		CreatedAt: time.Now().UTC(),
	}
	if qerr != nil {
		rec.ErrorCode = MapError(qerr).Code
		rec.Error = qerr.Error()
	}

	// The request may already be cancelled; the history write should still land.
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.recorder.RecordQuery(recCtx, rec); err != nil {
		logging.FromContext(ctx).Error("failed to record query",
			"query_id", id.String(),
			"error", err,
		)
	}
}
