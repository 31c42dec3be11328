// Package scheduler implements tick-based collection sessions. A session runs
// a fixed set of queries once per tick and hands each round to a callback as
// a models.Sample. The scheduler keeps nothing; retention is up to the caller.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/monitor/internal/models"
)

// Querier runs one query. *query.Service satisfies it.
type Querier interface {
	Query(ctx context.Context, q models.Query) (models.Result, error)
}

// Options configures a Scheduler.
type Options struct {
	Queries  []models.Query
	Interval time.Duration

	// Samples is the number of rounds to run; zero or less runs until the
	// context is cancelled.
	Samples int
}

// Scheduler runs collection rounds at a fixed interval.
type Scheduler struct {
	querier Querier
	opts    Options
	logger  *zap.Logger
	now     func() time.Time

	onSample func(models.Sample)
}

// New creates a new Scheduler with the given querier, options, and logger.
func New(querier Querier, opts Options, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	return &Scheduler{
		querier: querier,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// OnSample sets the callback invoked after every round. It is called from
// the goroutine running Start, one round at a time.
func (s *Scheduler) OnSample(fn func(models.Sample)) {
	s.onSample = fn
}

// Start runs the first round immediately and one more per tick. It blocks
// until Samples rounds completed or ctx is cancelled, and returns the number
// of rounds delivered.
func (s *Scheduler) Start(ctx context.Context) int {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	rounds := 0
	for {
		if ctx.Err() != nil {
			return rounds
		}
		rounds++
		s.round(ctx, rounds)

		if s.opts.Samples > 0 && rounds >= s.opts.Samples {
			s.logger.Info("Collection finished", zap.Int("rounds", rounds))
			return rounds
		}

		select {
		case <-ctx.Done():
			s.logger.Info("Collection cancelled", zap.Int("rounds", rounds))
			return rounds
		case <-ticker.C:
		}
	}
}

// round runs every query concurrently; each one samples independently.
// Results keep the order of Options.Queries.
func (s *Scheduler) round(ctx context.Context, n int) {
	sample := models.Sample{
		Round:     n,
		Timestamp: s.now().UTC(),
	}

	results := make([]models.Result, len(s.opts.Queries))
	errs := make([]error, len(s.opts.Queries))

	var wg sync.WaitGroup
	for i, q := range s.opts.Queries {
		wg.Add(1)
		go func(i int, q models.Query) {
			defer wg.Done()
			results[i], errs[i] = s.querier.Query(ctx, q)
		}(i, q)
	}
	wg.Wait()

	for i, q := range s.opts.Queries {
		if errs[i] != nil {
			sample.Errors = append(sample.Errors, models.QueryError{
				Module:  q.Module,
				Purpose: q.Purpose,
				Error:   errs[i].Error(),
			})
			continue
		}
		sample.Results = append(sample.Results, results[i])
	}

	s.logger.Debug("Collected round",
		zap.Int("round", n),
		zap.Int("results", len(sample.Results)),
		zap.Int("errors", len(sample.Errors)))

	if s.onSample != nil {
		s.onSample(sample)
	}
}
