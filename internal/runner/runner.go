// Package runner hosts scenario iterations: a fixed set of virtual users
// (VUs) loop over iterations until the run's duration elapses or its
// iteration budget is spent.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"restaurant-loadgen/internal/metrics"
	"restaurant-loadgen/internal/scenario"
)

// Iterator runs one iteration. *scenario.Scenario implements it.
type Iterator interface {
	Run(ctx context.Context) (scenario.Result, error)
}

// Factory returns the iterator a VU uses for its whole life. VUs never share
// an iterator, so per-VU state such as a seeded random source is safe.
type Factory func(vu int) Iterator

// Record is one finished iteration as seen by observers.
type Record struct {
	RunID  string
	VU     int
	Iter   int // per VU, from 0
	Seq    int // across the run, from 0
	Result scenario.Result
	// Aborted is set when the run ended while the iteration was in flight.
	Aborted bool
}

// Observer receives every finished iteration. Calls may come from several
// goroutines at once.
type Observer interface {
	Observe(Record)
}

type Options struct {
	RunID      string // generated when empty
	VUs        int
	Duration   time.Duration // 0: no time limit
	Iterations int           // 0: no iteration limit
	Rate       float64       // iteration starts per second, 0: unpaced

	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Observers []Observer
}

type Summary struct {
	RunID      string
	Iterations int
	Failed     int
	Aborted    int
	Updated    int
	Deleted    int
	Elapsed    time.Duration
}

type Runner struct {
	opts    Options
	factory Factory
	runID   string
}

func New(factory Factory, opts Options) (*Runner, error) {
	if opts.VUs <= 0 {
		return nil, errors.New("runner: VUs must be positive")
	}
	if opts.Duration <= 0 && opts.Iterations <= 0 {
		return nil, errors.New("runner: a duration or an iteration budget is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	runID := opts.RunID
	if runID == "" {
		runID = NewRunID("")
	}
	return &Runner{opts: opts, factory: factory, runID: runID}, nil
}

// NewRunID returns a unique run id. A non-empty prefix is kept readable in
// front of a short uuid, e.g. "rest_VU4_20250101_120000_1b4e28ba".
func NewRunID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "_" + id[:8]
}

// RunID identifies this run in logs, metrics and reports.
func (r *Runner) RunID() string { return r.runID }

// Run blocks until the run is over. Failed iterations are counted, never
// returned; the error is only set when ctx was cancelled from outside.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	parent := ctx
	if r.opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Duration)
		defer cancel()
	}

	var limiter *rate.Limiter
	if r.opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.opts.Rate), 1)
	}

	log := r.opts.Logger.With("run", r.runID)
	log.Info("run started",
		"vus", r.opts.VUs, "duration", r.opts.Duration,
		"iterations", r.opts.Iterations, "rate", r.opts.Rate)

	var (
		seq     atomic.Int64
		mu      sync.Mutex
		summary = Summary{RunID: r.runID}
	)
	claim := func() (int, bool) {
		n := int(seq.Add(1) - 1)
		if r.opts.Iterations > 0 && n >= r.opts.Iterations {
			return 0, false
		}
		return n, true
	}

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for vu := 0; vu < r.opts.VUs; vu++ {
		it := r.factory(vu)
		g.Go(func() error {
			if m := r.opts.Metrics; m != nil {
				m.ActiveVUs.Inc()
				defer m.ActiveVUs.Dec()
			}
			for iter := 0; ctx.Err() == nil; iter++ {
				n, ok := claim()
				if !ok {
					return nil
				}
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return nil
					}
				}

				res, err := it.Run(ctx)
				rec := Record{
					RunID:   r.runID,
					VU:      vu,
					Iter:    iter,
					Seq:     n,
					Result:  res,
					Aborted: err != nil && ctx.Err() != nil,
				}

				mu.Lock()
				summary.Iterations++
				switch {
				case rec.Aborted:
					summary.Aborted++
				case err != nil:
					summary.Failed++
				}
				if res.Updated {
					summary.Updated++
				}
				if res.Deleted {
					summary.Deleted++
				}
				mu.Unlock()

				r.observe(log, rec)
			}
			return nil
		})
	}
	_ = g.Wait()
	summary.Elapsed = time.Since(start)

	log.Info("run finished",
		"iterations", summary.Iterations, "failed", summary.Failed,
		"aborted", summary.Aborted, "elapsed", summary.Elapsed.Round(time.Millisecond))

	return summary, parent.Err()
}

func (r *Runner) observe(log *slog.Logger, rec Record) {
	res := rec.Result
	if m := r.opts.Metrics; m != nil {
		if rec.Aborted {
			m.Iterations.WithLabelValues(metrics.OutcomeAborted).Inc()
		} else {
			m.ObserveIteration(res.Err)
		}
	}
	switch {
	case rec.Aborted:
		log.Debug("iteration aborted", "vu", rec.VU, "iter", rec.Iter, "step", res.FailedStep)
	case res.Err != nil:
		log.Warn("iteration failed", "vu", rec.VU, "iter", rec.Iter,
			"step", res.FailedStep, "restaurant", res.ID, "err", res.Err)
	default:
		log.Debug("iteration done", "vu", rec.VU, "iter", rec.Iter, "restaurant", res.ID,
			"updated", res.Updated, "deleted", res.Deleted, "took", res.Duration)
	}
	for _, o := range r.opts.Observers {
		o.Observe(rec)
	}
}
