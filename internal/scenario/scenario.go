// Package scenario implements the restaurant lifecycle iteration: create a
// restaurant, maybe replace its menu, maybe delete it, pausing a random
// amount of time between the steps.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"restaurant-loadgen/internal/restaurant"
	"restaurant-loadgen/internal/target"
)

// Traffic shape. An update follows when the first draw is above
// UpdateThreshold; a delete follows when the second draw falls strictly
// inside (DeleteLower, DeleteUpper). Pauses last up to MaxPause time units.
const (
	UpdateThreshold = 0.5
	DeleteLower     = 0.01
	DeleteUpper     = 0.3
	MaxPause        = 0.5
)

// ErrNoIdentifier aborts an iteration whose create call did not yield a
// usable restaurant id.
var ErrNoIdentifier = errors.New("create response carried no restaurant id")

// Rand is the source of every random draw an iteration makes.
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Step names one action of an iteration, in the order it was taken.
type Step string

const (
	StepCreate Step = target.OpCreate
	StepPause  Step = "pause"
	StepUpdate Step = target.OpUpdate
	StepDelete Step = target.OpDelete
)

// Result describes one finished iteration.
type Result struct {
	ID       restaurant.ID
	Steps    []Step
	Pauses   []time.Duration
	Updated  bool
	Deleted  bool
	Duration time.Duration
	// FailedStep is set together with Err.
	FailedStep Step
	Err        error
}

// Paused is the total time spent in pauses.
func (r Result) Paused() time.Duration {
	var total time.Duration
	for _, p := range r.Pauses {
		total += p
	}
	return total
}

// Scenario runs iterations against one target. It keeps no state between
// iterations and is safe for concurrent use when its Rand is.
type Scenario struct {
	target  target.Target
	rand    Rand
	sleeper Sleeper
	unit    time.Duration
	create  func() *restaurant.Restaurant
	menu    func() *restaurant.Menu
}

type Option func(*Scenario)

// WithRand injects the random source. The default is the goroutine-safe
// top-level math/rand/v2 source.
func WithRand(r Rand) Option {
	return func(s *Scenario) { s.rand = r }
}

func WithSleeper(sl Sleeper) Option {
	return func(s *Scenario) { s.sleeper = sl }
}

// WithTimeUnit sets the length of one pause unit (default one second).
func WithTimeUnit(d time.Duration) Option {
	return func(s *Scenario) { s.unit = d }
}

// WithPayloads overrides the restaurant and replacement menu builders.
func WithPayloads(create func() *restaurant.Restaurant, menu func() *restaurant.Menu) Option {
	return func(s *Scenario) {
		s.create = create
		s.menu = menu
	}
}

func New(t target.Target, opts ...Option) *Scenario {
	s := &Scenario{
		target:  t,
		rand:    globalRand{},
		sleeper: ContextSleeper{},
		unit:    time.Second,
		create:  restaurant.Default,
		menu:    restaurant.ReplacementMenu,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShouldUpdate reports whether draw u triggers the menu update.
func ShouldUpdate(u float64) bool { return u > UpdateThreshold }

// ShouldDelete reports whether draw u triggers the delete.
func ShouldDelete(u float64) bool { return u > DeleteLower && u < DeleteUpper }

// Run performs one iteration. Only a failed create or a cancelled pause ends
// it early; a failed update is recorded and the iteration goes on to the
// delete draw. The returned error equals Result.Err.
func (s *Scenario) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	res := Result{}
	// record keeps the first failing step; later errors are joined on.
	record := func(step Step, err error) {
		if res.Err == nil {
			res.FailedStep = step
			res.Err = err
			return
		}
		res.Err = errors.Join(res.Err, err)
	}
	fail := func(step Step, err error) (Result, error) {
		record(step, err)
		res.Duration = time.Since(start)
		return res, res.Err
	}

	res.Steps = append(res.Steps, StepCreate)
	id, err := s.target.CreateRestaurant(ctx, s.create())
	if err != nil {
		return fail(StepCreate, err)
	}
	if !id.Valid() {
		return fail(StepCreate, ErrNoIdentifier)
	}
	res.ID = id

	if err := s.pause(ctx, &res); err != nil {
		return fail(StepPause, err)
	}

	if ShouldUpdate(s.rand.Float64()) {
		res.Steps = append(res.Steps, StepUpdate)
		// A failed update still lets the delete draw happen.
		if err := s.target.UpdateMenu(ctx, id, s.menu()); err != nil {
			record(StepUpdate, err)
		} else {
			res.Updated = true
		}
	}

	if err := s.pause(ctx, &res); err != nil {
		return fail(StepPause, err)
	}

	if ShouldDelete(s.rand.Float64()) {
		res.Steps = append(res.Steps, StepDelete)
		if err := s.target.DeleteRestaurant(ctx, id); err != nil {
			return fail(StepDelete, err)
		}
		res.Deleted = true
	}

	res.Duration = time.Since(start)
	return res, res.Err
}

func (s *Scenario) pause(ctx context.Context, res *Result) error {
	d := time.Duration(s.rand.Float64() * MaxPause * float64(s.unit))
	res.Steps = append(res.Steps, StepPause)
	res.Pauses = append(res.Pauses, d)
	if err := s.sleeper.Sleep(ctx, d); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	return nil
}
