package target

import (
	"context"
	"errors"
	"time"

	"restaurant-loadgen/internal/restaurant"
)

// WithTimeout bounds every call of t by d. A non-positive d returns t as is.
func WithTimeout(t Target, d time.Duration) Target {
	if d <= 0 {
		return t
	}
	return &timeoutTarget{next: t, d: d}
}

type timeoutTarget struct {
	next Target
	d    time.Duration
}

func (t *timeoutTarget) CreateRestaurant(ctx context.Context, r *restaurant.Restaurant) (restaurant.ID, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.CreateRestaurant(ctx, r)
}

func (t *timeoutTarget) UpdateMenu(ctx context.Context, id restaurant.ID, m *restaurant.Menu) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.UpdateMenu(ctx, id, m)
}

func (t *timeoutTarget) DeleteRestaurant(ctx context.Context, id restaurant.ID) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.DeleteRestaurant(ctx, id)
}

// GetRestaurant forwards to the wrapped target when it is an Inspector.
func (t *timeoutTarget) GetRestaurant(ctx context.Context, id restaurant.ID) (*restaurant.Restaurant, error) {
	in, ok := t.next.(Inspector)
	if !ok {
		return nil, errors.ErrUnsupported
	}
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return in.GetRestaurant(ctx, id)
}
