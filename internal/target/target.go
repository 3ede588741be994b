// Package target defines the restaurant service operations the load scenario
// drives. Subpackages implement them over REST and gRPC.
package target

import (
	"context"
	"errors"
	"fmt"

	"restaurant-loadgen/internal/restaurant"
)

// Operation names, shared by metrics labels, logs and reports.
const (
	OpCreate = "create"
	OpUpdate = "update_menu"
	OpDelete = "delete"
	OpGet    = "get"
)

// Target is one protocol binding of the restaurant service.
type Target interface {
	CreateRestaurant(ctx context.Context, r *restaurant.Restaurant) (restaurant.ID, error)
	UpdateMenu(ctx context.Context, id restaurant.ID, m *restaurant.Menu) error
	DeleteRestaurant(ctx context.Context, id restaurant.ID) error
}

// Inspector is implemented by targets that can read a restaurant back.
// The load scenario never reads; smoke runs use it to confirm what an
// iteration left behind.
type Inspector interface {
	GetRestaurant(ctx context.Context, id restaurant.ID) (*restaurant.Restaurant, error)
}

// ErrUnexpectedStatus is matched by every *StatusError.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// StatusError reports a response the service answered with a failure code.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool { return target == ErrUnexpectedStatus }
