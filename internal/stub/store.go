// Package stub is an in-memory stand-in for the restaurant service. It speaks
// the same REST and gRPC APIs so the load generator can be exercised locally
// and in tests.
package stub

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"restaurant-loadgen/internal/restaurant"
)

var (
	ErrNotFound = errors.New("restaurant not found")
	ErrInvalid  = errors.New("invalid restaurant")
)

const (
	maxTextLen   = 255
	maxPriceLen  = 10
	maxMenuItems = 1000
	// Creation requires at least this many items; updates only one.
	minCreateItems = 2
)

// Store keeps restaurants in memory. Ids start at 1.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]*restaurant.Restaurant
}

func NewStore() *Store {
	return &Store{items: make(map[int64]*restaurant.Restaurant)}
}

func (s *Store) Create(r *restaurant.Restaurant) (int64, error) {
	if err := validateRestaurant(r); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c := clone(r)
	c.ID = s.nextID
	s.items[c.ID] = c
	return c.ID, nil
}

func (s *Store) Get(id int64) (*restaurant.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("restaurant %d: %w", id, ErrNotFound)
	}
	return clone(r), nil
}

// List returns one page ordered by id and the total number of restaurants.
func (s *Store) List(offset, limit int) ([]*restaurant.Restaurant, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	total := len(ids)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := min(offset+limit, total)
	page := make([]*restaurant.Restaurant, 0, end-offset)
	for _, id := range ids[offset:end] {
		page = append(page, clone(s.items[id]))
	}
	return page, total
}

func (s *Store) UpdateMenu(id int64, m *restaurant.Menu) error {
	if err := validateMenu(m, 1); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return fmt.Errorf("restaurant %d: %w", id, ErrNotFound)
	}
	r.Menu = cloneMenu(m)
	return nil
}

func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("restaurant %d: %w", id, ErrNotFound)
	}
	delete(s.items, id)
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func validateRestaurant(r *restaurant.Restaurant) error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: missing restaurant", ErrInvalid)
	case r.Name == "" || len(r.Name) > maxTextLen:
		return fmt.Errorf("%w: name must be 1-%d characters", ErrInvalid, maxTextLen)
	case r.Address == nil:
		return fmt.Errorf("%w: missing address", ErrInvalid)
	}
	for field, v := range map[string]string{
		"street": r.Address.Street,
		"city":   r.Address.City,
		"state":  r.Address.State,
		"zip":    r.Address.Zip,
	} {
		if v == "" || len(v) > maxTextLen {
			return fmt.Errorf("%w: address %s must be 1-%d characters", ErrInvalid, field, maxTextLen)
		}
	}
	return validateMenu(r.Menu, minCreateItems)
}

func validateMenu(m *restaurant.Menu, minItems int) error {
	if m == nil {
		return fmt.Errorf("%w: missing menu", ErrInvalid)
	}
	if n := len(m.Items); n < minItems || n > maxMenuItems {
		return fmt.Errorf("%w: menu needs %d-%d items, got %d", ErrInvalid, minItems, maxMenuItems, n)
	}
	for i, it := range m.Items {
		if it.ID == 0 || it.Name == "" || len(it.Name) > maxTextLen || it.Price == "" || len(it.Price) > maxPriceLen {
			return fmt.Errorf("%w: menu item %d is incomplete", ErrInvalid, i)
		}
	}
	return nil
}

func clone(r *restaurant.Restaurant) *restaurant.Restaurant {
	c := *r
	if r.Address != nil {
		a := *r.Address
		c.Address = &a
	}
	c.Menu = cloneMenu(r.Menu)
	return &c
}

func cloneMenu(m *restaurant.Menu) *restaurant.Menu {
	if m == nil {
		return nil
	}
	return &restaurant.Menu{Items: append([]restaurant.MenuItem(nil), m.Items...)}
}
