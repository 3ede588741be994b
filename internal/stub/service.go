package stub

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"restaurant-loadgen/internal/restaurant"
	"restaurant-loadgen/internal/spin"
	"restaurant-loadgen/internal/target/grpcapi"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Service serves the restaurant API from a Store.
type Service struct {
	store       *Store
	work        time.Duration
	lenientMenu bool
	log         *slog.Logger
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
}

var _ grpcapi.RestaurantServer = (*Service)(nil)

type Option func(*Service)

// WithWork makes every request burn CPU for d before answering.
func WithWork(d time.Duration) Option {
	return func(s *Service) { s.work = d }
}

// WithLenientMenu lets the REST update endpoint also accept a bare
// {"items":[...]} body.
func WithLenientMenu(on bool) Option {
	return func(s *Service) { s.lenientMenu = on }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(store *Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		log:      slog.Default(),
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restaurant_stub",
			Name:      "requests_total",
			Help:      "Requests served by protocol, operation and result code.",
		}, []string{"protocol", "op", "code"}),
	}
	s.registry.MustRegister(s.requests)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Store() *Store { return s.store }

func (s *Service) Registry() *prometheus.Registry { return s.registry }

func (s *Service) simulateWork(ctx context.Context) {
	spin.For(ctx, s.work)
}

func (s *Service) count(protocol, op, code string) {
	s.requests.WithLabelValues(protocol, op, code).Inc()
}

// gRPC side.

func (s *Service) CreateRestaurant(ctx context.Context, r *restaurant.Restaurant) (int64, error) {
	s.simulateWork(ctx)
	id, err := s.store.Create(r)
	err = grpcError(err)
	s.count("grpc", "create", status.Code(err).String())
	return id, err
}

func (s *Service) UpdateMenu(ctx context.Context, id int64, m *restaurant.Menu) error {
	s.simulateWork(ctx)
	err := grpcError(s.store.UpdateMenu(id, m))
	s.count("grpc", "update_menu", status.Code(err).String())
	return err
}

func (s *Service) DeleteRestaurant(ctx context.Context, id int64) error {
	s.simulateWork(ctx)
	err := grpcError(s.store.Delete(id))
	s.count("grpc", "delete", status.Code(err).String())
	return err
}

func (s *Service) GetRestaurant(ctx context.Context, id int64) (*restaurant.Restaurant, error) {
	s.simulateWork(ctx)
	r, err := s.store.Get(id)
	err = grpcError(err)
	s.count("grpc", "get", status.Code(err).String())
	return r, err
}

func (s *Service) GetRestaurants(ctx context.Context, offset, limit int) ([]*restaurant.Restaurant, int, error) {
	s.simulateWork(ctx)
	rs, total := s.store.List(offset, clampLimit(limit))
	s.count("grpc", "list", codes.OK.String())
	return rs, total, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	}
	return limit
}

func grpcError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrInvalid):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
