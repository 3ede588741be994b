// Package app wires configuration into the pieces the commands run.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"

	"restaurant-loadgen/internal/config"
	"restaurant-loadgen/internal/restaurant"
	"restaurant-loadgen/internal/runner"
	"restaurant-loadgen/internal/scenario"
	"restaurant-loadgen/internal/target"
	"restaurant-loadgen/internal/target/grpcapi"
	"restaurant-loadgen/internal/target/rest"
)

// NewTarget builds the protocol binding selected by cfg. The returned close
// func releases its connection.
func NewTarget(cfg config.Config) (target.Target, func() error, error) {
	switch cfg.Protocol {
	case config.ProtocolREST:
		shape, err := rest.ParseUpdateShape(cfg.UpdateShape)
		if err != nil {
			return nil, nil, err
		}
		c, err := rest.NewClient(cfg.BaseURL, rest.WithUpdateShape(shape), rest.WithTimeout(cfg.Timeout))
		if err != nil {
			return nil, nil, err
		}
		return c, func() error { return nil }, nil

	case config.ProtocolGRPC:
		schema, err := grpcapi.NewSchema(cfg.ProtoPackage)
		if err != nil {
			return nil, nil, err
		}
		pool := grpcapi.NewPool(cfg.GRPCTarget)
		return target.WithTimeout(grpcapi.NewClient(schema, pool), cfg.Timeout), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported protocol %q", cfg.Protocol)
}

// ScenarioFactory gives each VU its own scenario. With a seed every VU gets
// a reproducible random stream of its own.
func ScenarioFactory(cfg config.Config, t target.Target) runner.Factory {
	return func(vu int) runner.Iterator {
		opts := []scenario.Option{scenario.WithTimeUnit(cfg.SleepUnit)}
		if cfg.Seed != 0 {
			opts = append(opts, scenario.WithRand(rand.New(rand.NewPCG(cfg.Seed, uint64(vu)))))
		}
		return scenario.New(t, opts...)
	}
}

// ErrMenuMismatch is returned by Confirm when an updated restaurant does not
// carry the replacement menu.
var ErrMenuMismatch = errors.New("stored menu does not match the replacement menu")

// Confirm reads back the restaurant an iteration left behind. It returns nil
// without error when the restaurant was deleted or t cannot read.
func Confirm(ctx context.Context, t target.Target, res scenario.Result) (*restaurant.Restaurant, error) {
	in, ok := t.(target.Inspector)
	if !ok || res.Deleted || !res.ID.Valid() {
		return nil, nil
	}
	r, err := in.GetRestaurant(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	if res.Updated && !reflect.DeepEqual(r.Menu, restaurant.ReplacementMenu()) {
		return r, ErrMenuMismatch
	}
	return r, nil
}
