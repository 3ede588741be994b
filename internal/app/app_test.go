package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-loadgen/internal/config"
	"restaurant-loadgen/internal/restaurant"
	"restaurant-loadgen/internal/scenario"
	"restaurant-loadgen/internal/stub"
)

func TestNewTarget(t *testing.T) {
	cfg := config.Default()
	tgt, closeFn, err := NewTarget(cfg)
	require.NoError(t, err)
	assert.NotNil(t, tgt)
	assert.NoError(t, closeFn())

	cfg.Protocol = config.ProtocolGRPC
	tgt, closeFn, err = NewTarget(cfg)
	require.NoError(t, err)
	assert.NotNil(t, tgt)
	assert.NoError(t, closeFn())

	cfg.Protocol = "soap"
	_, _, err = NewTarget(cfg)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.UpdateShape = "flat"
	_, _, err = NewTarget(cfg)
	assert.Error(t, err)
}

func TestScenarioFactoryRunsAgainstStub(t *testing.T) {
	var hits atomic.Int64
	svc := stub.NewService(stub.NewStore())
	h := svc.Handler()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.BaseURL = srv.URL
	cfg.SleepUnit = time.Millisecond
	cfg.Seed = 42

	tgt, closeFn, err := NewTarget(cfg)
	require.NoError(t, err)
	defer closeFn()

	factory := ScenarioFactory(cfg, tgt)
	for vu := 0; vu < 3; vu++ {
		res, err := factory(vu).Run(context.Background())
		require.NoError(t, err)
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, scenario.StepCreate, res.Steps[0])
	}
	assert.GreaterOrEqual(t, hits.Load(), int64(3))
}

func TestScenarioFactorySeedIsReproducible(t *testing.T) {
	cfg := config.Default()
	cfg.SleepUnit = time.Millisecond
	cfg.Seed = 7

	run := func() []bool {
		svc := stub.NewService(stub.NewStore())
		srv := httptest.NewServer(svc.Handler())
		defer srv.Close()
		cfg.BaseURL = srv.URL
		tgt, closeFn, err := NewTarget(cfg)
		require.NoError(t, err)
		defer closeFn()

		it := ScenarioFactory(cfg, tgt)(1)
		var got []bool
		for i := 0; i < 10; i++ {
			res, err := it.Run(context.Background())
			require.NoError(t, err)
			got = append(got, res.Updated, res.Deleted)
		}
		return got
	}
	assert.Equal(t, run(), run())
}

func TestConfirm(t *testing.T) {
	svc := stub.NewService(stub.NewStore())
	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.BaseURL = srv.URL
	tgt, closeFn, err := NewTarget(cfg)
	require.NoError(t, err)
	defer closeFn()
	ctx := context.Background()

	id, err := tgt.CreateRestaurant(ctx, restaurant.Default())
	require.NoError(t, err)

	got, err := Confirm(ctx, tgt, scenario.Result{ID: id})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Los Baltazares", got.Name)

	// claims an update the server never saw
	_, err = Confirm(ctx, tgt, scenario.Result{ID: id, Updated: true})
	assert.ErrorIs(t, err, ErrMenuMismatch)

	require.NoError(t, tgt.UpdateMenu(ctx, id, restaurant.ReplacementMenu()))
	got, err = Confirm(ctx, tgt, scenario.Result{ID: id, Updated: true})
	require.NoError(t, err)
	assert.Equal(t, restaurant.ReplacementMenu(), got.Menu)

	got, err = Confirm(ctx, tgt, scenario.Result{ID: id, Deleted: true})
	assert.NoError(t, err)
	assert.Nil(t, got)
}
