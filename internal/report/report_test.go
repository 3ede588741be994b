package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-loadgen/internal/runner"
	"restaurant-loadgen/internal/scenario"
)

func TestObserveWritesRows(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(&buf)
	require.NoError(t, err)

	r.Observe(runner.Record{Seq: 0, VU: 1, Iter: 0, Result: scenario.Result{
		ID: "abc", Updated: true, Pauses: []time.Duration{time.Millisecond}, Duration: 10 * time.Millisecond,
	}})
	r.Observe(runner.Record{Seq: 1, VU: 0, Iter: 0, Result: scenario.Result{
		FailedStep: scenario.StepCreate, Err: errors.New("status 500"),
	}})
	r.Observe(runner.Record{Seq: 2, VU: 0, Iter: 1, Aborted: true, Result: scenario.Result{
		ID: "def", FailedStep: scenario.StepPause, Err: context.DeadlineExceeded,
	}})
	require.NoError(t, r.Close())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"0", "1", "0", "abc", "true", "false", "1.000", "10.000", "ok"}, rows[1])
	assert.Equal(t, "create: status 500", rows[2][8])
	assert.Equal(t, "aborted", rows[3][8])

	s := r.Stats()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Aborted)
	assert.InDelta(t, 33.33, s.SuccessRate, 0.01)
	assert.Equal(t, 10.0, s.Mean)
}

func TestStatsPercentiles(t *testing.T) {
	r, err := New(&bytes.Buffer{})
	require.NoError(t, err)
	for i := 100; i >= 1; i-- {
		r.Observe(runner.Record{Result: scenario.Result{ID: "x", Duration: time.Duration(i) * time.Millisecond}})
	}

	s := r.Stats()
	assert.Equal(t, 100, s.Succeeded)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 100.0, s.Max)
	assert.Equal(t, 51.0, s.P50)
	assert.Equal(t, 96.0, s.P95)
	assert.Equal(t, 100.0, s.P99)
	assert.InDelta(t, 50.5, s.Mean, 1e-9)

	var out bytes.Buffer
	s.Print(&out)
	assert.Contains(t, out.String(), "Median: 51.00")
}

func TestStatsEmpty(t *testing.T) {
	r, err := New(&bytes.Buffer{})
	require.NoError(t, err)

	s := r.Stats()
	assert.Zero(t, s.Total)

	var out bytes.Buffer
	s.Print(&out)
	assert.Contains(t, out.String(), "No successful iterations")
}

func TestCreateWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	r, err := Create(dir, "run-42")
	require.NoError(t, err)
	r.Observe(runner.Record{Result: scenario.Result{ID: "1"}})
	require.NoError(t, r.Close())

	assert.Equal(t, filepath.Join(dir, "run-42.csv"), r.Path())
	data, err := os.ReadFile(r.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "seq,vu,iter,restaurant_id")
}
