// Package report writes one CSV row per iteration and summarizes iteration
// latency once the run is over.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"restaurant-loadgen/internal/runner"
)

var header = []string{"seq", "vu", "iter", "restaurant_id", "updated", "deleted", "paused_ms", "duration_ms", "status"}

// Report is a runner.Observer. It is safe for concurrent use.
type Report struct {
	mu        sync.Mutex
	w         *csv.Writer
	closer    io.Closer
	path      string
	durations []float64
	total     int
	failed    int
	aborted   int
}

var _ runner.Observer = (*Report)(nil)

// Create opens <dir>/<runID>.csv and writes the header.
func Create(dir, runID string) (*Report, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, runID+".csv")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create report file: %w", err)
	}
	r, err := New(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	r.path = path
	return r, nil
}

// New writes the report to w.
func New(w io.Writer) (*Report, error) {
	r := &Report{w: csv.NewWriter(w)}
	if err := r.w.Write(header); err != nil {
		return nil, fmt.Errorf("write report header: %w", err)
	}
	return r, nil
}

// Path is the file the report is written to, if any.
func (r *Report) Path() string { return r.path }

func (r *Report) Observe(rec runner.Record) {
	res := rec.Result
	status := "ok"
	switch {
	case rec.Aborted:
		status = "aborted"
	case res.Err != nil:
		status = string(res.FailedStep) + ": " + res.Err.Error()
	}

	row := []string{
		strconv.Itoa(rec.Seq),
		strconv.Itoa(rec.VU),
		strconv.Itoa(rec.Iter),
		res.ID.String(),
		strconv.FormatBool(res.Updated),
		strconv.FormatBool(res.Deleted),
		ms(res.Paused()),
		ms(res.Duration),
		status,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.w.Write(row)
	r.total++
	switch {
	case rec.Aborted:
		r.aborted++
	case res.Err != nil:
		r.failed++
	default:
		r.durations = append(r.durations, float64(res.Duration.Microseconds())/1e3)
	}
}

func ms(d time.Duration) string {
	return strconv.FormatFloat(float64(d.Microseconds())/1e3, 'f', 3, 64)
}

// Close flushes the CSV and closes the underlying file.
func (r *Report) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.Flush()
	err := r.w.Error()
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Stats summarizes successful iteration durations, in milliseconds.
type Stats struct {
	Total       int
	Succeeded   int
	Failed      int
	Aborted     int
	SuccessRate float64
	Mean        float64
	P50         float64
	P95         float64
	P99         float64
	Min         float64
	Max         float64
	StdDev      float64
}

func (r *Report) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{Total: r.total, Succeeded: len(r.durations), Failed: r.failed, Aborted: r.aborted}
	if r.total > 0 {
		s.SuccessRate = float64(s.Succeeded) / float64(r.total) * 100.0
	}
	n := len(r.durations)
	if n == 0 {
		return s
	}

	sorted := make([]float64, n)
	copy(sorted, r.durations)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	s.Mean = sum / float64(n)

	sumSqDiff := 0.0
	for _, v := range sorted {
		diff := v - s.Mean
		sumSqDiff += diff * diff
	}
	s.StdDev = math.Sqrt(sumSqDiff / float64(n))

	s.P50 = percentile(sorted, 50)
	s.P95 = percentile(sorted, 95)
	s.P99 = percentile(sorted, 99)
	s.Min = sorted[0]
	s.Max = sorted[n-1]
	return s
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)) * p / 100.0)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

// Print writes a human readable summary.
func (s Stats) Print(w io.Writer) {
	fmt.Fprintf(w, "\n=== RESULTS ===\n")
	fmt.Fprintf(w, "Iterations: %d (ok %d, failed %d, aborted %d, %.2f%% ok)\n",
		s.Total, s.Succeeded, s.Failed, s.Aborted, s.SuccessRate)
	if s.Succeeded == 0 {
		fmt.Fprintf(w, "No successful iterations to summarize.\n")
		return
	}
	fmt.Fprintf(w, "Iteration duration (ms):\n")
	fmt.Fprintf(w, "  Mean:   %.2f\n", s.Mean)
	fmt.Fprintf(w, "  Median: %.2f\n", s.P50)
	fmt.Fprintf(w, "  P95:    %.2f\n", s.P95)
	fmt.Fprintf(w, "  P99:    %.2f\n", s.P99)
	fmt.Fprintf(w, "  Min:    %.2f\n", s.Min)
	fmt.Fprintf(w, "  Max:    %.2f\n", s.Max)
	fmt.Fprintf(w, "  StdDev: %.2f\n", s.StdDev)
}
