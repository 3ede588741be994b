// Command loadgen drives the restaurant create/update/delete scenario
// against a REST or gRPC deployment with a fixed number of virtual users.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant-loadgen/internal/app"
	"restaurant-loadgen/internal/config"
	"restaurant-loadgen/internal/logging"
	"restaurant-loadgen/internal/metrics"
	"restaurant-loadgen/internal/report"
	"restaurant-loadgen/internal/runner"
)

func main() {
	cfg, err := config.Load(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	runID := runner.NewRunID(fmt.Sprintf("%s_VU%d_%s", cfg.Protocol, cfg.VUs, time.Now().Format("20060102_150405")))

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log, closeLog, err := logging.Setup(level, cfg.LogDir, runID)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", "err", err)
			}
		}()
		defer srv.Close()
		log.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	tgt, closeTarget, err := app.NewTarget(cfg)
	if err != nil {
		return err
	}
	defer closeTarget()

	opts := runner.Options{
		RunID:      runID,
		VUs:        cfg.VUs,
		Duration:   cfg.Duration,
		Iterations: cfg.Iterations,
		Rate:       cfg.Rate,
		Logger:     log,
		Metrics:    m,
	}

	var rep *report.Report
	if cfg.ReportDir != "" {
		rep, err = report.Create(cfg.ReportDir, runID)
		if err != nil {
			return err
		}
		opts.Observers = append(opts.Observers, rep)
	}

	r, err := runner.New(app.ScenarioFactory(cfg, m.Instrument(tgt)), opts)
	if err != nil {
		return err
	}

	fmt.Printf("Load generator starting: protocol=%s VUs=%d duration=%s iterations=%d\n",
		cfg.Protocol, cfg.VUs, cfg.Duration, cfg.Iterations)
	sum, runErr := r.Run(ctx)

	fmt.Printf("Run %s finished in %s: %d iterations, %d failed, %d aborted, %d updated, %d deleted\n",
		sum.RunID, sum.Elapsed.Round(time.Millisecond), sum.Iterations, sum.Failed, sum.Aborted, sum.Updated, sum.Deleted)
	if rep != nil {
		if err := rep.Close(); err != nil {
			return err
		}
		rep.Stats().Print(os.Stdout)
		fmt.Printf("Results written to %s\n", rep.Path())
	}
	if errors.Is(runErr, context.Canceled) {
		log.Warn("run interrupted")
		return nil
	}
	return runErr
}
