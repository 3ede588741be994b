// Command loadgen-smoke runs a single scenario iteration and prints what it
// did. It accepts the same flags as loadgen.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"restaurant-loadgen/internal/app"
	"restaurant-loadgen/internal/config"
	"restaurant-loadgen/internal/logging"
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

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logging.NewConsole(os.Stderr, level, logging.NoColor())

	tgt, closeTarget, err := app.NewTarget(cfg)
	if err != nil {
		log.Error("build target", "err", err)
		os.Exit(1)
	}
	defer closeTarget()

	fmt.Printf("Smoke test against %s\n", endpoint(cfg))
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout*4+cfg.SleepUnit)
	defer cancel()

	start := time.Now()
	res, err := app.ScenarioFactory(cfg, tgt)(0).Run(ctx)
	if err != nil {
		log.Error("iteration failed", "step", res.FailedStep, "id", res.ID, "err", err)
		os.Exit(1)
	}
	fmt.Printf("Response: id=%s updated=%t deleted=%t paused=%s e2e=%dms\n",
		res.ID, res.Updated, res.Deleted, res.Paused(), time.Since(start).Milliseconds())

	stored, err := app.Confirm(ctx, tgt, res)
	if err != nil {
		log.Error("read back failed", "id", res.ID, "err", err)
		os.Exit(1)
	}
	if stored != nil {
		items := 0
		if stored.Menu != nil {
			items = len(stored.Menu.Items)
		}
		fmt.Printf("Stored: id=%s name=%q menu_items=%d\n", res.ID, stored.Name, items)
	}
}

func endpoint(cfg config.Config) string {
	if cfg.Protocol == config.ProtocolGRPC {
		return "grpc://" + cfg.GRPCTarget
	}
	return cfg.BaseURL
}
