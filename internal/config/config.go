// Package config resolves load generator settings. Values come from, in
// increasing priority: built-in defaults, an optional YAML file (-config),
// the environment (a .env file in the working directory is loaded first),
// and flags given on the command line.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"restaurant-loadgen/internal/target/rest"
)

const (
	ProtocolREST = "rest"
	ProtocolGRPC = "grpc"
)

type Config struct {
	Protocol     string
	BaseURL      string
	GRPCTarget   string
	ProtoPackage string
	UpdateShape  string
	Timeout      time.Duration

	VUs        int
	Duration   time.Duration
	Iterations int
	Rate       float64
	SleepUnit  time.Duration
	Seed       uint64

	MetricsAddr string
	LogLevel    string
	LogDir      string
	ReportDir   string
}

func Default() Config {
	return Config{
		Protocol:    ProtocolREST,
		BaseURL:     "http://localhost:8080",
		GRPCTarget:  "localhost:8081",
		UpdateShape: string(rest.ShapeNested),
		Timeout:     10 * time.Second,
		VUs:         1,
		Duration:    30 * time.Second,
		SleepUnit:   time.Second,
		LogLevel:    "info",
		LogDir:      "logs",
	}
}

// setting binds one option to its flag and environment variable.
type setting struct {
	name  string
	env   string
	usage string
	set   func(c *Config, v string) error
}

var settings = []setting{
	{"protocol", "LOADGEN_PROTOCOL", "target protocol: rest or grpc", func(c *Config, v string) error {
		c.Protocol = strings.ToLower(v)
		return nil
	}},
	{"base-url", "LOADGEN_BASE_URL", "REST service base URL", func(c *Config, v string) error {
		c.BaseURL = v
		return nil
	}},
	{"grpc-target", "LOADGEN_GRPC_TARGET", "gRPC service host:port", func(c *Config, v string) error {
		c.GRPCTarget = v
		return nil
	}},
	{"proto-package", "LOADGEN_PROTO_PACKAGE", "proto package RestaurantService is declared in", func(c *Config, v string) error {
		c.ProtoPackage = v
		return nil
	}},
	{"update-shape", "LOADGEN_UPDATE_SHAPE", "REST update-menu body: nested ({\"menu\":...}) or bare", func(c *Config, v string) error {
		c.UpdateShape = strings.ToLower(v)
		return nil
	}},
	{"timeout", "LOADGEN_TIMEOUT", "per-request timeout", durationSetter(func(c *Config) *time.Duration { return &c.Timeout })},
	{"vus", "LOADGEN_VUS", "concurrent virtual users", intSetter(func(c *Config) *int { return &c.VUs })},
	{"duration", "LOADGEN_DURATION", "run length (0 = until iterations are done)", durationSetter(func(c *Config) *time.Duration { return &c.Duration })},
	{"iterations", "LOADGEN_ITERATIONS", "total iterations across all VUs (0 = unlimited)", intSetter(func(c *Config) *int { return &c.Iterations })},
	{"rate", "LOADGEN_RATE", "iteration starts per second across all VUs (0 = unpaced)", func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		c.Rate = f
		return nil
	}},
	{"sleep-unit", "LOADGEN_SLEEP_UNIT", "length of one pause unit", durationSetter(func(c *Config) *time.Duration { return &c.SleepUnit })},
	{"seed", "LOADGEN_SEED", "random seed (0 = nondeterministic)", func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}
		c.Seed = n
		return nil
	}},
	{"metrics-addr", "LOADGEN_METRICS_ADDR", "listen address for /metrics (empty = disabled)", func(c *Config, v string) error {
		c.MetricsAddr = v
		return nil
	}},
	{"log-level", "LOADGEN_LOG_LEVEL", "debug, info, warn or error", func(c *Config, v string) error {
		c.LogLevel = v
		return nil
	}},
	{"log-dir", "LOADGEN_LOG_DIR", "directory for per-run log files (empty = console only)", func(c *Config, v string) error {
		c.LogDir = v
		return nil
	}},
	{"report-dir", "LOADGEN_REPORT_DIR", "directory for per-iteration CSV reports (empty = disabled)", func(c *Config, v string) error {
		c.ReportDir = v
		return nil
	}},
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func durationSetter(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

// Load parses args (without the program name) and resolves the final
// configuration.
func Load(name string, args []string) (Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("LOADGEN_CONFIG"), "YAML scenario file")

	explicit := map[string]string{}
	for _, s := range settings {
		flagName := s.name
		fs.Func(flagName, s.usage+" (env "+s.env+")", func(v string) error {
			explicit[flagName] = v
			return nil
		})
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if *configPath != "" {
		fc, err := LoadFile(*configPath)
		if err != nil {
			return Config{}, err
		}
		if err := fc.Apply(&cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", *configPath, err)
		}
	}
	for _, s := range settings {
		if v, ok := os.LookupEnv(s.env); ok && v != "" {
			if err := s.set(&cfg, v); err != nil {
				return Config{}, fmt.Errorf("env %s: %w", s.env, err)
			}
		}
	}
	for _, s := range settings {
		if v, ok := explicit[s.name]; ok {
			if err := s.set(&cfg, v); err != nil {
				return Config{}, fmt.Errorf("flag -%s: %w", s.name, err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the runner cannot work with.
func (c Config) Validate() error {
	var errs []error
	switch c.Protocol {
	case ProtocolREST:
		if c.BaseURL == "" {
			errs = append(errs, errors.New("base-url is required for rest"))
		}
		if _, err := rest.ParseUpdateShape(c.UpdateShape); err != nil {
			errs = append(errs, err)
		}
	case ProtocolGRPC:
		if c.GRPCTarget == "" {
			errs = append(errs, errors.New("grpc-target is required for grpc"))
		}
	default:
		errs = append(errs, fmt.Errorf("protocol %q: want rest or grpc", c.Protocol))
	}
	if c.VUs <= 0 {
		errs = append(errs, fmt.Errorf("vus must be positive, got %d", c.VUs))
	}
	if c.Duration < 0 || c.Iterations < 0 || c.Rate < 0 {
		errs = append(errs, errors.New("duration, iterations and rate must not be negative"))
	}
	if c.Duration == 0 && c.Iterations == 0 {
		errs = append(errs, errors.New("one of duration or iterations must be set"))
	}
	if c.SleepUnit < 0 {
		errs = append(errs, errors.New("sleep-unit must not be negative"))
	}
	return errors.Join(errs...)
}
