package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the layout of a YAML scenario file. Zero values leave the
// corresponding setting untouched.
type FileConfig struct {
	Target TargetSection `yaml:"target"`
	Load   LoadSection   `yaml:"load"`
	Output OutputSection `yaml:"output"`
}

type TargetSection struct {
	Protocol     string `yaml:"protocol"`
	BaseURL      string `yaml:"base_url"`
	GRPCTarget   string `yaml:"grpc_target"`
	ProtoPackage string `yaml:"proto_package"`
	UpdateShape  string `yaml:"update_shape"`
	Timeout      string `yaml:"timeout"`
}

type LoadSection struct {
	VUs        int     `yaml:"vus"`
	Duration   string  `yaml:"duration"`
	Iterations int     `yaml:"iterations"`
	Rate       float64 `yaml:"rate"`
	SleepUnit  string  `yaml:"sleep_unit"`
	Seed       uint64  `yaml:"seed"`
}

type OutputSection struct {
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogDir      string `yaml:"log_dir"`
	ReportDir   string `yaml:"report_dir"`
}

// LoadFile reads a YAML scenario file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &fc, nil
}

// Apply copies the non-zero settings of the file into c.
func (f *FileConfig) Apply(c *Config) error {
	t := f.Target
	setIf(&c.Protocol, t.Protocol)
	setIf(&c.BaseURL, t.BaseURL)
	setIf(&c.GRPCTarget, t.GRPCTarget)
	setIf(&c.ProtoPackage, t.ProtoPackage)
	setIf(&c.UpdateShape, t.UpdateShape)
	if err := setDuration(&c.Timeout, t.Timeout, "timeout"); err != nil {
		return err
	}

	l := f.Load
	if l.VUs > 0 {
		c.VUs = l.VUs
	}
	if err := setDuration(&c.Duration, l.Duration, "duration"); err != nil {
		return err
	}
	if l.Iterations > 0 {
		c.Iterations = l.Iterations
	}
	if l.Rate > 0 {
		c.Rate = l.Rate
	}
	if err := setDuration(&c.SleepUnit, l.SleepUnit, "sleep_unit"); err != nil {
		return err
	}
	if l.Seed > 0 {
		c.Seed = l.Seed
	}

	o := f.Output
	setIf(&c.MetricsAddr, o.MetricsAddr)
	setIf(&c.LogLevel, o.LogLevel)
	setIf(&c.LogDir, o.LogDir)
	setIf(&c.ReportDir, o.ReportDir)
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, name string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = d
	return nil
}
