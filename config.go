package hds

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/hds/internal/logging"
	"github.com/viant/hds/model/job"
	"github.com/viant/hds/policy"
	"github.com/viant/hds/service/unit"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when the configuration cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the serialisable scheduler configuration.
type Config struct {
	LogFilename     string        `json:"logFilename" yaml:"log_filename"`
	LogLevel        string        `json:"logLevel" yaml:"log_level"`
	Tick            time.Duration `json:"tick" yaml:"tick"`
	RealtimeReserve int           `json:"realtimeReserve" yaml:"realtime_reserve"`
	Admission       string        `json:"admission" yaml:"admission"`
	Executor        unit.Kind     `json:"executor" yaml:"executor"`
	TraceFile       string        `json:"traceFile,omitempty" yaml:"trace_file"`
	SnapshotBuffer  int           `json:"snapshotBuffer" yaml:"snapshot_buffer"`
	MaxResources    job.Limits    `json:"maxResources" yaml:"max_resources"`

	// Jobs is the loaded process list, in file order.
	Jobs []*job.Descriptor `json:"jobs" yaml:"-"`
	// Skipped describes process list records that could not be loaded.
	Skipped []string `json:"skipped,omitempty" yaml:"-"`
}

// DefaultConfig returns a Config populated with default values. Resource
// limits and jobs have no defaults.
func DefaultConfig() *Config {
	return &Config{
		LogFilename:     logging.DefaultFilename,
		LogLevel:        "info",
		Tick:            time.Second,
		RealtimeReserve: 64,
		Admission:       policy.ModeMemory,
		Executor:        unit.KindThread,
		SnapshotBuffer:  100,
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config was nil", ErrInvalidConfig)
	}
	var errs []error
	if c.Tick <= 0 {
		errs = append(errs, fmt.Errorf("tick must be > 0, got %v", c.Tick))
	}
	if err := c.MaxResources.Validate(); err != nil {
		errs = append(errs, err)
	} else if c.RealtimeReserve < 0 || c.RealtimeReserve >= c.MaxResources.Memory {
		errs = append(errs, fmt.Errorf("realtime_reserve must be in [0, %d), got %d", c.MaxResources.Memory, c.RealtimeReserve))
	}
	if _, err := policy.New(c.Admission); err != nil {
		errs = append(errs, err)
	}
	switch c.Executor {
	case "", unit.KindThread, unit.KindProcess:
	default:
		errs = append(errs, fmt.Errorf("unsupported executor: %q", c.Executor))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	for _, descriptor := range c.Jobs {
		if descriptor.CPUReq < 0 || descriptor.MemoryReq < 0 || descriptor.PrinterReq < 0 || descriptor.ScannerReq < 0 {
			errs = append(errs, fmt.Errorf("job #%d: requirements must be >= 0", descriptor.Seq))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// record mirrors a process list item; nil marks a missing field.
type record struct {
	Priority   *int `yaml:"priority"`
	CPUReq     *int `yaml:"cpu_req"`
	MemoryReq  *int `yaml:"memory_req"`
	PrinterReq *int `yaml:"printer_req"`
	ScannerReq *int `yaml:"scanner_req"`
}

func (r *record) missing() []string {
	fields := []struct {
		name  string
		value *int
	}{
		{"priority", r.Priority},
		{"cpu_req", r.CPUReq},
		{"memory_req", r.MemoryReq},
		{"printer_req", r.PrinterReq},
		{"scanner_req", r.ScannerReq},
	}
	var ret []string
	for _, field := range fields {
		if field.value == nil {
			ret = append(ret, field.name)
		}
	}
	return ret
}

type document struct {
	Config      `yaml:",inline"`
	ProcessList []*record `yaml:"process_list"`
}

// DecodeConfig parses YAML configuration on top of DefaultConfig. Process
// list records with missing fields are skipped and reported in Skipped.
func DecodeConfig(data []byte) (*Config, error) {
	doc := &document{Config: *DefaultConfig()}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg := &doc.Config
	for i, item := range doc.ProcessList {
		if item == nil {
			cfg.Skipped = append(cfg.Skipped, fmt.Sprintf("process %d: empty record", i+1))
			continue
		}
		if missing := item.missing(); len(missing) > 0 {
			cfg.Skipped = append(cfg.Skipped, fmt.Sprintf("process %d: missing %s", i+1, strings.Join(missing, ", ")))
			continue
		}
		cfg.Jobs = append(cfg.Jobs, &job.Descriptor{
			Seq:        len(cfg.Jobs) + 1,
			Priority:   *item.Priority,
			CPUReq:     *item.CPUReq,
			MemoryReq:  *item.MemoryReq,
			PrinterReq: *item.PrinterReq,
			ScannerReq: *item.ScannerReq,
		})
	}
	return cfg, nil
}

// LoadConfig downloads the YAML configuration from URL (any afs supported
// scheme) and decodes it.
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	cfg, err := DecodeConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	return cfg, nil
}
