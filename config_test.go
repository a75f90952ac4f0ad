package hds_test

import (
	"context"
	"embed"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/viant/afs/embed"
	"github.com/viant/hds"
	"github.com/viant/hds/model/job"
)

//go:embed testdata/*
var embedFS embed.FS

func TestLoadConfig(t *testing.T) {
	cfg, err := hds.LoadConfig(context.Background(), "embed:///testdata/config.yaml", &embedFS)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Millisecond, cfg.Tick)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, job.Limits{Memory: 1024, Printer: 2, Scanner: 1}, cfg.MaxResources)
	assert.Equal(t, []*job.Descriptor{
		{Seq: 1, Priority: 0, CPUReq: 2, MemoryReq: 5},
		{Seq: 2, Priority: 1, CPUReq: 3, MemoryReq: 100, PrinterReq: 1},
		{Seq: 3, Priority: 2, CPUReq: 2, MemoryReq: 200, ScannerReq: 1},
		{Seq: 4, Priority: 7, CPUReq: 1, MemoryReq: 10},
	}, cfg.Jobs)
	assert.Equal(t, []string{"process 3: missing printer_req"}, cfg.Skipped)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := hds.LoadConfig(context.Background(), "embed:///testdata/absent.yaml", &embedFS)
	assert.Error(t, err)
}

func TestDecodeConfig(t *testing.T) {
	testCases := []struct {
		description string
		yaml        string
		wantErr     bool
		validErr    bool
		expect      func(t *testing.T, cfg *hds.Config)
	}{
		{
			description: "defaults",
			yaml:        "max_resources: {memory: 100}",
			expect: func(t *testing.T, cfg *hds.Config) {
				assert.Equal(t, time.Second, cfg.Tick)
				assert.Equal(t, 64, cfg.RealtimeReserve)
				assert.EqualValues(t, "thread", cfg.Executor)
				assert.Equal(t, "memory", cfg.Admission)
				assert.Empty(t, cfg.Jobs)
			},
		},
		{
			description: "malformed yaml",
			yaml:        "max_resources: [",
			wantErr:     true,
		},
		{
			description: "reserve covers all memory",
			yaml:        "max_resources: {memory: 64}",
			validErr:    true,
		},
		{
			description: "missing limits",
			yaml:        "tick: 1s",
			validErr:    true,
		},
		{
			description: "unknown admission and executor",
			yaml:        "admission: fair\nexecutor: vm\nmax_resources: {memory: 100}",
			validErr:    true,
		},
		{
			description: "negative requirement",
			yaml:        "max_resources: {memory: 100}\nprocess_list:\n  - {priority: 1, cpu_req: -1, memory_req: 1, printer_req: 0, scanner_req: 0}",
			validErr:    true,
		},
		{
			description: "empty record skipped",
			yaml:        "max_resources: {memory: 100}\nprocess_list:\n  -\n  - {priority: 1, cpu_req: 1, memory_req: 1, printer_req: 0, scanner_req: 0}",
			expect: func(t *testing.T, cfg *hds.Config) {
				require.Len(t, cfg.Jobs, 1)
				assert.Equal(t, 1, cfg.Jobs[0].Seq)
				assert.Equal(t, []string{"process 1: empty record"}, cfg.Skipped)
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			cfg, err := hds.DecodeConfig([]byte(testCase.yaml))
			if testCase.wantErr {
				assert.True(t, errors.Is(err, hds.ErrInvalidConfig))
				return
			}
			require.NoError(t, err)
			err = cfg.Validate()
			if testCase.validErr {
				assert.True(t, errors.Is(err, hds.ErrInvalidConfig))
				return
			}
			require.NoError(t, err)
			if testCase.expect != nil {
				testCase.expect(t, cfg)
			}
		})
	}
}
