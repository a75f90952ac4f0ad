package policy

import (
	"fmt"
	"strings"
)

// Admission modes recognised by the scheduler.
const (
	ModeMemory = "memory" // memory only (default)
	ModeFull   = "full"   // memory, printer and scanner
)

// Demand represents a set of resource units, either requested or available.
type Demand struct {
	Memory  int
	Printer int
	Scanner int
}

// Policy decides whether a demand can be admitted against the available units.
//
// A nil *Policy behaves as ModeMemory.
type Policy struct {
	Mode string
}

// Config represents the serialisable part of a Policy.
type Config struct {
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// New returns a policy for the supplied mode.
func New(mode string) (*Policy, error) {
	normalized := strings.ToLower(strings.TrimSpace(mode))
	switch normalized {
	case "":
		normalized = ModeMemory
	case ModeMemory, ModeFull:
	default:
		return nil, fmt.Errorf("unsupported admission mode: %q", mode)
	}
	return &Policy{Mode: normalized}, nil
}

// FromConfig converts a stored Config to a Policy.
func FromConfig(c *Config) (*Policy, error) {
	if c == nil {
		return New("")
	}
	return New(c.Mode)
}

// Admit reports whether requested fits into available. Memory must be strictly
// lower than what is available; devices, when checked, must not exceed it.
func (p *Policy) Admit(requested, available Demand) bool {
	if requested.Memory >= available.Memory {
		return false
	}
	if !p.ChecksDevices() {
		return true
	}
	return requested.Printer <= available.Printer && requested.Scanner <= available.Scanner
}

// ChecksDevices reports whether printers and scanners take part in admission.
// Devices are only reserved for running jobs when they do.
func (p *Policy) ChecksDevices() bool {
	return p != nil && p.Mode == ModeFull
}
