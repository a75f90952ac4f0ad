package job

import "fmt"

// Priority levels. A lower number is more urgent.
const (
	PriorityRealtime = 0
	PriorityHigh     = 1
	PriorityMedium   = 2
	PriorityLow      = 3
)

// Descriptor describes a job loaded by the configuration collaborator.
type Descriptor struct {
	Seq        int `json:"seq" yaml:"-"`
	Priority   int `json:"priority" yaml:"priority"`
	CPUReq     int `json:"cpuReq" yaml:"cpu_req"`
	MemoryReq  int `json:"memoryReq" yaml:"memory_req"`
	PrinterReq int `json:"printerReq" yaml:"printer_req"`
	ScannerReq int `json:"scannerReq" yaml:"scanner_req"`
}

// IsRealtime returns true for realtime descriptors.
func (d *Descriptor) IsRealtime() bool {
	return d.Priority == PriorityRealtime
}

// String returns a human readable descriptor line.
func (d *Descriptor) String() string {
	return fmt.Sprintf("job #%d: priority=%d cpu=%d memory=%d printer=%d scanner=%d",
		d.Seq, d.Priority, d.CPUReq, d.MemoryReq, d.PrinterReq, d.ScannerReq)
}

// Limits represents maximum resource units available to user jobs.
type Limits struct {
	Memory  int `json:"memory" yaml:"memory"`
	Printer int `json:"printer" yaml:"printer"`
	Scanner int `json:"scanner" yaml:"scanner"`
}

// Validate checks that limits are not negative.
func (l *Limits) Validate() error {
	if l.Memory <= 0 {
		return fmt.Errorf("max memory must be > 0, got %d", l.Memory)
	}
	if l.Printer < 0 || l.Scanner < 0 {
		return fmt.Errorf("max printer/scanner must be >= 0, got %d/%d", l.Printer, l.Scanner)
	}
	return nil
}

// IsUserPriority returns true when priority names one of the user queues.
func IsUserPriority(priority int) bool {
	return priority >= PriorityHigh && priority <= PriorityLow
}
