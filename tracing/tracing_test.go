package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestTracingFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "span_test.txt")

	if err := Init("hds", "0.0.1", fname); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	_, span := StartSpan(context.Background(), "memory.Allocate")
	span.WithAttributes(map[string]string{"k": "v"}).WithInt("pid", 7)
	span.AddEvent("compaction")
	EndSpan(span, errors.New("out of memory"))
	if err := Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	data, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("no data written to trace file")
	}
}

func TestNilSpan(t *testing.T) {
	var span *Span
	span.WithInt("pid", 1).WithAttributes(map[string]string{"a": "b"})
	span.AddEvent("noop")
	EndSpan(span, nil)
}
