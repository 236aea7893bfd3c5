package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRecorderObserveStep(t *testing.T) {
	r := NewRecorder()
	r.ObserveStep("Contour Detection", 1, 12, 3*time.Millisecond)
	r.ObserveStep("Circle Filtering", 12, 4, time.Millisecond)
	r.ObserveStep("Circle Filtering", 3, 1, time.Millisecond)
	r.SetDetections(5)

	families, err := r.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	names := make(map[string]int)
	for _, mf := range families {
		names[mf.GetName()] = len(mf.GetMetric())
	}

	tests := []struct {
		name   string
		series int
	}{
		{"addrslips_step_calls_total", 2},
		{"addrslips_step_items_in_total", 2},
		{"addrslips_step_items_out_total", 2},
		{"addrslips_step_duration_seconds", 2},
		{"addrslips_detections", 1},
	}
	for _, tt := range tests {
		if got := names[tt.name]; got != tt.series {
			t.Errorf("%s has %d series, want %d", tt.name, got, tt.series)
		}
	}
}

func TestRecorderConcurrent(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.ObserveStep("OCR Recognition", 1, 1, time.Millisecond)
		}()
	}
	wg.Wait()

	path := filepath.Join(t.TempDir(), "addrslips.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `addrslips_step_calls_total{step="OCR Recognition"} 16`) {
		t.Errorf("Unexpected textfile contents:\n%s", data)
	}
}

func TestRecordersAreIndependent(t *testing.T) {
	a := NewRecorder()
	b := NewRecorder()
	a.ObserveStep("Upscale", 1, 1, time.Millisecond)

	families, err := b.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "addrslips_step_") && len(mf.GetMetric()) != 0 {
			t.Errorf("%s leaked into a second recorder", mf.GetName())
		}
	}
}

func TestWriteTextfileError(t *testing.T) {
	r := NewRecorder()
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom")); err == nil {
		t.Error("Expected error for unwritable path")
	}
}
