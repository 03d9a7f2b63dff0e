package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleRun() *Run {
	return &Run{
		Scene:         "bounce",
		Dt:            1.0 / 60,
		Duration:      0.05,
		Steps:         3,
		Bodies:        2,
		Times:         []float64{0, 1.0 / 60, 2.0 / 60},
		Samples:       []float64{5.0, 4.99, 4.97},
		ContactEvents: 1,
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	if err := WriteJSON(path, sampleRun()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var got Run
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if got.Scene != "bounce" {
		t.Errorf("expected scene 'bounce', got %q", got.Scene)
	}
	if got.Steps != 3 {
		t.Errorf("expected 3 steps, got %d", got.Steps)
	}
	if len(got.Samples) != 3 || got.Samples[2] != 4.97 {
		t.Errorf("samples mangled: %v", got.Samples)
	}
	if got.ContactEvents != 1 {
		t.Errorf("expected 1 contact event, got %d", got.ContactEvents)
	}
}

func TestTrajectorySVGScalesToBounds(t *testing.T) {
	svg := TrajectorySVG([]float64{0, 1, 2}, []float64{0, 10, 5}, 400, 200, "#fff")
	if !strings.Contains(svg, "<svg") || !strings.Contains(svg, "<path") {
		t.Fatalf("not an svg path plot: %q", svg)
	}
	// three points, two line segments
	if strings.Count(svg, " L") != 2 {
		t.Errorf("expected 2 line segments, got %d", strings.Count(svg, " L"))
	}
}

func TestTrajectorySVGRejectsShortRuns(t *testing.T) {
	if svg := TrajectorySVG([]float64{0}, []float64{1}, 100, 100, "#fff"); svg != "" {
		t.Errorf("expected empty output for single sample, got %q", svg)
	}

	path := filepath.Join(t.TempDir(), "run.svg")
	run := &Run{Times: []float64{0}, Samples: []float64{1}}
	if err := WriteSVG(path, run, 100, 100); err == nil {
		t.Error("expected error for run too short to plot")
	}
}

func TestWriteSVGCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.svg")
	if err := WriteSVG(path, sampleRun(), 400, 200); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.HasPrefix(string(raw), `<?xml`) {
		t.Error("expected xml header")
	}
}
