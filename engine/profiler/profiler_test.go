package profiler

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"
)

func TestTickInstantaneous(t *testing.T) {
	tests := []struct {
		name      string
		dt        float64
		wantFPS   float64
		wantFrame float64
	}{
		{"sixty", 1.0 / 60, 60, 1000.0 / 60},
		{"ten ms", 0.01, 100, 10},
		{"zero", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProfiler()
			p.Tick(tt.dt)
			if got := p.FPS(); math.Abs(got-tt.wantFPS) > 1e-9 {
				t.Errorf("FPS() = %v, want %v", got, tt.wantFPS)
			}
			if got := p.FrameTimeMS(); math.Abs(got-tt.wantFrame) > 1e-9 {
				t.Errorf("FrameTimeMS() = %v, want %v", got, tt.wantFrame)
			}
		})
	}
}

func TestTickSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := NewProfiler(WithLogger(logger), WithUpdateInterval(125*time.Millisecond))

	logged := 0
	for i := 0; i < 20; i++ {
		if p.Tick(1.0 / 64) {
			logged++
		}
	}

	if logged != 2 {
		t.Errorf("Tick() logged %d summaries, want 2", logged)
	}
	if got := p.AverageFPS(); got != 64 {
		t.Errorf("AverageFPS() = %v, want 64", got)
	}
	if got := p.Frames(); got != 20 {
		t.Errorf("Frames() = %d, want 20", got)
	}
	if !strings.Contains(buf.String(), "fps=") {
		t.Errorf("summary %q does not contain fps", buf.String())
	}
}

func TestTickIgnoresNegative(t *testing.T) {
	p := NewProfiler()
	if p.Tick(-1) {
		t.Errorf("Tick(-1) = true, want false")
	}
	if got := p.Frames(); got != 0 {
		t.Errorf("Frames() = %d, want 0", got)
	}
}
