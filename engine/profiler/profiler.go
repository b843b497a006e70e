package profiler

import (
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Profiler tracks frame timing and memory statistics for performance monitoring.
// The instantaneous values feed the overlay. A summary is logged at debug level once per update interval.
type Profiler struct {
	mu             *sync.Mutex
	logger         *slog.Logger
	updateInterval time.Duration

	lastDT      float64
	frameCount  int
	windowTime  float64
	averageFPS  float64
	totalFrames uint64

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: a variadic list of ProfilerBuilderOption functions to configure the Profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		mu:             &sync.Mutex{},
		logger:         slog.Default(),
		updateInterval: time.Second,
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// Tick should be called once per frame with the time since the previous frame.
// When the update interval has elapsed it logs the average FPS, heap usage, allocation rate and GC pauses.
//
// Parameters:
//   - dt: the frame time in seconds, ignored when negative
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(dt float64) bool {
	if dt < 0 {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastDT = dt
	p.frameCount++
	p.totalFrames++
	p.windowTime += dt

	if p.windowTime < p.updateInterval.Seconds() {
		return false
	}

	p.averageFPS = float64(p.frameCount) / p.windowTime

	runtime.ReadMemStats(&p.memStats)
	// Alloc is live heap, TotalAlloc only grows and tracks churn, Sys is the process footprint.
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / p.windowTime

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	p.logger.Debug("profiler",
		slog.Float64("fps", p.averageFPS),
		slog.Float64("heap_mb", allocMB),
		slog.Float64("alloc_rate_mb_s", allocRateMB),
		slog.Uint64("gc", uint64(gcCount)),
		slog.Uint64("gc_last_us", lastPauseUs),
		slog.Uint64("gc_max_us", maxPauseUs),
		slog.Float64("sys_mb", sysMB),
	)

	p.frameCount = 0
	p.windowTime = 0
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// FPS returns the instantaneous frame rate, 1/dt of the last tick, or 0 before the first non-zero tick.
func (p *Profiler) FPS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastDT <= 0 {
		return 0
	}
	return 1 / p.lastDT
}

// FrameTimeMS returns the last frame time in milliseconds.
func (p *Profiler) FrameTimeMS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastDT * 1000
}

// AverageFPS returns the frame rate averaged over the last completed update interval.
func (p *Profiler) AverageFPS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.averageFPS
}

// Frames returns the number of frames ticked since construction.
func (p *Profiler) Frames() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalFrames
}
