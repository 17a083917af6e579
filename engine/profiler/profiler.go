package profiler

import (
	"fmt"
	"log"
	"runtime"
	"time"
)

// Profiler tracks frame rate, frame time and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	frameTotal     time.Duration
	frameMax       time.Duration
	elapsed        time.Duration
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	logf func(format string, args ...any)
}

// Stats is one reporting interval.
type Stats struct {
	FPS          float64
	AvgFrame     time.Duration
	MaxFrame     time.Duration
	HeapMB       float64
	AllocRateMB  float64
	GCCount      uint32
	MaxGCPauseUs uint64
	SysMB        float64
}

// String formats the stats as one log line.
func (s Stats) String() string {
	return fmt.Sprintf("FPS: %.2f | Frame: avg %.2f ms, max %.2f ms | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (max: %d µs) | Sys: %.2f MB",
		s.FPS, ms(s.AvgFrame), ms(s.MaxFrame), s.HeapMB, s.AllocRateMB, s.GCCount, s.MaxGCPauseUs, s.SysMB)
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// NewProfiler creates a new Profiler reporting once per second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		logf:           log.Printf,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// ProfilerOption is a functional option for configuring a Profiler.
type ProfilerOption func(p *Profiler)

// WithInterval sets how much frame time accumulates between reports. Non-positive values keep the default.
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithLogger replaces log.Printf as the output of the reports.
func WithLogger(logf func(format string, args ...any)) ProfilerOption {
	return func(p *Profiler) {
		if logf != nil {
			p.logf = logf
		}
	}
}

// Frame records one frame of the given duration. Once the accumulated frame time reaches the update
// interval it logs and returns the interval's stats.
//
// Parameters:
//   - dt: the duration of the frame
//
// Returns:
//   - Stats: the interval's stats, valid when the bool is true
//   - bool: true if stats were logged this frame
func (p *Profiler) Frame(dt time.Duration) (Stats, bool) {
	p.frameCount++
	p.frameTotal += dt
	p.elapsed += dt
	p.frameMax = max(p.frameMax, dt)

	if p.elapsed < p.updateInterval {
		return Stats{}, false
	}

	seconds := p.elapsed.Seconds()
	stats := Stats{
		FPS:      float64(p.frameCount) / seconds,
		AvgFrame: p.frameTotal / time.Duration(p.frameCount),
		MaxFrame: p.frameMax,
	}

	runtime.ReadMemStats(&p.memStats)
	stats.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	stats.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	stats.AllocRateMB = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	startIdx := p.lastGCCount
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		stats.MaxGCPauseUs = max(stats.MaxGCPauseUs, p.memStats.PauseNs[i%256]/1000)
	}
	stats.GCCount = gcCount

	p.logf("[profiler] %s", stats)

	p.frameCount = 0
	p.frameTotal = 0
	p.frameMax = 0
	p.elapsed = 0
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return stats, true
}
