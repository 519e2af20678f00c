package memguard

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"glyphcache/internal/logging"
)

// Sampler reports the process's current memory footprint in MB.
type Sampler func() (float64, error)

// Config bounds the governor's behavior.
type Config struct {
	// CeilingMB triggers a collection pass when exceeded.
	CeilingMB float64
	// Pause is the cooperative wait after a collection so the runtime can
	// return pages before work resumes.
	Pause time.Duration
}

// Governor watches process memory and triggers collection under pressure.
type Governor struct {
	cfg         Config
	sampler     Sampler
	logger      *slog.Logger
	collections atomic.Int64
}

// NewGovernor builds a governor using the default RSS sampler.
func NewGovernor(cfg Config, logger *slog.Logger) *Governor {
	if cfg.CeilingMB <= 0 {
		cfg.CeilingMB = 2000
	}
	if cfg.Pause <= 0 {
		cfg.Pause = 50 * time.Millisecond
	}
	return &Governor{
		cfg:     cfg,
		sampler: rssSampler,
		logger:  logging.NewComponentLogger(logger, "memguard"),
	}
}

// Sample returns the current memory footprint in MB. Sampler failures fall
// back to the Go heap estimate rather than erroring out.
func (g *Governor) Sample() float64 {
	if mb, err := g.sampler(); err == nil {
		return mb
	}
	return heapMB()
}

// MaybeCollect runs a collection pass when force is set or the current sample
// exceeds the ceiling. It re-samples after collecting and reports whether a
// pass ran. The pause is context-aware so cancellation is not delayed.
func (g *Governor) MaybeCollect(ctx context.Context, force bool) bool {
	before := g.Sample()
	if !force && before <= g.cfg.CeilingMB {
		return false
	}

	runtime.GC()
	debug.FreeOSMemory()

	timer := time.NewTimer(g.cfg.Pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}

	after := g.Sample()
	g.collections.Add(1)
	g.logger.Debug("memory collection pass",
		logging.Bool("forced", force),
		logging.Float64("before_mb", before),
		logging.Float64("after_mb", after),
		logging.Float64("ceiling_mb", g.cfg.CeilingMB))
	return true
}

// Collections returns how many collection passes have run.
func (g *Governor) Collections() int64 {
	return g.collections.Load()
}

// rssSampler reads the resident set size from /proc/self/statm, falling back
// to the Go heap estimate on platforms without procfs.
func rssSampler() (float64, error) {
	data, err := os.ReadFile("/proc/self/statm")
	if err != nil {
		return heapMB(), nil
	}
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return heapMB(), nil
	}
	pages, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return heapMB(), nil
	}
	pageSize := int64(unix.Getpagesize())
	return float64(pages*pageSize) / (1024 * 1024), nil
}

func heapMB() float64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return float64(stats.HeapAlloc) / (1024 * 1024)
}
