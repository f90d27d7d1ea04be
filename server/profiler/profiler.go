// Package profiler implements a tick profiler: lock-free rolling-window
// timing for the world tick, player tick, and total tick phases, plus a
// slow-tick counter. Disabled by default, in which case every record
// call is a cheap no-op.
package profiler

import (
	"time"

	"github.com/df-mc/atomic"
)

const windowSize = 100

// rollingWindow is a lock-free circular buffer of the last windowSize
// samples, kept alongside a running sum so the average is O(1) to read.
type rollingWindow struct {
	samples [windowSize]atomic.Uint64
	index   atomic.Uint64
	sum     atomic.Uint64
}

func (w *rollingWindow) record(nanos uint64) {
	idx := w.index.Add(1) - 1
	slot := &w.samples[idx%windowSize]
	old := slot.Swap(nanos)
	w.sum.Add(nanos)
	w.sum.Sub(old)
}

func (w *rollingWindow) count() uint64 {
	n := w.index.Load()
	if n > windowSize {
		return windowSize
	}
	return n
}

func (w *rollingWindow) average() uint64 {
	n := w.count()
	if n == 0 {
		return 0
	}
	return w.sum.Load() / n
}

func (w *rollingWindow) last() uint64 {
	idx := w.index.Load()
	if idx == 0 {
		return 0
	}
	return w.samples[(idx-1)%windowSize].Load()
}

func (w *rollingWindow) peak() uint64 {
	n := w.count()
	var peak uint64
	for i := uint64(0); i < n; i++ {
		if v := w.samples[i].Load(); v > peak {
			peak = v
		}
	}
	return peak
}

// Snapshot is a point-in-time read of every profiled phase.
type Snapshot struct {
	WorldAvgNanos, WorldLastNanos, WorldPeakNanos    uint64
	PlayerAvgNanos, PlayerLastNanos, PlayerPeakNanos uint64
	TotalAvgNanos, TotalLastNanos, TotalPeakNanos    uint64
	SlowTickCount                                    uint64
	TotalTicks                                       uint64
}

// WorldAvgMillis returns the world-tick average in milliseconds.
func (s Snapshot) WorldAvgMillis() float64 { return float64(s.WorldAvgNanos) / 1e6 }

// TotalAvgMillis returns the total-tick average in milliseconds.
func (s Snapshot) TotalAvgMillis() float64 { return float64(s.TotalAvgNanos) / 1e6 }

// BudgetUsagePercent returns the average total tick time as a percentage
// of a 50ms (20 TPS) tick budget.
func (s Snapshot) BudgetUsagePercent() float64 { return (float64(s.TotalAvgNanos) / 5e7) * 100 }

// DefaultSlowThresholdMillis is one full tick at 20 TPS.
const DefaultSlowThresholdMillis = 50

// Profiler tracks per-phase tick timing. The zero value is disabled; call
// SetEnabled(true) to start recording.
type Profiler struct {
	enabled             atomic.Bool
	slowThresholdMillis atomic.Uint64

	world, player, total rollingWindow
	slowTickCount        atomic.Uint64
}

// New returns a disabled Profiler with the default slow-tick threshold.
func New() *Profiler {
	p := &Profiler{}
	p.slowThresholdMillis.Store(DefaultSlowThresholdMillis)
	return p
}

// SetEnabled toggles recording.
func (p *Profiler) SetEnabled(enabled bool) { p.enabled.Store(enabled) }

// Enabled reports whether recording is currently active.
func (p *Profiler) Enabled() bool { return p.enabled.Load() }

// SetSlowThresholdMillis sets the duration above which a total tick is
// counted as slow.
func (p *Profiler) SetSlowThresholdMillis(ms uint64) { p.slowThresholdMillis.Store(ms) }

// BeginPhase marks the start of a timed phase.
func (p *Profiler) BeginPhase() time.Time { return time.Now() }

// RecordWorldTick records a world-tick phase's duration since start. A
// no-op when the profiler is disabled.
func (p *Profiler) RecordWorldTick(start time.Time) {
	if !p.Enabled() {
		return
	}
	p.world.record(uint64(time.Since(start).Nanoseconds()))
}

// RecordPlayerTick records a player/network tick phase's duration.
func (p *Profiler) RecordPlayerTick(start time.Time) {
	if !p.Enabled() {
		return
	}
	p.player.record(uint64(time.Since(start).Nanoseconds()))
}

// RecordTotalTick records the whole tick's duration and, if it exceeds
// the slow-tick threshold, increments the slow-tick counter.
func (p *Profiler) RecordTotalTick(start time.Time) {
	if !p.Enabled() {
		return
	}
	elapsed := time.Since(start)
	p.total.record(uint64(elapsed.Nanoseconds()))
	if elapsed.Milliseconds() >= int64(p.slowThresholdMillis.Load()) {
		p.slowTickCount.Add(1)
	}
}

// Snapshot reads every profiled phase's current statistics.
func (p *Profiler) Snapshot() Snapshot {
	return Snapshot{
		WorldAvgNanos:  p.world.average(),
		WorldLastNanos: p.world.last(),
		WorldPeakNanos: p.world.peak(),

		PlayerAvgNanos:  p.player.average(),
		PlayerLastNanos: p.player.last(),
		PlayerPeakNanos: p.player.peak(),

		TotalAvgNanos:  p.total.average(),
		TotalLastNanos: p.total.last(),
		TotalPeakNanos: p.total.peak(),

		SlowTickCount: p.slowTickCount.Load(),
		TotalTicks:    p.total.index.Load(),
	}
}
