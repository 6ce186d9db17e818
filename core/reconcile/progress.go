package reconcile

import (
	"math"
	"sync"
)

// Reporter receives progress updates from a reconcile call.
// Fractions are in [0, 1] and never decrease within one call.
// Report must not block; throttling and delivery thread are the receiver's concern.
type Reporter interface {
	Report(fraction float64, stage string)
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(fraction float64, stage string)

// Report calls f(fraction, stage).
func (f ReporterFunc) Report(fraction float64, stage string) {
	f(fraction, stage)
}

// NopReporter discards progress updates.
type NopReporter struct{}

// Report does nothing.
func (NopReporter) Report(float64, string) {}

// ProgressBand places a reconcile call inside an outer multi-phase sync.
type ProgressBand struct {
	// Start is reported once the batch begins.
	Start float64
	// End is reached by the last per-record update.
	End float64
	// Final is reported after the batch is committed.
	Final float64
}

// DefaultProgressBand returns the band used by the library sync.
func DefaultProgressBand() ProgressBand {
	return ProgressBand{Start: 0.75, End: 0.95, Final: 1.0}
}

// normalized clamps the band to [0, 1] and orders it Start <= End <= Final.
func (b ProgressBand) normalized() ProgressBand {
	clamp := func(v float64) float64 {
		if v < 0 || math.IsNaN(v) {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	b.Start, b.End, b.Final = clamp(b.Start), clamp(b.End), clamp(b.Final)
	if b.End < b.Start {
		b.End = b.Start
	}
	if b.Final < b.End {
		b.Final = b.End
	}
	return b
}

type progressUpdate struct {
	fraction float64
	stage    string
}

// AsyncReporter forwards updates to another Reporter on its own goroutine.
// Report never blocks: when the target is slow, intermediate updates are
// replaced by the newest one, so the target still sees a non-decreasing sequence.
type AsyncReporter struct {
	target Reporter

	mu      sync.Mutex
	pending *progressUpdate
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

// NewAsyncReporter starts delivering updates to target. Call Close when done.
func NewAsyncReporter(target Reporter) *AsyncReporter {
	a := &AsyncReporter{
		target: target,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

// Report queues an update. Updates after Close are dropped.
func (a *AsyncReporter) Report(fraction float64, stage string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.pending = &progressUpdate{fraction: fraction, stage: stage}
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Close delivers the last pending update and stops the goroutine.
func (a *AsyncReporter) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return
	}
	a.closed = true
	close(a.wake)
	a.mu.Unlock()
	<-a.done
}

func (a *AsyncReporter) run() {
	defer close(a.done)
	for range a.wake {
		a.deliver()
	}
	a.deliver()
}

func (a *AsyncReporter) deliver() {
	a.mu.Lock()
	update := a.pending
	a.pending = nil
	a.mu.Unlock()
	if update != nil {
		a.target.Report(update.fraction, update.stage)
	}
}
