// ABOUTME: RR-interval heart rate estimator
// ABOUTME: Averages a bounded window of beat intervals into a BPM reading
package hr

import (
	"gonum.org/v1/gonum/stat"

	"github.com/pulsemon/pulsemon-go/internal/annot"
)

const (
	// DefaultCapacity bounds the sliding window of RR intervals.
	DefaultCapacity = 8

	// Physiologic RR bounds; intervals outside are sensor artifacts and
	// are excluded from the average.
	MinRRSeconds = 0.3
	MaxRRSeconds = 2.0
)

// Estimator derives a smoothed BPM from beat events. It holds no clock of
// its own: callers feed it the beats currently inside the playback window.
type Estimator struct {
	capacity  int
	intervals []float64
}

// New creates an estimator with the given RR window capacity; capacity <= 0
// selects DefaultCapacity.
func New(capacity int) *Estimator {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Estimator{capacity: capacity}
}

// Update replaces the observation set from the beats now inside the
// window. Intervals outside the physiologic bounds are dropped; only the
// most recent capacity intervals are retained.
func (e *Estimator) Update(beats []annot.Beat) {
	e.intervals = e.intervals[:0]

	for i := 1; i < len(beats); i++ {
		rr := beats[i].Time - beats[i-1].Time
		if rr < MinRRSeconds || rr > MaxRRSeconds {
			continue
		}
		e.intervals = append(e.intervals, rr)
	}

	if len(e.intervals) > e.capacity {
		e.intervals = e.intervals[len(e.intervals)-e.capacity:]
	}
}

// Reset discards all observations.
func (e *Estimator) Reset() {
	e.intervals = e.intervals[:0]
}

// Reading returns the current BPM estimate. ok is false when fewer than
// two valid beats were available; callers must not substitute a default.
func (e *Estimator) Reading() (bpm float64, ok bool) {
	if len(e.intervals) == 0 {
		return 0, false
	}
	return 60.0 / stat.Mean(e.intervals, nil), true
}
