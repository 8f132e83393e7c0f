// ABOUTME: Tests for the heart rate estimator
// ABOUTME: Covers BPM averaging, artifact rejection and the no-reading state
package hr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsemon/pulsemon-go/internal/annot"
)

func beatsAt(times ...float64) []annot.Beat {
	beats := make([]annot.Beat, len(times))
	for i, t := range times {
		beats[i] = annot.Beat{Time: t, Type: annot.Normal}
	}
	return beats
}

func TestSteadyRhythm(t *testing.T) {
	e := New(0)
	e.Update(beatsAt(0.0, 0.8, 1.6, 2.4))

	bpm, ok := e.Reading()
	require.True(t, ok)
	assert.InDelta(t, 75.0, bpm, 0.01)
}

func TestNoReadingWithFewerThanTwoBeats(t *testing.T) {
	e := New(0)

	_, ok := e.Reading()
	assert.False(t, ok)

	e.Update(beatsAt(1.0))
	_, ok = e.Reading()
	assert.False(t, ok)
}

func TestReadingClearsWhenWindowEmpties(t *testing.T) {
	e := New(0)
	e.Update(beatsAt(0.0, 0.8, 1.6))

	_, ok := e.Reading()
	require.True(t, ok)

	// The cursor moved past the beats; a stale value must not survive.
	e.Update(nil)
	_, ok = e.Reading()
	assert.False(t, ok)
}

func TestArtifactIntervalsExcluded(t *testing.T) {
	// A 0.1s double-trigger and a 3s dropout bracket a clean 0.8s rhythm.
	e := New(0)
	e.Update(beatsAt(0.0, 0.1, 0.9, 1.7, 2.5, 5.5))

	bpm, ok := e.Reading()
	require.True(t, ok)
	assert.InDelta(t, 75.0, bpm, 0.01)
}

func TestOnlyArtifactsMeansNoReading(t *testing.T) {
	e := New(0)
	e.Update(beatsAt(0.0, 0.05, 0.1))

	_, ok := e.Reading()
	assert.False(t, ok)
}

func TestWindowBoundedToCapacity(t *testing.T) {
	// Eight slow intervals followed by eight fast ones; only the fast
	// tail should survive in a capacity-8 window.
	times := []float64{0}
	cur := 0.0
	for i := 0; i < 8; i++ {
		cur += 1.0
		times = append(times, cur)
	}
	for i := 0; i < 8; i++ {
		cur += 0.5
		times = append(times, cur)
	}

	e := New(8)
	e.Update(beatsAt(times...))

	bpm, ok := e.Reading()
	require.True(t, ok)
	assert.InDelta(t, 120.0, bpm, 0.01)
}

func TestReset(t *testing.T) {
	e := New(0)
	e.Update(beatsAt(0.0, 0.8, 1.6))
	e.Reset()

	_, ok := e.Reading()
	assert.False(t, ok)
}
