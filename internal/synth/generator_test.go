// ABOUTME: Tests for the synthetic ECG generator
// ABOUTME: Covers determinism, schedule plausibility and decoder contract parity
package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsemon/pulsemon-go/internal/annot"
	"github.com/pulsemon/pulsemon-go/internal/edf"
)

func TestFixedSeedReproducesRecording(t *testing.T) {
	cfg := Config{Seed: 11, Duration: 20}

	recA, beatsA := New(cfg).Generate()
	recB, beatsB := New(cfg).Generate()

	require.Equal(t, beatsA, beatsB)
	require.Equal(t, recA.Channels[0].Digital, recB.Channels[0].Digital)
}

func TestDifferentSeedsDiverge(t *testing.T) {
	recA, _ := New(Config{Seed: 1, Duration: 10}).Generate()
	recB, _ := New(Config{Seed: 2, Duration: 10}).Generate()

	assert.NotEqual(t, recA.Channels[0].Digital, recB.Channels[0].Digital)
}

func TestScheduleIntervalsPhysiologic(t *testing.T) {
	_, beats := New(Config{Seed: 5, Duration: 60}).Generate()
	require.Greater(t, len(beats), 50) // ~75 BPM over a minute

	for i := 1; i < len(beats); i++ {
		rr := beats[i].Time - beats[i-1].Time
		assert.GreaterOrEqual(t, rr, 0.3)
		assert.LessOrEqual(t, rr, 2.0)
	}
}

func TestRecordingMatchesDecoderContract(t *testing.T) {
	rec, _ := New(Config{Seed: 5, Duration: 10}).Generate()

	require.Len(t, rec.Channels, 3)
	for i := range rec.Channels {
		assert.Equal(t, rec.Header.RecordCount*rec.Channels[i].Spec.SamplesPerRecord,
			rec.Channels[i].Len())
	}
	assert.InDelta(t, 360.0, rec.SampleRate(0), 1e-9)
	assert.InDelta(t, 10.0, rec.Duration(), 1e-9)

	// The generated recording must survive the real codec round-trip.
	buf, err := edf.Encode(rec)
	require.NoError(t, err)
	decoded, err := edf.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, rec.Channels[0].Digital, decoded.Channels[0].Digital)
}

func TestSamplesWithinCalibrationRange(t *testing.T) {
	rec, _ := New(Config{Seed: 5, Duration: 10}).Generate()

	for _, ch := range rec.Channels {
		for i := 0; i < ch.Len(); i++ {
			v := ch.Physical(i)
			assert.GreaterOrEqual(t, v, -5.0)
			assert.LessOrEqual(t, v, 5.0)
		}
	}
}

func TestEctopicBeatsTagged(t *testing.T) {
	_, beats := New(Config{Seed: 13, Duration: 120}).Generate()

	var pvcs int
	for _, b := range beats {
		if b.Type == annot.PrematureVentricular {
			pvcs++
		}
	}
	assert.Greater(t, pvcs, 0)
	assert.Less(t, pvcs, len(beats)/5)
}
