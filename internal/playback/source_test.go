// ABOUTME: Tests for the playback dataset adapter
// ABOUTME: Covers window slicing, beat range queries and dataset validation
package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsemon/pulsemon-go/internal/annot"
	"github.com/pulsemon/pulsemon-go/internal/synth"
)

func testDataset(t *testing.T, duration float64) *Dataset {
	t.Helper()
	rec, beats := synth.New(synth.Config{Seed: 21, Duration: duration}).Generate()
	ds, err := NewDataset(Synthetic, rec, beats)
	require.NoError(t, err)
	return ds
}

func TestWindowSliceLength(t *testing.T) {
	ds := testDataset(t, 10)

	win := ds.Window(2.0, 5.0)
	require.Len(t, win, 3)
	for _, cw := range win {
		assert.Len(t, cw.Samples, 3*360)
		assert.Equal(t, "mV", cw.Unit)
	}
	assert.Equal(t, "ECG I", win[0].Label)
	assert.InDelta(t, 2.0, win[0].Samples[0].Time, 1e-9)
}

func TestWindowClampsToBounds(t *testing.T) {
	ds := testDataset(t, 10)

	win := ds.Window(-5.0, 20.0)
	for _, cw := range win {
		assert.Len(t, cw.Samples, 10*360)
	}

	empty := ds.Window(4.0, 4.0)
	assert.Empty(t, empty[0].Samples)
}

func TestConsecutiveWindowsTile(t *testing.T) {
	ds := testDataset(t, 10)

	a := ds.Window(0, 3.7)
	b := ds.Window(3.7, 10)
	assert.Equal(t, 10*360, len(a[0].Samples)+len(b[0].Samples))
}

func TestBeatsRange(t *testing.T) {
	ds := testDataset(t, 60)

	all := ds.Beats(0, 60)
	require.NotEmpty(t, all)

	head := ds.Beats(0, 30)
	tail := ds.Beats(30, 60)
	assert.Equal(t, len(all), len(head)+len(tail))

	for _, b := range head {
		assert.LessOrEqual(t, b.Time, 30.0)
	}
	for _, b := range tail {
		assert.Greater(t, b.Time, 30.0)
	}
}

func TestNewDatasetRejectsOutOfOrderBeats(t *testing.T) {
	rec, _ := synth.New(synth.Config{Seed: 21, Duration: 10}).Generate()

	_, err := NewDataset(RealDecoded, rec, []annot.Beat{
		{Time: 2.0, Type: annot.Normal},
		{Time: 1.0, Type: annot.Normal},
	})
	assert.Error(t, err)
}

func TestNewDatasetRejectsEmptyRecording(t *testing.T) {
	_, err := NewDataset(RealDecoded, nil, nil)
	assert.Error(t, err)
}
