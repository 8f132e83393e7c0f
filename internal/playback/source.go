// ABOUTME: Playback data source over decoded or synthetic recordings
// ABOUTME: Slices calibrated sample windows and beat ranges from an immutable dataset
package playback

import (
	"fmt"
	"math"
	"sort"

	"github.com/pulsemon/pulsemon-go/internal/annot"
	"github.com/pulsemon/pulsemon-go/internal/edf"
)

// SourceKind tags where the active dataset came from.
type SourceKind int

const (
	RealDecoded SourceKind = iota
	Synthetic
)

func (k SourceKind) String() string {
	if k == RealDecoded {
		return "decoded"
	}
	return "synthetic"
}

// Sample is one physical value with its timestamp in dataset seconds.
// Samples replayed from before a loop wrap carry negative timestamps so a
// window always runs continuously up to the cursor.
type Sample struct {
	Time  float64
	Value float64
}

// ChannelWindow is the visible slice of one channel.
type ChannelWindow struct {
	Label   string
	Unit    string
	Samples []Sample
}

// Dataset adapts a recording plus its beat sequence into the window/beat
// queries the controller needs. Real and synthetic data flow through the
// same adapter, so the controller never branches on source kind.
type Dataset struct {
	kind  SourceKind
	rec   *edf.Recording
	beats []annot.Beat
}

// NewDataset wraps an immutable recording and its beats. Beat timestamps
// must be non-decreasing; the decoders guarantee this, so a violation is
// a broken invariant rather than a recoverable condition.
func NewDataset(kind SourceKind, rec *edf.Recording, beats []annot.Beat) (*Dataset, error) {
	if rec == nil || len(rec.Channels) == 0 {
		return nil, fmt.Errorf("playback: dataset needs at least one channel")
	}
	for i := 1; i < len(beats); i++ {
		if beats[i].Time < beats[i-1].Time {
			return nil, fmt.Errorf("playback: beat %d out of order (%.3fs after %.3fs)",
				i, beats[i].Time, beats[i-1].Time)
		}
	}
	return &Dataset{kind: kind, rec: rec, beats: beats}, nil
}

// Kind returns the source tag.
func (d *Dataset) Kind() SourceKind { return d.kind }

// Duration returns the dataset length in seconds.
func (d *Dataset) Duration() float64 { return d.rec.Duration() }

// SampleRate returns the primary channel's sampling frequency.
func (d *Dataset) SampleRate() float64 { return d.rec.SampleRate(0) }

// ChannelCount returns the number of decoded channels.
func (d *Dataset) ChannelCount() int { return len(d.rec.Channels) }

// Window slices the half-open span [start, end) from every channel as
// calibrated physical samples. Bounds are clamped to the dataset; the
// half-open convention lets consecutive or wrapped windows tile without
// duplicating boundary samples.
func (d *Dataset) Window(start, end float64) []ChannelWindow {
	out := make([]ChannelWindow, len(d.rec.Channels))

	for i := range d.rec.Channels {
		ch := &d.rec.Channels[i]
		rate := d.rec.SampleRate(i)

		i0 := int(math.Ceil(start * rate))
		if i0 < 0 {
			i0 = 0
		}
		i1 := int(math.Ceil(end * rate))
		if i1 > ch.Len() {
			i1 = ch.Len()
		}
		if i1 < i0 {
			i1 = i0
		}

		samples := make([]Sample, 0, i1-i0)
		for s := i0; s < i1; s++ {
			samples = append(samples, Sample{
				Time:  float64(s) / rate,
				Value: ch.Physical(s),
			})
		}

		out[i] = ChannelWindow{
			Label:   ch.Spec.Label,
			Unit:    ch.Spec.PhysicalUnit,
			Samples: samples,
		}
	}

	return out
}

// Beats returns the beat events with start < Time <= end.
func (d *Dataset) Beats(start, end float64) []annot.Beat {
	lo := sort.Search(len(d.beats), func(i int) bool { return d.beats[i].Time > start })
	hi := sort.Search(len(d.beats), func(i int) bool { return d.beats[i].Time > end })
	return d.beats[lo:hi]
}
