// ABOUTME: Synthetic ECG generator
// ABOUTME: Builds a P-QRS-T waveform recording and matching beat schedule from a seed
package synth

import (
	"math"
	"math/rand"

	"github.com/pulsemon/pulsemon-go/internal/annot"
	"github.com/pulsemon/pulsemon-go/internal/edf"
)

// Config controls the generated recording. Zero values select defaults.
type Config struct {
	Seed       int64
	Duration   float64 // Seconds, default 300
	SampleRate float64 // Hz, default 360
	BaseBPM    float64 // Default 75
}

const (
	defaultDuration   = 300.0
	defaultSampleRate = 360.0
	defaultBaseBPM    = 75.0

	// Fraction of beats replaced by a simulated ectopic.
	pvcProbability = 0.03

	firstBeatAt = 0.5
)

// lead pairs an output channel label with its morphology amplitude.
type lead struct {
	label string
	amp   float64
}

var leads = []lead{
	{"ECG I", 1.0},
	{"ECG II", 1.2},
	{"ECG V1", 0.8},
}

// Generator produces waveform-shaped samples and beat events with the
// same output contract as the real decoders. A fixed seed reproduces an
// identical recording.
type Generator struct {
	cfg Config
}

// New normalizes the config and returns a generator.
func New(cfg Config) *Generator {
	if cfg.Duration <= 0 {
		cfg.Duration = defaultDuration
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaultSampleRate
	}
	if cfg.BaseBPM <= 0 {
		cfg.BaseBPM = defaultBaseBPM
	}
	return &Generator{cfg: cfg}
}

// Generate materializes the full recording and its beat schedule.
func (g *Generator) Generate() (*edf.Recording, []annot.Beat) {
	rng := rand.New(rand.NewSource(g.cfg.Seed))

	beats := g.schedule(rng)
	rec := g.waveform(rng, beats)

	return rec, beats
}

// schedule lays out beat times with a slowly wandering instantaneous
// heart rate and +/-10% beat-to-beat jitter.
func (g *Generator) schedule(rng *rand.Rand) []annot.Beat {
	var beats []annot.Beat

	t := firstBeatAt
	for t < g.cfg.Duration {
		beatType := annot.Normal
		code := 1
		if rng.Float64() < pvcProbability {
			beatType = annot.PrematureVentricular
			code = 5
		}
		beats = append(beats, annot.Beat{Time: t, Type: beatType, Code: code})

		instBPM := g.cfg.BaseBPM + 6.0*math.Sin(2*math.Pi*t/45.0)
		rr := 60.0 / instBPM * (1.0 + 0.1*(rng.Float64()*2-1))
		if rr < 0.3 {
			rr = 0.3
		}
		if rr > 2.0 {
			rr = 2.0
		}
		t += rr
	}

	return beats
}

// waveform renders every lead against the beat schedule and digitizes it
// into a decodable recording.
func (g *Generator) waveform(rng *rand.Rand, beats []annot.Beat) *edf.Recording {
	fs := g.cfg.SampleRate
	records := int(g.cfg.Duration)
	spr := int(fs)
	total := records * spr

	specs := make([]edf.ChannelSpec, len(leads))
	for i, l := range leads {
		specs[i] = edf.ChannelSpec{
			Label:            l.label,
			TransducerType:   "synthetic",
			PhysicalUnit:     "mV",
			PhysicalMin:      -5,
			PhysicalMax:      5,
			DigitalMin:       -2048,
			DigitalMax:       2047,
			SamplesPerRecord: spr,
		}
	}

	channels := make([]edf.Channel, len(leads))
	for i := range channels {
		channels[i] = edf.Channel{Spec: specs[i], Digital: make([]int16, total)}
	}

	beatIdx := -1 // Index of the cycle we are inside; -1 before the first beat
	for s := 0; s < total; s++ {
		t := float64(s) / fs
		for beatIdx+1 < len(beats) && beats[beatIdx+1].Time <= t {
			beatIdx++
		}

		base := 0.05 * math.Sin(2*math.Pi*0.25*t) // Respiratory baseline wander
		noise := 0.02 * (rng.Float64()*2 - 1)

		var shape float64
		if beatIdx >= 0 {
			cycleStart := beats[beatIdx].Time
			cycleEnd := g.cfg.Duration
			if beatIdx+1 < len(beats) {
				cycleEnd = beats[beatIdx+1].Time
			}
			phase := (t - cycleStart) / (cycleEnd - cycleStart)
			shape = morphology(phase, beats[beatIdx].Type == annot.PrematureVentricular)
		}

		for i, l := range leads {
			v := shape*l.amp + base + noise
			channels[i].Digital[s] = edf.DigitalFromPhysical(v, specs[i])
		}
	}

	return &edf.Recording{
		Header: edf.Header{
			Version:        "0",
			PatientID:      "SYNTHETIC",
			RecordingID:    "SYNTHETIC ECG",
			RecordCount:    records,
			RecordDuration: 1.0,
			ChannelCount:   len(leads),
		},
		Channels: channels,
	}
}

// morphology evaluates the P-QRS-T template at a cycle phase in [0,1).
// Ectopic cycles drop the P wave and widen the ventricular complex.
func morphology(phase float64, ectopic bool) float64 {
	if ectopic {
		return -0.2*gauss(phase, 0.28, 0.03) +
			1.3*gauss(phase, 0.32, 0.03) -
			0.45*gauss(phase, 0.38, 0.04) +
			0.3*gauss(phase, 0.62, 0.08)
	}
	return 0.08*gauss(phase, 0.18, 0.03) -
		0.12*gauss(phase, 0.30, 0.01) +
		1.0*gauss(phase, 0.32, 0.008) -
		0.25*gauss(phase, 0.35, 0.012) +
		0.25*gauss(phase, 0.60, 0.06)
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}
