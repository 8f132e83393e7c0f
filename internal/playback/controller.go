// ABOUTME: Playback controller state machine
// ABOUTME: Owns the cursor, speed and source selection; exposes the per-frame Tick
package playback

import (
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsemon/pulsemon-go/internal/annot"
	"github.com/pulsemon/pulsemon-go/internal/edf"
	"github.com/pulsemon/pulsemon-go/internal/hr"
	"github.com/pulsemon/pulsemon-go/internal/synth"
	"github.com/pulsemon/pulsemon-go/internal/vitals"
)

// Speed multiplier bounds.
const (
	MinSpeed = 0.1
	MaxSpeed = 5.0

	// DefaultWindowSeconds is the trailing slice visible each tick.
	DefaultWindowSeconds = 10.0
)

// State is the controller's lifecycle position.
type State int

const (
	Unloaded State = iota
	Loaded
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "invalid"
	}
}

// Frame is the immutable per-tick output handed to the presentation
// layer. It never aliases controller state.
type Frame struct {
	Channels []ChannelWindow
	Beats    []annot.Beat
	Vitals   vitals.Snapshot
	Source   SourceKind
	Cursor   float64
	Duration float64
	Playing  bool
}

// Config wires the controller. Zero values select defaults.
type Config struct {
	Seed          int64
	WindowSeconds float64
	RRCapacity    int
	Logger        *zap.Logger
}

// Controller owns the active dataset and all playback state. It is
// single-threaded by contract: every mutation happens through its
// methods, driven by the surrounding application's frame loop.
type Controller struct {
	log    *zap.Logger
	seed   int64
	window float64

	ds        *Dataset
	est       *hr.Estimator
	sim       *vitals.Simulator
	sessionID string

	lastLoadErr error

	cursor     float64
	speed      float64
	playing    bool
	looping    bool
	everPlayed bool
	wrapped    bool
}

// New creates an unloaded controller.
func New(cfg Config) *Controller {
	if cfg.WindowSeconds <= 0 {
		cfg.WindowSeconds = DefaultWindowSeconds
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Controller{
		log:    cfg.Logger,
		seed:   cfg.Seed,
		window: cfg.WindowSeconds,
		est:    hr.New(cfg.RRCapacity),
		sim:    vitals.New(cfg.Seed),
		speed:  1.0,
	}
}

// Load installs a dataset from raw container and annotation bytes. A nil
// signal buffer requests synthetic mode. On any decoder failure the
// controller still ends up Loaded, backed by the synthetic generator; the
// returned LoadFailure exists for observability, not control flow.
func (c *Controller) Load(signal, annotations []byte) error {
	c.resetSession()

	if signal == nil {
		c.loadSynthetic()
		c.log.Info("synthetic mode requested",
			zap.String("session", c.sessionID))
		return nil
	}

	ds, err := decodeDataset(signal, annotations)
	if err != nil {
		c.lastLoadErr = &LoadFailure{Err: err}
		c.loadSynthetic()
		c.log.Warn("dataset load failed, falling back to synthetic",
			zap.String("session", c.sessionID),
			zap.Error(err))
		return c.lastLoadErr
	}

	c.ds = ds
	c.log.Info("dataset loaded",
		zap.String("session", c.sessionID),
		zap.Int("channels", ds.ChannelCount()),
		zap.Float64("duration_s", ds.Duration()),
		zap.Float64("sample_rate_hz", ds.SampleRate()))
	return nil
}

func decodeDataset(signal, annotations []byte) (*Dataset, error) {
	rec, err := edf.Decode(signal)
	if err != nil {
		return nil, err
	}

	var beats []annot.Beat
	if len(annotations) > 0 {
		beats, err = annot.Decode(annotations, rec.SampleRate(0))
		if err != nil {
			return nil, err
		}
	}

	return NewDataset(RealDecoded, rec, beats)
}

func (c *Controller) resetSession() {
	c.sessionID = uuid.NewString()
	c.lastLoadErr = nil
	c.cursor = 0
	c.playing = false
	c.everPlayed = false
	c.wrapped = false
	c.est.Reset()
	c.sim.Reset()
}

func (c *Controller) loadSynthetic() {
	rec, beats := synth.New(synth.Config{Seed: c.seed}).Generate()
	ds, err := NewDataset(Synthetic, rec, beats)
	if err != nil {
		// The generator's output is always well formed; anything else is
		// a broken invariant.
		panic(err)
	}
	c.ds = ds
}

// State reports the lifecycle position.
func (c *Controller) State() State {
	switch {
	case c.ds == nil:
		return Unloaded
	case c.playing:
		return Playing
	case c.everPlayed:
		return Paused
	default:
		return Loaded
	}
}

// Source returns the active source tag.
func (c *Controller) Source() SourceKind {
	if c.ds == nil {
		return Synthetic
	}
	return c.ds.Kind()
}

// LastLoadError returns the failure behind a synthetic fallback, if any.
func (c *Controller) LastLoadError() error { return c.lastLoadErr }

// SessionID identifies the current load.
func (c *Controller) SessionID() string { return c.sessionID }

// Play starts cursor advancement without resetting the cursor.
func (c *Controller) Play() {
	c.playing = true
	c.everPlayed = true
}

// Pause stops cursor advancement without resetting the cursor.
func (c *Controller) Pause() { c.playing = false }

// SetSpeed clamps and applies the speed multiplier.
func (c *Controller) SetSpeed(speed float64) {
	if speed < MinSpeed {
		speed = MinSpeed
	}
	if speed > MaxSpeed {
		speed = MaxSpeed
	}
	c.speed = speed
}

// Speed returns the current multiplier.
func (c *Controller) Speed() float64 { return c.speed }

// SetLooping toggles wrap-around at the end of the dataset.
func (c *Controller) SetLooping(loop bool) { c.looping = loop }

// Looping reports whether wrap-around is enabled.
func (c *Controller) Looping() bool { return c.looping }

// Cursor returns the playback position in seconds.
func (c *Controller) Cursor() float64 { return c.cursor }

// Tick advances playback by elapsed wall seconds and returns the frame
// for the presentation layer. It is the sole mutation surface and cannot
// fail: an unloaded controller installs the synthetic source first.
func (c *Controller) Tick(elapsed float64) Frame {
	if c.ds == nil {
		c.resetSession()
		c.loadSynthetic()
		c.log.Info("tick before load, installing synthetic source",
			zap.String("session", c.sessionID))
	}

	duration := c.ds.Duration()

	if c.playing && elapsed > 0 {
		c.cursor += elapsed * c.speed
		if c.cursor > duration {
			// The duration guard keeps a degenerate zero-length dataset
			// from spinning the wrap; it clamps and stops instead.
			if c.looping && duration > 0 {
				c.cursor = math.Mod(c.cursor, duration)
				c.wrapped = true
			} else {
				c.cursor = duration
				c.playing = false
				c.log.Info("end of dataset reached",
					zap.String("session", c.sessionID))
			}
		}
	}

	channels, beats := c.slice()

	c.est.Update(beats)
	bpm, ok := c.est.Reading()
	snap := c.sim.Advance(elapsed, bpm, ok)

	return Frame{
		Channels: channels,
		Beats:    beats,
		Vitals:   snap,
		Source:   c.ds.Kind(),
		Cursor:   c.cursor,
		Duration: duration,
		Playing:  c.playing,
	}
}

// slice assembles the trailing window ending at the cursor. After a loop
// wrap the pre-wrap tail is replayed with rebased negative timestamps so
// the window shape matches a non-wrapped tick exactly.
func (c *Controller) slice() ([]ChannelWindow, []annot.Beat) {
	start := c.cursor - c.window

	if start >= 0 || !c.wrapped {
		if start < 0 {
			start = 0
		}
		// Beats are copied so the frame never aliases the dataset.
		beats := append([]annot.Beat(nil), c.ds.Beats(start, c.cursor)...)
		return c.ds.Window(start, c.cursor), beats
	}

	duration := c.ds.Duration()

	tail := c.ds.Window(duration+start, duration)
	head := c.ds.Window(0, c.cursor)
	channels := make([]ChannelWindow, len(head))
	for i := range head {
		merged := make([]Sample, 0, len(tail[i].Samples)+len(head[i].Samples))
		for _, s := range tail[i].Samples {
			s.Time -= duration
			merged = append(merged, s)
		}
		merged = append(merged, head[i].Samples...)
		channels[i] = ChannelWindow{
			Label:   head[i].Label,
			Unit:    head[i].Unit,
			Samples: merged,
		}
	}

	tailBeats := c.ds.Beats(duration+start, duration)
	headBeats := c.ds.Beats(0, c.cursor)
	beats := make([]annot.Beat, 0, len(tailBeats)+len(headBeats))
	for _, b := range tailBeats {
		b.Time -= duration
		beats = append(beats, b)
	}
	beats = append(beats, headBeats...)

	return channels, beats
}
