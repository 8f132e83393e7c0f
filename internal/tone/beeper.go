// ABOUTME: Audible beat click output
// ABOUTME: Feeds short sine bursts into a persistent oto player through a pipe
package tone

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

const (
	sampleRate = 44100

	clickFreq      = 880.0
	clickDuration  = 60 * time.Millisecond
	clickAmplitude = 0.4
)

// Beeper plays a short click for each detected beat. It keeps one
// persistent oto player fed from a pipe; clicks are queued on a channel
// so callers on the frame loop never block on the audio device.
type Beeper struct {
	log    *zap.Logger
	otoCtx *oto.Context
	player *oto.Player

	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter

	burst  []byte
	clicks chan struct{}
	done   chan struct{}
}

// NewBeeper opens the audio device and starts the feeder goroutine.
func NewBeeper(log *zap.Logger) (*Beeper, error) {
	if log == nil {
		log = zap.NewNop()
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}

	otoCtx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("tone: open audio device: %w", err)
	}
	<-ready

	b := &Beeper{
		log:    log,
		otoCtx: otoCtx,
		burst:  clickBurst(clickFreq, clickDuration, clickAmplitude),
		clicks: make(chan struct{}, 8),
		done:   make(chan struct{}),
	}

	b.pipeReader, b.pipeWriter = io.Pipe()
	b.player = otoCtx.NewPlayer(b.pipeReader)
	b.player.Play()

	go b.feed()

	log.Info("beat click output ready",
		zap.Int("sample_rate_hz", sampleRate),
		zap.Duration("click", clickDuration))

	return b, nil
}

// Click queues one beat click. Drops the click if the queue is full
// rather than stalling the caller.
func (b *Beeper) Click() {
	select {
	case b.clicks <- struct{}{}:
	default:
	}
}

// feed writes queued bursts to the pipe. Pipe writes block until the
// player consumes them, which is why this runs on its own goroutine.
func (b *Beeper) feed() {
	defer close(b.done)
	for range b.clicks {
		if _, err := b.pipeWriter.Write(b.burst); err != nil {
			b.log.Warn("click write failed", zap.Error(err))
			return
		}
	}
}

// Close stops the feeder and releases the audio device.
func (b *Beeper) Close() error {
	close(b.clicks)
	<-b.done

	if b.pipeWriter != nil {
		_ = b.pipeWriter.Close()
	}
	if b.player != nil {
		_ = b.player.Close()
	}
	if b.pipeReader != nil {
		_ = b.pipeReader.Close()
	}
	if b.otoCtx != nil {
		_ = b.otoCtx.Suspend()
	}
	return nil
}

// clickBurst renders a sine burst as 16-bit little-endian mono PCM. A
// raised-cosine envelope fades the edges so the click has no pop.
func clickBurst(freq float64, length time.Duration, amplitude float64) []byte {
	n := int(float64(sampleRate) * length.Seconds())
	out := make([]byte, n*2)

	for i := 0; i < n; i++ {
		t := float64(i) / sampleRate
		envelope := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		v := amplitude * envelope * math.Sin(2*math.Pi*freq*t)

		sample := int16(v * math.MaxInt16)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}

	return out
}
