// ABOUTME: EDF container type definitions
// ABOUTME: Defines header, channel calibration and decoded sample types
package edf

import (
	"fmt"
	"time"
)

// Sentinel defaults for unparseable numeric header fields.
const (
	DefaultPhysicalMin      = -2048.0
	DefaultPhysicalMax      = 2047.0
	DefaultDigitalMin       = -2048
	DefaultDigitalMax       = 2047
	DefaultSamplesPerRecord = 360
	DefaultRecordDuration   = 1.0
)

// Header holds the top-level recording metadata. Immutable after decode.
type Header struct {
	Version        string
	PatientID      string
	RecordingID    string
	StartTime      time.Time // Zero when the date/time fields are blank
	HeaderBytes    int
	RecordCount    int
	RecordDuration float64 // Seconds per data record
	ChannelCount   int
}

// ChannelSpec holds one channel's descriptor block, including the
// calibration range used to map digital samples to physical units.
type ChannelSpec struct {
	Label            string
	TransducerType   string
	PhysicalUnit     string
	PhysicalMin      float64
	PhysicalMax      float64
	DigitalMin       int
	DigitalMax       int
	Prefiltering     string
	SamplesPerRecord int
	Reserved         string
}

// Channel owns a channel's digital sample sequence plus its spec.
// Physical values are computed on demand, never stored.
type Channel struct {
	Spec    ChannelSpec
	Digital []int16
}

// Len returns the number of decoded samples.
func (c *Channel) Len() int { return len(c.Digital) }

// Physical converts the i-th digital sample to physical units using the
// channel's linear calibration.
func (c *Channel) Physical(i int) float64 {
	s := c.Spec
	return s.PhysicalMin + (float64(c.Digital[i])-float64(s.DigitalMin))*
		(s.PhysicalMax-s.PhysicalMin)/float64(s.DigitalMax-s.DigitalMin)
}

// Recording is a fully decoded container: header plus one decoded channel
// per declared spec, in declaration order.
type Recording struct {
	Header   Header
	Channels []Channel
}

// Duration returns the total recording length in seconds.
func (r *Recording) Duration() float64 {
	return float64(r.Header.RecordCount) * r.Header.RecordDuration
}

// SampleRate returns the sampling frequency of channel ch in Hz.
func (r *Recording) SampleRate(ch int) float64 {
	if r.Header.RecordDuration <= 0 {
		return float64(DefaultSamplesPerRecord)
	}
	return float64(r.Channels[ch].Spec.SamplesPerRecord) / r.Header.RecordDuration
}

// ErrorKind classifies container parse failures.
type ErrorKind int

const (
	Truncated ErrorKind = iota
	BadMagicOrVersion
	InvalidChannelCount
	InvalidRecordLayout
	CalibrationZeroRange
)

func (k ErrorKind) String() string {
	switch k {
	case Truncated:
		return "truncated"
	case BadMagicOrVersion:
		return "bad magic or version"
	case InvalidChannelCount:
		return "invalid channel count"
	case InvalidRecordLayout:
		return "invalid record layout"
	case CalibrationZeroRange:
		return "calibration zero range"
	default:
		return "unknown"
	}
}

// ParseError reports a malformed container.
type ParseError struct {
	Kind   ErrorKind
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("edf: %s: %s", e.Kind, e.Detail)
}
