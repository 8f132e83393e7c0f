// ABOUTME: Beat annotation type definitions
// ABOUTME: Defines the closed beat classification set and parse errors
package annot

import "fmt"

// BeatType is the closed classification set for annotation events.
type BeatType int

const (
	Normal BeatType = iota
	PrematureVentricular
	Aberrant
	Unknown
	NonBeatMarker
)

func (t BeatType) String() string {
	switch t {
	case Normal:
		return "normal"
	case PrematureVentricular:
		return "premature ventricular"
	case Aberrant:
		return "aberrant"
	case Unknown:
		return "unknown"
	case NonBeatMarker:
		return "non-beat marker"
	default:
		return "invalid"
	}
}

// Beat is one annotation event. Time is seconds from the start of the
// recording and is non-decreasing within a decoded sequence.
type Beat struct {
	Time float64
	Type BeatType
	Code int // Raw annotation code, for callers that asked for markers
}

// ErrorKind classifies annotation stream failures.
type ErrorKind int

const (
	Truncated ErrorKind = iota
	UnknownEscapeCode
)

func (k ErrorKind) String() string {
	switch k {
	case Truncated:
		return "truncated"
	case UnknownEscapeCode:
		return "unknown escape code"
	default:
		return "unknown"
	}
}

// ParseError reports a malformed annotation stream.
type ParseError struct {
	Kind   ErrorKind
	Offset int
	Code   int
}

func (e *ParseError) Error() string {
	if e.Kind == UnknownEscapeCode {
		return fmt.Sprintf("annot: unknown escape code %d at offset %d", e.Code, e.Offset)
	}
	return fmt.Sprintf("annot: %s at offset %d", e.Kind, e.Offset)
}
