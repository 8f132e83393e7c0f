// ABOUTME: Beat annotation stream decoder
// ABOUTME: Walks 2-byte code/delta words with escape handling into beat events
package annot

import "encoding/binary"

// Escape codes above the terminal annotation code space.
const (
	codeSkip = 59 // 4-byte extended time delta follows
	codeNum  = 60 // Auxiliary value in the delta field, no time advance
	codeSub  = 61
	codeChn  = 62
	codeAux  = 63 // Delta field is a payload byte count to skip

	maxTerminalCode = 49
)

// DefaultSampleFreq is used when the caller has no container to take the
// annotation time base from.
const DefaultSampleFreq = 360.0

// Decode parses the annotation stream, returning beat events with
// non-beat markers filtered out. Decoding the same buffer twice yields an
// identical sequence.
func Decode(buf []byte, sampleFreq float64) ([]Beat, error) {
	return decode(buf, sampleFreq, false)
}

// DecodeRaw parses the annotation stream keeping non-beat markers in the
// returned sequence.
func DecodeRaw(buf []byte, sampleFreq float64) ([]Beat, error) {
	return decode(buf, sampleFreq, true)
}

func decode(buf []byte, sampleFreq float64, raw bool) ([]Beat, error) {
	if sampleFreq <= 0 {
		sampleFreq = DefaultSampleFreq
	}

	var beats []Beat
	var counter int64

	// A trailing partial word is padding, not an error; the loop simply
	// never consumes it.
	i := 0
	for i+2 <= len(buf) {
		word := binary.LittleEndian.Uint16(buf[i:])
		i += 2

		code := int(word >> 10)
		delta := int64(word & 0x03ff)

		if code == 0 && delta == 0 {
			break // End-of-stream word
		}

		switch {
		case code == codeSkip:
			if i+4 > len(buf) {
				return nil, &ParseError{Kind: Truncated, Offset: i}
			}
			// Extended delta is stored high word first.
			hi := binary.LittleEndian.Uint16(buf[i:])
			lo := binary.LittleEndian.Uint16(buf[i+2:])
			i += 4
			counter += int64(int32(uint32(hi)<<16 | uint32(lo)))

		case code == codeNum || code == codeSub || code == codeChn:
			// Auxiliary bookkeeping only; the delta field carries the
			// value, not a time advance.

		case code == codeAux:
			skip := int(delta)
			if skip%2 == 1 {
				skip++ // Payloads are word aligned
			}
			if i+skip > len(buf) {
				return nil, &ParseError{Kind: Truncated, Offset: i}
			}
			i += skip

		case code > maxTerminalCode:
			return nil, &ParseError{Kind: UnknownEscapeCode, Offset: i - 2, Code: code}

		default:
			counter += delta
			t := classify(code)
			if t != NonBeatMarker || raw {
				beats = append(beats, Beat{
					Time: float64(counter) / sampleFreq,
					Type: t,
					Code: code,
				})
			}
		}
	}

	return beats, nil
}

// classify maps a terminal annotation code to the closed beat type set.
func classify(code int) BeatType {
	switch code {
	case 1, 2, 3:
		// Normal, left and right bundle branch block beats.
		return Normal
	case 5:
		return PrematureVentricular
	case 4, 7, 8, 9, 11:
		// Aberrated atrial, nodal and supraventricular premature beats.
		return Aberrant
	case 6, 10, 12, 13, 25, 34, 35, 38:
		// Fusion, escape, paced and unclassifiable beats.
		return Unknown
	default:
		return NonBeatMarker
	}
}

// IsBeat reports whether a raw annotation code marks a heartbeat rather
// than a rhythm or signal-quality marker.
func IsBeat(code int) bool {
	return classify(code) != NonBeatMarker
}
