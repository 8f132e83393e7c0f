// ABOUTME: EDF container encoder
// ABOUTME: Serializes a Recording back into the fixed-width container layout
package edf

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Encode serializes a Recording into the container layout that Decode
// parses. Fixture construction in tests and the -export shell flag are
// the intended callers.
func Encode(rec *Recording) ([]byte, error) {
	hdr := rec.Header
	n := len(rec.Channels)
	if n == 0 {
		return nil, fmt.Errorf("edf: cannot encode a recording with no channels")
	}

	for i := range rec.Channels {
		want := hdr.RecordCount * rec.Channels[i].Spec.SamplesPerRecord
		if len(rec.Channels[i].Digital) != want {
			return nil, fmt.Errorf("edf: channel %d has %d samples, want %d",
				i, len(rec.Channels[i].Digital), want)
		}
	}

	var b bytes.Buffer

	version := hdr.Version
	if version == "" {
		version = supportedVersion
	}
	fmt.Fprintf(&b, "%-8s", version)
	fmt.Fprintf(&b, "%-80s", hdr.PatientID)
	fmt.Fprintf(&b, "%-80s", hdr.RecordingID)

	if hdr.StartTime.IsZero() {
		fmt.Fprintf(&b, "%-8s%-8s", "", "")
	} else {
		fmt.Fprintf(&b, "%-8s", hdr.StartTime.Format(dateLayout))
		fmt.Fprintf(&b, "%-8s", hdr.StartTime.Format(timeLayout))
	}

	headerBytes := topHeaderBytes + n*256
	fmt.Fprintf(&b, "%-8d", headerBytes)
	fmt.Fprintf(&b, "%-44s", "")
	fmt.Fprintf(&b, "%-8d", hdr.RecordCount)
	fmt.Fprintf(&b, "%-8s", formatSeconds(hdr.RecordDuration))
	fmt.Fprintf(&b, "%-4d", n)

	// Descriptor blocks are field-major, matching the decoder.
	for i := range rec.Channels {
		fmt.Fprintf(&b, "%-16s", rec.Channels[i].Spec.Label)
	}
	for i := range rec.Channels {
		fmt.Fprintf(&b, "%-80s", rec.Channels[i].Spec.TransducerType)
	}
	for i := range rec.Channels {
		fmt.Fprintf(&b, "%-8s", rec.Channels[i].Spec.PhysicalUnit)
	}
	for i := range rec.Channels {
		b.WriteString(formatPhysical(rec.Channels[i].Spec.PhysicalMin))
	}
	for i := range rec.Channels {
		b.WriteString(formatPhysical(rec.Channels[i].Spec.PhysicalMax))
	}
	for i := range rec.Channels {
		fmt.Fprintf(&b, "%-8d", rec.Channels[i].Spec.DigitalMin)
	}
	for i := range rec.Channels {
		fmt.Fprintf(&b, "%-8d", rec.Channels[i].Spec.DigitalMax)
	}
	for i := range rec.Channels {
		fmt.Fprintf(&b, "%-80s", rec.Channels[i].Spec.Prefiltering)
	}
	for i := range rec.Channels {
		fmt.Fprintf(&b, "%-8d", rec.Channels[i].Spec.SamplesPerRecord)
	}
	for i := range rec.Channels {
		fmt.Fprintf(&b, "%-32s", rec.Channels[i].Spec.Reserved)
	}

	// Record-major, channel-minor int16 little-endian data.
	for r := 0; r < hdr.RecordCount; r++ {
		for i := range rec.Channels {
			spr := rec.Channels[i].Spec.SamplesPerRecord
			for s := 0; s < spr; s++ {
				var w [2]byte
				binary.LittleEndian.PutUint16(w[:], uint16(rec.Channels[i].Digital[r*spr+s]))
				b.Write(w[:])
			}
		}
	}

	return b.Bytes(), nil
}

// DigitalFromPhysical maps a physical value back into a channel's digital
// range, clamped to the calibration bounds.
func DigitalFromPhysical(physical float64, s ChannelSpec) int16 {
	if s.PhysicalMax == s.PhysicalMin {
		return 0
	}
	d := (physical-s.PhysicalMin)*float64(s.DigitalMax-s.DigitalMin)/(s.PhysicalMax-s.PhysicalMin) + float64(s.DigitalMin)
	if d > float64(s.DigitalMax) {
		d = float64(s.DigitalMax)
	}
	if d < float64(s.DigitalMin) {
		d = float64(s.DigitalMin)
	}
	return int16(d)
}

func formatSeconds(v float64) string {
	if v == float64(int(v)) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%g", v)
}

func formatPhysical(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	if len(s) > 8 {
		s = fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%-8s", s)
}
