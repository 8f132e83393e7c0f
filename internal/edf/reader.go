// ABOUTME: EDF container decoder
// ABOUTME: Parses the fixed ASCII header, channel descriptors and int16 sample data
package edf

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field widths from the EDF specification.
const (
	topHeaderBytes   = 256
	maxChannels      = 512
	supportedVersion = "0"
	dateLayout       = "02.01.06"
	timeLayout       = "15.04.05"
)

// cursor walks a byte buffer in fixed-width ASCII fields.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) field(n int) (string, error) {
	if c.off+n > len(c.buf) {
		return "", &ParseError{Kind: Truncated,
			Detail: fmt.Sprintf("need %d bytes at offset %d, have %d", n, c.off, len(c.buf)-c.off)}
	}
	s := strings.TrimSpace(string(c.buf[c.off : c.off+n]))
	c.off += n
	return s, nil
}

func (c *cursor) intField(n, def int) (int, error) {
	s, err := c.field(n)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def, nil
	}
	return v, nil
}

func (c *cursor) floatField(n int, def float64) (float64, error) {
	s, err := c.field(n)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def, nil
	}
	return v, nil
}

// Decode parses a complete in-memory EDF container into an immutable
// Recording. It is pure: the caller is responsible for reading the bytes
// off storage.
func Decode(buf []byte) (*Recording, error) {
	if len(buf) < topHeaderBytes {
		return nil, &ParseError{Kind: Truncated,
			Detail: fmt.Sprintf("header needs %d bytes, have %d", topHeaderBytes, len(buf))}
	}

	c := &cursor{buf: buf}
	hdr := Header{}

	version, _ := c.field(8)
	if version != supportedVersion {
		return nil, &ParseError{Kind: BadMagicOrVersion,
			Detail: fmt.Sprintf("version field %q, want %q", version, supportedVersion)}
	}
	hdr.Version = version
	hdr.PatientID, _ = c.field(80)
	hdr.RecordingID, _ = c.field(80)

	dateStr, _ := c.field(8)
	timeStr, _ := c.field(8)
	hdr.StartTime = parseStartTime(dateStr, timeStr)

	hdr.HeaderBytes, _ = c.intField(8, topHeaderBytes)
	c.field(44) // reserved / data format
	hdr.RecordCount, _ = c.intField(8, 0)
	hdr.RecordDuration, _ = c.floatField(8, DefaultRecordDuration)

	// A nonpositive record count (including the -1 unknown-length
	// sentinel) or record duration would give the recording a zero or
	// negative length; everything downstream assumes a finite timeline.
	if hdr.RecordCount <= 0 {
		return nil, &ParseError{Kind: InvalidRecordLayout,
			Detail: fmt.Sprintf("declared %d data records", hdr.RecordCount)}
	}
	if hdr.RecordDuration <= 0 {
		return nil, &ParseError{Kind: InvalidRecordLayout,
			Detail: fmt.Sprintf("declared record duration %gs", hdr.RecordDuration)}
	}

	n, _ := c.intField(4, 0)
	if n <= 0 || n > maxChannels {
		return nil, &ParseError{Kind: InvalidChannelCount,
			Detail: fmt.Sprintf("declared %d channels", n)}
	}
	hdr.ChannelCount = n

	specs, err := decodeChannelSpecs(c, n)
	if err != nil {
		return nil, err
	}

	// Degenerate descriptors are rejected at decode so that allocation
	// and physical conversion can never fail at tick time.
	for i, s := range specs {
		if s.SamplesPerRecord <= 0 {
			return nil, &ParseError{Kind: InvalidRecordLayout,
				Detail: fmt.Sprintf("channel %d (%s): %d samples per record", i, s.Label, s.SamplesPerRecord)}
		}
		if s.DigitalMax == s.DigitalMin {
			return nil, &ParseError{Kind: CalibrationZeroRange,
				Detail: fmt.Sprintf("channel %d (%s): digital min == max == %d", i, s.Label, s.DigitalMin)}
		}
	}

	// The declared header size wins over our cursor position when it is
	// larger; files sometimes pad the reserved area.
	dataStart := hdr.HeaderBytes
	if dataStart < c.off {
		dataStart = c.off
	}

	channels, err := decodeData(buf, dataStart, hdr, specs)
	if err != nil {
		return nil, err
	}

	return &Recording{Header: hdr, Channels: channels}, nil
}

func decodeChannelSpecs(c *cursor, n int) ([]ChannelSpec, error) {
	specs := make([]ChannelSpec, n)

	// Descriptor blocks are field-major: all labels, then all
	// transducers, and so on.
	for i := range specs {
		s, err := c.field(16)
		if err != nil {
			return nil, err
		}
		specs[i].Label = s
	}
	for i := range specs {
		s, err := c.field(80)
		if err != nil {
			return nil, err
		}
		specs[i].TransducerType = s
	}
	for i := range specs {
		s, err := c.field(8)
		if err != nil {
			return nil, err
		}
		specs[i].PhysicalUnit = s
	}
	for i := range specs {
		v, err := c.floatField(8, DefaultPhysicalMin)
		if err != nil {
			return nil, err
		}
		specs[i].PhysicalMin = v
	}
	for i := range specs {
		v, err := c.floatField(8, DefaultPhysicalMax)
		if err != nil {
			return nil, err
		}
		specs[i].PhysicalMax = v
	}
	for i := range specs {
		v, err := c.intField(8, DefaultDigitalMin)
		if err != nil {
			return nil, err
		}
		specs[i].DigitalMin = v
	}
	for i := range specs {
		v, err := c.intField(8, DefaultDigitalMax)
		if err != nil {
			return nil, err
		}
		specs[i].DigitalMax = v
	}
	for i := range specs {
		s, err := c.field(80)
		if err != nil {
			return nil, err
		}
		specs[i].Prefiltering = s
	}
	for i := range specs {
		v, err := c.intField(8, DefaultSamplesPerRecord)
		if err != nil {
			return nil, err
		}
		specs[i].SamplesPerRecord = v
	}
	for i := range specs {
		s, err := c.field(32)
		if err != nil {
			return nil, err
		}
		specs[i].Reserved = s
	}

	return specs, nil
}

// decodeData reads the record-major, channel-minor int16 little-endian
// sample section into per-channel digital sequences.
func decodeData(buf []byte, dataStart int, hdr Header, specs []ChannelSpec) ([]Channel, error) {
	recordBytes := 0
	for _, s := range specs {
		recordBytes += s.SamplesPerRecord * 2
	}

	// Division instead of multiplication keeps absurd declared sizes
	// from overflowing the length check.
	avail := len(buf) - dataStart
	if avail < 0 || hdr.RecordCount > avail/recordBytes {
		return nil, &ParseError{Kind: Truncated,
			Detail: fmt.Sprintf("data section needs %d records of %d bytes, have %d bytes",
				hdr.RecordCount, recordBytes, max(avail, 0))}
	}

	channels := make([]Channel, len(specs))
	for i, s := range specs {
		channels[i] = Channel{
			Spec:    s,
			Digital: make([]int16, 0, hdr.RecordCount*s.SamplesPerRecord),
		}
	}

	off := dataStart
	for rec := 0; rec < hdr.RecordCount; rec++ {
		for i := range channels {
			for s := 0; s < specs[i].SamplesPerRecord; s++ {
				v := int16(binary.LittleEndian.Uint16(buf[off:]))
				channels[i].Digital = append(channels[i].Digital, v)
				off += 2
			}
		}
	}

	return channels, nil
}

func parseStartTime(dateStr, timeStr string) time.Time {
	d, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, timeStr)
	if err != nil {
		return time.Time{}
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
