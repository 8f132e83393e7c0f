// ABOUTME: Tests for the EDF container decoder
// ABOUTME: Covers calibration round-trips, sample counts and parse failures
package edf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecording(records, samplesPerRecord int) *Recording {
	spec := ChannelSpec{
		Label:            "ECG II",
		PhysicalUnit:     "mV",
		PhysicalMin:      -5,
		PhysicalMax:      5,
		DigitalMin:       -2048,
		DigitalMax:       2047,
		SamplesPerRecord: samplesPerRecord,
	}

	digital := make([]int16, records*samplesPerRecord)
	for i := range digital {
		digital[i] = int16(i%4096 - 2048)
	}

	return &Recording{
		Header: Header{
			Version:        "0",
			PatientID:      "DEMO PATIENT",
			RecordingID:    "ECG ROUTINE",
			StartTime:      time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
			RecordCount:    records,
			RecordDuration: 1.0,
			ChannelCount:   1,
		},
		Channels: []Channel{{Spec: spec, Digital: digital}},
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	rec := testRecording(4, 360)

	buf, err := Encode(rec)
	require.NoError(t, err)

	got, err := Decode(buf)
	require.NoError(t, err)

	assert.Equal(t, "DEMO PATIENT", got.Header.PatientID)
	assert.Equal(t, 4, got.Header.RecordCount)
	assert.Equal(t, 1, got.Header.ChannelCount)
	assert.Equal(t, rec.Header.StartTime, got.Header.StartTime)
	assert.Equal(t, rec.Channels[0].Digital, got.Channels[0].Digital)
}

func TestDecodedLengthIsRecordsTimesSamples(t *testing.T) {
	rec := testRecording(7, 125)

	buf, err := Encode(rec)
	require.NoError(t, err)

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, 7*125, got.Channels[0].Len())
	assert.InDelta(t, 125.0, got.SampleRate(0), 1e-9)
	assert.InDelta(t, 7.0, got.Duration(), 1e-9)
}

func TestCalibration(t *testing.T) {
	ch := Channel{
		Spec: ChannelSpec{
			PhysicalMin: -5, PhysicalMax: 5,
			DigitalMin: -2048, DigitalMax: 2047,
		},
		Digital: []int16{-2048, 2047, 1024, 0},
	}

	assert.InDelta(t, -5.0, ch.Physical(0), 1e-12)
	assert.InDelta(t, 5.0, ch.Physical(1), 1e-12)
	assert.InDelta(t, 2.502, ch.Physical(2), 0.001)
	assert.InDelta(t, 0.0, ch.Physical(3), 0.01)
}

func TestDecodeTruncatedHeader(t *testing.T) {
	_, err := Decode(make([]byte, 100))

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, Truncated, pe.Kind)
}

func TestDecodeTruncatedData(t *testing.T) {
	rec := testRecording(4, 360)
	buf, err := Encode(rec)
	require.NoError(t, err)

	_, err = Decode(buf[:len(buf)-10])

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, Truncated, pe.Kind)
}

func TestDecodeBadVersion(t *testing.T) {
	rec := testRecording(1, 10)
	buf, err := Encode(rec)
	require.NoError(t, err)
	copy(buf[0:8], []byte("XXXXXXXX"))

	_, err = Decode(buf)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, BadMagicOrVersion, pe.Kind)
}

func TestDecodeInvalidChannelCount(t *testing.T) {
	rec := testRecording(1, 10)
	buf, err := Encode(rec)
	require.NoError(t, err)
	copy(buf[252:256], []byte("0   "))

	_, err = Decode(buf)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, InvalidChannelCount, pe.Kind)
}

func TestDecodeRejectsNonpositiveRecordCount(t *testing.T) {
	// The record count field sits at bytes 236-244 of the top header;
	// -1 is the unknown-length sentinel some writers emit.
	for _, field := range []string{"0       ", "-1      "} {
		rec := testRecording(1, 10)
		buf, err := Encode(rec)
		require.NoError(t, err)
		copy(buf[236:244], []byte(field))

		_, err = Decode(buf)

		var pe *ParseError
		require.ErrorAs(t, err, &pe, "record count %q", field)
		assert.Equal(t, InvalidRecordLayout, pe.Kind)
	}
}

func TestDecodeRejectsZeroRecordDuration(t *testing.T) {
	rec := testRecording(1, 10)
	buf, err := Encode(rec)
	require.NoError(t, err)
	copy(buf[244:252], []byte("0       "))

	_, err = Decode(buf)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, InvalidRecordLayout, pe.Kind)
}

func TestDecodeRejectsNegativeSamplesPerRecord(t *testing.T) {
	rec := testRecording(1, 10)
	buf, err := Encode(rec)
	require.NoError(t, err)
	// Samples-per-record for the single channel starts at offset
	// 256 + 16 + 80 + 8 + 8 + 8 + 8 + 8 + 80 = 472.
	copy(buf[472:480], []byte("-1      "))

	_, err = Decode(buf)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, InvalidRecordLayout, pe.Kind)
}

func TestDecodeRejectsAbsurdRecordCount(t *testing.T) {
	rec := testRecording(1, 10)
	buf, err := Encode(rec)
	require.NoError(t, err)
	copy(buf[236:244], []byte("99999999"))

	_, err = Decode(buf)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, Truncated, pe.Kind)
}

func TestDecodeCalibrationZeroRange(t *testing.T) {
	rec := testRecording(1, 10)
	rec.Channels[0].Spec.DigitalMin = 100
	rec.Channels[0].Spec.DigitalMax = 100

	buf, err := Encode(rec)
	require.NoError(t, err)

	_, err = Decode(buf)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CalibrationZeroRange, pe.Kind)
}

func TestDigitalFromPhysicalClamps(t *testing.T) {
	spec := ChannelSpec{
		PhysicalMin: -5, PhysicalMax: 5,
		DigitalMin: -2048, DigitalMax: 2047,
	}

	assert.Equal(t, int16(2047), DigitalFromPhysical(10.0, spec))
	assert.Equal(t, int16(-2048), DigitalFromPhysical(-10.0, spec))
	assert.Equal(t, int16(-2048), DigitalFromPhysical(-5.0, spec))
}
