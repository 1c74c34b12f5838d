package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrUnsupportedFormat is returned when a WAV file is not 8-bit PCM.
var ErrUnsupportedFormat = errors.New("record: unsupported WAV format (expected 8-bit PCM)")

// ErrBadWAV covers structurally invalid WAV input: short files, bad RIFF or
// WAVE magic, or a missing data chunk.
var ErrBadWAV = errors.New("record: malformed WAV file")

// ErrEmptyBuffer is returned when exporting a ring with no recorded frames.
var ErrEmptyBuffer = errors.New("record: no buffered frames to export")

const (
	fmtPCM        = 1
	bitsPerSample = 8
)

// WriteWAV encodes a Snapshot as canonical 8-bit PCM WAV: one audio channel
// per recorded column, samples interleaved, sample_rate derived from
// frame_count and duration so playback timing survives round-trip.
func WriteWAV(w io.Writer, snap Snapshot) error {
	numChannels := len(snap.Values)
	frameCount := len(snap.Timestamps)
	if numChannels == 0 || frameCount == 0 {
		return ErrEmptyBuffer
	}

	durationMs := snap.Timestamps[frameCount-1]
	sampleRate := uint32(frameCount) * 1000 / uint32(maxInt64(1, durationMs))
	if sampleRate < 1 {
		sampleRate = 1
	}

	blockAlign := numChannels * (bitsPerSample / 8)
	byteRate := int(sampleRate) * blockAlign
	dataSize := frameCount * blockAlign

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	writeUint32(&buf, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	writeUint32(&buf, 16)
	writeUint16(&buf, fmtPCM)
	writeUint16(&buf, uint16(numChannels))
	writeUint32(&buf, sampleRate)
	writeUint32(&buf, uint32(byteRate))
	writeUint16(&buf, uint16(blockAlign))
	writeUint16(&buf, bitsPerSample)

	buf.WriteString("data")
	writeUint32(&buf, uint32(dataSize))
	for i := 0; i < frameCount; i++ {
		for c := 0; c < numChannels; c++ {
			buf.WriteByte(snap.Values[c][i])
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

// WAVData is the decoded result of ReadWAV: a dense grid of per-channel
// columns plus reconstructed timestamps.
type WAVData struct {
	NumChannels int
	SampleRate  uint32
	Timestamps  []int64
	Values      [][]byte // Values[channel][frame]
}

// ReadWAV parses an 8-bit PCM WAV file. It tolerates extra chunks between
// the WAVE magic and the data chunk, and rejects non-8-bit samples.
func ReadWAV(r io.Reader) (WAVData, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return WAVData{}, err
	}
	if len(data) < 12 {
		return WAVData{}, ErrBadWAV
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return WAVData{}, ErrBadWAV
	}

	var (
		numChannels int
		sampleRate  uint32
		bits        uint16
		sawFmt      bool
		payload     []byte
		sawData     bool
	)

	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
		body := pos + 8
		if body+int(chunkSize) > len(data) {
			return WAVData{}, ErrBadWAV
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return WAVData{}, ErrBadWAV
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			numChannels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			bits = binary.LittleEndian.Uint16(data[body+14 : body+16])
			if audioFormat != fmtPCM {
				return WAVData{}, ErrUnsupportedFormat
			}
			sawFmt = true
		case "data":
			payload = data[body : body+int(chunkSize)]
			sawData = true
		}

		pos = body + int(chunkSize)
		if chunkSize%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}

	if !sawFmt || !sawData {
		return WAVData{}, ErrBadWAV
	}
	if bits != bitsPerSample {
		return WAVData{}, ErrUnsupportedFormat
	}
	if numChannels < 1 {
		return WAVData{}, ErrBadWAV
	}

	blockAlign := numChannels
	frameCount := len(payload) / blockAlign

	values := make([][]byte, numChannels)
	for c := range values {
		values[c] = make([]byte, frameCount)
	}
	timestamps := make([]int64, frameCount)

	rate := sampleRate
	if rate < 1 {
		rate = 1
	}

	for i := 0; i < frameCount; i++ {
		base := i * blockAlign
		for c := 0; c < numChannels; c++ {
			values[c][i] = payload[base+c]
		}
		timestamps[i] = int64(i) * 1000 / int64(rate)
	}

	return WAVData{
		NumChannels: numChannels,
		SampleRate:  rate,
		Timestamps:  timestamps,
		Values:      values,
	}, nil
}

// SaveWAVFile writes snap to path as 8-bit PCM WAV.
func SaveWAVFile(path string, snap Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("record: create %s: %w", path, err)
	}
	defer f.Close()
	return WriteWAV(f, snap)
}

// LoadWAVFile reads and parses path as 8-bit PCM WAV.
func LoadWAVFile(path string) (WAVData, error) {
	f, err := os.Open(path)
	if err != nil {
		return WAVData{}, fmt.Errorf("record: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadWAV(f)
}
