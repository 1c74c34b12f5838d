package record

import (
	"fmt"
	"os"
)

// SaveJSONLFile exports a ring Snapshot as a JSONL file whose header
// declares the recorded (1-based) channels and whose data lines carry
// values aligned to that column order.
func SaveJSONLFile(path string, snap Snapshot) error {
	if len(snap.Values) == 0 {
		return ErrEmptyBuffer
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("record: create %s: %w", path, err)
	}
	defer f.Close()

	channels1Based := make([]int, len(snap.Channels))
	for i, c := range snap.Channels {
		channels1Based[i] = c + 1
	}

	header, err := encodeHeader(channels1Based)
	if err != nil {
		return err
	}
	if _, err := f.Write(header); err != nil {
		return err
	}
	if _, err := f.Write([]byte("\n")); err != nil {
		return err
	}

	frameCount := len(snap.Timestamps)
	for i := 0; i < frameCount; i++ {
		values := make([]int, len(snap.Values))
		for c := range snap.Values {
			values[c] = int(snap.Values[c][i])
		}
		rec := JSONLRecord{
			TMs:      snap.Timestamps[i],
			Net:      snap.Addresses[i].Net,
			Subnet:   snap.Addresses[i].Subnet,
			Universe: snap.Addresses[i].Universe,
			Length:   uint16(len(snap.Channels)),
			Values:   values,
		}
		line, err := encodeRecord(rec)
		if err != nil {
			return err
		}
		if _, err := f.Write(line); err != nil {
			return err
		}
		if _, err := f.Write([]byte("\n")); err != nil {
			return err
		}
	}
	return nil
}

// LoadJSONLFile loads a recording file into ring-ready form: 0-based
// channels, timestamps, addresses, and per-channel columns. If the file
// carries no header (or no channels field), the column count is the first
// record's length field, mapped to channels 0..length-1, and each column is
// populated from the matching position in every record's values.
func LoadJSONLFile(path string) (channels []int, timestamps []int64, addresses []Address, values [][]byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("record: open %s: %w", path, err)
	}
	defer f.Close()

	header, records, err := ParseJSONLStream(f)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if len(header.Channels) > 0 {
		channels = make([]int, len(header.Channels))
		for i, c := range header.Channels {
			channels[i] = c - 1
		}
	} else if len(records) > 0 {
		channels = make([]int, records[0].Length)
		for i := range channels {
			channels[i] = i
		}
	}

	values = make([][]byte, len(channels))
	for i := range values {
		values[i] = make([]byte, 0, len(records))
	}
	timestamps = make([]int64, 0, len(records))
	addresses = make([]Address, 0, len(records))

	for _, rec := range records {
		timestamps = append(timestamps, rec.TMs)
		addresses = append(addresses, Address{Net: rec.Net, Subnet: rec.Subnet, Universe: rec.Universe})
		for i := range channels {
			var v byte
			if i < len(rec.Values) {
				v = byte(rec.Values[i])
			}
			values[i] = append(values[i], v)
		}
	}

	return channels, timestamps, addresses, values, nil
}
