package record

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseJSONLStreamWithHeader(t *testing.T) {
	input := `{"format":"artnet-jsonl","version":1,"channels":[1,5]}
{"t_ms":0,"net":0,"subnet":0,"universe":0,"length":2,"values":[10,20]}
{"t_ms":40,"net":0,"subnet":0,"universe":0,"length":2,"values":[11,21]}
`
	header, records, err := ParseJSONLStream(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseJSONLStream: %v", err)
	}
	if len(header.Channels) != 2 || header.Channels[0] != 1 || header.Channels[1] != 5 {
		t.Fatalf("unexpected header channels: %+v", header.Channels)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].TMs != 40 || records[1].Values[0] != 11 {
		t.Fatalf("unexpected second record: %+v", records[1])
	}
}

func TestParseJSONLStreamWithoutHeader(t *testing.T) {
	input := `{"t_ms":0,"net":1,"subnet":2,"universe":3,"length":2,"values":[10,20]}
`
	header, records, err := ParseJSONLStream(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseJSONLStream: %v", err)
	}
	if len(header.Channels) != 0 {
		t.Fatalf("expected no header channels when header line is absent, got %+v", header.Channels)
	}
	if len(records) != 1 || records[0].Net != 1 {
		t.Fatalf("expected the header-less first line reinterpreted as a record: %+v", records)
	}
}

func TestParseJSONLStreamRejectsMissingTMs(t *testing.T) {
	input := `{"format":"artnet-jsonl","version":1}
{"net":1,"subnet":2,"universe":3,"length":2,"values":[10,20]}
`
	if _, _, err := ParseJSONLStream(strings.NewReader(input)); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for a record missing t_ms, got %v", err)
	}
}

func TestParseJSONLStreamRejectsMissingValues(t *testing.T) {
	input := `{"format":"artnet-jsonl","version":1}
{"t_ms":0,"net":1,"subnet":2,"universe":3,"length":2}
`
	if _, _, err := ParseJSONLStream(strings.NewReader(input)); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for a record missing values, got %v", err)
	}
}

func TestParseJSONLStreamRejectsMalformedLine(t *testing.T) {
	input := `{"format":"artnet-jsonl","version":1}
not json at all
`
	if _, _, err := ParseJSONLStream(strings.NewReader(input)); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for a malformed data line, got %v", err)
	}
}

func TestEncodeRecordProducesNumericArray(t *testing.T) {
	line, err := encodeRecord(JSONLRecord{TMs: 1, Values: []int{10, 20, 30}})
	if err != nil {
		t.Fatalf("encodeRecord: %v", err)
	}
	if !bytes.Contains(line, []byte(`"values":[10,20,30]`)) {
		t.Fatalf("expected values as a plain numeric array, got %s", line)
	}
}
