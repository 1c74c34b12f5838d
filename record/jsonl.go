package record

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrFormat reports a JSONL data line that fails to parse as an object, or
// that parses but lacks a required "t_ms" or "values" field.
var ErrFormat = errors.New("record: malformed JSONL record")

// jsonlFormat is the fixed header format tag written by both the streaming
// recorder and the buffered exporter.
const jsonlFormat = "artnet-jsonl"

// jsonlVersion is the header version written on export.
const jsonlVersion = 1

// JSONLHeader is line 1 of a recording file, optional on load.
type JSONLHeader struct {
	Format   string `json:"format"`
	Version  int    `json:"version"`
	Channels []int  `json:"channels,omitempty"` // 1-based
}

// JSONLRecord is one data line: a single decoded or exported frame. Values
// is []int rather than []byte so it marshals as a JSON array of numbers
// instead of encoding/json's default base64-string treatment of []byte.
type JSONLRecord struct {
	TMs      int64  `json:"t_ms"`
	Net      uint8  `json:"net"`
	Subnet   uint8  `json:"subnet"`
	Universe uint8  `json:"universe"`
	Length   uint16 `json:"length"`
	Values   []int  `json:"values"`
}

// encodeHeader renders the header line with channels (1-based) if given.
func encodeHeader(channels1Based []int) ([]byte, error) {
	h := JSONLHeader{Format: jsonlFormat, Version: jsonlVersion}
	if len(channels1Based) > 0 {
		h.Channels = channels1Based
	}
	return json.Marshal(h)
}

// encodeRecord renders one data line.
func encodeRecord(rec JSONLRecord) ([]byte, error) {
	return json.Marshal(rec)
}

// parseHeaderLine reports whether line parses as a header object (has a
// non-empty "format" key); returns the parsed header and ok.
func parseHeaderLine(line []byte) (JSONLHeader, bool) {
	var probe struct {
		Format string `json:"format"`
	}
	if err := json.Unmarshal(line, &probe); err != nil || probe.Format == "" {
		return JSONLHeader{}, false
	}
	var h JSONLHeader
	if err := json.Unmarshal(line, &h); err != nil {
		return JSONLHeader{}, false
	}
	return h, true
}

// parseRecordLine unmarshals one data line, requiring both "t_ms" and
// "values" to be present (not merely absent-and-zeroed, which
// encoding/json would otherwise allow silently).
func parseRecordLine(line []byte) (JSONLRecord, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(line, &probe); err != nil {
		return JSONLRecord{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if _, ok := probe["t_ms"]; !ok {
		return JSONLRecord{}, fmt.Errorf("%w: missing t_ms field", ErrFormat)
	}
	if _, ok := probe["values"]; !ok {
		return JSONLRecord{}, fmt.Errorf("%w: missing values field", ErrFormat)
	}

	var rec JSONLRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return JSONLRecord{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return rec, nil
}

// ParseJSONLStream implements the shared JSONL parsing rule used by
// both the buffered-recording loader and the player: the first non-empty
// line is treated as a header if it parses as an object with a "format"
// key; otherwise that first line is re-interpreted as a data record and the
// returned header carries no channels, leaving each caller to pick its own
// default column mapping.
func ParseJSONLStream(r io.Reader) (header JSONLHeader, records []JSONLRecord, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var firstLine []byte
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		firstLine = append([]byte(nil), line...)
		break
	}
	if firstLine == nil {
		if err := scanner.Err(); err != nil {
			return JSONLHeader{}, nil, err
		}
		return JSONLHeader{}, nil, nil
	}

	h, isHeader := parseHeaderLine(firstLine)
	if !isHeader {
		h = JSONLHeader{Format: jsonlFormat, Version: jsonlVersion}
		rec, rerr := parseRecordLine(firstLine)
		if rerr != nil {
			return JSONLHeader{}, nil, rerr
		}
		records = append(records, rec)
	}

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		rec, rerr := parseRecordLine(line)
		if rerr != nil {
			return JSONLHeader{}, nil, rerr
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return h, records, err
	}
	return h, records, nil
}
