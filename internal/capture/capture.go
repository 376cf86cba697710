// Package capture defines the NDJSON frame record shared by the HTTP batch
// endpoint, the UDP ingest payload, and offline analysis input: one JSON
// object per line with a millisecond timestamp, pose confidence, and the
// keypoint list. Malformed lines are skipped and counted, never fatal,
// mirroring the engine's per-frame error policy.
package capture

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/kinetic-data/form.report/internal/pose"
)

// maxLineBytes caps a single record line; a full 17-keypoint frame is under
// two kilobytes.
const maxLineBytes = 1024 * 1024

// FrameRecord is the wire and file form of one observed frame. SessionID
// rides along on the UDP wire, where datagrams must self-address; it stays
// empty in per-session HTTP bodies and capture files.
type FrameRecord struct {
	SessionID      string          `json:"session_id,omitempty"`
	T              int64           `json:"t"`
	PoseConfidence float64         `json:"pose_confidence"`
	Keypoints      []pose.Keypoint `json:"keypoints"`
}

// Time returns the record timestamp (T is unix milliseconds).
func (r *FrameRecord) Time() time.Time {
	return time.UnixMilli(r.T)
}

// Pose materialises the record into a validated Pose with the given
// confidence threshold (negative for the default).
func (r *FrameRecord) Pose(threshold float64) (*pose.Pose, error) {
	return pose.New(r.Keypoints, r.PoseConfidence, threshold)
}

// Decoder reads frame records from an NDJSON stream. Lines that fail to
// parse are skipped and counted rather than aborting the stream.
type Decoder struct {
	scanner *bufio.Scanner
	skipped int
}

// NewDecoder returns a Decoder over r.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Decoder{scanner: sc}
}

// Next returns the next well-formed record, io.EOF at end of stream, or the
// underlying read error. Blank lines are ignored; unparseable lines count
// toward Skipped.
func (d *Decoder) Next() (*FrameRecord, error) {
	for d.scanner.Scan() {
		line := bytes.TrimSpace(d.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec FrameRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			d.skipped++
			continue
		}
		return &rec, nil
	}
	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Skipped returns the number of malformed lines passed over so far.
func (d *Decoder) Skipped() int {
	return d.skipped
}

// Writer emits frame records as NDJSON.
type Writer struct {
	enc *json.Encoder
}

// NewWriter returns a Writer targeting w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Write appends one record line.
func (w *Writer) Write(rec *FrameRecord) error {
	return w.enc.Encode(rec)
}
