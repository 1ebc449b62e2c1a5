package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const segmentLayout = "2006-01-02-15"

// segment is one open hourly file. Each appended entry is flushed as its own
// zstd block, so a crash loses at most the entry being written. Reopening an
// hour appends a new frame, which zstd readers decode as one stream.
type segment struct {
	hour string
	f    *os.File
	zw   *zstd.Encoder
	enc  *json.Encoder
}

func segmentPath(dir, hour string) string {
	return filepath.Join(dir, fmt.Sprintf("actions-%s.jsonl.zst", hour))
}

func openSegment(dir, hour string) (*segment, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(segmentPath(dir, hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &segment{hour: hour, f: f, zw: zw, enc: json.NewEncoder(zw)}, nil
}

func (s *segment) append(e Entry) error {
	if err := s.enc.Encode(e); err != nil {
		return err
	}
	return s.zw.Flush()
}

// close finishes the zstd frame and the file. Every step runs even after a
// failure and all failures are reported.
func (s *segment) close() error {
	return errors.Join(s.zw.Close(), s.f.Sync(), s.f.Close())
}
