package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"reactorcalc.ai/internal/sim/plan"
)

// Entry records one dispatched action and its outcome. Layouts are stored
// in RLE form.
type Entry struct {
	Time      time.Time   `json:"time"`
	SessionID string      `json:"session_id"`
	Seq       uint64      `json:"seq"`
	Action    plan.Action `json:"action"`
	Code      string      `json:"code,omitempty"`
	LayoutRLE string      `json:"layout_rle"`
	SRE       float64     `json:"sre"`
	Turbines  int64       `json:"turbines"`
}

// Journal is the action log of a planner server, one zstd JSONL segment per
// UTC hour of entry time. Safe for concurrent use.
type Journal struct {
	dir string
	now func() time.Time

	mu  sync.Mutex
	cur *segment
}

func Open(dir string) *Journal {
	return &Journal{dir: filepath.Join(dir, "actions"), now: time.Now}
}

// Record appends e, stamping it with the current time when unset. The
// segment follows e.Time, so entries land in the hour they describe.
func (j *Journal) Record(e Entry) error {
	if e.Time.IsZero() {
		e.Time = j.now()
	}
	e.Time = e.Time.UTC()
	hour := e.Time.Format(segmentLayout)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cur == nil || j.cur.hour != hour {
		if err := j.closeLocked(); err != nil {
			return fmt.Errorf("journal: close segment: %w", err)
		}
		seg, err := openSegment(j.dir, hour)
		if err != nil {
			return fmt.Errorf("journal: open segment %s: %w", hour, err)
		}
		j.cur = seg
	}
	if err := j.cur.append(e); err != nil {
		return fmt.Errorf("journal: append: %w", err)
	}
	return nil
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeLocked()
}

func (j *Journal) closeLocked() error {
	if j.cur == nil {
		return nil
	}
	err := j.cur.close()
	j.cur = nil
	return err
}

// Files lists the journal's segment files in chronological order.
func Files(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "actions", "actions-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadFile decodes every entry of one closed segment.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Entry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return out, fmt.Errorf("%s:%d: %w", filepath.Base(path), line, err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
