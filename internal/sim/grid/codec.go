package grid

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	glyphOccupied = '#'
	glyphEmpty    = '.'
)

// Parse reads a layout written as rows of '#' (occupied) and '.' (empty).
// Rows are separated by newlines or '/'; surrounding whitespace is ignored.
func Parse(s string) (Layout, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "/", "\n")
	var rows [][]bool
	for i, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		row := make([]bool, 0, len(line))
		for _, ch := range line {
			switch ch {
			case glyphOccupied, 'x', 'X', '1':
				row = append(row, true)
			case glyphEmpty, '_', '0':
				row = append(row, false)
			default:
				return Layout{}, fmt.Errorf("grid: line %d: unexpected %q", i+1, ch)
			}
		}
		rows = append(rows, row)
	}
	return New(rows)
}

// String renders the layout in the form Parse accepts, one row per line.
func (l Layout) String() string {
	var b strings.Builder
	for r, row := range l.cells {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, v := range row {
			if v {
				b.WriteByte(glyphOccupied)
			} else {
				b.WriteByte(glyphEmpty)
			}
		}
	}
	return b.String()
}

// EncodeRLE packs the layout as base64(uvarint rows, uvarint cols, run lengths...).
// Runs alternate empty/occupied in row-major order and always start with an
// empty run, which may be zero.
func EncodeRLE(l Layout) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte
	put := func(v uint64) {
		n := binary.PutUvarint(tmp[:], v)
		buf.Write(tmp[:n])
	}

	put(uint64(l.Rows()))
	put(uint64(l.Cols()))

	cur := false
	var run uint64
	for _, row := range l.cells {
		for _, v := range row {
			if v != cur {
				put(run)
				cur = v
				run = 0
			}
			run++
		}
	}
	put(run)

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func DecodeRLE(b64 string) (Layout, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Layout{}, err
	}
	i := 0
	next := func() (uint64, error) {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return 0, fmt.Errorf("grid: bad varint at %d", i)
		}
		i += n
		return v, nil
	}

	rows, err := next()
	if err != nil {
		return Layout{}, err
	}
	cols, err := next()
	if err != nil {
		return Layout{}, err
	}
	if rows == 0 || cols == 0 {
		return Layout{}, ErrEmpty
	}
	if rows > 1<<12 || cols > 1<<12 {
		return Layout{}, fmt.Errorf("grid: layout %dx%d too large", rows, cols)
	}

	total := rows * cols
	flat := make([]bool, 0, total)
	cur := false
	for i < len(raw) {
		run, err := next()
		if err != nil {
			return Layout{}, err
		}
		if uint64(len(flat))+run > total {
			return Layout{}, fmt.Errorf("grid: runs exceed %d cells", total)
		}
		for k := uint64(0); k < run; k++ {
			flat = append(flat, cur)
		}
		cur = !cur
	}
	if uint64(len(flat)) != total {
		return Layout{}, fmt.Errorf("grid: runs cover %d cells, want %d", len(flat), total)
	}

	out := make([][]bool, rows)
	for r := range out {
		out[r] = flat[uint64(r)*cols : uint64(r+1)*cols : uint64(r+1)*cols]
	}
	return Layout{cells: out}, nil
}

// MarshalJSON encodes the layout as one string per row, e.g. ["...", ".#.", "..."].
func (l Layout) MarshalJSON() ([]byte, error) {
	if l.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(strings.Split(l.String(), "\n"))
}

// UnmarshalJSON accepts the row-string form. null leaves l unchanged, so a
// zero Layout round-trips through MarshalJSON.
func (l *Layout) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		return nil
	}
	var rows []string
	if err := json.Unmarshal(b, &rows); err != nil {
		return err
	}
	parsed, err := Parse(strings.Join(rows, "\n"))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
