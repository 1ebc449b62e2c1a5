package grid

import (
	"errors"
	"fmt"
)

var (
	ErrEmpty           = errors.New("grid: layout must have at least one row and one column")
	ErrNonRectangular  = errors.New("grid: rows have differing lengths")
	ErrIndexOutOfRange = errors.New("grid: index out of range")
)

// Layout is an immutable occupancy matrix. Mutating helpers return a new Layout
// and never touch the receiver, so a Layout can be shared freely between readers.
type Layout struct {
	cells [][]bool
}

type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Default is the canonical 3x3 layout with only the centre occupied.
func Default() Layout {
	return Layout{cells: [][]bool{
		{false, false, false},
		{false, true, false},
		{false, false, false},
	}}
}

// New copies rows into a Layout after checking it is non-empty and rectangular.
func New(rows [][]bool) (Layout, error) {
	if err := validate(rows); err != nil {
		return Layout{}, err
	}
	return Layout{cells: cloneRows(rows)}, nil
}

// Filled returns a rows x cols layout with every cell set to v.
func Filled(rows, cols int, v bool) (Layout, error) {
	if rows < 1 || cols < 1 {
		return Layout{}, ErrEmpty
	}
	out := make([][]bool, rows)
	for r := range out {
		out[r] = filledRow(cols, v)
	}
	return Layout{cells: out}, nil
}

func validate(rows [][]bool) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return ErrEmpty
	}
	w := len(rows[0])
	for i, row := range rows {
		if len(row) != w {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrNonRectangular, i, len(row), w)
		}
	}
	return nil
}

func (l Layout) Rows() int { return len(l.cells) }

func (l Layout) Cols() int {
	if len(l.cells) == 0 {
		return 0
	}
	return len(l.cells[0])
}

// IsZero reports whether l is the zero Layout (never built through New/Default).
func (l Layout) IsZero() bool { return len(l.cells) == 0 }

func (l Layout) InBounds(row, col int) bool {
	return row >= 0 && row < l.Rows() && col >= 0 && col < l.Cols()
}

// Occupied reports whether (row, col) holds a reactor. Out-of-range cells are empty.
func (l Layout) Occupied(row, col int) bool {
	if !l.InBounds(row, col) {
		return false
	}
	return l.cells[row][col]
}

// Matrix returns a deep copy of the occupancy matrix.
func (l Layout) Matrix() [][]bool { return cloneRows(l.cells) }

func (l Layout) Equal(o Layout) bool {
	if l.Rows() != o.Rows() || l.Cols() != o.Cols() {
		return false
	}
	for r := range l.cells {
		for c := range l.cells[r] {
			if l.cells[r][c] != o.cells[r][c] {
				return false
			}
		}
	}
	return true
}

func cloneRows(rows [][]bool) [][]bool {
	out := make([][]bool, len(rows))
	for i, row := range rows {
		out[i] = append([]bool(nil), row...)
	}
	return out
}

func filledRow(n int, v bool) []bool {
	row := make([]bool, n)
	if v {
		for i := range row {
			row[i] = true
		}
	}
	return row
}
