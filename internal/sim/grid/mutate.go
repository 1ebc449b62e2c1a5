package grid

// Toggle flips (row, col). Out-of-range coordinates leave the layout unchanged.
func (l Layout) Toggle(row, col int) Layout {
	if !l.InBounds(row, col) {
		return l
	}
	out := l.Matrix()
	out[row][col] = !out[row][col]
	return Layout{cells: out}
}

// AddRow appends a row filled with fill.
func (l Layout) AddRow(fill bool) Layout {
	out := l.Matrix()
	out = append(out, filledRow(l.Cols(), fill))
	return Layout{cells: out}
}

// RemoveRow drops the last row. The boolean is false (and l is returned) when only one row is left.
func (l Layout) RemoveRow() (Layout, bool) {
	if l.Rows() <= 1 {
		return l, false
	}
	return Layout{cells: cloneRows(l.cells[:l.Rows()-1])}, true
}

// AddColumn appends a column filled with fill to every row.
func (l Layout) AddColumn(fill bool) Layout {
	out := make([][]bool, l.Rows())
	for r, row := range l.cells {
		nr := make([]bool, len(row), len(row)+1)
		copy(nr, row)
		out[r] = append(nr, fill)
	}
	return Layout{cells: out}
}

// RemoveColumn drops the last column, refusing to go below one column.
func (l Layout) RemoveColumn() (Layout, bool) {
	if l.Cols() <= 1 {
		return l, false
	}
	out := make([][]bool, l.Rows())
	for r, row := range l.cells {
		out[r] = append([]bool(nil), row[:len(row)-1]...)
	}
	return Layout{cells: out}, true
}
