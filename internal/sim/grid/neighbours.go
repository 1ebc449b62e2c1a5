package grid

// 4-connected; diagonals never count.
var cardinalDirs = [4]Cell{
	{Row: -1, Col: 0},
	{Row: 1, Col: 0},
	{Row: 0, Col: -1},
	{Row: 0, Col: 1},
}

// NeighbourCount returns how many in-bounds 4-neighbours of (row, col) are occupied.
// An unoccupied or out-of-range cell yields 0.
func NeighbourCount(l Layout, row, col int) int {
	if !l.Occupied(row, col) {
		return 0
	}
	n := 0
	for _, d := range cardinalDirs {
		if l.Occupied(row+d.Row, col+d.Col) {
			n++
		}
	}
	return n
}

// NeighbourCountAt is NeighbourCount for callers that do not pre-validate coordinates.
func NeighbourCountAt(l Layout, row, col int) (int, error) {
	if !l.InBounds(row, col) {
		return 0, ErrIndexOutOfRange
	}
	return NeighbourCount(l, row, col), nil
}

// Multiplier is the single-reactor-equivalent contribution of one cell:
// 1 + neighbours*bonus when occupied, 0 otherwise.
func Multiplier(l Layout, row, col int, bonus float64) float64 {
	if !l.Occupied(row, col) {
		return 0
	}
	return 1 + float64(NeighbourCount(l, row, col))*bonus
}

// AggregateScore sums Multiplier over every cell (the SRE value).
func AggregateScore(l Layout, bonus float64) float64 {
	var sum float64
	for r := 0; r < l.Rows(); r++ {
		for c := 0; c < l.Cols(); c++ {
			sum += Multiplier(l, r, c, bonus)
		}
	}
	return sum
}

func OccupiedCount(l Layout) int {
	n := 0
	for _, row := range l.cells {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

// Unrefuelable lists occupied cells enclosed on all four sides. Nothing can be placed
// next to them to insert fuel, so they must be fed by hand.
func Unrefuelable(l Layout) []Cell {
	var out []Cell
	for r := 0; r < l.Rows(); r++ {
		for c := 0; c < l.Cols(); c++ {
			if NeighbourCount(l, r, c) == len(cardinalDirs) {
				out = append(out, Cell{Row: r, Col: c})
			}
		}
	}
	return out
}
