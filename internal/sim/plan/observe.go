package plan

import (
	"reactorcalc.ai/internal/sim/chain"
	"reactorcalc.ai/internal/sim/grid"
	"reactorcalc.ai/internal/sim/rates"
)

// Observation is everything a renderer needs for one state.
type Observation struct {
	Layout         grid.Layout      `json:"layout"`
	Cells          [][]float64      `json:"cells"`
	Tiers          rates.Selection  `json:"tiers"`
	AutoFill       bool             `json:"auto_fill"`
	NeighbourBonus float64          `json:"neighbour_bonus"`
	Limits         Limits           `json:"limits"`
	Quantities     chain.Quantities `json:"quantities"`
	Unrefuelable   []grid.Cell      `json:"unrefuelable"`
}

// Observe recomputes the production chain for s. It is linear in cell count
// and cheap enough to call after every Dispatch.
func Observe(s State, cat *rates.Catalog) (Observation, error) {
	cfg, err := s.Config(cat)
	if err != nil {
		return Observation{}, err
	}
	q, err := chain.Evaluate(s.Layout, cfg)
	if err != nil {
		return Observation{}, err
	}

	cells := make([][]float64, s.Layout.Rows())
	for r := range cells {
		cells[r] = make([]float64, s.Layout.Cols())
		for c := range cells[r] {
			cells[r][c] = grid.Multiplier(s.Layout, r, c, s.NeighbourBonus)
		}
	}

	unref := grid.Unrefuelable(s.Layout)
	if unref == nil {
		unref = []grid.Cell{}
	}
	return Observation{
		Layout:         s.Layout,
		Cells:          cells,
		Tiers:          s.Tiers,
		AutoFill:       s.AutoFill,
		NeighbourBonus: s.NeighbourBonus,
		Limits:         s.Limits,
		Quantities:     q,
		Unrefuelable:   unref,
	}, nil
}
