package plan

import (
	"errors"
	"fmt"
	"math"

	"reactorcalc.ai/internal/sim/grid"
	"reactorcalc.ai/internal/sim/rates"
)

var (
	ErrColumnLimit    = errors.New("plan: column limit reached")
	ErrRowLimit       = errors.New("plan: row limit reached")
	ErrMinimumSize    = errors.New("plan: layout cannot shrink below one row or column")
	ErrUnknownAction  = errors.New("plan: unknown action type")
	ErrNegativeBonus  = errors.New("plan: neighbour bonus must be finite and non-negative")
	errMissingCatalog = errors.New("plan: nil catalog")
)

// Limits caps how far a layout may grow. Zero means unbounded.
type Limits struct {
	MaxRows int `json:"max_rows"`
	MaxCols int `json:"max_cols"`
}

// DefaultLimits caps columns at 8, the widest layout the planner renders.
func DefaultLimits() Limits { return Limits{MaxRows: 16, MaxCols: 8} }

// State is the whole planner state. It is a value: Dispatch returns a new
// State and never alters the one passed in.
type State struct {
	Layout         grid.Layout
	Tiers          rates.Selection
	AutoFill       bool
	NeighbourBonus float64
	Limits         Limits
}

func NewState(limits Limits, tiers rates.Selection, bonus float64) State {
	return State{
		Layout:         grid.Default(),
		Tiers:          tiers,
		NeighbourBonus: bonus,
		Limits:         limits,
	}
}

// Dispatch applies a to s. On error the returned state equals s.
func Dispatch(s State, a Action) (State, error) {
	switch a.Type {
	case ActionToggle:
		if !s.Layout.InBounds(a.Row, a.Col) {
			return s, fmt.Errorf("toggle (%d,%d) on %dx%d: %w", a.Row, a.Col, s.Layout.Rows(), s.Layout.Cols(), grid.ErrIndexOutOfRange)
		}
		s.Layout = s.Layout.Toggle(a.Row, a.Col)

	case ActionAddRow:
		if s.Limits.MaxRows > 0 && s.Layout.Rows() >= s.Limits.MaxRows {
			return s, fmt.Errorf("%w: %d", ErrRowLimit, s.Limits.MaxRows)
		}
		s.Layout = s.Layout.AddRow(s.AutoFill)

	case ActionRemoveRow:
		next, ok := s.Layout.RemoveRow()
		if !ok {
			return s, ErrMinimumSize
		}
		s.Layout = next

	case ActionAddColumn:
		if s.Limits.MaxCols > 0 && s.Layout.Cols() >= s.Limits.MaxCols {
			return s, fmt.Errorf("%w: %d", ErrColumnLimit, s.Limits.MaxCols)
		}
		s.Layout = s.Layout.AddColumn(s.AutoFill)

	case ActionRemoveColumn:
		next, ok := s.Layout.RemoveColumn()
		if !ok {
			return s, ErrMinimumSize
		}
		s.Layout = next

	case ActionReset:
		s.Layout = grid.Default()

	case ActionSetAutoFill:
		s.AutoFill = a.Enabled

	case ActionSetQuality:
		tiers, err := s.Tiers.With(a.Entity, a.Quality)
		if err != nil {
			return s, err
		}
		s.Tiers = tiers

	case ActionSetNeighbourBonus:
		if math.IsNaN(a.Value) || math.IsInf(a.Value, 0) || a.Value < 0 {
			return s, fmt.Errorf("%w: %v", ErrNegativeBonus, a.Value)
		}
		s.NeighbourBonus = a.Value

	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
	return s, nil
}

// Config resolves the state's tiers against cat and applies its neighbour bonus.
func (s State) Config(cat *rates.Catalog) (rates.Config, error) {
	if cat == nil {
		return rates.Config{}, errMissingCatalog
	}
	cfg, err := cat.Config(s.Tiers)
	if err != nil {
		return rates.Config{}, err
	}
	cfg.NuclearReactor.NeighbourBonus = s.NeighbourBonus
	return cfg, cfg.Validate()
}
