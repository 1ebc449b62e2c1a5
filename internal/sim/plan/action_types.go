package plan

import "reactorcalc.ai/internal/sim/rates"

const (
	ActionToggle            = "TOGGLE"
	ActionAddRow            = "ADD_ROW"
	ActionRemoveRow         = "REMOVE_ROW"
	ActionAddColumn         = "ADD_COLUMN"
	ActionRemoveColumn      = "REMOVE_COLUMN"
	ActionReset             = "RESET"
	ActionSetAutoFill       = "SET_AUTO_FILL"
	ActionSetQuality        = "SET_QUALITY"
	ActionSetNeighbourBonus = "SET_NEIGHBOUR_BONUS"
)

var supportedActionTypes = []string{
	ActionToggle,
	ActionAddRow,
	ActionRemoveRow,
	ActionAddColumn,
	ActionRemoveColumn,
	ActionReset,
	ActionSetAutoFill,
	ActionSetQuality,
	ActionSetNeighbourBonus,
}

// SupportedActionTypes returns a copy of the action type list.
func SupportedActionTypes() []string {
	out := make([]string, len(supportedActionTypes))
	copy(out, supportedActionTypes)
	return out
}

func IsSupportedActionType(t string) bool {
	for _, s := range supportedActionTypes {
		if s == t {
			return true
		}
	}
	return false
}

// Action is one edit requested by a collaborator. Only the fields relevant
// to Type are read.
type Action struct {
	Type    string        `json:"type"`
	Row     int           `json:"row,omitempty"`
	Col     int           `json:"col,omitempty"`
	Entity  rates.Kind    `json:"entity,omitempty"`
	Quality rates.Quality `json:"quality,omitempty"`
	Enabled bool          `json:"enabled,omitempty"`
	Value   float64       `json:"value,omitempty"`
}
