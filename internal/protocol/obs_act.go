package protocol

import (
	"reactorcalc.ai/internal/sim/chain"
	"reactorcalc.ai/internal/sim/grid"
	"reactorcalc.ai/internal/sim/plan"
	"reactorcalc.ai/internal/sim/rates"
)

// OBS (server -> client): the planner state after the last ACT.
type ObsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	Seq             uint64 `json:"seq"`

	// Result of the ACT with this Seq; empty Code means it was applied.
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`

	Layout         grid.Layout      `json:"layout"`
	LayoutRLE      string           `json:"layout_rle"`
	Cells          [][]float64      `json:"cells"`
	Tiers          rates.Selection  `json:"tiers"`
	AutoFill       bool             `json:"auto_fill"`
	NeighbourBonus float64          `json:"neighbour_bonus"`
	Quantities     chain.Quantities `json:"quantities"`
	Unrefuelable   []grid.Cell      `json:"unrefuelable"`
}

// NewObsMsg renders an observation. err is the outcome of the ACT being answered.
func NewObsMsg(sessionID string, seq uint64, obs plan.Observation, err error) ObsMsg {
	m := ObsMsg{
		Type:            TypeObs,
		ProtocolVersion: Version,
		SessionID:       sessionID,
		Seq:             seq,
		Layout:          obs.Layout,
		LayoutRLE:       grid.EncodeRLE(obs.Layout),
		Cells:           obs.Cells,
		Tiers:           obs.Tiers,
		AutoFill:        obs.AutoFill,
		NeighbourBonus:  obs.NeighbourBonus,
		Quantities:      obs.Quantities,
		Unrefuelable:    obs.Unrefuelable,
	}
	if err != nil {
		m.Code = CodeFor(err)
		m.Message = err.Error()
	}
	return m
}

// ACT (client -> server)
type ActMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Seq             uint64    `json:"seq"`
	Action          ActionReq `json:"action"`
}

type ActionReq struct {
	Type    string  `json:"type"`
	Row     int     `json:"row"`
	Col     int     `json:"col"`
	Entity  string  `json:"entity,omitempty"`
	Quality string  `json:"quality,omitempty"`
	Enabled bool    `json:"enabled"`
	Value   float64 `json:"value"`
}

// ToAction converts the wire request into a planner action.
func (a ActionReq) ToAction() (plan.Action, error) {
	out := plan.Action{
		Type:    a.Type,
		Row:     a.Row,
		Col:     a.Col,
		Enabled: a.Enabled,
		Value:   a.Value,
	}
	if a.Type != plan.ActionSetQuality {
		return out, nil
	}
	kind, err := rates.ParseKind(a.Entity)
	if err != nil {
		return out, err
	}
	q, err := rates.ParseQuality(a.Quality)
	if err != nil {
		return out, err
	}
	out.Entity, out.Quality = kind, q
	return out, nil
}
