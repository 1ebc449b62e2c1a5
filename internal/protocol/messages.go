package protocol

import "reactorcalc.ai/internal/sim/rates"

// HELLO (client -> server)
type HelloMsg struct {
	Type              string   `json:"type"`
	ProtocolVersion   string   `json:"protocol_version"`
	SupportedVersions []string `json:"supported_versions,omitempty"`
	ClientName        string   `json:"client_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	Limits          LimitsRef      `json:"limits"`
	ActionTypes     []string       `json:"action_types"`
	Catalog         CatalogDigests `json:"catalog"`
}

type LimitsRef struct {
	MaxRows int `json:"max_rows"`
	MaxCols int `json:"max_cols"`
}

type CatalogDigests struct {
	RatesDigest string `json:"rates_digest"`
	TableCount  int    `json:"table_count"`
}

// CATALOG (server -> client): every tier table, sent once after WELCOME.
type CatalogMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	Name            string        `json:"name"`   // "rates"
	Digest          string        `json:"digest"` // sha256 hex
	Qualities       []string      `json:"qualities"`
	Kinds           []rates.Kind  `json:"kinds"`
	Tables          []rates.Table `json:"tables"`
}

// NewCatalogMsg builds the CATALOG message for cat.
func NewCatalogMsg(cat *rates.Catalog) CatalogMsg {
	qs := make([]string, 0, len(rates.Qualities))
	for _, q := range rates.Qualities {
		qs = append(qs, q.String())
	}
	return CatalogMsg{
		Type:            TypeCatalog,
		ProtocolVersion: Version,
		Name:            "rates",
		Digest:          cat.Digest(),
		Qualities:       qs,
		Kinds:           rates.Kinds[:],
		Tables:          cat.Tables(),
	}
}
