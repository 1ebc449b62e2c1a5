package rates

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownQuality = errors.New("rates: unknown quality")
	ErrUnknownKind    = errors.New("rates: unknown entity kind")
	ErrUnknownField   = errors.New("rates: unknown rate field")
)

type Quality uint8

const (
	Normal Quality = iota
	Uncommon
	Rare
	Epic
	Legendary
)

// Qualities lists every tier in ascending order.
var Qualities = [...]Quality{Normal, Uncommon, Rare, Epic, Legendary}

var qualityNames = [...]string{"NORMAL", "UNCOMMON", "RARE", "EPIC", "LEGENDARY"}

func (q Quality) Valid() bool { return int(q) < len(qualityNames) }

func (q Quality) String() string {
	if !q.Valid() {
		return fmt.Sprintf("Quality(%d)", uint8(q))
	}
	return qualityNames[q]
}

// Next cycles to the following tier, wrapping Legendary back to Normal.
func (q Quality) Next() Quality {
	return Quality((int(q) + 1) % len(qualityNames))
}

func ParseQuality(s string) (Quality, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range qualityNames {
		if s == name {
			return Quality(i), nil
		}
	}
	return Normal, fmt.Errorf("%w: %q", ErrUnknownQuality, s)
}

func (q Quality) MarshalText() ([]byte, error) {
	if !q.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownQuality, uint8(q))
	}
	return []byte(q.String()), nil
}

func (q *Quality) UnmarshalText(b []byte) error {
	v, err := ParseQuality(string(b))
	if err != nil {
		return err
	}
	*q = v
	return nil
}

// Kind names one of the four entity kinds in the production chain.
type Kind string

const (
	KindNuclearReactor Kind = "NUCLEAR_REACTOR"
	KindHeatExchanger  Kind = "HEAT_EXCHANGER"
	KindOffshorePump   Kind = "OFFSHORE_PUMP"
	KindSteamTurbine   Kind = "STEAM_TURBINE"
)

var Kinds = [...]Kind{KindNuclearReactor, KindHeatExchanger, KindOffshorePump, KindSteamTurbine}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Selection picks a tier independently for each entity kind.
type Selection struct {
	NuclearReactor Quality `json:"nuclear_reactor" yaml:"nuclear_reactor"`
	HeatExchanger  Quality `json:"heat_exchanger" yaml:"heat_exchanger"`
	OffshorePump   Quality `json:"offshore_pump" yaml:"offshore_pump"`
	SteamTurbine   Quality `json:"steam_turbine" yaml:"steam_turbine"`
}

// With returns a copy of s with kind set to q.
func (s Selection) With(kind Kind, q Quality) (Selection, error) {
	if !q.Valid() {
		return s, fmt.Errorf("%w: %d", ErrUnknownQuality, uint8(q))
	}
	switch kind {
	case KindNuclearReactor:
		s.NuclearReactor = q
	case KindHeatExchanger:
		s.HeatExchanger = q
	case KindOffshorePump:
		s.OffshorePump = q
	case KindSteamTurbine:
		s.SteamTurbine = q
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return s, nil
}

func (s Selection) Of(kind Kind) (Quality, error) {
	switch kind {
	case KindNuclearReactor:
		return s.NuclearReactor, nil
	case KindHeatExchanger:
		return s.HeatExchanger, nil
	case KindOffshorePump:
		return s.OffshorePump, nil
	case KindSteamTurbine:
		return s.SteamTurbine, nil
	}
	return Normal, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
