package rates

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog holds every tier of every entity plus the tier-independent
// constants. Instances are immutable once built.
type Catalog struct {
	reactors       [len(qualityNames)]NuclearReactor
	exchangers     [len(qualityNames)]HeatExchanger
	pumps          [len(qualityNames)]OffshorePump
	turbines       [len(qualityNames)]SteamTurbine
	neighbourBonus float64
	fuelCellEnergy float64
	digest         string
}

// DefaultCatalog returns the built-in tier tables.
func DefaultCatalog() *Catalog {
	c := &Catalog{
		reactors:       defaultReactors,
		exchangers:     defaultHeatExchangers,
		pumps:          defaultOffshorePumps,
		turbines:       defaultSteamTurbines,
		neighbourBonus: DefaultNeighbourBonus,
		fuelCellEnergy: DefaultFuelCellEnergy,
	}
	c.digest = c.computeDigest()
	return c
}

// catalogFile is the on-disk override format. Tier rows are keyed by quality
// name and only the fields present replace the built-in values.
type catalogFile struct {
	NeighbourBonus *float64             `yaml:"neighbour_bonus"`
	FuelCellEnergy *float64             `yaml:"fuel_cell_energy"`
	NuclearReactor map[string]yaml.Node `yaml:"nuclear_reactor"`
	HeatExchanger  map[string]yaml.Node `yaml:"heat_exchanger"`
	OffshorePump   map[string]yaml.Node `yaml:"offshore_pump"`
	SteamTurbine   map[string]yaml.Node `yaml:"steam_turbine"`
}

// LoadCatalog reads a rates.yaml override file on top of the built-in tables.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("rates.yaml: %w", err)
	}

	c := DefaultCatalog()
	if f.NeighbourBonus != nil {
		c.neighbourBonus = *f.NeighbourBonus
	}
	if f.FuelCellEnergy != nil {
		c.fuelCellEnergy = *f.FuelCellEnergy
	}
	if err := overlay(f.NuclearReactor, &c.reactors); err != nil {
		return nil, fmt.Errorf("rates.yaml: nuclear_reactor: %w", err)
	}
	if err := overlay(f.HeatExchanger, &c.exchangers); err != nil {
		return nil, fmt.Errorf("rates.yaml: heat_exchanger: %w", err)
	}
	if err := overlay(f.OffshorePump, &c.pumps); err != nil {
		return nil, fmt.Errorf("rates.yaml: offshore_pump: %w", err)
	}
	if err := overlay(f.SteamTurbine, &c.turbines); err != nil {
		return nil, fmt.Errorf("rates.yaml: steam_turbine: %w", err)
	}

	// Every tier must still resolve to a valid config.
	for _, q := range Qualities {
		sel := Selection{NuclearReactor: q, HeatExchanger: q, OffshorePump: q, SteamTurbine: q}
		if _, err := c.Config(sel); err != nil {
			return nil, fmt.Errorf("rates.yaml: %s: %w", q, err)
		}
	}
	c.digest = c.computeDigest()
	return c, nil
}

func overlay[T any](rows map[string]yaml.Node, dst *[len(qualityNames)]T) error {
	known := yamlFields(reflect.TypeOf((*T)(nil)).Elem())
	for name, node := range rows {
		q, err := ParseQuality(name)
		if err != nil {
			return err
		}
		if node.Kind != yaml.MappingNode {
			return fmt.Errorf("%s: line %d: expected a mapping of rate fields", q, node.Line)
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if _, ok := known[key.Value]; !ok {
				return fmt.Errorf("%s: line %d: %w %q", q, key.Line, ErrUnknownField, key.Value)
			}
		}
		row := dst[q]
		if err := node.Decode(&row); err != nil {
			return fmt.Errorf("%s: %w", q, err)
		}
		dst[q] = row
	}
	return nil
}

// yamlFields lists the yaml keys a struct type accepts.
func yamlFields(t reflect.Type) map[string]struct{} {
	out := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			continue
		}
		out[name] = struct{}{}
	}
	return out
}

// Config resolves a selection into a validated rate set.
func (c *Catalog) Config(sel Selection) (Config, error) {
	for _, q := range []Quality{sel.NuclearReactor, sel.HeatExchanger, sel.OffshorePump, sel.SteamTurbine} {
		if !q.Valid() {
			return Config{}, fmt.Errorf("%w: %d", ErrUnknownQuality, uint8(q))
		}
	}
	r := c.reactors[sel.NuclearReactor]
	r.NeighbourBonus = c.neighbourBonus
	return NewConfig(r, c.exchangers[sel.HeatExchanger], c.pumps[sel.OffshorePump], c.turbines[sel.SteamTurbine], c.fuelCellEnergy)
}

func (c *Catalog) NeighbourBonus() float64 { return c.neighbourBonus }

func (c *Catalog) FuelCellEnergy() float64 { return c.fuelCellEnergy }

// TableFor returns the rate record of kind at tier q.
func (c *Catalog) TableFor(kind Kind, q Quality) (Table, error) {
	if !q.Valid() {
		return Table{}, fmt.Errorf("%w: %d", ErrUnknownQuality, uint8(q))
	}
	t := Table{Kind: kind, Quality: q}
	switch kind {
	case KindNuclearReactor:
		r := c.reactors[q]
		r.NeighbourBonus = c.neighbourBonus
		t.Params = r.params()
	case KindHeatExchanger:
		t.Params = c.exchangers[q].params()
	case KindOffshorePump:
		t.Params = c.pumps[q].params()
	case KindSteamTurbine:
		t.Params = c.turbines[q].params()
	default:
		return Table{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return t, nil
}

// Tables lists every kind at every tier, kinds in chain order.
func (c *Catalog) Tables() []Table {
	out := make([]Table, 0, len(Kinds)*len(Qualities))
	for _, k := range Kinds {
		for _, q := range Qualities {
			t, _ := c.TableFor(k, q)
			out = append(out, t)
		}
	}
	return out
}

// TableFor looks kind and q up in the built-in catalog.
func TableFor(kind Kind, q Quality) (Table, error) {
	return defaultCatalog.TableFor(kind, q)
}

var defaultCatalog = DefaultCatalog()

// Digest identifies the catalog contents: sha256 of the canonical JSON of
// every table plus the constants.
func (c *Catalog) Digest() string { return c.digest }

func (c *Catalog) computeDigest() string {
	b, _ := json.Marshal(struct {
		Tables         []Table `json:"tables"`
		FuelCellEnergy float64 `json:"fuel_cell_energy"`
	}{c.Tables(), c.fuelCellEnergy})
	return sha256Hex(b)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
