package rates

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestQuality_ParseAndCycle(t *testing.T) {
	for _, q := range Qualities {
		got, err := ParseQuality(q.String())
		if err != nil || got != q {
			t.Fatalf("ParseQuality(%q): got %v, %v", q.String(), got, err)
		}
	}
	if q, err := ParseQuality(" legendary "); err != nil || q != Legendary {
		t.Fatalf("ParseQuality(lowercase): got %v, %v", q, err)
	}
	if _, err := ParseQuality("MYTHIC"); !errors.Is(err, ErrUnknownQuality) {
		t.Fatalf("ParseQuality(MYTHIC): got %v want ErrUnknownQuality", err)
	}
	if Legendary.Next() != Normal || Normal.Next() != Uncommon {
		t.Fatalf("Next must cycle through tiers")
	}
	if Quality(9).Valid() {
		t.Fatalf("Quality(9) must be invalid")
	}
}

func TestSelection_WithAndOf(t *testing.T) {
	var sel Selection
	sel, err := sel.With(KindSteamTurbine, Epic)
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	if q, _ := sel.Of(KindSteamTurbine); q != Epic {
		t.Fatalf("Of(turbine): got %v want EPIC", q)
	}
	if q, _ := sel.Of(KindNuclearReactor); q != Normal {
		t.Fatalf("Of(reactor): got %v want NORMAL", q)
	}
	if _, err := sel.With("BOILER", Rare); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("With(BOILER): got %v want ErrUnknownKind", err)
	}
	if _, err := sel.With(KindOffshorePump, Quality(7)); !errors.Is(err, ErrUnknownQuality) {
		t.Fatalf("With(bad quality): got %v want ErrUnknownQuality", err)
	}
}

func TestTableFor_KnownValues(t *testing.T) {
	cases := []struct {
		kind  Kind
		q     Quality
		param string
		want  float64
	}{
		{KindNuclearReactor, Normal, "heat_output", 40},
		{KindNuclearReactor, Legendary, "heat_output", 100},
		{KindNuclearReactor, Rare, "neighbour_bonus", 1},
		{KindHeatExchanger, Uncommon, "energy_consumption", 13},
		{KindHeatExchanger, Epic, "heat_output", 196},
		{KindHeatExchanger, Legendary, "fluid_consumption", 25.8},
		{KindOffshorePump, Rare, "pumping_speed", 1920},
		{KindSteamTurbine, Normal, "power_output", 5.82},
		{KindSteamTurbine, Legendary, "fluid_consumption", 150},
	}
	for _, tc := range cases {
		tbl, err := TableFor(tc.kind, tc.q)
		if err != nil {
			t.Fatalf("TableFor(%s, %s): %v", tc.kind, tc.q, err)
		}
		found := false
		for _, p := range tbl.Params {
			if p.Name == tc.param {
				found = true
				if p.Value != tc.want {
					t.Fatalf("%s %s %s: got %v want %v", tc.kind, tc.q, tc.param, p.Value, tc.want)
				}
			}
		}
		if !found {
			t.Fatalf("%s %s: missing param %s", tc.kind, tc.q, tc.param)
		}
	}
	if _, err := TableFor("BOILER", Normal); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("TableFor(BOILER): got %v want ErrUnknownKind", err)
	}
}

func TestTables_Monotonic(t *testing.T) {
	c := DefaultCatalog()
	if got := len(c.Tables()); got != len(Kinds)*len(Qualities) {
		t.Fatalf("Tables: got %d entries", got)
	}
	for i := 1; i < len(Qualities); i++ {
		lo, hi := Qualities[i-1], Qualities[i]
		if c.reactors[hi].HeatOutput <= c.reactors[lo].HeatOutput {
			t.Fatalf("reactor heat not increasing at %s", hi)
		}
		if c.exchangers[hi].HeatOutput <= c.exchangers[lo].HeatOutput {
			t.Fatalf("exchanger steam not increasing at %s", hi)
		}
		if c.pumps[hi].PumpingSpeed <= c.pumps[lo].PumpingSpeed {
			t.Fatalf("pump speed not increasing at %s", hi)
		}
		if c.turbines[hi].PowerOutput <= c.turbines[lo].PowerOutput {
			t.Fatalf("turbine power not increasing at %s", hi)
		}
	}
}

func TestNewConfig_RejectsNonPositive(t *testing.T) {
	good := DefaultConfig()
	if err := good.Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	if good.FuelCellEnergy != 8000 || good.NuclearReactor.NeighbourBonus != 1 {
		t.Fatalf("default constants: got %+v", good)
	}

	bad := []func(*Config){
		func(c *Config) { c.NuclearReactor.HeatOutput = 0 },
		func(c *Config) { c.HeatExchanger.EnergyConsumption = -1 },
		func(c *Config) { c.OffshorePump.PumpingSpeed = math.NaN() },
		func(c *Config) { c.SteamTurbine.FluidConsumption = math.Inf(1) },
		func(c *Config) { c.FuelCellEnergy = 0 },
	}
	for i, mutate := range bad {
		c := good
		mutate(&c)
		if _, err := NewConfig(c.NuclearReactor, c.HeatExchanger, c.OffshorePump, c.SteamTurbine, c.FuelCellEnergy); !errors.Is(err, ErrInvalidRate) {
			t.Fatalf("case %d: got %v want ErrInvalidRate", i, err)
		}
	}
}

func TestCatalog_ConfigPerKind(t *testing.T) {
	sel := Selection{NuclearReactor: Legendary, HeatExchanger: Rare, OffshorePump: Normal, SteamTurbine: Epic}
	c, err := DefaultCatalog().Config(sel)
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if c.NuclearReactor.HeatOutput != 100 || c.HeatExchanger.EnergyConsumption != 16 ||
		c.OffshorePump.PumpingSpeed != 1200 || c.SteamTurbine.PowerOutput != 11.06 {
		t.Fatalf("Config: got %+v", c)
	}
	if _, err := DefaultCatalog().Config(Selection{SteamTurbine: Quality(5)}); !errors.Is(err, ErrUnknownQuality) {
		t.Fatalf("Config(bad tier): got %v want ErrUnknownQuality", err)
	}
}

func TestParseCatalog_Overrides(t *testing.T) {
	raw := []byte(`
fuel_cell_energy: 4000
neighbour_bonus: 0.5
steam_turbine:
  legendary:
    power_output: 20
offshore_pump:
  NORMAL: {pumping_speed: 600}
`)
	c, err := ParseCatalog(raw)
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	cfg, err := c.Config(Selection{SteamTurbine: Legendary})
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if cfg.SteamTurbine.PowerOutput != 20 || cfg.SteamTurbine.FluidConsumption != 150 {
		t.Fatalf("turbine override: got %+v", cfg.SteamTurbine)
	}
	if cfg.OffshorePump.PumpingSpeed != 600 || cfg.FuelCellEnergy != 4000 || cfg.NuclearReactor.NeighbourBonus != 0.5 {
		t.Fatalf("overrides: got %+v", cfg)
	}
	if c.Digest() == DefaultCatalog().Digest() {
		t.Fatalf("digest must change with overrides")
	}
	if DefaultCatalog().Digest() != DefaultCatalog().Digest() {
		t.Fatalf("digest must be stable")
	}
}

func TestParseCatalog_Rejects(t *testing.T) {
	cases := []string{
		"steam_turbine:\n  MYTHIC: {power_output: 1}\n",
		"heat_exchanger:\n  NORMAL: {energy_consumption: 0}\n",
		"fuel_cell_energy: -5\n",
		"nuclear_reactor: [1, 2]\n",
	}
	for _, raw := range cases {
		if _, err := ParseCatalog([]byte(raw)); err == nil {
			t.Fatalf("ParseCatalog(%q): expected error", raw)
		}
	}
}

func TestParseCatalog_RejectsUnknownFields(t *testing.T) {
	cases := []string{
		"nuclear_reactor:\n  NORMAL: {heat_ouput: 60}\n",
		"nuclear_reactor:\n  NORMAL: {neighbour_bonus: 2}\n",
		"steam_turbine:\n  RARE: {power_output: 10, fluid_consumtion: 90}\n",
		"steam_turbin:\n  RARE: {power_output: 10}\n",
	}
	for _, raw := range cases {
		c, err := ParseCatalog([]byte(raw))
		if err == nil {
			t.Fatalf("ParseCatalog(%q): expected error, got digest %s", raw, c.Digest())
		}
	}
	_, err := ParseCatalog([]byte(cases[0]))
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("typo in rate field: got %v want ErrUnknownField", err)
	}
	if c, err := ParseCatalog(nil); err != nil || c.Digest() != DefaultCatalog().Digest() {
		t.Fatalf("empty file: got %v", err)
	}
}

func TestCatalog_DigestIsSHA256Hex(t *testing.T) {
	d := DefaultCatalog().Digest()
	if len(d) != 64 || strings.Trim(d, "0123456789abcdef") != "" {
		t.Fatalf("digest: got %q", d)
	}
}

func TestLoadCatalog_ShippedFileMatchesBuiltIn(t *testing.T) {
	c, err := LoadCatalog("../../../configs/rates.yaml")
	if err != nil {
		t.Fatalf("load rates.yaml: %v", err)
	}
	if c.Digest() != DefaultCatalog().Digest() {
		t.Fatalf("configs/rates.yaml drifted from the built-in tables")
	}
}
