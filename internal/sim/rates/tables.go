package rates

// Per-entity rates for one quality tier. Units: MW for power, units/s for fluids.

type NuclearReactor struct {
	HeatOutput     float64 `json:"heat_output" yaml:"heat_output"`
	NeighbourBonus float64 `json:"neighbour_bonus" yaml:"-"`
}

type HeatExchanger struct {
	EnergyConsumption float64 `json:"energy_consumption" yaml:"energy_consumption"`
	HeatOutput        float64 `json:"heat_output" yaml:"heat_output"`
	FluidConsumption  float64 `json:"fluid_consumption" yaml:"fluid_consumption"`
}

type OffshorePump struct {
	PumpingSpeed float64 `json:"pumping_speed" yaml:"pumping_speed"`
}

type SteamTurbine struct {
	FluidConsumption float64 `json:"fluid_consumption" yaml:"fluid_consumption"`
	PowerOutput      float64 `json:"power_output" yaml:"power_output"`
}

const (
	// DefaultNeighbourBonus is the extra output per adjacent active reactor. Not subject to quality.
	DefaultNeighbourBonus = 1.0
	// DefaultFuelCellEnergy is the energy (MJ) in one uranium fuel cell. Not subject to quality.
	DefaultFuelCellEnergy = 8000.0
)

var defaultReactors = [len(qualityNames)]NuclearReactor{
	Normal:    {HeatOutput: 40},
	Uncommon:  {HeatOutput: 52},
	Rare:      {HeatOutput: 64},
	Epic:      {HeatOutput: 76},
	Legendary: {HeatOutput: 100},
}

var defaultHeatExchangers = [len(qualityNames)]HeatExchanger{
	Normal:    {EnergyConsumption: 10, HeatOutput: 103, FluidConsumption: 10.3},
	Uncommon:  {EnergyConsumption: 13, HeatOutput: 134, FluidConsumption: 13.4},
	Rare:      {EnergyConsumption: 16, HeatOutput: 165, FluidConsumption: 16.5},
	Epic:      {EnergyConsumption: 19, HeatOutput: 196, FluidConsumption: 19.6},
	Legendary: {EnergyConsumption: 25, HeatOutput: 258, FluidConsumption: 25.8},
}

var defaultOffshorePumps = [len(qualityNames)]OffshorePump{
	Normal:    {PumpingSpeed: 1200},
	Uncommon:  {PumpingSpeed: 1560},
	Rare:      {PumpingSpeed: 1920},
	Epic:      {PumpingSpeed: 2280},
	Legendary: {PumpingSpeed: 3000},
}

var defaultSteamTurbines = [len(qualityNames)]SteamTurbine{
	Normal:    {FluidConsumption: 60, PowerOutput: 5.82},
	Uncommon:  {FluidConsumption: 78, PowerOutput: 7.57},
	Rare:      {FluidConsumption: 96, PowerOutput: 9.31},
	Epic:      {FluidConsumption: 114, PowerOutput: 11.06},
	Legendary: {FluidConsumption: 150, PowerOutput: 14.55},
}

// Param is one displayable rate of an entity at a given tier.
type Param struct {
	Name  string  `json:"name"`
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
}

// Table is the rate record of one entity kind at one tier.
type Table struct {
	Kind    Kind    `json:"kind"`
	Quality Quality `json:"quality"`
	Params  []Param `json:"params"`
}

func (r NuclearReactor) params() []Param {
	return []Param{
		{Name: "heat_output", Unit: "MW", Value: r.HeatOutput},
		{Name: "neighbour_bonus", Unit: "x", Value: r.NeighbourBonus},
	}
}

func (h HeatExchanger) params() []Param {
	return []Param{
		{Name: "energy_consumption", Unit: "MW", Value: h.EnergyConsumption},
		{Name: "fluid_consumption", Unit: "water/s", Value: h.FluidConsumption},
		{Name: "heat_output", Unit: "steam/s", Value: h.HeatOutput},
	}
}

func (p OffshorePump) params() []Param {
	return []Param{{Name: "pumping_speed", Unit: "water/s", Value: p.PumpingSpeed}}
}

func (t SteamTurbine) params() []Param {
	return []Param{
		{Name: "fluid_consumption", Unit: "steam/s", Value: t.FluidConsumption},
		{Name: "power_output", Unit: "MW", Value: t.PowerOutput},
	}
}
