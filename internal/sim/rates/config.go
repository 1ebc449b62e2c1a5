package rates

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidRate = errors.New("rates: rate must be finite and positive")

// Config is the resolved rate set for one selection of tiers. Every rate is
// strictly positive and the neighbour bonus is non-negative; use NewConfig or
// Catalog.Config to obtain one.
type Config struct {
	NuclearReactor NuclearReactor `json:"nuclear_reactor"`
	HeatExchanger  HeatExchanger  `json:"heat_exchanger"`
	OffshorePump   OffshorePump   `json:"offshore_pump"`
	SteamTurbine   SteamTurbine   `json:"steam_turbine"`
	FuelCellEnergy float64        `json:"fuel_cell_energy"`
}

func NewConfig(r NuclearReactor, h HeatExchanger, p OffshorePump, t SteamTurbine, fuelCellEnergy float64) (Config, error) {
	c := Config{
		NuclearReactor: r,
		HeatExchanger:  h,
		OffshorePump:   p,
		SteamTurbine:   t,
		FuelCellEnergy: fuelCellEnergy,
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// DefaultConfig is the all-Normal rate set with default constants.
func DefaultConfig() Config {
	c, err := DefaultCatalog().Config(Selection{})
	if err != nil {
		panic(err)
	}
	return c
}

func (c Config) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"nuclear_reactor.heat_output", c.NuclearReactor.HeatOutput},
		{"heat_exchanger.energy_consumption", c.HeatExchanger.EnergyConsumption},
		{"heat_exchanger.heat_output", c.HeatExchanger.HeatOutput},
		{"heat_exchanger.fluid_consumption", c.HeatExchanger.FluidConsumption},
		{"offshore_pump.pumping_speed", c.OffshorePump.PumpingSpeed},
		{"steam_turbine.fluid_consumption", c.SteamTurbine.FluidConsumption},
		{"steam_turbine.power_output", c.SteamTurbine.PowerOutput},
		{"fuel_cell_energy", c.FuelCellEnergy},
	}
	for _, f := range fields {
		if err := checkRate(f.name, f.v); err != nil {
			return err
		}
	}
	// A bonus of zero is allowed: every reactor then counts once.
	if b := c.NuclearReactor.NeighbourBonus; math.IsNaN(b) || math.IsInf(b, 0) || b < 0 {
		return fmt.Errorf("%w: nuclear_reactor.neighbour_bonus=%v", ErrInvalidRate, b)
	}
	return nil
}

func checkRate(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %s=%v", ErrInvalidRate, name, v)
	}
	return nil
}
