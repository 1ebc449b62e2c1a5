package chain

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"reactorcalc.ai/internal/sim/grid"
	"reactorcalc.ai/internal/sim/rates"
)

var (
	ErrNegativeInput = errors.New("chain: sre and reactor count must be non-negative")
	ErrOverflow      = errors.New("chain: result out of range")
)

// maxCount bounds building counts to integers a float64 holds exactly.
const maxCount = 1 << 53

// Quantity is a building count in both presentations: the expected load and
// the whole number of buildings that must be placed to carry it.
type Quantity struct {
	Exact    float64 `json:"exact"`
	Rounded  float64 `json:"rounded"`
	Required int64   `json:"required"`
}

func NewQuantity(exact float64) Quantity {
	return Quantity{Exact: exact, Rounded: Round2(exact), Required: Ceil(exact)}
}

// Quantities is the full forward chain for one layout and rate selection.
// Flows are per second, power in MW.
type Quantities struct {
	Reactors         int      `json:"reactors"`
	SRE              float64  `json:"sre"`
	HeatOutput       float64  `json:"heat_output"`
	HeatExchangers   Quantity `json:"heat_exchangers"`
	SteamFlow        float64  `json:"steam_flow"`
	WaterFlow        float64  `json:"water_flow"`
	OffshorePumps    Quantity `json:"offshore_pumps"`
	SteamTurbines    Quantity `json:"steam_turbines"`
	ElectricalOutput float64  `json:"electrical_output"`
	FuelPerMinute    float64  `json:"fuel_per_minute"`
}

// Compute derives the production chain from an aggregate score and the
// number of occupied reactor cells. It holds no state.
func Compute(sre float64, reactors int, cfg rates.Config) (Quantities, error) {
	if math.IsNaN(sre) || sre < 0 || reactors < 0 {
		return Quantities{}, fmt.Errorf("%w: sre=%v reactors=%d", ErrNegativeInput, sre, reactors)
	}
	if math.IsInf(sre, 0) {
		return Quantities{}, fmt.Errorf("%w: sre=%v", ErrOverflow, sre)
	}
	if err := cfg.Validate(); err != nil {
		return Quantities{}, err
	}

	heat := sre * cfg.NuclearReactor.HeatOutput
	exchangers := heat / cfg.HeatExchanger.EnergyConsumption
	steam := exchangers * cfg.HeatExchanger.HeatOutput
	water := exchangers * cfg.HeatExchanger.FluidConsumption
	pumps := water / cfg.OffshorePump.PumpingSpeed
	turbines := steam / cfg.SteamTurbine.FluidConsumption
	power := turbines * cfg.SteamTurbine.PowerOutput
	fuel := float64(reactors) * cfg.NuclearReactor.HeatOutput * 60 / cfg.FuelCellEnergy

	for _, v := range []struct {
		name  string
		value float64
		limit float64
	}{
		{"heat_output", heat, math.MaxFloat64},
		{"steam_flow", steam, math.MaxFloat64},
		{"water_flow", water, math.MaxFloat64},
		{"electrical_output", power, math.MaxFloat64},
		{"fuel_per_minute", fuel, math.MaxFloat64},
		{"heat_exchangers", exchangers, maxCount},
		{"offshore_pumps", pumps, maxCount},
		{"steam_turbines", turbines, maxCount},
	} {
		// Negated so NaN is rejected too.
		if !(v.value <= v.limit) {
			return Quantities{}, fmt.Errorf("%w: %s=%v", ErrOverflow, v.name, v.value)
		}
	}

	return Quantities{
		Reactors:         reactors,
		SRE:              sre,
		HeatOutput:       heat,
		HeatExchangers:   NewQuantity(exchangers),
		SteamFlow:        steam,
		WaterFlow:        water,
		OffshorePumps:    NewQuantity(pumps),
		SteamTurbines:    NewQuantity(turbines),
		ElectricalOutput: power,
		FuelPerMinute:    fuel,
	}, nil
}

// Evaluate scores the layout with the config's neighbour bonus and computes the chain.
func Evaluate(l grid.Layout, cfg rates.Config) (Quantities, error) {
	return Compute(grid.AggregateScore(l, cfg.NuclearReactor.NeighbourBonus), grid.OccupiedCount(l), cfg)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Ceil rounds up to whole buildings. Values within 1e-9 of an integer are
// taken as that integer so 48.000000000001 does not become 49.
func Ceil(v float64) int64 {
	return decimal.NewFromFloat(v).Round(9).Ceil().IntPart()
}
