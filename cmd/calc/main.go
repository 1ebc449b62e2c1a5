// Command calc evaluates one reactor layout offline and prints the
// production chain it needs.
//
//	calc -layout '##/##' -reactor legendary -turbine rare
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"reactorcalc.ai/internal/sim/chain"
	"reactorcalc.ai/internal/sim/grid"
	"reactorcalc.ai/internal/sim/plan"
	"reactorcalc.ai/internal/sim/rates"
)

func main() {
	logger := log.New(os.Stderr, "[calc] ", 0)
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logger.Fatalf("%v", err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("calc", flag.ContinueOnError)
	fs.SetOutput(stdout)
	var (
		layout    = fs.String("layout", "", "layout rows of '#' and '.', separated by '/' (default: 3x3 with the centre occupied)")
		rle       = fs.String("rle", "", "layout in RLE form, as returned by the server")
		reactor   = fs.String("reactor", "normal", "nuclear reactor quality")
		exchanger = fs.String("exchanger", "normal", "heat exchanger quality")
		pump      = fs.String("pump", "normal", "offshore pump quality")
		turbine   = fs.String("turbine", "normal", "steam turbine quality")
		bonus     = fs.Float64("bonus", rates.DefaultNeighbourBonus, "neighbour bonus per adjacent reactor")
		ratesPath = fs.String("rates", "", "rates.yaml override file")
		asJSON    = fs.Bool("json", false, "print the full observation as JSON")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cat := rates.DefaultCatalog()
	if p := strings.TrimSpace(*ratesPath); p != "" {
		c, err := rates.LoadCatalog(p)
		if err != nil {
			return fmt.Errorf("load rates: %w", err)
		}
		cat = c
	}

	l := grid.Default()
	switch {
	case *layout != "" && *rle != "":
		return fmt.Errorf("use only one of -layout and -rle")
	case *layout != "":
		parsed, err := grid.Parse(*layout)
		if err != nil {
			return fmt.Errorf("-layout: %w", err)
		}
		l = parsed
	case *rle != "":
		decoded, err := grid.DecodeRLE(*rle)
		if err != nil {
			return fmt.Errorf("-rle: %w", err)
		}
		l = decoded
	}

	var tiers rates.Selection
	for _, f := range []struct {
		kind rates.Kind
		name string
	}{
		{rates.KindNuclearReactor, *reactor},
		{rates.KindHeatExchanger, *exchanger},
		{rates.KindOffshorePump, *pump},
		{rates.KindSteamTurbine, *turbine},
	} {
		q, err := rates.ParseQuality(f.name)
		if err != nil {
			return err
		}
		if tiers, err = tiers.With(f.kind, q); err != nil {
			return err
		}
	}

	// No row or column cap offline.
	st := plan.NewState(plan.Limits{}, tiers, rates.DefaultNeighbourBonus)
	st.Layout = l
	st, err := plan.Dispatch(st, plan.Action{Type: plan.ActionSetNeighbourBonus, Value: *bonus})
	if err != nil {
		return err
	}
	obs, err := plan.Observe(st, cat)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(obs)
	}

	fmt.Fprintf(stdout, "%s\n\n", l)
	chain.WriteReport(stdout, obs.Quantities)
	for _, c := range obs.Unrefuelable {
		fmt.Fprintf(stdout, "warning: reactor at row %d col %d cannot be refuelled by inserters\n", c.Row+1, c.Col+1)
	}
	return nil
}
