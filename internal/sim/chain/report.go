package chain

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

// Report renders q as an aligned plain-text summary.
func Report(q Quantities) string {
	var b strings.Builder
	WriteReport(&b, q)
	return b.String()
}

func WriteReport(w io.Writer, q Quantities) {
	line := func(label, value string) {
		fmt.Fprintf(w, "%-16s %s\n", label, value)
	}
	line("Reactors", fmt.Sprintf("%s (SRE %s)", humanize.Comma(int64(q.Reactors)), num(q.SRE)))
	line("Heat", Power(q.HeatOutput))
	line("Heat exchangers", count(q.HeatExchangers))
	line("Steam", num(q.SteamFlow)+"/s")
	line("Water", num(q.WaterFlow)+"/s")
	line("Offshore pumps", count(q.OffshorePumps))
	line("Steam turbines", count(q.SteamTurbines))
	line("Electricity", Power(q.ElectricalOutput))
	line("Fuel", num(q.FuelPerMinute)+" cells/min")
}

// Power formats a value in MW with an SI prefix, e.g. 39.96 MW or 1.2 GW.
func Power(mw float64) string {
	return humanize.SIWithDigits(Round2(mw)*1e6, 2, "W")
}

func count(q Quantity) string {
	return fmt.Sprintf("%s (load %s)", humanize.Comma(q.Required), humanize.FormatFloat("#,###.##", q.Rounded))
}

// num prints up to two decimals without trailing zeros.
func num(v float64) string {
	return humanize.CommafWithDigits(Round2(v), 2)
}
