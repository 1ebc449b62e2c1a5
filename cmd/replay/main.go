// Command replay re-runs a planner action journal and verifies that every
// recorded outcome is reproduced by the current planner and rate catalog.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"reactorcalc.ai/internal/config"
	"reactorcalc.ai/internal/persistence/indexdb"
	"reactorcalc.ai/internal/persistence/journal"
	"reactorcalc.ai/internal/sim/grid"
	"reactorcalc.ai/internal/sim/plan"
	"reactorcalc.ai/internal/sim/rates"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("missing -journal")

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	var (
		journalDir = fs.String("journal", "", "journal dir containing actions/actions-*.jsonl.zst")
		configPath = fs.String("config", "", "planner.yaml the server ran with (empty for built-in defaults)")
		indexPath  = fs.String("index", "", "also load every entry into this SQLite index (optional)")
		session    = fs.String("session", "", "only replay this session id (optional)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *journalDir == "" {
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return fmt.Errorf("load rates: %w", err)
	}

	files, err := journal.Files(*journalDir)
	if err != nil {
		return fmt.Errorf("list journal: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no journal files found in %s", *journalDir)
	}

	var (
		order    []string
		sessions = map[string][]journal.Entry{}
	)
	for _, path := range files {
		entries, err := journal.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read journal: %w", err)
		}
		for _, e := range entries {
			if *session != "" && e.SessionID != *session {
				continue
			}
			if _, ok := sessions[e.SessionID]; !ok {
				order = append(order, e.SessionID)
			}
			sessions[e.SessionID] = append(sessions[e.SessionID], e)
		}
	}

	start := plan.NewState(cfg.PlanLimits(), cfg.Defaults.Tiers, cfg.Defaults.NeighbourBonus)
	var applied, rejected int
	for _, id := range order {
		a, r, err := replaySession(start, cat, sessions[id])
		if err != nil {
			return fmt.Errorf("session %s: %w", id, err)
		}
		applied += a
		rejected += r
	}
	fmt.Fprintf(stdout, "replay ok: sessions=%d applied=%d rejected=%d files=%d\n", len(order), applied, rejected, len(files))

	if *indexPath == "" {
		return nil
	}
	return loadIndex(*indexPath, cat, order, sessions, stdout)
}

// replaySession dispatches one session's entries in order. Applied entries
// must reproduce the recorded layout and chain; rejected entries must leave
// the layout unchanged.
func replaySession(st plan.State, cat *rates.Catalog, entries []journal.Entry) (applied, rejected int, err error) {
	for _, e := range entries {
		if e.Code != "" {
			rejected++
			if got := grid.EncodeRLE(st.Layout); got != e.LayoutRLE {
				return applied, rejected, fmt.Errorf("seq %d: rejected %s but layout moved: got=%s want=%s", e.Seq, e.Code, got, e.LayoutRLE)
			}
			continue
		}

		next, err := plan.Dispatch(st, e.Action)
		if err != nil {
			return applied, rejected, fmt.Errorf("seq %d: recorded as applied but %s fails: %w", e.Seq, e.Action.Type, err)
		}
		obs, err := plan.Observe(next, cat)
		if err != nil {
			return applied, rejected, fmt.Errorf("seq %d: observe: %w", e.Seq, err)
		}
		if got := grid.EncodeRLE(obs.Layout); got != e.LayoutRLE {
			return applied, rejected, fmt.Errorf("seq %d: layout mismatch: got=%s want=%s", e.Seq, got, e.LayoutRLE)
		}
		if obs.Quantities.SRE != e.SRE || obs.Quantities.SteamTurbines.Required != e.Turbines {
			return applied, rejected, fmt.Errorf("seq %d: chain mismatch: got sre=%v turbines=%d want sre=%v turbines=%d",
				e.Seq, obs.Quantities.SRE, obs.Quantities.SteamTurbines.Required, e.SRE, e.Turbines)
		}
		st = next
		applied++
	}
	return applied, rejected, nil
}

func loadIndex(path string, cat *rates.Catalog, order []string, sessions map[string][]journal.Entry, stdout io.Writer) error {
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	if err := idx.UpsertCatalog(cat); err != nil {
		_ = idx.Close()
		return fmt.Errorf("index catalog: %w", err)
	}
	var all []journal.Entry
	for _, id := range order {
		all = append(all, sessions[id]...)
	}
	ctx := context.Background()
	n, err := idx.RecordAll(ctx, all)
	if err != nil {
		_ = idx.Close()
		return fmt.Errorf("index entries: %w", err)
	}
	defer idx.Close()
	fmt.Fprintf(stdout, "indexed %d entries into %s\n", n, path)

	sums, err := idx.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("query index: %w", err)
	}
	for _, s := range sums {
		fmt.Fprintf(stdout, "session %s actions=%d rejected=%d max_sre=%v max_turbines=%d span=%s\n",
			s.SessionID, s.Actions, s.Rejected, s.MaxSRE, s.MaxTurbines, s.Last.Sub(s.First))
	}
	return nil
}
