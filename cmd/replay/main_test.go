package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"reactorcalc.ai/internal/persistence/journal"
	"reactorcalc.ai/internal/protocol"
	"reactorcalc.ai/internal/sim/grid"
	"reactorcalc.ai/internal/sim/plan"
	"reactorcalc.ai/internal/sim/rates"
)

// record plays actions against a fresh default state and journals each
// outcome the way the websocket server does.
func record(t *testing.T, j *journal.Journal, session string, actions ...plan.Action) {
	t.Helper()
	cat := rates.DefaultCatalog()
	st := plan.NewState(plan.DefaultLimits(), rates.Selection{}, rates.DefaultNeighbourBonus)
	obs, err := plan.Observe(st, cat)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	for i, a := range actions {
		e := journal.Entry{SessionID: session, Seq: uint64(i + 1), Action: a}
		next, err := plan.Dispatch(st, a)
		if err == nil {
			st = next
			obs, err = plan.Observe(st, cat)
			if err != nil {
				t.Fatalf("observe: %v", err)
			}
		} else {
			e.Code = protocol.CodeFor(err)
		}
		e.LayoutRLE = grid.EncodeRLE(obs.Layout)
		e.SRE = obs.Quantities.SRE
		e.Turbines = obs.Quantities.SteamTurbines.Required
		if err := j.Record(e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
}

func writeJournal(t *testing.T, extra ...journal.Entry) string {
	t.Helper()
	dir := t.TempDir()
	j := journal.Open(dir)
	record(t, j, "a",
		plan.Action{Type: plan.ActionToggle, Row: 1, Col: 0},
		plan.Action{Type: plan.ActionToggle, Row: 7, Col: 7},
		plan.Action{Type: plan.ActionSetQuality, Entity: rates.KindSteamTurbine, Quality: rates.Legendary},
	)
	record(t, j, "b", plan.Action{Type: plan.ActionAddColumn})
	for _, e := range extra {
		if err := j.Record(e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return dir
}

func TestRun_VerifiesJournal(t *testing.T) {
	dir := writeJournal(t)
	var out bytes.Buffer
	if err := run([]string{"-journal", dir}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "replay ok: sessions=2 applied=3 rejected=1") {
		t.Fatalf("output: %q", out.String())
	}

	out.Reset()
	if err := run([]string{"-journal", dir, "-session", "b"}, &out); err != nil {
		t.Fatalf("run -session: %v", err)
	}
	if !strings.Contains(out.String(), "sessions=1 applied=1 rejected=0") {
		t.Fatalf("filtered output: %q", out.String())
	}
}

func TestRun_DetectsDrift(t *testing.T) {
	tampered := journal.Entry{
		SessionID: "c",
		Seq:       1,
		Action:    plan.Action{Type: plan.ActionReset},
		LayoutRLE: grid.EncodeRLE(grid.Default()),
		SRE:       1,
		Turbines:  99,
	}
	dir := writeJournal(t, tampered)
	err := run([]string{"-journal", dir}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "chain mismatch") {
		t.Fatalf("expected chain mismatch, got %v", err)
	}
}

func TestRun_BuildsIndex(t *testing.T) {
	dir := writeJournal(t)
	var out bytes.Buffer
	if err := run([]string{"-journal", dir, "-index", filepath.Join(t.TempDir(), "index.db")}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "indexed 4 entries") {
		t.Fatalf("index count: %q", out.String())
	}
	if !strings.Contains(out.String(), "session a actions=3 rejected=1") {
		t.Fatalf("index summary: %q", out.String())
	}
	if !strings.Contains(out.String(), "session b actions=1 rejected=0") {
		t.Fatalf("index summary: %q", out.String())
	}
}

func TestRun_Usage(t *testing.T) {
	if err := run(nil, &bytes.Buffer{}); !errors.Is(err, errUsage) {
		t.Fatalf("no flags: got %v want errUsage", err)
	}
	if err := run([]string{"-journal", t.TempDir()}, &bytes.Buffer{}); err == nil {
		t.Fatalf("empty journal dir: expected error")
	}
}
