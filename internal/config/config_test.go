package config

import (
	"os"
	"path/filepath"
	"testing"

	"reactorcalc.ai/internal/sim/rates"
)

func TestLoad_PlannerYAML(t *testing.T) {
	cfg, err := Load("../../configs/planner.yaml")
	if err != nil {
		t.Fatalf("load planner.yaml: %v", err)
	}
	if cfg.Limits.MaxCols != 8 {
		t.Fatalf("max_cols: got %d want 8", cfg.Limits.MaxCols)
	}
	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if _, err := cat.Config(cfg.Defaults.Tiers); err != nil {
		t.Fatalf("default tiers: %v", err)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Defaults.NeighbourBonus != 1 || cfg.PlanLimits().MaxCols != 8 {
		t.Fatalf("defaults: got %+v", cfg)
	}
	cat, err := cfg.Catalog()
	if err != nil || cat.Digest() != rates.DefaultCatalog().Digest() {
		t.Fatalf("default catalog: %v", err)
	}
}

func TestLoad_OverridesAndRelativeRates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "rates.yaml"), "steam_turbine:\n  NORMAL: {power_output: 6}\n")
	writeFile(t, filepath.Join(dir, "planner.yaml"), `
addr: "127.0.0.1:9000"
rates_path: rates.yaml
limits: {max_rows: 10, max_cols: 6}
defaults:
  neighbour_bonus: 0.5
  tiers:
    nuclear_reactor: legendary
    steam_turbine: RARE
journal: {enabled: true}
index: {enabled: true, path: " "}
`)
	cfg, err := Load(filepath.Join(dir, "planner.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" || cfg.Limits.MaxCols != 6 || cfg.Defaults.NeighbourBonus != 0.5 {
		t.Fatalf("overrides: got %+v", cfg)
	}
	if cfg.Defaults.Tiers.NuclearReactor != rates.Legendary || cfg.Defaults.Tiers.SteamTurbine != rates.Rare {
		t.Fatalf("tiers: got %+v", cfg.Defaults.Tiers)
	}
	if !cfg.Journal.Enabled || cfg.Journal.Dir == "" {
		t.Fatalf("journal: got %+v", cfg.Journal)
	}
	if !cfg.Index.Enabled || cfg.Index.Path != "./data/index.db" {
		t.Fatalf("index: got %+v", cfg.Index)
	}
	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	rc, err := cat.Config(rates.Selection{})
	if err != nil || rc.SteamTurbine.PowerOutput != 6 {
		t.Fatalf("rates override: got %+v, %v", rc.SteamTurbine, err)
	}
}

func TestLoad_Rejects(t *testing.T) {
	cases := []string{
		"limits: {max_cols: 2}\n",
		"limits: {max_rows: -1}\n",
		"defaults: {neighbour_bonus: -1}\n",
		"defaults: {tiers: {steam_turbine: MYTHIC}}\n",
		"ws: {out_queue: 5000}\n",
	}
	dir := t.TempDir()
	for i, raw := range cases {
		p := filepath.Join(dir, "planner.yaml")
		writeFile(t, p, raw)
		if _, err := Load(p); err == nil {
			t.Fatalf("case %d (%q): expected error", i, raw)
		}
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
