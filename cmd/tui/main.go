// Command tui is an interactive terminal editor for reactor layouts.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"

	"reactorcalc.ai/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to planner.yaml (empty for built-in defaults)")
	flag.Parse()

	logger := log.New(os.Stderr, "[tui] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	cat, err := cfg.Catalog()
	if err != nil {
		logger.Fatalf("load rates: %v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		logger.Fatalf("screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		logger.Fatalf("screen init: %v", err)
	}

	a, err := newApp(screen, cat, cfg)
	if err != nil {
		screen.Fini()
		logger.Fatalf("planner: %v", err)
	}
	a.run()
	screen.Fini()
}
