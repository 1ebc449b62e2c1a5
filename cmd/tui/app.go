package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"

	"reactorcalc.ai/internal/config"
	"reactorcalc.ai/internal/sim/chain"
	"reactorcalc.ai/internal/sim/grid"
	"reactorcalc.ai/internal/sim/plan"
	"reactorcalc.ai/internal/sim/rates"
)

const cellWidth = 4

var (
	styleEmpty   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleReactor = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleBlocked = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleText    = tcell.StyleDefault
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStatus  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// Digit keys cycle the quality tier of one chain stage.
var tierKeys = map[rune]rates.Kind{
	'1': rates.KindNuclearReactor,
	'2': rates.KindHeatExchanger,
	'3': rates.KindOffshorePump,
	'4': rates.KindSteamTurbine,
}

type app struct {
	screen tcell.Screen
	cat    *rates.Catalog

	state    plan.State
	obs      plan.Observation
	row, col int
	status   string
}

func newApp(screen tcell.Screen, cat *rates.Catalog, cfg config.Config) (*app, error) {
	a := &app{
		screen: screen,
		cat:    cat,
		state:  plan.NewState(cfg.PlanLimits(), cfg.Defaults.Tiers, cfg.Defaults.NeighbourBonus),
		row:    1,
		col:    1,
	}
	obs, err := plan.Observe(a.state, cat)
	if err != nil {
		return nil, err
	}
	a.obs = obs
	return a, nil
}

func (a *app) run() {
	eventChan := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				close(eventChan)
				return
			}
			eventChan <- ev
		}
	}()

	a.draw()
	for ev := range eventChan {
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if !a.handleKey(ev.Key(), ev.Rune()) {
				return
			}
		case *tcell.EventResize:
			a.screen.Sync()
		}
		a.draw()
	}
}

// handleKey applies one key press. It returns false when the user quits.
func (a *app) handleKey(key tcell.Key, ch rune) bool {
	a.status = ""
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		a.move(-1, 0)
	case tcell.KeyDown:
		a.move(1, 0)
	case tcell.KeyLeft:
		a.move(0, -1)
	case tcell.KeyRight:
		a.move(0, 1)
	case tcell.KeyRune:
		return a.handleRune(ch)
	}
	return true
}

func (a *app) handleRune(ch rune) bool {
	switch ch {
	case 'q':
		return false
	case ' ':
		a.dispatch(plan.Action{Type: plan.ActionToggle, Row: a.row, Col: a.col})
	case 'r':
		a.dispatch(plan.Action{Type: plan.ActionAddRow})
	case 'R':
		a.dispatch(plan.Action{Type: plan.ActionRemoveRow})
	case 'c':
		a.dispatch(plan.Action{Type: plan.ActionAddColumn})
	case 'C':
		a.dispatch(plan.Action{Type: plan.ActionRemoveColumn})
	case 'a':
		a.dispatch(plan.Action{Type: plan.ActionSetAutoFill, Enabled: !a.state.AutoFill})
	case 'x':
		a.dispatch(plan.Action{Type: plan.ActionReset})
	case '+':
		a.dispatch(plan.Action{Type: plan.ActionSetNeighbourBonus, Value: a.state.NeighbourBonus + 0.5})
	case '-':
		a.dispatch(plan.Action{Type: plan.ActionSetNeighbourBonus, Value: a.state.NeighbourBonus - 0.5})
	default:
		if kind, ok := tierKeys[ch]; ok {
			cur, _ := a.state.Tiers.Of(kind)
			a.dispatch(plan.Action{Type: plan.ActionSetQuality, Entity: kind, Quality: cur.Next()})
		}
	}
	return true
}

func (a *app) move(dr, dc int) {
	r, c := a.row+dr, a.col+dc
	if a.state.Layout.InBounds(r, c) {
		a.row, a.col = r, c
	}
}

func (a *app) dispatch(act plan.Action) {
	next, err := plan.Dispatch(a.state, act)
	if err == nil {
		var obs plan.Observation
		obs, err = plan.Observe(next, a.cat)
		if err == nil {
			a.state, a.obs = next, obs
		}
	}
	if err != nil {
		a.status = err.Error()
	}
	// Keep the cursor on the layout after it shrinks.
	a.row = min(a.row, a.state.Layout.Rows()-1)
	a.col = min(a.col, a.state.Layout.Cols()-1)
}

func (a *app) draw() {
	a.screen.Clear()

	blocked := map[grid.Cell]bool{}
	for _, c := range a.obs.Unrefuelable {
		blocked[c] = true
	}
	l := a.state.Layout
	for r := 0; r < l.Rows(); r++ {
		for c := 0; c < l.Cols(); c++ {
			text, style := " .  ", styleEmpty
			if l.Occupied(r, c) {
				text = fmt.Sprintf("%-4s", "x"+humanize.FtoaWithDigits(a.obs.Cells[r][c], 1))
				style = styleReactor
				if blocked[grid.Cell{Row: r, Col: c}] {
					style = styleBlocked
				}
			}
			if r == a.row && c == a.col {
				style = style.Reverse(true)
			}
			a.puts(c*cellWidth, r, text, style)
		}
	}

	y := l.Rows() + 1
	for _, line := range strings.Split(strings.TrimRight(chain.Report(a.obs.Quantities), "\n"), "\n") {
		a.puts(0, y, line, styleText)
		y++
	}
	y++
	t := a.state.Tiers
	a.puts(0, y, fmt.Sprintf("1 reactor %s  2 exchanger %s  3 pump %s  4 turbine %s", t.NuclearReactor, t.HeatExchanger, t.OffshorePump, t.SteamTurbine), styleText)
	y++
	a.puts(0, y, fmt.Sprintf("auto fill %v  neighbour bonus %s", a.state.AutoFill, humanize.FtoaWithDigits(a.state.NeighbourBonus, 2)), styleText)
	y++
	if len(a.obs.Unrefuelable) > 0 {
		a.puts(0, y, fmt.Sprintf("%d reactor(s) cannot be refuelled by inserters", len(a.obs.Unrefuelable)), styleBlocked)
		y++
	}
	if a.status != "" {
		a.puts(0, y, a.status, styleStatus)
		y++
	}
	a.puts(0, y+1, "arrows move  space toggle  r/R row  c/C column  a auto fill  x reset  +/- bonus  q quit", styleDim)
	a.screen.Show()
}

func (a *app) puts(x, y int, s string, style tcell.Style) {
	for _, ch := range s {
		a.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}
