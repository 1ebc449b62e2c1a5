package main

import (
	"encoding/json"
	"math/rand"
	"testing"

	"reactorcalc.ai/internal/protocol"
	"reactorcalc.ai/internal/sim/grid"
)

func TestBot_ActionsValidateAndStop(t *testing.T) {
	b := &bot{rng: rand.New(rand.NewSource(7)), remaining: 50}
	obs := &protocol.ObsMsg{Layout: grid.Default()}
	for i := 1; i <= 50; i++ {
		act, ok := b.next(obs)
		if !ok {
			t.Fatalf("step %d: bot stopped early", i)
		}
		if act.Seq != uint64(i) {
			t.Fatalf("step %d: seq %d", i, act.Seq)
		}
		raw, err := json.Marshal(act)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if err := protocol.ValidateAct(raw); err != nil {
			t.Fatalf("step %d: %s fails schema: %v", i, raw, err)
		}
		if act.Action.Type == "TOGGLE" && !obs.Layout.InBounds(act.Action.Row, act.Action.Col) {
			t.Fatalf("step %d: toggle outside layout", i)
		}
	}
	if _, ok := b.next(obs); ok {
		t.Fatalf("bot must stop after its step budget")
	}
}
