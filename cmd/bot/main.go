// Command bot is a websocket smoke client. It opens a planning session,
// plays a short random sequence of edits and logs each resulting chain.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"reactorcalc.ai/internal/protocol"
	"reactorcalc.ai/internal/sim/plan"
	"reactorcalc.ai/internal/sim/rates"
)

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name  = flag.String("name", "bot", "client name")
		steps = flag.Int("steps", 20, "number of actions to send before exiting")
		seed  = flag.Int64("seed", 0, "random seed (0 uses the clock)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:              protocol.TypeHello,
		ProtocolVersion:   protocol.Version,
		SupportedVersions: []string{protocol.Version},
		ClientName:        *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	b := &bot{rng: rand.New(rand.NewSource(*seed)), remaining: *steps}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s max=%dx%d digest=%.12s", w.SessionID, w.Limits.MaxRows, w.Limits.MaxCols, w.Catalog.RatesDigest)

		case protocol.TypeCatalog:
			var c protocol.CatalogMsg
			if err := json.Unmarshal(msg, &c); err != nil {
				continue
			}
			logger.Printf("CATALOG %s tables=%d", c.Name, len(c.Tables))

		case protocol.TypeObs:
			var obs protocol.ObsMsg
			if err := json.Unmarshal(msg, &obs); err != nil {
				continue
			}
			logObs(logger, &obs)
			act, ok := b.next(&obs)
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
				return
			}
			if err := conn.WriteJSON(act); err != nil {
				logger.Printf("send ACT: %v", err)
				return
			}
		}
	}
}

func logObs(logger *log.Logger, obs *protocol.ObsMsg) {
	if obs.Code != "" {
		logger.Printf("OBS seq=%d rejected %s: %s", obs.Seq, obs.Code, obs.Message)
		return
	}
	q := obs.Quantities
	logger.Printf("OBS seq=%d layout=%s reactors=%d sre=%.0f hx=%d pumps=%d turbines=%d power=%.2fMW",
		obs.Seq, obs.LayoutRLE, q.Reactors, q.SRE, q.HeatExchangers.Required,
		q.OffshorePumps.Required, q.SteamTurbines.Required, q.ElectricalOutput)
}

type bot struct {
	rng       *rand.Rand
	remaining int
	seq       uint64
}

// next picks a random edit for the layout in obs. Toggles dominate so the
// layout tends to fill up over a run.
func (b *bot) next(obs *protocol.ObsMsg) (protocol.ActMsg, bool) {
	if b.remaining <= 0 {
		return protocol.ActMsg{}, false
	}
	b.remaining--
	b.seq++

	var req protocol.ActionReq
	switch n := b.rng.Intn(10); {
	case n < 6 && !obs.Layout.IsZero():
		req = protocol.ActionReq{Type: plan.ActionToggle, Row: b.rng.Intn(obs.Layout.Rows()), Col: b.rng.Intn(obs.Layout.Cols())}
	case n == 6:
		req = protocol.ActionReq{Type: plan.ActionAddRow}
	case n == 7:
		req = protocol.ActionReq{Type: plan.ActionAddColumn}
	case n == 8:
		kind := rates.Kinds[b.rng.Intn(len(rates.Kinds))]
		q := rates.Qualities[b.rng.Intn(len(rates.Qualities))]
		req = protocol.ActionReq{Type: plan.ActionSetQuality, Entity: string(kind), Quality: q.String()}
	default:
		req = protocol.ActionReq{Type: plan.ActionSetAutoFill, Enabled: !obs.AutoFill}
	}
	return protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Seq:             b.seq,
		Action:          req,
	}, true
}
