package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"reactorcalc.ai/internal/persistence/journal"
	"reactorcalc.ai/internal/protocol"
	"reactorcalc.ai/internal/sim/plan"
	"reactorcalc.ai/internal/sim/rates"
)

// Recorder receives every dispatched action. *journal.Journal satisfies it.
type Recorder interface {
	Record(journal.Entry) error
}

type Options struct {
	Limits         plan.Limits
	Tiers          rates.Selection
	NeighbourBonus float64
	Journal        Recorder
	// OutQueue bounds buffered outgoing messages per connection.
	OutQueue int
}

// Server runs one planner session per websocket connection. Sessions share
// only the read-only catalog.
type Server struct {
	catalog *rates.Catalog
	opts    Options
	log     *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(cat *rates.Catalog, opts Options, logger *log.Logger) *Server {
	if opts.OutQueue <= 0 {
		opts.OutQueue = 16
	}
	return &Server{
		catalog: cat,
		opts:    opts,
		log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

type session struct {
	id    string
	state plan.State
	obs   plan.Observation
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := s.handshake(conn)
		if sess == nil {
			return
		}
		s.log.Printf("session %s: open from %s", sess.id, r.RemoteAddr)
		defer s.log.Printf("session %s: closed", sess.id)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		out := make(chan []byte, s.opts.OutQueue)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. The session state is owned by this goroutine.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeAct {
				continue
			}
			b, err := json.Marshal(s.apply(sess, msg))
			if err != nil {
				s.log.Printf("session %s: encode obs: %v", sess.id, err)
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
				return
			}
		}
	}
}

// apply handles one raw ACT and returns the OBS answering it.
func (s *Server) apply(sess *session, msg []byte) protocol.ObsMsg {
	var act protocol.ActMsg
	if err := protocol.ValidateAct(msg); err != nil {
		_ = json.Unmarshal(msg, &act)
		return rejectObs(sess, act.Seq, protocol.ErrProtoBadRequest, err.Error())
	}
	if err := json.Unmarshal(msg, &act); err != nil {
		return rejectObs(sess, 0, protocol.ErrProtoBadRequest, err.Error())
	}
	if act.ProtocolVersion != protocol.Version {
		return rejectObs(sess, act.Seq, protocol.ErrProtoBadRequest, "bad protocol_version")
	}

	action, err := act.Action.ToAction()
	if err == nil {
		var next plan.State
		next, err = plan.Dispatch(sess.state, action)
		if err == nil {
			obs, oerr := plan.Observe(next, s.catalog)
			if oerr != nil {
				s.log.Printf("session %s: observe: %v", sess.id, oerr)
				err = oerr
			} else {
				sess.state, sess.obs = next, obs
			}
		}
	}

	m := protocol.NewObsMsg(sess.id, act.Seq, sess.obs, err)
	s.record(sess, act.Seq, action, m)
	return m
}

func (s *Server) record(sess *session, seq uint64, a plan.Action, m protocol.ObsMsg) {
	if s.opts.Journal == nil {
		return
	}
	e := journal.Entry{
		SessionID: sess.id,
		Seq:       seq,
		Action:    a,
		Code:      m.Code,
		LayoutRLE: m.LayoutRLE,
		SRE:       m.Quantities.SRE,
		Turbines:  m.Quantities.SteamTurbines.Required,
	}
	if err := s.opts.Journal.Record(e); err != nil {
		s.log.Printf("session %s: journal: %v", sess.id, err)
	}
}

func rejectObs(sess *session, seq uint64, code, message string) protocol.ObsMsg {
	m := protocol.NewObsMsg(sess.id, seq, sess.obs, nil)
	m.Code, m.Message = code, message
	return m
}

func (s *Server) handshake(conn *websocket.Conn) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return nil
	}
	if err := protocol.ValidateHello(msg); err != nil {
		closeWith(conn, "bad HELLO")
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return nil
	}

	sess := &session{
		id:    uuid.NewString(),
		state: plan.NewState(s.opts.Limits, s.opts.Tiers, s.opts.NeighbourBonus),
	}
	sess.obs, err = plan.Observe(sess.state, s.catalog)
	if err != nil {
		s.log.Printf("handshake %s: observe: %v", hello.ClientName, err)
		closeWith(conn, "planner misconfigured")
		return nil
	}

	cat := protocol.NewCatalogMsg(s.catalog)
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		Limits:          protocol.LimitsRef{MaxRows: s.opts.Limits.MaxRows, MaxCols: s.opts.Limits.MaxCols},
		ActionTypes:     plan.SupportedActionTypes(),
		Catalog:         protocol.CatalogDigests{RatesDigest: cat.Digest, TableCount: len(cat.Tables)},
	}

	// Send welcome + catalog + first observation immediately.
	for _, v := range []any{welcome, cat, protocol.NewObsMsg(sess.id, 0, sess.obs, nil)} {
		if err := writeJSON(conn, v); err != nil {
			return nil
		}
	}
	return sess
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
