package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"reactorcalc.ai/internal/protocol"
	"reactorcalc.ai/internal/sim/chain"
	"reactorcalc.ai/internal/sim/grid"
	"reactorcalc.ai/internal/sim/plan"
	"reactorcalc.ai/internal/sim/rates"
)

const (
	planCacheTTL = 10 * time.Minute
	maxBodyBytes = 64 * 1024
)

type Options struct {
	Limits         plan.Limits
	Tiers          rates.Selection
	NeighbourBonus float64
	// CacheEntries bounds the plan cache; 0 uses 4096.
	CacheEntries int64
}

// Server answers one-shot plan requests. Responses are pure functions of the
// request, so they are memoised.
type Server struct {
	catalog *rates.Catalog
	opts    Options
	log     *log.Logger
	cache   *ristretto.Cache[string, *PlanResponse]
}

func NewServer(cat *rates.Catalog, opts Options, logger *log.Logger) (*Server, error) {
	if opts.CacheEntries <= 0 {
		opts.CacheEntries = 4096
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, *PlanResponse]{
		NumCounters:        opts.CacheEntries * 10,
		MaxCost:            opts.CacheEntries,
		BufferItems:        64,
		// Cost is counted in entries.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("plan cache: %w", err)
	}
	return &Server{catalog: cat, opts: opts, log: logger, cache: cache}, nil
}

func (s *Server) Close() { s.cache.Close() }

// Register mounts the API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/catalog", s.handleCatalog)
	mux.HandleFunc("/v1/plan", s.handlePlan)
}

func (s *Server) handleCatalog(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(rw, http.StatusOK, protocol.NewCatalogMsg(s.catalog))
}

type PlanRequest struct {
	Layout         *grid.Layout     `json:"layout,omitempty"`
	LayoutRLE      string           `json:"layout_rle,omitempty"`
	Tiers          *rates.Selection `json:"tiers,omitempty"`
	NeighbourBonus *float64         `json:"neighbour_bonus,omitempty"`
}

type PlanResponse struct {
	plan.Observation
	LayoutRLE string `json:"layout_rle"`
	Digest    string `json:"catalog_digest"`
	Report    string `json:"report"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handlePlan(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req PlanRequest
	dec := json.NewDecoder(http.MaxBytesReader(rw, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(rw, http.StatusBadRequest, errorBody{Code: protocol.ErrProtoBadRequest, Message: err.Error()})
		return
	}

	resp, err := s.Plan(req)
	if err != nil {
		code := protocol.CodeFor(err)
		status := http.StatusBadRequest
		if code == protocol.ErrInternal {
			status = http.StatusInternalServerError
			s.log.Printf("plan: %v", err)
		}
		writeJSON(rw, status, errorBody{Code: code, Message: err.Error()})
		return
	}
	writeJSON(rw, http.StatusOK, resp)
}

var errNoLayout = fmt.Errorf("%w: layout or layout_rle required", grid.ErrEmpty)

// Plan evaluates one request, consulting the cache first.
func (s *Server) Plan(req PlanRequest) (*PlanResponse, error) {
	st := plan.NewState(s.opts.Limits, s.opts.Tiers, s.opts.NeighbourBonus)
	switch {
	case req.Layout != nil && !req.Layout.IsZero():
		st.Layout = *req.Layout
	case req.LayoutRLE != "":
		l, err := grid.DecodeRLE(req.LayoutRLE)
		if err != nil {
			if errors.Is(err, grid.ErrEmpty) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: layout_rle: %v", grid.ErrNonRectangular, err)
		}
		st.Layout = l
	default:
		return nil, errNoLayout
	}
	if req.Tiers != nil {
		st.Tiers = *req.Tiers
	}
	if req.NeighbourBonus != nil {
		next, err := plan.Dispatch(st, plan.Action{Type: plan.ActionSetNeighbourBonus, Value: *req.NeighbourBonus})
		if err != nil {
			return nil, err
		}
		st = next
	}
	if lim := st.Limits; lim.MaxRows > 0 && st.Layout.Rows() > lim.MaxRows {
		return nil, fmt.Errorf("%w: %d rows, max %d", plan.ErrRowLimit, st.Layout.Rows(), lim.MaxRows)
	}
	if lim := st.Limits; lim.MaxCols > 0 && st.Layout.Cols() > lim.MaxCols {
		return nil, fmt.Errorf("%w: %d columns, max %d", plan.ErrColumnLimit, st.Layout.Cols(), lim.MaxCols)
	}

	rle := grid.EncodeRLE(st.Layout)
	key := cacheKey(s.catalog.Digest(), rle, st.Tiers, st.NeighbourBonus)
	if hit, ok := s.cache.Get(key); ok {
		return hit, nil
	}

	obs, err := plan.Observe(st, s.catalog)
	if err != nil {
		return nil, err
	}
	resp := &PlanResponse{
		Observation: obs,
		LayoutRLE:   rle,
		Digest:      s.catalog.Digest(),
		Report:      chain.Report(obs.Quantities),
	}
	s.cache.SetWithTTL(key, resp, 1, planCacheTTL)
	return resp, nil
}

func cacheKey(digest, rle string, t rates.Selection, bonus float64) string {
	return digest[:16] + "|" + rle + "|" +
		t.NuclearReactor.String() + "|" + t.HeatExchanger.String() + "|" +
		t.OffshorePump.String() + "|" + t.SteamTurbine.String() + "|" +
		strconv.FormatFloat(bonus, 'g', -1, 64)
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}
