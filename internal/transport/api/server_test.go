package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"reactorcalc.ai/internal/protocol"
	"reactorcalc.ai/internal/sim/grid"
	"reactorcalc.ai/internal/sim/plan"
	"reactorcalc.ai/internal/sim/rates"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s, err := NewServer(rates.DefaultCatalog(), Options{
		Limits:         plan.DefaultLimits(),
		NeighbourBonus: rates.DefaultNeighbourBonus,
	}, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	mux := http.NewServeMux()
	s.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		s.Close()
	})
	return s, srv
}

func postPlan(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url+"/v1/plan", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /v1/plan: %v", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, b
}

func TestPlan_TwoByOne(t *testing.T) {
	_, srv := newTestServer(t)
	resp, b := postPlan(t, srv.URL, `{"layout":["##"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d body=%s", resp.StatusCode, b)
	}
	var out PlanResponse
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	q := out.Quantities
	if q.SRE != 4 || q.HeatExchangers.Required != 16 || q.SteamTurbines.Required != 28 || q.OffshorePumps.Required != 1 {
		t.Fatalf("quantities: got %+v", q)
	}
	if out.Report == "" || out.Digest != rates.DefaultCatalog().Digest() {
		t.Fatalf("report/digest missing: %+v", out)
	}
}

func TestPlan_RLEAndTiers(t *testing.T) {
	_, srv := newTestServer(t)
	l, err := grid.Parse("#")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	body := `{"layout_rle":"` + grid.EncodeRLE(l) + `","tiers":{"nuclear_reactor":"LEGENDARY","heat_exchanger":"LEGENDARY","offshore_pump":"LEGENDARY","steam_turbine":"LEGENDARY"}}`
	resp, b := postPlan(t, srv.URL, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d body=%s", resp.StatusCode, b)
	}
	var out PlanResponse
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	q := out.Quantities
	if q.HeatOutput != 100 || q.HeatExchangers.Required != 4 || q.OffshorePumps.Required != 1 || q.SteamTurbines.Required != 7 {
		t.Fatalf("legendary single: got %+v", q)
	}
}

func TestPlan_Errors(t *testing.T) {
	_, srv := newTestServer(t)
	cases := []struct {
		body string
		code string
	}{
		{`{}`, protocol.ErrBadRequest},
		{`{"layout":["##","#"]}`, protocol.ErrProtoBadRequest},
		{`{"layout":["#########"]}`, protocol.ErrLimit},
		{`{"layout":["#"],"neighbour_bonus":-2}`, protocol.ErrBadRequest},
		{`{"layout":["##"],"neighbour_bonus":1e308}`, protocol.ErrBadRequest},
		{`{"layout":["#"],"tiers":{"steam_turbine":"MYTHIC"}}`, protocol.ErrProtoBadRequest},
		{`{"layout_rle":"!!"}`, protocol.ErrBadRequest},
		{`{"bogus":1}`, protocol.ErrProtoBadRequest},
	}
	for _, tc := range cases {
		resp, b := postPlan(t, srv.URL, tc.body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status got %d want 400", tc.body, resp.StatusCode)
		}
		var e errorBody
		if err := json.Unmarshal(b, &e); err != nil {
			t.Fatalf("%s: decode: %v", tc.body, err)
		}
		if e.Code != tc.code {
			t.Fatalf("%s: code got %q want %q (%s)", tc.body, e.Code, tc.code, e.Message)
		}
	}
}

func TestPlan_CachedResponseIsReused(t *testing.T) {
	s, _ := newTestServer(t)
	l, _ := grid.Parse("##/##")
	req := PlanRequest{Layout: &l}
	first, err := s.Plan(req)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	s.cache.Wait()
	second, err := s.Plan(req)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if first != second {
		t.Fatalf("expected cached response to be reused")
	}
	if second.Quantities.SteamTurbines.Required != 83 {
		t.Fatalf("2x2 turbines: got %d want 83", second.Quantities.SteamTurbines.Required)
	}
}

func TestCatalogAndHealth(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/catalog")
	if err != nil {
		t.Fatalf("GET /v1/catalog: %v", err)
	}
	defer resp.Body.Close()
	var cat protocol.CatalogMsg
	if err := json.NewDecoder(resp.Body).Decode(&cat); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(cat.Tables) != 20 || len(cat.Qualities) != 5 {
		t.Fatalf("catalog: got %d tables %d qualities", len(cat.Tables), len(cat.Qualities))
	}

	h, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	h.Body.Close()
	if h.StatusCode != 200 {
		t.Fatalf("healthz: got %d", h.StatusCode)
	}

	bad, err := http.Get(srv.URL + "/v1/plan")
	if err != nil {
		t.Fatalf("GET /v1/plan: %v", err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET /v1/plan: got %d want 405", bad.StatusCode)
	}
}
