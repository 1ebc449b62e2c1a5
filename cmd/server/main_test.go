package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reactorcalc.ai/internal/persistence/journal"
)

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5000": true,
		"[::1]:80":       true,
		"10.0.0.2:80":    false,
		"garbage":        false,
	}
	for in, want := range cases {
		if got := isLoopbackRemote(in); got != want {
			t.Fatalf("isLoopbackRemote(%q): got %v want %v", in, got, want)
		}
	}
}

func TestLoopbackOnly(t *testing.T) {
	h := loopbackOnly(func(rw http.ResponseWriter, r *http.Request) { rw.WriteHeader(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("remote: got %d want 403", rec.Code)
	}

	req.RemoteAddr = "127.0.0.1:1234"
	rec = httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusTeapot {
		t.Fatalf("loopback: got %d want 418", rec.Code)
	}
}

func TestEnvBoolWithDefault(t *testing.T) {
	t.Setenv("RC_TEST_BOOL", "true")
	if !envBoolWithDefault("RC_TEST_BOOL", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("RC_TEST_BOOL", "nope")
	if envBoolWithDefault("RC_TEST_BOOL", false) {
		t.Fatalf("unparsable value must fall back to default")
	}
}

type failingRecorder struct{ calls int }

func (f *failingRecorder) Record(journal.Entry) error {
	f.calls++
	return errors.New("disk full")
}

type countingRecorder struct{ calls int }

func (c *countingRecorder) Record(journal.Entry) error {
	c.calls++
	return nil
}

func TestTeeRecorder_TriesEverySink(t *testing.T) {
	bad, good := &failingRecorder{}, &countingRecorder{}
	tee := teeRecorder{bad, good}
	if err := tee.Record(journal.Entry{SessionID: "s", Seq: 1}); err == nil {
		t.Fatalf("expected the first sink's error")
	}
	if bad.calls != 1 || good.calls != 1 {
		t.Fatalf("calls: bad=%d good=%d", bad.calls, good.calls)
	}
}
