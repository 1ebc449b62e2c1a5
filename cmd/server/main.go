package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"reactorcalc.ai/internal/config"
	"reactorcalc.ai/internal/persistence/indexdb"
	"reactorcalc.ai/internal/persistence/journal"
	"reactorcalc.ai/internal/transport/api"
	"reactorcalc.ai/internal/transport/ws"
)

func main() {
	var (
		configPath = flag.String("config", "./configs/planner.yaml", "path to planner.yaml (empty for built-in defaults)")
		addr       = flag.String("addr", "", "http listen address (overrides planner.yaml)")
		journalDir = flag.String("journal", "", "enable the action journal in this directory (overrides planner.yaml)")
		indexPath  = flag.String("index", "", "enable the SQLite action index at this path (overrides planner.yaml)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if a := strings.TrimSpace(*addr); a != "" {
		cfg.Addr = a
	}
	if d := strings.TrimSpace(*journalDir); d != "" {
		cfg.Journal.Enabled, cfg.Journal.Dir = true, d
	}
	if p := strings.TrimSpace(*indexPath); p != "" {
		cfg.Index.Enabled, cfg.Index.Path = true, p
	}

	cat, err := cfg.Catalog()
	if err != nil {
		logger.Fatalf("load rates: %v", err)
	}
	if _, err := cat.Config(cfg.Defaults.Tiers); err != nil {
		logger.Fatalf("default tiers: %v", err)
	}
	logger.Printf("rates catalog digest=%s", cat.Digest()[:12])

	wsOpts := ws.Options{
		Limits:         cfg.PlanLimits(),
		Tiers:          cfg.Defaults.Tiers,
		NeighbourBonus: cfg.Defaults.NeighbourBonus,
		OutQueue:       cfg.WS.OutQueue,
	}
	var recorders teeRecorder
	if cfg.Journal.Enabled {
		j := journal.Open(cfg.Journal.Dir)
		defer func() {
			if err := j.Close(); err != nil {
				logger.Printf("close journal: %v", err)
			}
		}()
		recorders = append(recorders, j)
		logger.Printf("journal enabled dir=%s", cfg.Journal.Dir)
	}
	if cfg.Index.Enabled {
		idx, err := indexdb.OpenSQLite(cfg.Index.Path)
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer func() {
			if err := idx.Close(); err != nil {
				logger.Printf("close index: %v", err)
			}
		}()
		if err := idx.UpsertCatalog(cat); err != nil {
			logger.Printf("index catalog: %v", err)
		}
		recorders = append(recorders, idx)
		logger.Printf("index enabled path=%s", cfg.Index.Path)
	}
	if len(recorders) > 0 {
		wsOpts.Journal = recorders
	}

	apiSrv, err := api.NewServer(cat, api.Options{
		Limits:         cfg.PlanLimits(),
		Tiers:          cfg.Defaults.Tiers,
		NeighbourBonus: cfg.Defaults.NeighbourBonus,
		CacheEntries:   cfg.API.CacheEntries,
	}, logger)
	if err != nil {
		logger.Fatalf("init api: %v", err)
	}
	defer apiSrv.Close()

	mux := http.NewServeMux()
	apiSrv.Register(mux)
	mux.HandleFunc("/v1/ws", ws.NewServer(cat, wsOpts, logger).Handler())

	if envBoolWithDefault("RC_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", loopbackOnly(pprof.Index))
		mux.HandleFunc("/debug/pprof/cmdline", loopbackOnly(pprof.Cmdline))
		mux.HandleFunc("/debug/pprof/profile", loopbackOnly(pprof.Profile))
		mux.HandleFunc("/debug/pprof/symbol", loopbackOnly(pprof.Symbol))
		mux.HandleFunc("/debug/pprof/trace", loopbackOnly(pprof.Trace))
	} else {
		logger.Printf("pprof endpoints disabled (RC_ENABLE_PPROF_HTTP=false)")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// teeRecorder fans each journal entry out to every sink. It reports the
// first failure but always tries every sink.
type teeRecorder []ws.Recorder

func (t teeRecorder) Record(e journal.Entry) error {
	var first error
	for _, r := range t {
		if err := r.Record(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBoolWithDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func loopbackOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		h(rw, r)
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
