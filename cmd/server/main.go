package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	persistlog "pastewarden.ai/internal/persistence/log"
	"pastewarden.ai/internal/sim/catalogs"
	"pastewarden.ai/internal/sim/fetch"
	"pastewarden.ai/internal/sim/host"
	"pastewarden.ai/internal/sim/scenario"
	"pastewarden.ai/internal/sim/tuning"
	"pastewarden.ai/internal/transport/ws"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "http listen address")
		configDir    = flag.String("configs", "./configs", "config directory")
		scenarioPath = flag.String("scenario", "", "path to scenario yaml (default: <configs>/scenarios/prison.yaml)")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB    = flag.Bool("disable_db", false, "disable the sqlite decision index")
		watch        = flag.Bool("watch", true, "reload catalogs and tuning when files change")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	sp := strings.TrimSpace(*scenarioPath)
	if sp == "" {
		sp = filepath.Join(*configDir, "scenarios", "prison.yaml")
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	tune, err := loadTuning(tp, logger)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	sc, err := scenario.Load(sp, cats)
	if err != nil {
		logger.Fatalf("load scenario: %v", err)
	}
	_ = os.MkdirAll(*dataDir, 0o755)

	counts := &decisionCounts{}
	sinks := []host.Sink{counts}

	if tune.DecisionLog.Enabled {
		dl := persistlog.NewDecisionLogger(*dataDir, tune.DecisionLog.IncludeCandidates)
		defer dl.Close()
		sinks = append(sinks, dl)
	}

	idx, err := openRuntimeIndex(*dataDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
		sinks = append(sinks, idx)
	}

	h := host.New(sc, cats, tune, logger, sinks...)
	logger.Printf("scenario %s: %d agents, catalog %s", sp, len(sc.Order), cats.Resources.Digest)

	ctx, cancel := signalContext()
	defer cancel()

	if *watch {
		reload := func() error {
			next, err := catalogs.Load(*configDir)
			if err != nil {
				return fmt.Errorf("load catalogs: %w", err)
			}
			nextTune, err := loadTuning(tp, logger)
			if err != nil {
				return fmt.Errorf("load tuning: %w", err)
			}
			h.Reload(next, nextTune)
			if idx != nil {
				if err := idx.UpsertCatalogs(next, nextTune); err != nil {
					logger.Printf("index backend: upsert catalogs: %v", err)
				}
			}
			logger.Printf("reloaded catalogs %s", next.Resources.Digest)
			return nil
		}
		rl, err := host.NewReloader([]string{filepath.Join(*configDir, "resources.json"), tp}, reload, logger)
		if err != nil {
			logger.Fatalf("init reloader: %v", err)
		}
		logger.Printf("watching %v", rl.Paths())
		go func() {
			if err := rl.Run(ctx); err != nil && err != context.Canceled {
				logger.Printf("reloader stopped: %v", err)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		counts.writeMetrics(rw)
		if idx != nil {
			fmt.Fprintf(rw, "# HELP pastewarden_index_dropped_total Decisions dropped because the index queue was full.\n")
			fmt.Fprintf(rw, "# TYPE pastewarden_index_dropped_total counter\n")
			fmt.Fprintf(rw, "pastewarden_index_dropped_total %d\n", idx.Dropped())
		}
	})

	// Local-only admin endpoints for driving the scenario by hand.
	mux.HandleFunc("/admin/v1/reserve", adminHandler(func(r *http.Request) error {
		return h.Reserve(r.FormValue("agent"), r.FormValue("resource"))
	}))
	mux.HandleFunc("/admin/v1/release", adminHandler(func(r *http.Request) error {
		h.Release(r.FormValue("resource"))
		return nil
	}))
	mux.HandleFunc("/admin/v1/dispenser", adminHandler(func(r *http.Request) error {
		active := r.FormValue("active") != "false"
		if !h.SetDispenserActive(r.FormValue("resource"), active) {
			return fmt.Errorf("unknown dispenser %q", r.FormValue("resource"))
		}
		return nil
	}))

	mux.HandleFunc("/v1/ws", ws.NewServer(h, h.CatalogDigest, h.AgentIDs(), logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// loadTuning falls back to defaults when the file does not exist.
func loadTuning(path string, logger *log.Logger) (tuning.Tuning, error) {
	tune, err := tuning.Load(path)
	if err == nil {
		return tune, nil
	}
	if os.IsNotExist(err) {
		logger.Printf("tuning not found (%s); using defaults", path)
		return tuning.Defaults(), nil
	}
	return tuning.Tuning{}, err
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

func adminHandler(fn func(r *http.Request) error) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		if err := fn(r); err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": err.Error()})
			return
		}
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true})
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

// decisionCounts tallies decisions by plan source for /metrics.
type decisionCounts struct {
	none      atomic.Uint64
	inventory atomic.Uint64
	override  atomic.Uint64
	def       atomic.Uint64
}

func (c *decisionCounts) WriteDecision(d host.Decision) error {
	switch d.Plan.Source {
	case fetch.SourceInventory:
		c.inventory.Add(1)
	case fetch.SourceOverride:
		c.override.Add(1)
	case fetch.SourceDefault:
		c.def.Add(1)
	default:
		c.none.Add(1)
	}
	return nil
}

func (c *decisionCounts) writeMetrics(rw http.ResponseWriter) {
	fmt.Fprintf(rw, "# HELP pastewarden_decisions_total Fetch decisions by plan source.\n")
	fmt.Fprintf(rw, "# TYPE pastewarden_decisions_total counter\n")
	fmt.Fprintf(rw, "pastewarden_decisions_total{source=%q} %d\n", fetch.SourceNone, c.none.Load())
	fmt.Fprintf(rw, "pastewarden_decisions_total{source=%q} %d\n", fetch.SourceInventory, c.inventory.Load())
	fmt.Fprintf(rw, "pastewarden_decisions_total{source=%q} %d\n", fetch.SourceOverride, c.override.Load())
	fmt.Fprintf(rw, "pastewarden_decisions_total{source=%q} %d\n", fetch.SourceDefault, c.def.Load())
}
