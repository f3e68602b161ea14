package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "craftbrowser.ai/internal/persistence/log"
	"craftbrowser.ai/internal/sim/catalogs"
	"craftbrowser.ai/internal/sim/tuning"
	"craftbrowser.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory (items.json, recipes.json, tags.json)")
		dataDir    = flag.String("data", "./data", "runtime data directory (audit log, index)")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index of sessions/plans/reports")
		watch      = flag.Bool("watch", true, "reload catalogs when files under -configs change")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)
	catLogger := log.New(os.Stdout, "[catalogs] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	provider := catalogs.NewProvider(*configDir)
	cats, err := provider.Get()
	if err != nil {
		logger.Fatalf("%v", err)
	}
	logCatalogs(catLogger, cats)

	_ = os.MkdirAll(*dataDir, 0o755)
	idx, err := openIndex(*dataDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
	}

	mirror, err := buildAuditMirror(*dataDir, log.New(os.Stdout, "[mirror] ", log.LstdFlags|log.Lmicroseconds))
	if err != nil {
		logger.Fatalf("init audit mirror: %v", err)
	}
	// Closed after the audit log so the final segment is still uploaded.
	defer mirror.Close()

	auditLog := persistlog.NewAuditLogger(*dataDir)
	auditLog.SetFlushEvery(tune.AuditFlushEvery)
	if mirror != nil {
		auditLog.SetOnClose(mirror.Enqueue)
	}
	defer auditLog.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if *watch {
		w, err := catalogs.NewWatcher(provider)
		if err != nil {
			logger.Fatalf("catalog watcher: %v", err)
		}
		if err := w.Start(); err != nil {
			logger.Fatalf("catalog watcher: %v", err)
		}
		defer w.Stop()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case name := <-w.Changes:
					c, err := provider.Get()
					if err != nil {
						catLogger.Printf("%s changed; keeping previous catalogs: %v", name, err)
						continue
					}
					catLogger.Printf("%s changed; reloaded generation=%d", name, provider.Generation())
					logCatalogs(catLogger, c)
					if idx != nil {
						if err := idx.UpsertCatalogs(*configDir, c, tune); err != nil {
							logger.Printf("index: upsert catalogs: %v", err)
						}
					}
				}
			}
		}()
	}

	cfg := ws.Config{
		Catalogs: provider,
		Tuning:   tune,
		Audit:    auditLog,
		Logger:   log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds),
	}
	if idx != nil {
		cfg.Index = idx
	}
	wsSrv := ws.NewServer(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsHandler(provider, wsSrv, idx, mirror))
	if envBool("CB_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (CB_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

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

	logger.Printf("listening on %s catalog_digest=%s max_depth=%d", *addr, cats.Digest, tune.MaxDepth)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func logCatalogs(logger *log.Logger, c *catalogs.Catalogs) {
	logger.Printf("items=%d recipes=%d tags=%d digest=%s", len(c.Items.Defs), c.Built.Len(), len(c.Tags.Tags), c.Digest)
	for _, s := range c.Skipped {
		logger.Printf("skipped recipe %q: %s", s.ID, s.Reason)
	}
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
