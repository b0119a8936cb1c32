package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"Cablecalc/internal/auth"
	"Cablecalc/internal/calc/engine"
	"Cablecalc/internal/calc/report"
	"Cablecalc/internal/catalog"
	"Cablecalc/internal/config"
	"Cablecalc/internal/history"
	"Cablecalc/internal/logging"
	"Cablecalc/internal/observability"
	"Cablecalc/internal/repo"
	"Cablecalc/internal/session"
)

var wg sync.WaitGroup

type deps struct {
	cfg     *config.Config
	log     logging.Logger
	tables  *catalog.Swappable
	repo    repo.Repository
	metrics *observability.Metrics
}

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func HandleList(r *mux.Router, d deps) {
	r.Use(d.metrics.Middleware)
	r.Handle("/metrics", d.metrics.Handler()).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")

	authEnv := &auth.Authenv{
		JWTkey:       []byte(d.cfg.TokenKey),
		Repo:         d.repo,
		Log:          d.log,
		SecureCookie: d.cfg.TLS(),
	}
	limiter := auth.NewIPRateLimiter(rate.Limit(d.cfg.RateLimitRPS), d.cfg.RateLimitBurst)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(limiter.LimitMiddleware)

	api.HandleFunc("/login", authEnv.AuthHandler).Methods("POST")
	api.HandleFunc("/register", authEnv.RegisterHandler).Methods("POST")

	calcH := &engine.Handler{Tables: d.tables}
	api.HandleFunc("/tools/vdrop/calc", calcH.Calc).Methods("POST")
	api.HandleFunc("/tools/vdrop/batch", calcH.Batch).Methods("POST")
	api.HandleFunc("/tools/vdrop/methods", calcH.Options).Methods("GET")

	secureApi := api.NewRoute().Subrouter()
	secureApi.Use(authEnv.AuthMiddleware)

	store := session.NewStore(d.tables,
		session.WithTTL(d.cfg.SessionTTL),
		session.WithLogger(d.log),
		session.WithObserver(d.metrics),
		session.WithGauge(d.metrics.Sessions))
	sessionH := &session.Handler{Store: store}
	sessionH.Routes(secureApi)

	reportH := &report.Handler{Source: sessionH}
	secureApi.HandleFunc("/sessions/{id}/export/{format}", reportH.Export).Methods("GET")
	secureApi.HandleFunc("/sessions/{id}/report/pdf", reportH.Details).Methods("GET")

	historyH := &history.Handler{Repo: d.repo, Sessions: sessionH, Log: d.log}
	secureApi.HandleFunc("/sessions/{id}/history", historyH.Save).Methods("POST")
	secureApi.HandleFunc("/history", historyH.List).Methods("GET")

	adminApi := secureApi.NewRoute().Subrouter()
	adminApi.Use(auth.AdminMiddleware(d.cfg.AdminLogins))
	importH := &catalog.ImportHandler{Target: d.tables, Log: d.log}
	adminApi.HandleFunc("/catalog/import", importH.Import).Methods("POST")
	secureApi.HandleFunc("/catalog", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(catalog.Summarize(d.tables.Current()))
	}).Methods("GET")
}

func openRepository(ctx context.Context, cfg *config.Config, log logging.Logger) (repo.Repository, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn(ctx, "DATABASE_URL not set, users and history are kept in memory")
		return repo.NewMemory(), func() {}, nil
	}
	db, err := repo.Open(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, nil, err
	}
	return repo.NewPostgres(db), func() { db.Close() }, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logging.NewFromEnv().Error(ctx, "config", logging.Err(err))
		os.Exit(1)
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	tables, err := catalog.LoadDir(ctx, cfg.DataDir, log)
	if err != nil {
		log.Error(ctx, "load catalog", logging.String("dir", cfg.DataDir), logging.Err(err))
		os.Exit(1)
	}

	store, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "open database", logging.Err(err))
		os.Exit(1)
	}
	defer closeRepo()

	metrics, err := observability.New(nil)
	if err != nil {
		log.Error(ctx, "register metrics", logging.Err(err))
		os.Exit(1)
	}

	router := mux.NewRouter()
	HandleList(router, deps{
		cfg:     cfg,
		log:     log,
		tables:  catalog.NewSwappable(tables),
		repo:    store,
		metrics: metrics,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           CORS(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info(ctx, "starting server", logging.String("addr", cfg.Addr), logging.Any("tls", cfg.TLS()))
		var err error
		if cfg.TLS() {
			err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server error", logging.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutdown signal received, closing connections")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown", logging.Err(err))
	}
	wg.Wait()
	log.Info(context.Background(), "server stopped")
}
