package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/Cairn-Labs/listing-steward/pkg/api"
	"github.com/Cairn-Labs/listing-steward/pkg/auth"
	"github.com/Cairn-Labs/listing-steward/pkg/authz"
	"github.com/Cairn-Labs/listing-steward/pkg/config"
	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
	"github.com/Cairn-Labs/listing-steward/pkg/events"
	"github.com/Cairn-Labs/listing-steward/pkg/observability"
	"github.com/Cairn-Labs/listing-steward/pkg/policy"
	"github.com/Cairn-Labs/listing-steward/pkg/registry"
	"github.com/Cairn-Labs/listing-steward/pkg/signing"
	"github.com/Cairn-Labs/listing-steward/pkg/steward"
	"github.com/Cairn-Labs/listing-steward/pkg/store"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver
)

func runServer() {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Approver == "" || cfg.Responder == "" {
		logger.Error("STEWARD_APPROVER and STEWARD_RESPONDER must be set")
		os.Exit(1)
	}
	roles := authz.NewPolicy(contracts.Identity(cfg.Approver), contracts.Identity(cfg.Responder))

	proposals, closeDB := newProposalStore(ctx, cfg, logger)
	defer closeDB()

	audit := store.NewAuditLog()

	opts := []steward.Option{
		steward.WithAudit(audit),
		steward.WithLogger(logger),
	}

	// A network profile contributes admission rules and the engine
	// endpoint. Absence is fine in dev.
	network := os.Getenv("STEWARD_NETWORK")
	engineURL := cfg.EngineURL
	if network != "" {
		profile, err := config.LoadProfile(cfg.ProfilesDir, network)
		if err != nil {
			logger.Error("failed to load network profile", "network", network, "error", err)
			os.Exit(1)
		}
		if len(profile.AdmissionRules) > 0 {
			admission, err := policy.NewAdmission(profile.AdmissionRules)
			if err != nil {
				logger.Error("failed to compile admission rules", "error", err)
				os.Exit(1)
			}
			opts = append(opts, steward.WithAdmission(admission))
		}
		if engineURL == "" {
			engineURL = profile.EngineURL
		}
	}

	var engine registry.ConfigEngine
	if engineURL != "" {
		httpEngine, err := registry.NewHTTPEngine(engineURL, nil)
		if err != nil {
			logger.Error("invalid engine URL", "url", engineURL, "error", err)
			os.Exit(1)
		}
		engine = httpEngine
	} else {
		logger.Warn("no engine URL configured, using in-memory engine")
		engine = registry.NewMemoryEngine()
	}

	emitters := events.Multi{events.NewLogEmitter(logger)}
	if cfg.RedisAddr != "" {
		redisEmitter := events.NewRedisEmitter(cfg.RedisAddr, cfg.RedisPassword, 0, events.DefaultChannel)
		defer func() { _ = redisEmitter.Close() }()
		emitters = append(emitters, redisEmitter)
	}
	opts = append(opts, steward.WithEmitter(emitters))

	if cfg.MasterSecret != "" {
		signer, err := signing.DeriveKeyProvider([]byte(cfg.MasterSecret), "events")
		if err != nil {
			logger.Error("failed to derive signing key", "error", err)
			os.Exit(1)
		}
		opts = append(opts, steward.WithSigner(signer))
	}

	st := steward.New(proposals, engine, roles, opts...)

	obs, err := observability.New(ctx, &observability.Config{
		ServiceName:    "listing-steward",
		ServiceVersion: config.StewardVersion,
		Environment:    network,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		Enabled:        cfg.OTLPEndpoint != "",
		Insecure:       true,
	})
	if err != nil {
		logger.Error("failed to init observability", "error", err)
		os.Exit(1)
	}
	defer func() { _ = obs.Shutdown(context.Background()) }()

	mux := api.NewServer(st, audit, logger).Routes()

	var handler http.Handler = mux
	handler = auth.NewMiddleware(auth.NewHMACVerifier([]byte(cfg.MasterSecret)))(handler)
	handler = auth.RateLimitMiddleware(auth.NewIPRateLimiter(rate.Limit(20), 40))(handler)
	handler = observability.Middleware(obs)(handler)
	handler = auth.RequestIDMiddleware(handler)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("steward listening", "port", cfg.Port, "network", network)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func newProposalStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.ProposalStore, func()) {
	driver := cfg.DatabaseDrv
	if driver == "memory" {
		return store.NewMemoryStore(), func() {}
	}

	db, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "driver", driver, "error", err)
		os.Exit(1)
	}
	sqlStore := store.NewSQLStore(db, driver)
	if err := sqlStore.Init(ctx); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}
	return sqlStore, func() { _ = db.Close() }
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
