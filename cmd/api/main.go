package main

import (
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"paden/internal/adapters/genai"
	server "paden/internal/adapters/http_server"
	"paden/internal/adapters/observability"
	redisad "paden/internal/adapters/redis"
	"paden/internal/adapters/twilio"
	"paden/internal/app"
	"paden/internal/domain"
	"paden/internal/shared"
	mysqlrepo "paden/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// With no key configured every generation call fails and the pipeline
	// answers from its deterministic fallbacks; the service still runs.
	key := cfg.GenAIKey
	if key == "" {
		key = "unset"
	}
	gen, err := genai.New(cfg.GenAIBase, key, cfg.GenAIModel, cfg.GenAIRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize genai client")
	}

	var messenger domain.Messenger
	if cfg.TwilioSID != "" && cfg.TwilioTok != "" && cfg.TwilioFrom != "" {
		m, err := twilio.New(cfg.TwilioBase, cfg.TwilioSID, cfg.TwilioTok, cfg.TwilioFrom, 5)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize twilio client")
		}
		messenger = m
	}
	async := cfg.AsyncReply
	if async && messenger == nil {
		log.Warn().Msg("ASYNC_REPLY set but no Twilio credentials; falling back to sync TwiML replies")
		async = false
	}

	conv := app.NewConversationService(
		app.NewFilterExtractor(gen),
		app.NewResponseComposer(gen),
		repo,
		cfg.SearchLimit,
		cfg.BroadLimit,
	)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Conv:        conv,
		Suggest:     app.NewSuggestService(gen),
		Q:           app.NewQueryService(repo, cache, cfg.CacheTTL),
		Messenger:   messenger,
		AsyncReply:  async,
		TurnTimeout: 90 * time.Second,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Bool("async", async).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
