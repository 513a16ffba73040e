package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	googlead "replydesk/internal/adapters/google"
	server "replydesk/internal/adapters/http_server"
	"replydesk/internal/adapters/observability"
	redisad "replydesk/internal/adapters/redis"
	"replydesk/internal/app"
	"replydesk/internal/shared"
	mysqlrepo "replydesk/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

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
	platform := googlead.New(cfg.GoogleAPIBase, cfg.PlatformRPS)
	auth := googlead.NewAuthenticator(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	accounts := app.NewAccountService(repo, auth)
	syncsvc := app.NewSyncService(repo, platform, accounts, cache)
	templates := app.NewTemplateService(repo, cache)
	replies := app.NewReplyService(repo, platform, accounts, cache)
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)

	// http
	reg := observability.InitRegistry()
	observability.Serve(reg, cfg.MetricsAddr)

	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(server.NewHandlers(accounts, syncsvc, templates, replies, q))

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
