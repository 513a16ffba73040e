package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	googlead "replydesk/internal/adapters/google"
	"replydesk/internal/adapters/observability"
	redisad "replydesk/internal/adapters/redis"
	"replydesk/internal/app"
	"replydesk/internal/shared"
	mysqlrepo "replydesk/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Int("workers", cfg.SyncWorkers).
		Msg("syncer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	platform := googlead.New(cfg.GoogleAPIBase, cfg.PlatformRPS)
	auth := googlead.NewAuthenticator(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	accounts := app.NewAccountService(repo, auth)
	syncsvc := app.NewSyncService(repo, platform, accounts, cache)

	all, err := repo.ListAccounts(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list accounts failed")
	}
	if len(all) == 0 {
		log.Info().Msg("no connected accounts; nothing to sync")
		return
	}

	sem := semaphore.NewWeighted(int64(cfg.SyncWorkers))
	var wg sync.WaitGroup

	for _, a := range all {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(accountID int64) {
			defer wg.Done()
			defer sem.Release(int64(1))

			locations, reviews, err := syncsvc.SyncAccount(ctx, accountID)
			if err != nil {
				log.Warn().Int64("account", accountID).Err(err).Msg("sync failed")
				return
			}
			log.Info().
				Int64("account", accountID).
				Int("locations", locations).
				Int("reviews", reviews).
				Msg("sync ok")
		}(a.ID)
	}

	wg.Wait()
	log.Info().Msg("sync completed")
}
