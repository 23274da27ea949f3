package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/progression"
	"github.com/trezcool/academia/core/term"
	cachesvc "github.com/trezcool/academia/services/cache"
	logsvc "github.com/trezcool/academia/services/logger"
	"github.com/trezcool/academia/storage/database"
	boiledrepos "github.com/trezcool/academia/storage/database/sqlboiler"
	sqlxrepos "github.com/trezcool/academia/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()

	rdb, err := cachesvc.NewRedisClient(context.Background(), conf)
	if err != nil {
		logger.Warn("redis unavailable, active school year cache disabled", err)
	}

	// set up services
	tx := database.NewTransactor(db)
	termSvc := term.NewService(tx, sqlxrepos.NewTermRepository(db), cachesvc.NewActiveTermCache(rdb, conf, logger))
	engine := progression.NewEngine(
		tx,
		sqlxrepos.NewProgressionRepository(db),
		boiledrepos.NewRecordRepository(db),
		termSvc,
		logger,
	)

	// start CLI
	cli := commandLine{
		db:     db,
		terms:  termSvc,
		engine: engine,
		in:     os.Stdin,
		out:    os.Stdout,
	}
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		db.Close()
		os.Exit(1)
	}
}
