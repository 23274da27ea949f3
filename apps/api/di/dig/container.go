package dig_container

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/academia/apps/api/echo"
	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/progression"
	"github.com/trezcool/academia/core/schedule"
	"github.com/trezcool/academia/core/term"
	cachesvc "github.com/trezcool/academia/services/cache"
	logsvc "github.com/trezcool/academia/services/logger"
	"github.com/trezcool/academia/storage/database"
	boiledrepos "github.com/trezcool/academia/storage/database/sqlboiler"
	sqlxrepos "github.com/trezcool/academia/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In
	Conf        *core.Config
	Logger      core.Logger
	TermSvc     term.ServiceInterface
	ScheduleSvc schedule.ServiceInterface
	Engine      progression.ServiceInterface
	Validate    *validator.Validate
	Translator  ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sql.DB, core.DB, core.DBExecutor) {
	setUp := func() (*sql.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db, db
}

// newRedisClient returns nil when redis is not configured or unreachable; the app then runs without cache.
func newRedisClient(conf *core.Config, logger core.Logger) *redis.Client {
	rdb, err := cachesvc.NewRedisClient(context.Background(), conf)
	if err != nil {
		logger.Warn("redis unavailable, active school year cache disabled", err)
		return nil
	}
	return rdb
}

// repositories binds the storage implementations to the interfaces the services take.
type repositories struct {
	dig.Out
	Terms    term.Repository
	Schedule schedule.Repository
	Students progression.Repository
	Records  progression.RecordRepository
}

func newRepositories(db core.DBExecutor) repositories {
	return repositories{
		Terms:    sqlxrepos.NewTermRepository(db),
		Schedule: sqlxrepos.NewScheduleRepository(db),
		Students: sqlxrepos.NewProgressionRepository(db),
		Records:  boiledrepos.NewRecordRepository(db),
	}
}

type termServices struct {
	dig.Out
	Service  term.ServiceInterface
	Provider term.Provider
}

func newTermService(tx core.Transactor, repo term.Repository, cache term.ActiveCache) termServices {
	svc := term.NewService(tx, repo, cache)
	return termServices{Service: svc, Provider: svc}
}

func newScheduleService(tx core.Transactor, repo schedule.Repository, terms term.Provider, conf *core.Config, logger core.Logger) schedule.ServiceInterface {
	return schedule.NewService(tx, repo, terms, conf, logger)
}

func newEngine(tx core.Transactor, repo progression.Repository, records progression.RecordRepository, terms term.Provider, logger core.Logger) progression.ServiceInterface {
	return progression.NewEngine(tx, repo, records, terms, logger)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		TermSvc:     p.TermSvc,
		ScheduleSvc: p.ScheduleSvc,
		Engine:      p.Engine,
		Validate:    p.Validate,
		Translator:  p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(database.NewTransactor))
	must(c.Provide(newRedisClient))
	must(c.Provide(cachesvc.NewActiveTermCache))
	must(c.Provide(newRepositories))
	must(c.Provide(newTermService))
	must(c.Provide(newScheduleService))
	must(c.Provide(newEngine))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(newServer))

	if os.Getenv("DIG_VISUALIZE") != "" {
		_ = dig.Visualize(c, os.Stdout)
	}

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
