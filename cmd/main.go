package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"focusService/internal/analytics"
	"focusService/internal/auth"
	"focusService/internal/engine"
	"focusService/internal/prefs"
	"focusService/internal/store"
)

var (
	webPort   = os.Getenv("WEB_PORT")
	redisAddr = os.Getenv("REDIS_ADDR")
	dsn       = os.Getenv("DSN")
)

type Config struct {
	Engine   *engine.Engine
	Store    store.SessionStore
	AuthRepo auth.AuthRepository
	Log      zerolog.Logger
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	var (
		sessionStore store.SessionStore
		prefSrc      prefs.Source = prefs.Static{Snapshot: prefs.Defaults()}
		sink         analytics.Sink
	)

	redisStore, err := store.NewRedisStore(redisAddr, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, falling back to in-memory store")
		sessionStore = store.NewMemoryStore()
		sink = analytics.NewLogSink(logger)
	} else {
		defer redisStore.Close()
		sessionStore = redisStore
		sink = analytics.NewRedisSink(redisStore.Client(), logger)

		watcher, err := prefs.NewWatcher(redisStore.Client(), logger)
		if err != nil {
			logger.Warn().Err(err).Msg("preferences watcher unavailable, using defaults")
		} else {
			defer watcher.Close()
			prefSrc = watcher
		}
	}

	conn := connectToDB(logger)
	if conn == nil {
		logger.Fatal().Msg("can't connect to Postgres")
	}
	defer conn.Close()

	eng := engine.New(engineConfigFromEnv(), sessionStore, prefSrc, sink, logger)
	eng.Recover(context.Background())
	defer eng.Shutdown()

	app := Config{
		Engine:   eng,
		Store:    sessionStore,
		AuthRepo: auth.NewPostgresRepository(conn),
		Log:      logger,
	}

	logger.Info().Str("port", webPort).Msg("starting focus timer service")
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", webPort),
		Handler: app.routes(),
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func connectToDB(logger zerolog.Logger) *pgxpool.Pool {
	counts := 0
	for {
		connection, err := openDB(dsn)
		if err == nil {
			logger.Info().Msg("connected to Postgres")
			return connection
		}

		counts++
		if counts > 10 {
			logger.Error().Err(err).Msg("giving up on Postgres")
			return nil
		}
		logger.Info().Int("attempt", counts).Msg("Postgres not yet ready, backing off")
		backOff()
	}
}
