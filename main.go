package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"workouttribe/auth"
	"workouttribe/config"
	"workouttribe/db"
	"workouttribe/directory"
	"workouttribe/events"
	"workouttribe/geo"
	"workouttribe/matcher"
	"workouttribe/middlewares"
	"workouttribe/models"
	"workouttribe/routes"
	"workouttribe/utils"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	logger := newLogger(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis backs the response cache, the quota and optionally the spatial index.
	var rdb *redis.Client
	if cfg.Storage.Spatial == "redis" || cfg.Storage.Backend == "persistent" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			if cfg.Storage.Spatial == "redis" {
				logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis ping")
			}
			logger.Warn().Err(err).Msg("redis unavailable, response cache and quota disabled")
			_ = rdb.Close()
			rdb = nil
		}
	}

	var index geo.Index = geo.NewMemoryIndex()
	if cfg.Storage.Spatial == "redis" {
		index = geo.NewRedisIndex(rdb, cfg.Redis.GeoKey)
	}

	var (
		userRepo  models.UserRepository
		eventRepo models.EventRepository
	)
	switch cfg.Storage.Backend {
	case "persistent":
		sqldb, err := db.OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer sqldb.Close()
		if err := db.CreateTables(ctx, sqldb); err != nil {
			logger.Fatal().Err(err).Msg("postgres schema")
		}

		mg, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			logger.Fatal().Err(err).Msg("mongo")
		}
		defer func() { _ = mg.Disconnect(context.Background()) }()
		eventsCol := mg.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		if err := db.EnsureEventIndexes(ctx, eventsCol); err != nil {
			logger.Fatal().Err(err).Msg("mongo indexes")
		}

		userRepo = models.NewSQLUserRepository(sqldb)
		eventRepo = models.NewMongoEventRepository(eventsCol)
	default:
		userRepo = models.NewMemoryUserRepository()
		eventRepo = models.NewMemoryEventRepository()
	}

	storeOpts := []events.Option{events.WithLogger(logger.With().Str("component", "events").Logger())}
	if cfg.NATS.URL != "" {
		nc, err := connectNATS(cfg.NATS, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("nats")
		}
		defer nc.Drain()
		storeOpts = append(storeOpts, events.WithPublisher(events.NewNATSPublisher(nc, cfg.NATS.Topic)))
	}

	users := directory.New(userRepo, index, directory.WithLogger(logger.With().Str("component", "directory").Logger()))
	if _, err := users.Warm(ctx); err != nil {
		logger.Fatal().Err(err).Msg("warm spatial index")
	}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := gin.New()
	server.Use(gin.Recovery(), middlewares.RequestLogger(logger.With().Str("component", "http").Logger()))

	deps := routes.Deps{
		Users:   users,
		Matcher: matcher.New(users, index, logger.With().Str("component", "matcher").Logger()),
		Events:  events.NewStore(eventRepo, storeOpts...),
		Guard:   auth.NewGuard(cfg.Auth.TokenSecret, cfg.Auth.TokenExpiry),
		Limits: routes.Limits{
			Global:      middlewares.LimiterConfig{RPS: cfg.Limits.GlobalRPS, Burst: cfg.Limits.GlobalBurst, IdleTTL: cfg.Limits.IdleTTL},
			Auth:        middlewares.LimiterConfig{RPS: cfg.Limits.AuthRPS, Burst: cfg.Limits.AuthBurst, IdleTTL: cfg.Limits.IdleTTL},
			User:        middlewares.LimiterConfig{RPS: cfg.Limits.UserRPS, Burst: cfg.Limits.UserBurst, IdleTTL: cfg.Limits.IdleTTL},
			DailyQuota:  cfg.Limits.DailyQuota,
			QuotaWindow: cfg.Limits.QuotaWindow,
		},
		Log: logger.With().Str("component", "routes").Logger(),
	}
	if rdb != nil {
		defer rdb.Close()
		deps.Redis = rdb
		deps.CacheTTL = cfg.Redis.CacheTTL
		deps.Invalidator = utils.NewCacheInvalidator(rdb)
	}
	stopLimiters := routes.RegisterRoutes(server, deps)
	defer stopLimiters()

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CorsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(server)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("store", cfg.Storage.Backend).Str("spatial", cfg.Storage.Spatial).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Environment == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func connectNATS(cfg config.NATSConfig, logger zerolog.Logger) (*nats.Conn, error) {
	return nats.Connect(cfg.URL,
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
}
