package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/chessrooms/internal/config"
	"github.com/mcoot/chessrooms/internal/dependencies/clock"
	"github.com/mcoot/chessrooms/internal/dependencies/random"
	"github.com/mcoot/chessrooms/internal/realtime"
	"github.com/mcoot/chessrooms/internal/services/account"
	"github.com/mcoot/chessrooms/internal/services/connection"
	"github.com/mcoot/chessrooms/internal/services/engine"
	"github.com/mcoot/chessrooms/internal/services/keyexchange"
	"github.com/mcoot/chessrooms/internal/services/room"
	"github.com/mcoot/chessrooms/internal/services/session"
	"github.com/mcoot/chessrooms/internal/storage"
	"github.com/mcoot/chessrooms/internal/storage/memory"
	mongostorage "github.com/mcoot/chessrooms/internal/storage/mongo"
	redisstorage "github.com/mcoot/chessrooms/internal/storage/redis"
)

// App contains all wired application components
type App struct {
	// Storage
	SessionStore storage.SessionStore
	UserStore    storage.UserStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	KeyExchange *keyexchange.Service
	Sessions    *session.Registry
	Accounts    *account.Service
	Connections *connection.Registry
	Rooms       *room.Manager
	Engine      *engine.Pool
	Realtime    *realtime.Handler

	closers []io.Closer
	logger  *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// SessionStore selects the session backend ("memory" or "redis")
	// If empty, defaults to "memory"
	SessionStore string
	// UserStore selects the account backend ("memory", "redis" or "mongo")
	// If empty, defaults to "memory"
	UserStore string
	// RedisConfig is required if either store is "redis"
	RedisConfig *redisstorage.Config
	// MongoConfig is required if UserStore is "mongo"
	MongoConfig *mongostorage.Config

	Session  session.Config
	Account  account.Config
	Engine   engine.Config
	Pool     engine.PoolConfig
	Realtime realtime.Config
	// EngineMaxAttempts bounds search cycles per request
	EngineMaxAttempts int
}

// FromEnv maps the environment configuration onto a factory configuration
func FromEnv(env config.Config, logger *slog.Logger) Config {
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = env.RedisURL

	mongoCfg := mongostorage.DefaultConfig()
	mongoCfg.URI = env.MongoURI
	mongoCfg.Database = env.MongoDatabase

	return Config{
		Logger:       logger,
		SessionStore: env.SessionStore,
		UserStore:    env.UserStore,
		RedisConfig:  &redisCfg,
		MongoConfig:  &mongoCfg,
		Session: session.Config{
			TTL:           env.SessionTTL,
			SweepInterval: env.SessionSweepInterval,
		},
		Account:           account.Config{BcryptCost: env.BcryptCost},
		Engine:            engine.Config{Path: env.EnginePath},
		Pool:              engine.PoolConfig{Workers: env.EngineWorkers, SearchTimeout: env.EngineTimeout},
		Realtime:          realtime.Config{AllowedOrigin: env.AllowedOrigin},
		EngineMaxAttempts: env.EngineMaxAttempts,
	}
}

// New creates a new application with all dependencies wired. Call Start
// before serving and Close on shutdown.
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	sessionStore, userStore, closers, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	bridge := engine.NewBridge(cfg.Engine, logger)
	searcher := engine.NewSearcher(bridge, cfg.EngineMaxAttempts, logger)

	app := newWithDependencies(sessionStore, userStore, searcher, clock.New(), random.New(), cfg, logger)
	app.closers = closers
	return app, nil
}

func openStores(ctx context.Context, cfg Config) (storage.SessionStore, storage.UserStore, []io.Closer, error) {
	sessionType := cfg.SessionStore
	if sessionType == "" {
		sessionType = config.StoreMemory
	}
	userType := cfg.UserStore
	if userType == "" {
		userType = config.StoreMemory
	}

	var (
		closers []io.Closer
		mem     *memory.Storage
		rds     *redisstorage.Storage
	)
	memoryStore := func() *memory.Storage {
		if mem == nil {
			mem = memory.New()
		}
		return mem
	}
	redisStore := func() (*redisstorage.Storage, error) {
		if rds != nil {
			return rds, nil
		}
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when a store is redis")
		}
		s, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		rds = s
		closers = append(closers, s)
		return s, nil
	}
	fail := func(err error) (storage.SessionStore, storage.UserStore, []io.Closer, error) {
		closeAll(closers)
		return nil, nil, nil, err
	}

	var sessions storage.SessionStore
	switch sessionType {
	case config.StoreMemory:
		sessions = memoryStore()
	case config.StoreRedis:
		s, err := redisStore()
		if err != nil {
			return fail(err)
		}
		sessions = s
	default:
		return fail(fmt.Errorf("invalid SessionStore %q: must be 'memory' or 'redis'", sessionType))
	}

	var users storage.UserStore
	switch userType {
	case config.StoreMemory:
		users = memoryStore()
	case config.StoreRedis:
		s, err := redisStore()
		if err != nil {
			return fail(err)
		}
		users = s
	case config.StoreMongo:
		if cfg.MongoConfig == nil {
			return fail(errors.New("MongoConfig required when UserStore is mongo"))
		}
		s, err := mongostorage.New(ctx, *cfg.MongoConfig)
		if err != nil {
			return fail(fmt.Errorf("connect mongo: %w", err))
		}
		closers = append(closers, s)
		users = s
	default:
		return fail(fmt.Errorf("invalid UserStore %q: must be 'memory', 'redis' or 'mongo'", userType))
	}

	return sessions, users, closers, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(sessionStore storage.SessionStore, userStore storage.UserStore, finder engine.MoveFinder, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	sessionCfg := cfg.Session
	if sessionCfg.TTL == 0 {
		sessionCfg = session.DefaultConfig()
	}

	keys := keyexchange.New(rnd)
	sessions := session.New(sessionStore, keys, clk, sessionCfg, logger)
	accounts := account.New(userStore, clk, cfg.Account, logger)
	connections := connection.NewRegistry(logger)
	rooms := room.NewManager(connections, clk, rnd, logger)
	pool := engine.NewPool(finder, cfg.Pool, logger)
	rt := realtime.NewHandler(connections, rooms, pool, cfg.Realtime, logger)

	return &App{
		SessionStore: sessionStore,
		UserStore:    userStore,
		Clock:        clk,
		Random:       rnd,
		KeyExchange:  keys,
		Sessions:     sessions,
		Accounts:     accounts,
		Connections:  connections,
		Rooms:        rooms,
		Engine:       pool,
		Realtime:     rt,
		logger:       logger,
	}
}

// Start launches the background workers; they stop when ctx is done
func (a *App) Start(ctx context.Context) {
	a.Engine.Start()
	a.Sessions.StartSweeper(ctx)
}

// Close stops the engine workers and releases store connections
func (a *App) Close() error {
	a.Engine.Close()
	return closeAll(a.closers)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
