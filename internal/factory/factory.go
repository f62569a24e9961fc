package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/chessbroker/internal/dependencies/clock"
	"github.com/mcoot/chessbroker/internal/dependencies/random"
	"github.com/mcoot/chessbroker/internal/directory"
	"github.com/mcoot/chessbroker/internal/rules"
	"github.com/mcoot/chessbroker/internal/rules/chesslib"
	"github.com/mcoot/chessbroker/internal/services/auth"
	"github.com/mcoot/chessbroker/internal/services/session"
	"github.com/mcoot/chessbroker/internal/storage"
	"github.com/mcoot/chessbroker/internal/storage/memory"
	redisstorage "github.com/mcoot/chessbroker/internal/storage/redis"
	"github.com/mcoot/chessbroker/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Oracle            rules.Oracle
	Directory         *directory.Directory
	SessionController *session.Controller
	AuthService       *auth.Service
	Dispatcher        *ws.Dispatcher
	WSHandler         *ws.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	return newWithDependencies(store, clk, rnd, authCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, authCfg auth.Config, logger *slog.Logger) *App {
	oracle := chesslib.New()
	dir := directory.New(logger)
	sessionController := session.NewController(store, oracle, clk, rnd, logger)
	authService := auth.New(store, clk, authCfg)
	dispatcher := ws.NewDispatcher(dir, sessionController, logger)
	wsHandler := ws.NewHandler(dispatcher, authService, rnd, logger)

	return &App{
		Storage:           store,
		Clock:             clk,
		Random:            rnd,
		Oracle:            oracle,
		Directory:         dir,
		SessionController: sessionController,
		AuthService:       authService,
		Dispatcher:        dispatcher,
		WSHandler:         wsHandler,
	}
}
