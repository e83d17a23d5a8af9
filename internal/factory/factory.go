package factory

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/matchlobby/internal/api"
	"github.com/mcoot/matchlobby/internal/dependencies/clock"
	"github.com/mcoot/matchlobby/internal/dependencies/names"
	"github.com/mcoot/matchlobby/internal/dependencies/random"
	"github.com/mcoot/matchlobby/internal/services/broker"
	"github.com/mcoot/matchlobby/internal/services/journal"
	"github.com/mcoot/matchlobby/internal/storage"
	"github.com/mcoot/matchlobby/internal/storage/memory"
	redisstorage "github.com/mcoot/matchlobby/internal/storage/redis"
	"github.com/mcoot/matchlobby/internal/web"
	"github.com/mcoot/matchlobby/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage for the pairing journal
	Store storage.PairingStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Names  names.Generator

	// Services
	Broker   *broker.Broker
	Journal  *journal.Journal
	Sessions *ws.Handler

	logger *slog.Logger
	closer io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the journal backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// BrokerConfig overrides broker.DefaultConfig() when set
	BrokerConfig *broker.Config
	// SessionConfig overrides ws.DefaultConfig() when set
	SessionConfig *ws.Config
	// JournalConfig overrides journal.DefaultConfig() when set
	JournalConfig *journal.Config
}

// New creates a new application with all dependencies wired.
// Call Start before serving and Stop when done.
func New(cfg Config) (*App, error) {
	var store storage.PairingStore
	var closer io.Closer
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
		closer = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	rnd := random.New()
	app := newWithDependencies(store, clock.New(), rnd, names.New(rnd), cfg)
	app.closer = closer
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.PairingStore, clk clock.Clock, rnd random.Random, gen names.Generator, cfg Config) *App {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	brokerCfg := broker.DefaultConfig()
	if cfg.BrokerConfig != nil {
		brokerCfg = *cfg.BrokerConfig
	}
	sessionCfg := ws.DefaultConfig()
	if cfg.SessionConfig != nil {
		sessionCfg = *cfg.SessionConfig
	}
	journalCfg := journal.DefaultConfig()
	if cfg.JournalConfig != nil {
		journalCfg = *cfg.JournalConfig
	}

	j := journal.New(journalCfg, store, logger)
	b := broker.New(brokerCfg, clk, rnd, j, logger)
	sessions := ws.NewHandler(sessionCfg, b, clk, rnd, gen, logger)

	return &App{
		Store:    store,
		Clock:    clk,
		Random:   rnd,
		Names:    gen,
		Broker:   b,
		Journal:  j,
		Sessions: sessions,
		logger:   logger,
	}
}

// Start launches the journal writer and the broker loop
func (a *App) Start() {
	a.Journal.Start()
	a.Broker.Start()
}

// Stop closes live sessions, then stops the broker, then flushes the
// journal and releases storage
func (a *App) Stop() {
	a.Sessions.Shutdown()
	a.Broker.Stop()
	a.Journal.Stop()
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			a.logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}
}

// Handler returns the combined HTTP handler: the REST API under /api/ and
// the game endpoint everywhere else
func (a *App) Handler() http.Handler {
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:  a.logger,
		Lobby:   a.Broker,
		Journal: a.Journal,
	})
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:   a.logger,
		Sessions: a.Sessions,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)
	return mux
}
