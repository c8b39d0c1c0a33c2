package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mcoot/partyrooms/internal/api"
	"github.com/mcoot/partyrooms/internal/config"
	"github.com/mcoot/partyrooms/internal/dependencies/clock"
	"github.com/mcoot/partyrooms/internal/dependencies/random"
	"github.com/mcoot/partyrooms/internal/dependencies/scheduler"
	"github.com/mcoot/partyrooms/internal/gateway"
	"github.com/mcoot/partyrooms/internal/services/identity"
	"github.com/mcoot/partyrooms/internal/services/questions"
	"github.com/mcoot/partyrooms/internal/services/room"
	"github.com/mcoot/partyrooms/internal/services/scoring"
	"github.com/mcoot/partyrooms/internal/services/trivia"
	"github.com/mcoot/partyrooms/internal/storage"
	"github.com/mcoot/partyrooms/internal/storage/memory"
	redisstorage "github.com/mcoot/partyrooms/internal/storage/redis"
	"github.com/mcoot/partyrooms/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// The websocket hub is the gateway's outbound transport
var _ gateway.Transport = (*ws.Hub)(nil)

// App contains all wired application components
type App struct {
	// Storage
	Storage     storage.RoomStore
	StorageType string

	// External dependencies
	Clock     clock.Clock
	Random    random.Random
	Scheduler scheduler.Scheduler

	// Services
	IDs       *identity.Allocator
	Presence  *room.Presence
	Registry  *room.Registry
	Questions *questions.Source
	Scoring   *scoring.Service
	Engine    *trivia.Engine

	// Transport
	Gateway *gateway.Gateway
	Hub     *ws.Hub
	Handler http.Handler

	logger  *slog.Logger
	closers []func() error
	once    sync.Once
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Questions configures the external provider. Zero value uses the local bank only.
	Questions questions.Config
	// QuestionBankPath replaces the built-in fallback bank (optional)
	QuestionBankPath string
	// RoomRetention is how long an abandoned room is kept
	RoomRetention time.Duration
	Trivia        trivia.Config
	Gateway       gateway.Config
	// HTTPClient is used for the question provider (optional)
	HTTPClient *http.Client
}

// FromEnv builds a factory config from environment configuration
func FromEnv(env config.Config, logger *slog.Logger) Config {
	cfg := Config{
		Logger:           logger,
		StorageType:      env.StorageType,
		QuestionBankPath: env.QuestionBankPath,
		RoomRetention:    env.RoomRetention,
		Trivia:           trivia.Config{ClampToServerTime: env.ClampTimeToServer},
		Questions: questions.Config{
			ProviderURL: env.TriviaAPIURL,
			Timeout:     env.TriviaTimeout,
			TimeLimit:   env.QuestionTimeLimit,
		},
	}

	cfg.Gateway = gateway.DefaultConfig()
	cfg.Gateway.ResultsDelay = env.ResultsDelay
	cfg.Gateway.CleanupInterval = env.CleanupInterval
	// The fetch deadline wraps the provider timeout plus the bank fallback
	cfg.Gateway.FetchTimeout = env.TriviaTimeout + 5*time.Second

	if env.StorageType == StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = env.RedisURL
		cfg.RedisConfig = &redisCfg
	}
	return cfg
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.RoomStore
	var closers []func() error
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
		closers = append(closers, redisStore.Close)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	cfg.StorageType = storageType
	app := newWithDependencies(store, clock.New(), random.New(), scheduler.New(), cfg, logger)
	app.closers = closers

	if cfg.QuestionBankPath != "" {
		if err := app.Questions.LoadBankFromFile(cfg.QuestionBankPath); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("load question bank: %w", err)
		}
		logger.Info("question bank loaded",
			slog.String("path", cfg.QuestionBankPath),
			slog.Int("questions", app.Questions.BankSize()))
	}
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.RoomStore,
	clk clock.Clock,
	rnd random.Random,
	sched scheduler.Scheduler,
	cfg Config,
	logger *slog.Logger,
) *App {
	retention := cfg.RoomRetention
	if retention <= 0 {
		retention = room.DefaultRetention
	}
	gatewayCfg := cfg.Gateway
	if gatewayCfg == (gateway.Config{}) {
		gatewayCfg = gateway.DefaultConfig()
	}

	ids := identity.New(rnd)
	presence := room.NewPresence()
	registry := room.NewRegistry(store, ids, presence, clk, retention, logger)
	source := questions.New(cfg.Questions, cfg.HTTPClient, rnd, logger)
	scoringService := scoring.New()
	engine := trivia.NewEngine(store, source, scoringService, clk, cfg.Trivia, logger)

	gw := gateway.New(registry, engine, source, sched, nil, gatewayCfg, logger)
	hub := ws.NewHub(gw, ids, logger)
	gw.SetTransport(hub)

	handler := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Rooms:       gw,
		WebSocket:   hub.ServeWS,
		StorageType: cfg.StorageType,
		Connections: hub.ClientCount,
	})

	return &App{
		Storage:     store,
		StorageType: cfg.StorageType,
		Clock:       clk,
		Random:      rnd,
		Scheduler:   sched,
		IDs:         ids,
		Presence:    presence,
		Registry:    registry,
		Questions:   source,
		Scoring:     scoringService,
		Engine:      engine,
		Gateway:     gw,
		Hub:         hub,
		Handler:     handler,
		logger:      logger,
	}
}

// Run drives the gateway loop and the websocket hub until ctx is done
func (a *App) Run(ctx context.Context) {
	go a.Hub.Run(ctx)
	a.Gateway.Run(ctx)
}

// Close releases storage connections
func (a *App) Close() error {
	var errs []error
	a.once.Do(func() {
		for _, c := range a.closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
