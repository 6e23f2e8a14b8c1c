package main

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/porchlite/porchlite/internal/core/domain"
	"github.com/porchlite/porchlite/internal/core/ports"
	"github.com/porchlite/porchlite/internal/core/service"
	"github.com/porchlite/porchlite/internal/infrastructure/backend"
	"github.com/porchlite/porchlite/internal/infrastructure/db/memory"
	mongodb "github.com/porchlite/porchlite/internal/infrastructure/db/mongo"
	redisdb "github.com/porchlite/porchlite/internal/infrastructure/db/redis"
	"github.com/porchlite/porchlite/internal/infrastructure/queue"
	"github.com/porchlite/porchlite/internal/infrastructure/telemetry"
	"github.com/porchlite/porchlite/internal/pkg/config"
	"github.com/porchlite/porchlite/pkg/logger"
)

// application holds the long-lived collaborators. Everything below the shell
// is rebuilt on a forced reload; everything here survives it.
type application struct {
	mongoClient *mongo.Client
	db          *mongo.Database
	redis       *goredis.Client
	roles       *mongodb.RoleRepository
	shell       *service.Shell
	monitor     *service.ActivityMonitor
	stopEvents  context.CancelFunc
}

func build(ctx context.Context, cfg *config.Config) (*application, error) {
	log := logger.Get()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		_ = mongoClient.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}

	app := &application{
		mongoClient: mongoClient,
		db:          db,
		roles:       mongodb.NewRoleRepository(db),
	}

	var (
		storage ports.SelectionStorage
		cache   ports.SessionCache
	)
	if cfg.Redis.Enabled {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			app.close()
			return nil, err
		}
		app.redis = rdb
		storage = redisdb.NewSelectionStorage(rdb, cfg.DeviceID)
		cache = redisdb.NewSessionCache(rdb, cfg.DeviceID)
	} else {
		mem := memory.NewStore()
		storage, cache = mem, mem
		log.Warn().Msg("redis disabled, property selection will not survive restarts")
	}

	eventsCtx, stopEvents := context.WithCancel(context.WithoutCancel(ctx))
	app.stopEvents = stopEvents
	events := queue.NewDispatcher(log)
	events.Start(eventsCtx)

	tokens := backend.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	client := backend.NewClient(mongodb.NewAuthRepository(db), tokens, events, log)
	properties := mongodb.NewPropertyRepository(db)
	obs := telemetry.NewObserver(log)

	factory := func() (*service.Coordinator, error) {
		table, err := capabilityTable(cfg, app.roles, log)
		if err != nil {
			return nil, err
		}
		return service.NewCoordinator(
			service.NewSessionStore(client, cache, obs, log),
			service.NewPropertyStore(properties, storage, obs, log),
			service.NewPermissionResolver(app.roles, table, log),
			obs,
			log,
		), nil
	}

	app.shell = service.NewShell(factory, obs, log)
	app.monitor = service.NewActivityMonitor(service.MonitorConfig{
		SoftThreshold: cfg.Activity.SoftThreshold,
		HardThreshold: cfg.Activity.HardThreshold,
		CheckInterval: cfg.Activity.CheckInterval,
	}, app.shell, app.shell, app.shell, log)

	return app, nil
}

// capabilityTable returns the role table for a new coordinator. A database
// table that cannot be read fails the build, so a reload keeps the running
// coordinator rather than one with a guessed table.
func capabilityTable(cfg *config.Config, roles *mongodb.RoleRepository, log zerolog.Logger) (domain.CapabilityTable, error) {
	if cfg.RoleTableSource != config.RoleTableDatabase {
		return domain.DefaultCapabilityTable(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	table, err := roles.CapabilityTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("load role table: %w", err)
	}
	if len(table) == 0 {
		log.Warn().Msg("role table is empty, falling back to defaults")
		return domain.DefaultCapabilityTable(), nil
	}
	return table, nil
}

func (a *application) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.shell != nil {
		a.shell.Close()
	}
	if a.stopEvents != nil {
		a.stopEvents()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.mongoClient != nil {
		_ = a.mongoClient.Disconnect(ctx)
	}
}
