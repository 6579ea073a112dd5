package main

import (
	"context"

	"github.com/cybernauts/social-graph/internal/app"
	"github.com/cybernauts/social-graph/internal/cache"
	"github.com/cybernauts/social-graph/internal/config"
	"github.com/cybernauts/social-graph/internal/db"
	"github.com/cybernauts/social-graph/internal/logger"
	"github.com/cybernauts/social-graph/internal/server"
	"github.com/cybernauts/social-graph/internal/service/graph"
	"github.com/cybernauts/social-graph/internal/service/users"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Inject logger into app context
	appCtx := app.New(database, redisCache, log)

	registrars := []server.Registrar{
		users.NewRegistrar(appCtx),
		graph.NewRegistrar(appCtx),
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr, "env", cfg.App.ENV)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
