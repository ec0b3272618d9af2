package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cppla/blogpub/config"
	"github.com/cppla/blogpub/events"
	"github.com/cppla/blogpub/models"
	"github.com/cppla/blogpub/repositories"
	"github.com/cppla/blogpub/routes"
	"github.com/cppla/blogpub/utils"
)

// uploads younger than this may still belong to a request in flight
const orphanMinAge = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	loc, _ := cfg.Location()
	models.SetLocation(loc)

	ctx := context.Background()

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		utils.Sugar.Fatalf("database: %v", err)
	}
	defer closeStore()

	rc, err := utils.NewRedisClient(ctx, cfg)
	if err != nil {
		utils.Sugar.Warnf("redis unavailable, rate limiting per process: %v", err)
	}
	if rc != nil {
		defer rc.Close()
		if cfg.CacheTTLSeconds > 0 {
			repo = repositories.NewCachedPublicationRepository(repo, rc, time.Duration(cfg.CacheTTLSeconds)*time.Second)
		}
	}

	publisher := openPublisher(cfg)
	defer publisher.Close()

	sweeper, err := utils.StartUploadSweeper(cfg.UploadSweepSpec, cfg.UploadDir(), orphanMinAge, repo.ImageInUse)
	if err != nil {
		utils.Sugar.Fatalf("upload sweeper: %v", err)
	}
	if sweeper != nil {
		defer sweeper.Stop()
	}

	r := routes.SetupRouter(routes.Dependencies{
		Config:    cfg,
		Repo:      repo,
		Publisher: publisher,
		Redis:     rc,
	})

	utils.Sugar.Infof("Starting server on port %s (graceful), store=%s", cfg.AppPort, cfg.DBDriver)
	if err := utils.GraceServer(ctx, ":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Errorf("server stopped with error: %v", err)
	}
}

// openStore connects the configured database and returns its repository with
// a close function for shutdown.
func openStore(ctx context.Context, cfg config.AppConfig) (repositories.PublicationRepository, func(), error) {
	if cfg.DBDriver == config.DriverMongo {
		client, err := config.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		repo := repositories.NewMongoPublicationRepository(client.Database(cfg.DBName))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return repo, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}, nil
	}

	db, err := config.InitDatabase(cfg, &models.Publication{}, &models.Comment{})
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewGORMPublicationRepository(db), func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}, nil
}

func openPublisher(cfg config.AppConfig) events.Publisher {
	if cfg.RabbitMQURL == "" {
		return events.NoopPublisher{}
	}
	p, err := events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	if err != nil {
		utils.Sugar.Warnf("event publishing disabled: %v", err)
		return events.NoopPublisher{}
	}
	return p
}
