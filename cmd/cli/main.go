package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/seedkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/seedkeeper/internal/client/cli"
	"github.com/dmitrijs2005/seedkeeper/internal/client/client"
	"github.com/dmitrijs2005/seedkeeper/internal/client/config"
	"github.com/dmitrijs2005/seedkeeper/internal/client/services"
	"github.com/dmitrijs2005/seedkeeper/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogBackend, cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}
	if z, ok := logger.(*logging.ZapLogger); ok {
		defer func() { _ = z.Sync() }()
	}

	db, err := client.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("error initializing database: %w", err)
	}
	defer db.Close()

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return err
	}

	repos := client.NewRepositories(db)
	syncService := services.NewSyncService(db, repos.Files, backend, logger)
	store := services.NewDocumentStore(services.StoreConfig{
		ContainerRoot:  cfg.ContainerRoot,
		ContainerID:    cfg.ContainerID,
		StatusInterval: cfg.StatusCheckInterval,
		SyncInterval:   cfg.SyncInterval,
	}, backend, syncService, repos.Metadata, logger)

	return cli.NewApp(cfg, store, logger).Run(ctx)
}

func newBackend(ctx context.Context, cfg *config.Config) (client.Client, error) {
	switch cfg.Backend {
	case config.BackendS3:
		return client.NewS3Client(ctx, client.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    cfg.ContainerID,
		})
	default:
		return client.NewFolderClient(cfg.ContainerRoot), nil
	}
}
