package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/InsulaLabs/sphere/config"
	"github.com/InsulaLabs/sphere/db/rkv"
	"github.com/InsulaLabs/sphere/db/tkv"
)

// openStore opens the document store selected by storage.backend.
func openStore(ctx context.Context, logger *slog.Logger, cfg *config.Config, level slog.Level) (tkv.TKV, error) {
	switch cfg.Storage.Backend {
	case config.StorageRedis:
		logger.Info("Opening redis store")
		return rkv.New(rkv.Config{
			Logger:    logger,
			URL:       cfg.Storage.RedisURL,
			AppCtx:    ctx,
			CacheTTL:  cfg.Storage.CacheTTL,
			Namespace: "sphere:",
		})
	case config.StorageBadger:
		if !cfg.Storage.InMemory {
			if err := os.MkdirAll(cfg.DataDir, os.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
			}
		}
		logger.Info("Opening badger store", "dir", cfg.DataDir, "in_memory", cfg.Storage.InMemory)
		return tkv.New(tkv.Config{
			Logger:         logger,
			BadgerLogLevel: level,
			Directory:      cfg.DataDir,
			InMemory:       cfg.Storage.InMemory,
			AppCtx:         ctx,
			CacheTTL:       cfg.Storage.CacheTTL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
