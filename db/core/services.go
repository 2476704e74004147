package core

import (
	"log/slog"

	"github.com/InsulaLabs/sphere/config"
	"github.com/InsulaLabs/sphere/db/doc"
	"github.com/InsulaLabs/sphere/db/tkv"
	"github.com/InsulaLabs/sphere/service/accounts"
	"github.com/InsulaLabs/sphere/service/admin"
	"github.com/InsulaLabs/sphere/service/content"
	"github.com/InsulaLabs/sphere/service/identity"
	"github.com/InsulaLabs/sphere/service/notify"
	"github.com/InsulaLabs/sphere/service/search"
	"github.com/InsulaLabs/sphere/service/upload"
)

// NewServices wires every service onto one store. They share a single
// locker so that a user record is never written by two services at once.
func NewServices(logger *slog.Logger, store tkv.TKV, cfg *config.Config) (Services, error) {
	locker := doc.NewLocker(0)
	accts := accounts.New(store)

	ident, err := identity.New(identity.Config{
		Logger:           logger,
		Store:            store,
		Accounts:         accts,
		Locker:           locker,
		Secret:           cfg.InstanceSecret,
		BcryptCost:       cfg.Security.BcryptCost,
		MaxLoginFailures: cfg.Security.MaxLoginFailures,
		LoginBlock:       cfg.Security.LoginBlockDuration,
		FailureRetention: cfg.Security.LoginFailureRetention,
		SessionCacheTTL:  cfg.Storage.CacheTTL,
	})
	if err != nil {
		return Services{}, err
	}

	notifier := notify.New(logger, store, accts)

	return Services{
		Identity: ident,
		Content: content.New(content.Config{
			Logger:   logger,
			Store:    store,
			Accounts: accts,
			Locker:   locker,
			Notifier: notifier,
		}),
		Notify: notifier,
		Search: search.New(store),
		Admin: admin.New(admin.Config{
			Logger:      logger,
			Store:       store,
			Accounts:    accts,
			Locker:      locker,
			Sessions:    ident,
			Broadcaster: notifier,
		}),
		Upload: upload.New(logger, store, cfg.Uploads.MaxBytes),
	}, nil
}
