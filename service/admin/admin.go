// Package admin holds the privileged operations. Each one re-checks the
// caller's admin flag against a freshly read record.
package admin

import (
	"context"
	"log/slog"

	"github.com/InsulaLabs/sphere/db/doc"
	"github.com/InsulaLabs/sphere/db/models"
	"github.com/InsulaLabs/sphere/db/tkv"
	"github.com/InsulaLabs/sphere/service/accounts"
)

type SessionRevoker interface {
	RevokeAll(ctx context.Context, username string) error
}

type Broadcaster interface {
	Broadcast(ctx context.Context, adminUsername, message string) (int, error)
}

type Config struct {
	Logger      *slog.Logger
	Store       tkv.Store
	Accounts    *accounts.Accounts
	Locker      *doc.Locker
	Sessions    SessionRevoker
	Broadcaster Broadcaster
}

type Admin struct {
	logger      *slog.Logger
	store       tkv.Store
	accounts    *accounts.Accounts
	locker      *doc.Locker
	sessions    SessionRevoker
	broadcaster Broadcaster
}

func New(cfg Config) *Admin {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Locker == nil {
		cfg.Locker = doc.NewLocker(0)
	}
	return &Admin{
		logger:      cfg.Logger.WithGroup("admin"),
		store:       cfg.Store,
		accounts:    cfg.Accounts,
		locker:      cfg.Locker,
		sessions:    cfg.Sessions,
		broadcaster: cfg.Broadcaster,
	}
}

// VerifyUser flips the target's verified badge and returns the new record.
func (a *Admin) VerifyUser(ctx context.Context, adminUsername, target string) (*models.User, error) {
	if _, err := a.accounts.RequireAdmin(ctx, adminUsername); err != nil {
		return nil, err
	}

	unlock := a.locker.Lock(models.WithUser(target))
	defer unlock()
	user, err := a.accounts.Load(ctx, target)
	if err != nil {
		return nil, err
	}
	user.IsVerified = !user.IsVerified
	if err := a.accounts.Save(ctx, user); err != nil {
		return nil, err
	}
	a.logger.Info("verification toggled", "admin", adminUsername, "target", target, "verified", user.IsVerified)
	return user.Sanitized(), nil
}

// DeleteUser removes the user record and its sessions. Posts, clips, tracks
// and notifications written by the user stay in place.
func (a *Admin) DeleteUser(ctx context.Context, adminUsername, target string) error {
	if _, err := a.accounts.RequireAdmin(ctx, adminUsername); err != nil {
		return err
	}

	unlock := a.locker.Lock(models.WithUser(target))
	defer unlock()
	exists, err := a.accounts.Exists(ctx, target)
	if err != nil {
		return err
	}
	if !exists {
		return models.ErrNotFound("user", target)
	}
	if err := a.accounts.Delete(ctx, target); err != nil {
		return err
	}
	if a.sessions != nil {
		if err := a.sessions.RevokeAll(ctx, target); err != nil {
			a.logger.Warn("could not revoke sessions of deleted user", "target", target, "error", err)
		}
	}
	a.logger.Info("user deleted", "admin", adminUsername, "target", target)
	return nil
}

func (a *Admin) Stats(ctx context.Context, adminUsername string) (*models.Stats, error) {
	if _, err := a.accounts.RequireAdmin(ctx, adminUsername); err != nil {
		return nil, err
	}

	users, err := a.accounts.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	stats := &models.Stats{TotalUsers: len(users)}
	for _, u := range users {
		if u.IsOnline {
			stats.OnlineUsers++
		}
	}

	counts := []struct {
		prefix string
		dst    *int
	}{
		{models.PostPrefix, &stats.TotalPosts},
		{models.ClipPrefix, &stats.TotalClips},
		{models.TrackPrefix, &stats.TotalTracks},
	}
	for _, c := range counts {
		n, err := doc.Count(ctx, a.store, c.prefix)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return stats, nil
}

func (a *Admin) Broadcast(ctx context.Context, adminUsername, message string) (int, error) {
	return a.broadcaster.Broadcast(ctx, adminUsername, message)
}
