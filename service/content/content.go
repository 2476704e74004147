// Package content owns posts, comments, likes, follows, clips and tracks.
package content

import (
	"context"
	"log/slog"
	"time"

	"github.com/InsulaLabs/sphere/db/doc"
	"github.com/InsulaLabs/sphere/db/models"
	"github.com/InsulaLabs/sphere/db/tkv"
	"github.com/InsulaLabs/sphere/service/accounts"
	"github.com/google/uuid"
)

// Notifier receives the side effects of content mutations. Implementations
// must not fail the caller.
type Notifier interface {
	Emit(ctx context.Context, recipient string, kind models.NotificationType, from, message, postID string)
}

type Config struct {
	Logger   *slog.Logger
	Store    tkv.Store
	Accounts *accounts.Accounts
	Locker   *doc.Locker
	Notifier Notifier
}

type Service struct {
	logger   *slog.Logger
	accounts *accounts.Accounts
	locker   *doc.Locker
	notifier Notifier
	now      func() time.Time

	posts  *Collection[models.Post, *models.Post]
	clips  *Collection[models.Clip, *models.Clip]
	tracks *Collection[models.Track, *models.Track]
}

func New(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Locker == nil {
		cfg.Locker = doc.NewLocker(0)
	}
	return &Service{
		logger:   cfg.Logger.WithGroup("content"),
		accounts: cfg.Accounts,
		locker:   cfg.Locker,
		notifier: cfg.Notifier,
		now:      time.Now,
		posts:    newCollection[models.Post]("post", models.PostPrefix, cfg.Store, cfg.Locker),
		clips:    newCollection[models.Clip]("clip", models.ClipPrefix, cfg.Store, cfg.Locker),
		tracks:   newCollection[models.Track]("track", models.TrackPrefix, cfg.Store, cfg.Locker),
	}
}

func (s *Service) newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Service) notify(ctx context.Context, recipient string, kind models.NotificationType, from, message, postID string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Emit(ctx, recipient, kind, from, message, postID)
}

func (s *Service) requireUser(ctx context.Context, username string) (*models.User, error) {
	return s.accounts.Load(ctx, username)
}
