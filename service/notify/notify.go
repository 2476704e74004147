// Package notify writes per-recipient notification records.
package notify

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/InsulaLabs/sphere/db/doc"
	"github.com/InsulaLabs/sphere/db/models"
	"github.com/InsulaLabs/sphere/db/tkv"
	"github.com/InsulaLabs/sphere/service/accounts"
	"github.com/google/uuid"
)

const systemSender = "system"

type Notifier struct {
	logger   *slog.Logger
	store    tkv.Store
	accounts *accounts.Accounts
	now      func() time.Time
}

func New(logger *slog.Logger, store tkv.Store, accts *accounts.Accounts) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		logger:   logger.WithGroup("notify"),
		store:    store,
		accounts: accts,
		now:      time.Now,
	}
}

func (n *Notifier) build(kind models.NotificationType, from, message, postID string) (*models.Notification, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	return &models.Notification{
		ID:        id.String(),
		Type:      kind,
		From:      from,
		PostID:    postID,
		Message:   message,
		Timestamp: n.now().UnixMilli(),
	}, nil
}

// Emit records a notification for recipient. It never fails the caller;
// problems are logged and dropped.
func (n *Notifier) Emit(ctx context.Context, recipient string, kind models.NotificationType, from, message, postID string) {
	note, err := n.build(kind, from, message, postID)
	if err == nil {
		err = doc.Put(ctx, n.store, models.WithNotification(recipient, note.ID), note)
	}
	if err != nil {
		n.logger.Warn("dropping notification", "recipient", recipient, "type", kind, "error", err)
	}
}

// Broadcast sends a system notification to every user and returns how many
// were written. The sender must be an admin at the time of the call.
func (n *Notifier) Broadcast(ctx context.Context, adminUsername, message string) (int, error) {
	if _, err := n.accounts.RequireAdmin(ctx, adminUsername); err != nil {
		return 0, err
	}
	if message == "" {
		return 0, models.ErrInvalidInput("message is required")
	}
	users, err := n.accounts.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	docs := make(map[string]any, len(users))
	for _, u := range users {
		note, err := n.build(models.NotificationSystem, systemSender, message, "")
		if err != nil {
			return 0, err
		}
		docs[models.WithNotification(u.Username, note.ID)] = note
	}
	if err := doc.PutAll(ctx, n.store, docs); err != nil {
		return 0, err
	}
	n.logger.Info("broadcast sent", "admin", adminUsername, "recipients", len(docs))
	return len(docs), nil
}

// List returns username's notifications, newest first.
func (n *Notifier) List(ctx context.Context, username string) ([]*models.Notification, error) {
	if !models.ValidUsername(username) {
		return []*models.Notification{}, nil
	}
	notes, err := doc.ScanAll[models.Notification](ctx, n.store, models.WithNotifications(username))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Timestamp > notes[j].Timestamp
	})
	return notes, nil
}
