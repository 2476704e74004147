// Package accounts loads and stores user records. Every service that needs
// a user goes through here so that lookups, admin checks and key layout stay
// in one place.
package accounts

import (
	"context"

	"github.com/InsulaLabs/sphere/db/doc"
	"github.com/InsulaLabs/sphere/db/models"
	"github.com/InsulaLabs/sphere/db/tkv"
)

type Accounts struct {
	store tkv.Store
}

func New(store tkv.Store) *Accounts {
	return &Accounts{store: store}
}

// Lookup returns the user if present. Absence is reported through found,
// not as an error.
func (a *Accounts) Lookup(ctx context.Context, username string) (*models.User, bool, error) {
	if !models.ValidUsername(username) {
		return nil, false, nil
	}
	return doc.Load[models.User](ctx, a.store, models.WithUser(username))
}

// Load is Lookup with absence turned into a NotFound error.
func (a *Accounts) Load(ctx context.Context, username string) (*models.User, error) {
	u, found, err := a.Lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrNotFound("user", username)
	}
	return u, nil
}

func (a *Accounts) Exists(ctx context.Context, username string) (bool, error) {
	_, found, err := a.Lookup(ctx, username)
	return found, err
}

func (a *Accounts) Save(ctx context.Context, u *models.User) error {
	return doc.Put(ctx, a.store, models.WithUser(u.Username), u)
}

// SaveBoth persists two users with a single batch write.
func (a *Accounts) SaveBoth(ctx context.Context, first, second *models.User) error {
	return doc.PutAll(ctx, a.store, map[string]any{
		models.WithUser(first.Username):  first,
		models.WithUser(second.Username): second,
	})
}

func (a *Accounts) Delete(ctx context.Context, username string) error {
	return doc.Delete(ctx, a.store, models.WithUser(username))
}

// RequireAdmin re-reads the user on every call; admin rights are never
// taken from a cached record.
func (a *Accounts) RequireAdmin(ctx context.Context, username string) (*models.User, error) {
	u, found, err := a.Lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	if !found || !u.IsAdmin {
		return nil, models.ErrForbidden("admin privileges required")
	}
	return u, nil
}

func (a *Accounts) ListAll(ctx context.Context) ([]*models.User, error) {
	return doc.ScanAll[models.User](ctx, a.store, models.UserPrefix)
}

func (a *Accounts) Count(ctx context.Context) (int, error) {
	return doc.Count(ctx, a.store, models.UserPrefix)
}
