package content

import (
	"context"
	"slices"
	"sort"

	"github.com/InsulaLabs/sphere/db/doc"
	"github.com/InsulaLabs/sphere/db/models"
	"github.com/InsulaLabs/sphere/db/tkv"
)

// likeable ties a document type to the pointer that carries its methods.
type likeable[T any] interface {
	*T
	models.Likeable
}

// Collection is the storage and like logic shared by posts, clips and tracks.
type Collection[T any, PT likeable[T]] struct {
	kind   string
	prefix string
	store  tkv.Store
	locker *doc.Locker
}

func newCollection[T any, PT likeable[T]](kind, prefix string, store tkv.Store, locker *doc.Locker) *Collection[T, PT] {
	return &Collection[T, PT]{kind: kind, prefix: prefix, store: store, locker: locker}
}

func (c *Collection[T, PT]) key(id string) string {
	return c.prefix + id
}

func (c *Collection[T, PT]) Put(ctx context.Context, item PT) error {
	return doc.Put(ctx, c.store, c.key(item.EntityID()), item)
}

func (c *Collection[T, PT]) Lookup(ctx context.Context, id string) (PT, bool, error) {
	if id == "" {
		return nil, false, nil
	}
	v, found, err := doc.Load[T](ctx, c.store, c.key(id))
	return PT(v), found, err
}

func (c *Collection[T, PT]) Get(ctx context.Context, id string) (PT, error) {
	item, found, err := c.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrNotFound(c.kind, id)
	}
	return item, nil
}

// List returns every item, newest first.
func (c *Collection[T, PT]) List(ctx context.Context) ([]PT, error) {
	all, err := doc.ScanAll[T](ctx, c.store, c.prefix)
	if err != nil {
		return nil, err
	}
	out := make([]PT, len(all))
	for i, v := range all {
		out[i] = PT(v)
	}
	sortNewestFirst(out)
	return out, nil
}

func (c *Collection[T, PT]) Delete(ctx context.Context, id string) error {
	return doc.Delete(ctx, c.store, c.key(id))
}

// Update loads id, applies fn and writes the result back if fn reports a
// change. The whole cycle runs under the document's lock.
func (c *Collection[T, PT]) Update(ctx context.Context, id string, fn func(PT) (bool, error)) (PT, error) {
	unlock := c.locker.Lock(c.key(id))
	defer unlock()

	item, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	changed, err := fn(item)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := c.Put(ctx, item); err != nil {
			return nil, err
		}
	}
	return item, nil
}

// Like adds username to the likes set. added is false when it was already
// there.
func (c *Collection[T, PT]) Like(ctx context.Context, id, username string) (item PT, added bool, err error) {
	item, err = c.Update(ctx, id, func(v PT) (bool, error) {
		added = addMember(v.LikeSet(), username)
		return added, nil
	})
	return item, added, err
}

func (c *Collection[T, PT]) Unlike(ctx context.Context, id, username string) (PT, error) {
	return c.Update(ctx, id, func(v PT) (bool, error) {
		return removeMember(v.LikeSet(), username), nil
	})
}

// Toggle flips username's like and reports the resulting state.
func (c *Collection[T, PT]) Toggle(ctx context.Context, id, username string) (item PT, liked bool, err error) {
	item, err = c.Update(ctx, id, func(v PT) (bool, error) {
		if removeMember(v.LikeSet(), username) {
			liked = false
			return true, nil
		}
		liked = addMember(v.LikeSet(), username)
		return true, nil
	})
	return item, liked, err
}

func (c *Collection[T, PT]) Count(ctx context.Context) (int, error) {
	return doc.Count(ctx, c.store, c.prefix)
}

func sortNewestFirst[PT models.Likeable](items []PT) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp() > items[j].Timestamp()
	})
}

func addMember(set *[]string, name string) bool {
	if slices.Contains(*set, name) {
		return false
	}
	*set = append(*set, name)
	return true
}

func removeMember(set *[]string, name string) bool {
	before := len(*set)
	*set = slices.DeleteFunc(*set, func(s string) bool { return s == name })
	if *set == nil {
		*set = []string{}
	}
	return len(*set) != before
}
