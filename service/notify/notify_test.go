package notify

import (
	"context"
	"testing"
	"time"

	"github.com/InsulaLabs/sphere/db/models"
	"github.com/InsulaLabs/sphere/db/tkv/tkvtest"
	"github.com/InsulaLabs/sphere/service/accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T) (*Notifier, *accounts.Accounts) {
	t.Helper()
	store := tkvtest.New(t)
	accts := accounts.New(store)
	n := New(tkvtest.Logger(), store, accts)
	clock := time.UnixMilli(1_700_000_000_000)
	n.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	for _, u := range []*models.User{
		{Username: "root", IsAdmin: true},
		{Username: "alice"},
		{Username: "bob"},
		{Username: "bobby"},
	} {
		require.NoError(t, accts.Save(context.Background(), u))
	}
	return n, accts
}

func TestEmitAndList(t *testing.T) {
	ctx := context.Background()
	n, _ := newTestNotifier(t)

	n.Emit(ctx, "bob", models.NotificationFollow, "alice", "alice started following you", "")
	n.Emit(ctx, "bob", models.NotificationLike, "alice", "alice liked your post", "p1")
	n.Emit(ctx, "bobby", models.NotificationLike, "alice", "not for bob", "p2")

	notes, err := n.List(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, models.NotificationLike, notes[0].Type)
	assert.Equal(t, "p1", notes[0].PostID)
	assert.Equal(t, models.NotificationFollow, notes[1].Type)
	assert.False(t, notes[0].Read)

	empty, err := n.List(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEmitSwallowsFailures(t *testing.T) {
	n, _ := newTestNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NotPanics(t, func() {
		n.Emit(ctx, "bob", models.NotificationLike, "alice", "lost", "")
	})
	notes, err := n.List(context.Background(), "bob")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestBroadcast(t *testing.T) {
	ctx := context.Background()
	n, accts := newTestNotifier(t)

	_, err := n.Broadcast(ctx, "alice", "hi all")
	assert.True(t, models.IsKind(err, models.KindForbidden))

	_, err = n.Broadcast(ctx, "ghost", "hi all")
	assert.True(t, models.IsKind(err, models.KindForbidden))

	count, err := n.Broadcast(ctx, "root", "maintenance tonight")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	for _, name := range []string{"root", "alice", "bob", "bobby"} {
		notes, err := n.List(ctx, name)
		require.NoError(t, err)
		require.Len(t, notes, 1, name)
		assert.Equal(t, models.NotificationSystem, notes[0].Type)
		assert.Equal(t, "system", notes[0].From)
		assert.Equal(t, "maintenance tonight", notes[0].Message)
	}

	t.Run("revoked admin is refused", func(t *testing.T) {
		root, err := accts.Load(ctx, "root")
		require.NoError(t, err)
		root.IsAdmin = false
		require.NoError(t, accts.Save(ctx, root))

		_, err = n.Broadcast(ctx, "root", "again")
		assert.True(t, models.IsKind(err, models.KindForbidden))
	})
}
