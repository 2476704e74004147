package doc

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/InsulaLabs/sphere/db/tkv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

func newStore(t *testing.T) tkv.TKV {
	t.Helper()
	s, err := tkv.New(tkv.Config{
		Logger:         slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})),
		BadgerLogLevel: slog.LevelError,
		InMemory:       true,
		AppCtx:         context.Background(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadPutDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	got, found, err := Load[note](ctx, s, "note:1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)

	require.NoError(t, Put(ctx, s, "note:1", note{ID: "1", Body: "hi"}))
	got, found, err = Load[note](ctx, s, "note:1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hi", got.Body)

	require.NoError(t, Delete(ctx, s, "note:1"))
	_, found, err = Load[note](ctx, s, "note:1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoadUndecodable(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Set("note:bad", "not json"))

	_, _, err := Load[note](context.Background(), s, "note:bad")
	assert.Error(t, err)
}

func TestCancelledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Put(ctx, s, "note:1", note{ID: "1"})
	assert.ErrorIs(t, err, context.Canceled)

	_, _, err = Load[note](ctx, s, "note:1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanAllAndCount(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, PutAll(ctx, s, map[string]any{
		"note:a": note{ID: "a"},
		"note:b": note{ID: "b"},
		"other":  note{ID: "x"},
	}))
	require.NoError(t, s.Set("note:c", "garbage"))

	notes, err := ScanAll[note](ctx, s, "note:")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "a", notes[0].ID)
	assert.Equal(t, "b", notes[1].ID)

	n, err := Count(ctx, s, "note:")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestLockerSerializes(t *testing.T) {
	l := NewLocker(4)
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("user:a", "user:b", "user:a")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}
