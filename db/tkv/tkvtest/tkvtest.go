// Package tkvtest provides throwaway in-memory stores for tests.
package tkvtest

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/InsulaLabs/sphere/db/tkv"
	"github.com/stretchr/testify/require"
)

// Logger is quiet enough not to drown test output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// New opens an in-memory badger store that is closed when t finishes.
func New(t testing.TB) tkv.TKV {
	t.Helper()
	store, err := tkv.New(tkv.Config{
		Logger:         Logger(),
		BadgerLogLevel: slog.LevelError,
		InMemory:       true,
		AppCtx:         context.Background(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// NewDisk opens a badger store in a temporary directory. Unlike New it has
// no per-value size ceiling.
func NewDisk(t testing.TB) tkv.TKV {
	t.Helper()
	store, err := tkv.New(tkv.Config{
		Logger:         Logger(),
		BadgerLogLevel: slog.LevelError,
		Directory:      t.TempDir(),
		AppCtx:         context.Background(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}
