package tkv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"
)

type testTKV struct {
	tkv TKV
	dir string
}

func (t *testTKV) Cleanup() error {
	t.tkv.Close()
	return os.RemoveAll(t.dir)
}

func createTestTKV(ctx context.Context) (*testTKV, error) {
	dir, err := os.MkdirTemp(os.TempDir(), "tkv_test_*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir for test: %w", err)
	}

	tkv, err := New(Config{
		Logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		})),
		BadgerLogLevel: slog.LevelError,
		Directory:      dir,
		AppCtx:         ctx,
	})
	if err != nil {
		return nil, err
	}
	return &testTKV{
		tkv: tkv,
		dir: dir,
	}, nil
}

// -------------------------- TESTS

func TestTKV_GetSetDelete(t *testing.T) {
	tkvTest, err := createTestTKV(context.Background())
	if err != nil {
		t.Fatalf("Failed to create test TKV: %v", err)
	}
	defer tkvTest.Cleanup()

	t.Run("Set and Get basic value", func(t *testing.T) {
		key := "user:alice"
		value := `{"username":"alice"}`
		if err := tkvTest.tkv.Set(key, value); err != nil {
			t.Errorf("Set() error = %v, wantErr nil", err)
		}

		retrievedVal, err := tkvTest.tkv.Get(key)
		if err != nil {
			t.Errorf("Get() error = %v, wantErr nil", err)
		}
		if retrievedVal != value {
			t.Errorf("Get() got = %v, want %v", retrievedVal, value)
		}
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		key := "user:nobody"
		_, err := tkvTest.tkv.Get(key)
		var keyNotFound *ErrKeyNotFound
		if !errors.As(err, &keyNotFound) {
			t.Fatalf("Get() expected ErrKeyNotFound, got %T", err)
		}
		if keyNotFound.Key != key {
			t.Errorf("ErrKeyNotFound.Key got = %s, want %s", keyNotFound.Key, key)
		}
		if !IsErrKeyNotFound(err) {
			t.Errorf("IsErrKeyNotFound() = false for %v", err)
		}
	})

	t.Run("Delete existing key", func(t *testing.T) {
		key := "post:gone"
		if err := tkvTest.tkv.Set(key, "{}"); err != nil {
			t.Fatalf("Setup: Set() error = %v", err)
		}
		if err := tkvTest.tkv.Delete(key); err != nil {
			t.Errorf("Delete() error = %v, wantErr nil", err)
		}
		if _, err := tkvTest.tkv.Get(key); !IsErrKeyNotFound(err) {
			t.Errorf("Get() after Delete expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("Delete non-existent key", func(t *testing.T) {
		if err := tkvTest.tkv.Delete("post:never"); err != nil {
			t.Errorf("Delete() of non-existent key error = %v, wantErr nil", err)
		}
	})
}

func TestTKV_IterateAndScan(t *testing.T) {
	tkvTest, err := createTestTKV(context.Background())
	if err != nil {
		t.Fatalf("Failed to create test TKV: %v", err)
	}
	defer tkvTest.Cleanup()

	keys := []string{"notification:bob:1", "notification:bob:2", "notification:bob:3", "notification:bobby:1"}
	values := []string{"a", "b", "c", "other"}
	for i, key := range keys {
		if err := tkvTest.tkv.Set(key, values[i]); err != nil {
			t.Fatalf("Setup: Set() error for key %s: %v", key, err)
		}
	}

	tests := []struct {
		name   string
		prefix string
		offset int
		limit  int
		want   []string
	}{
		{"prefix only", "notification:bob:", 0, 0, []string{"notification:bob:1", "notification:bob:2", "notification:bob:3"}},
		{"offset", "notification:bob:", 1, 0, []string{"notification:bob:2", "notification:bob:3"}},
		{"limit", "notification:bob:", 0, 2, []string{"notification:bob:1", "notification:bob:2"}},
		{"offset and limit", "notification:bob:", 1, 1, []string{"notification:bob:2"}},
		{"non-matching prefix", "clip:", 0, 0, []string{}},
	}

	for _, tt := range tests {
		t.Run("Iterate "+tt.name, func(t *testing.T) {
			got, err := tkvTest.tkv.Iterate(tt.prefix, tt.offset, tt.limit)
			if err != nil {
				t.Fatalf("Iterate() error = %v, wantErr nil", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Iterate() got = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("Scan returns values in key order", func(t *testing.T) {
		got, err := tkvTest.tkv.Scan("notification:bob:")
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		want := []string{"a", "b", "c"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Scan() got = %v, want %v", got, want)
		}
	})
}

func TestTKV_Cache(t *testing.T) {
	tkvTest, err := createTestTKV(context.Background())
	if err != nil {
		t.Fatalf("Failed to create test TKV: %v", err)
	}
	defer tkvTest.Cleanup()

	t.Run("Set and Get", func(t *testing.T) {
		if err := tkvTest.tkv.CacheSet("session:abc", "alice", 0); err != nil {
			t.Fatalf("CacheSet() error = %v", err)
		}
		got, err := tkvTest.tkv.CacheGet("session:abc")
		if err != nil || got != "alice" {
			t.Errorf("CacheGet() = %q, %v; want alice, nil", got, err)
		}
	})

	t.Run("Expired entry is a miss", func(t *testing.T) {
		if err := tkvTest.tkv.CacheSet("session:short", "bob", 10*time.Millisecond); err != nil {
			t.Fatalf("CacheSet() error = %v", err)
		}
		time.Sleep(30 * time.Millisecond)
		if _, err := tkvTest.tkv.CacheGet("session:short"); !IsErrKeyNotFound(err) {
			t.Errorf("CacheGet() after expiry expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		tkvTest.tkv.CacheSet("session:del", "carol", 0)
		tkvTest.tkv.CacheDelete("session:del")
		if _, err := tkvTest.tkv.CacheGet("session:del"); !IsErrKeyNotFound(err) {
			t.Errorf("CacheGet() after delete expected ErrKeyNotFound, got %v", err)
		}
	})
}

func TestTKV_Batch(t *testing.T) {
	tkvTest, err := createTestTKV(context.Background())
	if err != nil {
		t.Fatalf("Failed to create test TKV: %v", err)
	}
	defer tkvTest.Cleanup()

	entries := []TKVBatchEntry{
		{Key: "user:a", Value: "1"},
		{Key: "", Value: "skipped"},
		{Key: "user:b", Value: "2"},
	}
	if err := tkvTest.tkv.BatchSet(entries); err != nil {
		t.Fatalf("BatchSet() error = %v", err)
	}

	keys, err := tkvTest.tkv.Iterate("user:", 0, 0)
	if err != nil {
		t.Fatalf("Iterate() error = %v", err)
	}
	sort.Strings(keys)
	if !reflect.DeepEqual(keys, []string{"user:a", "user:b"}) {
		t.Errorf("after BatchSet got keys %v", keys)
	}

	if err := tkvTest.tkv.BatchDelete([]string{"user:a", "user:b", ""}); err != nil {
		t.Fatalf("BatchDelete() error = %v", err)
	}
	keys, _ = tkvTest.tkv.Iterate("user:", 0, 0)
	if len(keys) != 0 {
		t.Errorf("after BatchDelete expected no keys, got %v", keys)
	}
}

func TestTKV_InMemory(t *testing.T) {
	store, err := New(Config{
		Logger:         slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})),
		BadgerLogLevel: slog.LevelError,
		InMemory:       true,
		AppCtx:         context.Background(),
	})
	if err != nil {
		t.Fatalf("New() in-memory error = %v", err)
	}
	defer store.Close()

	if err := store.Set("k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, err := store.Get("k"); err != nil || v != "v" {
		t.Errorf("Get() = %q, %v", v, err)
	}
}

func TestTKV_InMemoryValueLimit(t *testing.T) {
	store, err := New(Config{
		Logger:         slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})),
		BadgerLogLevel: slog.LevelError,
		InMemory:       true,
		AppCtx:         context.Background(),
	})
	if err != nil {
		t.Fatalf("New() in-memory error = %v", err)
	}
	defer store.Close()

	big := strings.Repeat("x", MaxInMemoryValueSize+1)
	err = store.Set("upload:big", big)
	var tooLarge *ErrValueTooLarge
	if !errors.As(err, &tooLarge) {
		t.Fatalf("Set() error = %v, want ErrValueTooLarge", err)
	}
	if tooLarge.Size != len(big) || tooLarge.Limit != MaxInMemoryValueSize {
		t.Errorf("ErrValueTooLarge = %+v", tooLarge)
	}
	if strings.Contains(err.Error(), "xxxx") {
		t.Errorf("error message leaks the value: %.80s", err.Error())
	}

	err = store.BatchSet([]TKVBatchEntry{{Key: "upload:big", Value: big}})
	if !errors.As(err, &tooLarge) {
		t.Errorf("BatchSet() error = %v, want ErrValueTooLarge", err)
	}

	if err := store.Set("upload:fits", strings.Repeat("x", MaxInMemoryValueSize/2)); err != nil {
		t.Errorf("Set() under the limit error = %v", err)
	}
}

func TestTKV_DiskStoreTakesLargeValues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tkvTest, err := createTestTKV(ctx)
	if err != nil {
		t.Fatalf("createTestTKV() error = %v", err)
	}
	defer tkvTest.Cleanup()

	big := strings.Repeat("y", 4*MaxInMemoryValueSize)
	if err := tkvTest.tkv.Set("upload:big", big); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := tkvTest.tkv.Get("upload:big")
	if err != nil || len(got) != len(big) {
		t.Errorf("Get() len = %d, err = %v", len(got), err)
	}
}
