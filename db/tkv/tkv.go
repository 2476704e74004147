package tkv

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/jellydator/ttlcache/v3"
)

type Config struct {
	Logger         *slog.Logger
	BadgerLogLevel slog.Level
	Directory      string
	InMemory       bool // badger in-memory mode, Directory is ignored
	AppCtx         context.Context
	CacheTTL       time.Duration
}

type data struct {
	store *badger.DB
	cache *ttlcache.Cache[string, string]
}

type TKVBatchEntry struct {
	Key   string
	Value string
}

type TKVBatchHandler interface {
	BatchSet(entries []TKVBatchEntry) error
	BatchDelete(keys []string) error
}

// TKVDataHandler is the flat document surface every component is written
// against. Values are opaque strings (JSON documents in practice).
type TKVDataHandler interface {
	Get(key string) (string, error)
	Set(key string, value string) error
	Delete(key string) error

	// Iterate returns the keys under prefix in byte order.
	// A limit of 0 means no limit.
	Iterate(prefix string, offset int, limit int) ([]string, error)

	// Scan returns the values under prefix in key byte order.
	Scan(prefix string) ([]string, error)
}

type TKVCacheHandler interface {
	CacheGet(key string) (string, error)
	CacheSet(key string, value string, ttl time.Duration) error
	CacheDelete(key string) error
}

// Store is what the service layer needs from a backend.
type Store interface {
	TKVDataHandler
	TKVBatchHandler
}

type TKV interface {
	TKVDataHandler
	TKVCacheHandler
	TKVBatchHandler

	Close() error
}
