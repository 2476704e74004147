// Package rkv is a redis backed implementation of tkv.TKV for deployments
// that keep their documents in an external redis instead of the embedded
// badger store.
package rkv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/InsulaLabs/sphere/db/tkv"
	"github.com/redis/go-redis/v9"
)

const (
	cachePrefix  = "cache:"
	scanPageSize = 256
)

type Config struct {
	Logger   *slog.Logger
	URL      string // redis://[:password@]host:port/db
	AppCtx   context.Context
	CacheTTL time.Duration

	// Namespace is prepended to every key so that several deployments can
	// share one redis database.
	Namespace string
}

type rkv struct {
	logger          *slog.Logger
	appCtx          context.Context
	rdb             *redis.Client
	ns              string
	defaultCacheTTL time.Duration
}

var _ tkv.TKV = &rkv{}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func New(config Config) (tkv.TKV, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.AppCtx == nil {
		config.AppCtx = context.Background()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = tkv.DefaultCacheTTL
	}

	opt, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, &tkv.ErrInternal{Err: fmt.Errorf("invalid redis url: %w", err)}
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(config.AppCtx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, &tkv.ErrInternal{Err: fmt.Errorf("redis ping failed: %w", err)}
	}

	return &rkv{
		logger:          config.Logger.WithGroup("rkv"),
		appCtx:          config.AppCtx,
		rdb:             rdb,
		ns:              config.Namespace,
		defaultCacheTTL: config.CacheTTL,
	}, nil
}

func (r *rkv) key(k string) string {
	return r.ns + k
}

func (r *rkv) Close() error {
	if err := r.rdb.Close(); err != nil {
		r.logger.Error("error closing redis client", "error", err)
		return &tkv.ErrInternal{Err: err}
	}
	return nil
}

func (r *rkv) Get(key string) (string, error) {
	val, err := r.rdb.Get(r.appCtx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", &tkv.ErrKeyNotFound{Key: key}
	}
	if err != nil {
		return "", &tkv.ErrInternal{Err: err}
	}
	return val, nil
}

func (r *rkv) Set(key string, value string) error {
	if err := r.rdb.Set(r.appCtx, r.key(key), value, 0).Err(); err != nil {
		return &tkv.ErrInternal{Err: err}
	}
	return nil
}

func (r *rkv) Delete(key string) error {
	if err := r.rdb.Del(r.appCtx, r.key(key)).Err(); err != nil {
		return &tkv.ErrInternal{Err: err}
	}
	return nil
}

// scanKeys collects every namespaced key under prefix, sorted, with the
// namespace stripped. SCAN gives no ordering guarantee so the sort keeps
// offset/limit stable across calls.
func (r *rkv) scanKeys(prefix string) ([]string, error) {
	match := globEscaper.Replace(r.key(prefix)) + "*"
	keys := []string{}
	iter := r.rdb.Scan(r.appCtx, 0, match, scanPageSize).Iterator()
	for iter.Next(r.appCtx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.ns))
	}
	if err := iter.Err(); err != nil {
		return nil, &tkv.ErrInternal{Err: err}
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *rkv) Iterate(prefix string, offset int, limit int) ([]string, error) {
	keys, err := r.scanKeys(prefix)
	if err != nil {
		return nil, err
	}
	if offset >= len(keys) {
		return []string{}, nil
	}
	keys = keys[offset:]
	if limit > 0 && limit < len(keys) {
		keys = keys[:limit]
	}
	return keys, nil
}

func (r *rkv) Scan(prefix string) ([]string, error) {
	keys, err := r.scanKeys(prefix)
	if err != nil {
		return nil, err
	}
	values := []string{}
	if len(keys) == 0 {
		return values, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	raw, err := r.rdb.MGet(r.appCtx, full...).Result()
	if err != nil {
		return nil, &tkv.ErrInternal{Err: err}
	}
	for _, v := range raw {
		// deleted between SCAN and MGET
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		values = append(values, s)
	}
	return values, nil
}

// -------------------------- CACHE

func (r *rkv) CacheGet(key string) (string, error) {
	return r.Get(cachePrefix + key)
}

func (r *rkv) CacheSet(key string, value string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.defaultCacheTTL
	}
	if err := r.rdb.Set(r.appCtx, r.key(cachePrefix+key), value, ttl).Err(); err != nil {
		return &tkv.ErrInternal{Err: err}
	}
	return nil
}

func (r *rkv) CacheDelete(key string) error {
	return r.Delete(cachePrefix + key)
}

// -------------------------- BATCH

func (r *rkv) BatchSet(entries []tkv.TKVBatchEntry) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := r.rdb.TxPipelined(r.appCtx, func(pipe redis.Pipeliner) error {
		for _, entry := range entries {
			if entry.Key == "" {
				r.logger.Warn("BatchSet encountered an entry with an empty key, skipping.")
				continue
			}
			pipe.Set(r.appCtx, r.key(entry.Key), entry.Value, 0)
		}
		return nil
	})
	if err != nil {
		return &tkv.ErrInternal{Err: fmt.Errorf("failed to exec batch set: %w", err)}
	}
	return nil
}

func (r *rkv) BatchDelete(keys []string) error {
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		full = append(full, r.key(k))
	}
	if len(full) == 0 {
		return nil
	}
	if err := r.rdb.Del(r.appCtx, full...).Err(); err != nil {
		return &tkv.ErrInternal{Err: fmt.Errorf("failed to exec batch delete: %w", err)}
	}
	return nil
}
