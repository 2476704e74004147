// Package doc stores JSON documents on top of a tkv store.
package doc

import (
	"context"
	"encoding/json"

	"github.com/InsulaLabs/sphere/db/tkv"
	"github.com/pkg/errors"
)

// Load decodes the document at key into a fresh T. A missing key is not an
// error: found is false and the returned value is nil.
func Load[T any](ctx context.Context, s tkv.TKVDataHandler, key string) (*T, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	raw, err := s.Get(key)
	if err != nil {
		if tkv.IsErrKeyNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "get %s", key)
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false, errors.Wrapf(err, "decode %s", key)
	}
	return &v, true, nil
}

func Put(ctx context.Context, s tkv.TKVDataHandler, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return errors.Wrapf(s.Set(key, string(raw)), "set %s", key)
}

func Delete(ctx context.Context, s tkv.TKVDataHandler, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Wrapf(s.Delete(key), "delete %s", key)
}

// PutAll writes several documents with one batch write.
func PutAll(ctx context.Context, s tkv.TKVBatchHandler, docs map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries := make([]tkv.TKVBatchEntry, 0, len(docs))
	for key, v := range docs {
		raw, err := json.Marshal(v)
		if err != nil {
			return errors.Wrapf(err, "encode %s", key)
		}
		entries = append(entries, tkv.TKVBatchEntry{Key: key, Value: string(raw)})
	}
	return errors.Wrap(s.BatchSet(entries), "batch set")
}

// ScanAll decodes every document under prefix. Values that do not decode as
// T are skipped; the prefix scheme keeps them out unless written by hand.
func ScanAll[T any](ctx context.Context, s tkv.TKVDataHandler, prefix string) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raws, err := s.Scan(prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", prefix)
	}
	out := make([]*T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			continue
		}
		out = append(out, &v)
	}
	return out, nil
}

// Count returns the number of keys under prefix without decoding values.
func Count(ctx context.Context, s tkv.TKVDataHandler, prefix string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	keys, err := s.Iterate(prefix, 0, 0)
	if err != nil {
		return 0, errors.Wrapf(err, "iterate %s", prefix)
	}
	return len(keys), nil
}
