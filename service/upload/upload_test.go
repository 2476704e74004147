package upload

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/InsulaLabs/sphere/db/doc"
	"github.com/InsulaLabs/sphere/db/models"
	"github.com/InsulaLabs/sphere/db/tkv/tkvtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	ctx := context.Background()
	store := tkvtest.New(t)
	ingest := New(tkvtest.Logger(), store, 0)
	require.Equal(t, int64(DefaultMaxBytes), ingest.MaxBytes())

	t.Run("small file becomes a data url", func(t *testing.T) {
		blob := bytes.Repeat([]byte{0xAB}, 1024)
		rec, err := ingest.Upload(ctx, "alice", "avatar", "image/png", bytes.NewReader(blob))
		require.NoError(t, err)

		want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(blob)
		assert.Equal(t, want, rec.DataURL)
		assert.Equal(t, int64(1024), rec.Size)
		sum := sha256.Sum256(blob)
		assert.Equal(t, hex.EncodeToString(sum[:]), rec.SHA256)

		stored, found, err := doc.Load[models.Upload](ctx, store, models.WithUpload("alice", "avatar", rec.ID))
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, rec.DataURL, stored.DataURL)
	})

	t.Run("six MiB is too large", func(t *testing.T) {
		blob := bytes.Repeat([]byte{1}, 6<<20)
		_, err := ingest.Upload(ctx, "alice", "avatar", "image/png", bytes.NewReader(blob))
		assert.True(t, models.IsKind(err, models.KindPayloadTooLarge))
	})

	t.Run("exactly the limit is accepted", func(t *testing.T) {
		small := New(tkvtest.Logger(), store, 16)
		_, err := small.Upload(ctx, "alice", "", "", bytes.NewReader(make([]byte, 16)))
		require.NoError(t, err)
		_, err = small.Upload(ctx, "alice", "", "", bytes.NewReader(make([]byte, 17)))
		assert.True(t, models.IsKind(err, models.KindPayloadTooLarge))
	})

	t.Run("mime type is sniffed when absent", func(t *testing.T) {
		rec, err := ingest.Upload(ctx, "alice", "", "", strings.NewReader("plain words"))
		require.NoError(t, err)
		assert.Equal(t, "file", rec.Type)
		assert.True(t, strings.HasPrefix(rec.DataURL, "data:text/plain; charset=utf-8;base64,"))
	})

	t.Run("missing inputs", func(t *testing.T) {
		_, err := ingest.Upload(ctx, "", "avatar", "", strings.NewReader("x"))
		assert.True(t, models.IsKind(err, models.KindInvalidInput))
		_, err = ingest.Upload(ctx, "alice", "avatar", "", nil)
		assert.True(t, models.IsKind(err, models.KindInvalidInput))
		_, err = ingest.Upload(ctx, "alice", "avatar", "", strings.NewReader(""))
		assert.True(t, models.IsKind(err, models.KindInvalidInput))
	})
}

func TestUploadStoreCeiling(t *testing.T) {
	ctx := context.Background()
	blob := bytes.Repeat([]byte{0x5A}, 4<<20)

	t.Run("disk store holds a four MiB upload", func(t *testing.T) {
		store := tkvtest.NewDisk(t)
		rec, err := New(tkvtest.Logger(), store, 0).Upload(ctx, "alice", "banner", "image/png", bytes.NewReader(blob))
		require.NoError(t, err)

		stored, found, err := doc.Load[models.Upload](ctx, store, models.WithUpload("alice", "banner", rec.ID))
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, int64(len(blob)), stored.Size)
	})

	t.Run("in-memory store reports the size, not an internal error", func(t *testing.T) {
		_, err := New(tkvtest.Logger(), tkvtest.New(t), 0).Upload(ctx, "alice", "banner", "image/png", bytes.NewReader(blob))
		require.Error(t, err)
		assert.True(t, models.IsKind(err, models.KindPayloadTooLarge))
		assert.Less(t, len(err.Error()), 200)
	})
}
