// Package upload turns raw blobs into inline data URLs and records them.
package upload

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/InsulaLabs/sphere/db/doc"
	"github.com/InsulaLabs/sphere/db/models"
	"github.com/InsulaLabs/sphere/db/tkv"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	DefaultMaxBytes = 5 << 20
	defaultKind     = "file"
)

type Ingest struct {
	logger   *slog.Logger
	store    tkv.Store
	maxBytes int64
	now      func() time.Time
}

func New(logger *slog.Logger, store tkv.Store, maxBytes int64) *Ingest {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Ingest{
		logger:   logger.WithGroup("upload"),
		store:    store,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func (i *Ingest) MaxBytes() int64 {
	return i.maxBytes
}

// Upload reads the blob from r, refusing anything past the size ceiling,
// and stores it as a data URL under file:<username>:<kind>:<id>. When
// mimeType is empty it is sniffed from the content.
func (i *Ingest) Upload(ctx context.Context, username, kind, mimeType string, r io.Reader) (*models.Upload, error) {
	if r == nil {
		return nil, models.ErrInvalidInput("file is required")
	}
	if !models.ValidUsername(username) {
		return nil, models.ErrInvalidInput("a valid username is required")
	}
	if kind == "" {
		kind = defaultKind
	}
	if !models.ValidUsername(kind) {
		return nil, models.ErrInvalidInput("invalid upload type %q", kind)
	}

	hasher := sha256.New()
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.TeeReader(io.LimitReader(r, i.maxBytes+1), hasher))
	if err != nil {
		return nil, errors.Wrap(err, "read upload")
	}
	if n > i.maxBytes {
		return nil, models.ErrPayloadTooLarge(i.maxBytes)
	}
	if n == 0 {
		return nil, models.ErrInvalidInput("file is empty")
	}

	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(buf.Bytes())
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "generate upload id")
	}
	rec := &models.Upload{
		ID:        id.String(),
		Username:  username,
		Type:      kind,
		DataURL:   "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:  mimeType,
		Size:      n,
		SHA256:    hex.EncodeToString(hasher.Sum(nil)),
		Timestamp: i.now().UnixMilli(),
	}
	if err := doc.Put(ctx, i.store, models.WithUpload(username, kind, rec.ID), rec); err != nil {
		var tooLarge *tkv.ErrValueTooLarge
		if errors.As(err, &tooLarge) {
			// the stored record is base64, a third larger than the blob
			return nil, models.ErrPayloadTooLarge(int64(tooLarge.Limit) * 3 / 4)
		}
		return nil, err
	}
	i.logger.Debug("upload stored", "username", username, "type", kind, "size", n, "mime", mimeType)
	return rec, nil
}
