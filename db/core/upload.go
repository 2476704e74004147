package core

import (
	"errors"
	"net/http"
	"time"

	"github.com/InsulaLabs/sphere/db/models"
)

// multipart framing allowance on top of the file itself
const multipartOverhead = 64 << 10

func (c *Core) uploadHandler(w http.ResponseWriter, r *http.Request) {
	maxBytes := c.svc.Upload.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(maxBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.writeError(w, r, models.ErrPayloadTooLarge(maxBytes))
			return
		}
		c.logger.Debug("could not parse multipart form", "error", err)
		c.writeError(w, r, models.ErrInvalidInput("malformed multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		c.writeError(w, r, models.ErrInvalidInput("file is required"))
		return
	}
	defer file.Close()

	if header.Size > maxBytes {
		c.writeError(w, r, models.ErrPayloadTooLarge(maxBytes))
		return
	}

	rec, err := c.svc.Upload.Upload(
		r.Context(),
		r.FormValue("username"),
		r.FormValue("type"),
		header.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.UploadResponse{URL: rec.DataURL})
}

func (c *Core) healthHandler(w http.ResponseWriter, r *http.Request) {
	uptime := ""
	if !c.startedAt.IsZero() {
		uptime = time.Since(c.startedAt).Round(time.Second).String()
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": uptime,
	})
}
