package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/InsulaLabs/sphere/db/models"
)

func errorBody(msg string) models.ErrorResponse {
	return models.ErrorResponse{Error: msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindConflict, models.KindInvalidInput, models.KindPayloadTooLarge:
		return http.StatusBadRequest
	case models.KindInvalidCredentials, models.KindRateLimited:
		return http.StatusUnauthorized
	case models.KindForbidden:
		return http.StatusForbidden
	case models.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error onto the API's status codes. Internal
// details are logged and never sent to the client.
func (c *Core) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *models.Error
	if !errors.As(err, &e) {
		c.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal server error"))
		return
	}
	status := statusFor(e.Kind)
	if status == http.StatusInternalServerError {
		c.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, status, errorBody("internal server error"))
		return
	}
	if e.Kind == models.KindRateLimited && e.RetryAfter > 0 {
		w.Header().Set("Retry-After", fmt.Sprintf("%.0f", math.Ceil(e.RetryAfter.Seconds())))
	}
	c.logger.Debug("request rejected", "path", r.URL.Path, "kind", e.Kind.String(), "message", e.Message)
	writeJSON(w, status, errorBody(e.Message))
}

// decodeBody reads a JSON request body into dst, answering 400 itself on
// failure.
func (c *Core) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxJSONBody())
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusBadRequest, errorBody("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorBody("malformed JSON body"))
		return false
	}
	return true
}

// maxJSONBody leaves room for an inline data URL of a maximum size upload
// (base64 grows it by a third) plus the surrounding document.
func (c *Core) maxJSONBody() int64 {
	return c.cfg.Uploads.MaxBytes*4/3 + 1<<20
}

// required takes name, value pairs and reports the first empty value.
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return models.ErrInvalidInput("%s is required", pairs[i])
		}
	}
	return nil
}
