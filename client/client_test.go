package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(&Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	return c
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	_, err := NewClient(&Config{})
	assert.Error(t, err)
	_, err = NewClient(&Config{BaseURL: "ftp://example.com"})
	assert.Error(t, err)
}

func TestErrorResponseDecoding(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		header   map[string]string
		sentinel error
		message  string
		retry    time.Duration
	}{
		{"json body", http.StatusNotFound, `{"error":"post x not found"}`, nil, ErrNotFound, "post x not found", 0},
		{"plain body", http.StatusForbidden, "nope\n", nil, ErrForbidden, "nope", 0},
		{"empty body", http.StatusBadRequest, "", nil, ErrBadRequest, "Bad Request", 0},
		{"retry after", http.StatusTooManyRequests, `{"error":"Too Many Requests"}`, map[string]string{"Retry-After": "7"}, ErrRateLimited, "Too Many Requests", 7 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.GetPosts(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))

			var apiErr *ErrorResponse
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.retry, apiErr.RetryAfter)
		})
	}
}

func TestSessionTokenIsSentAsBearer(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			w.Write([]byte(`{"user":{"username":"alice"},"sessionToken":"tok-1"}`))
		default:
			got = r.Header.Get("Authorization")
			w.Write([]byte(`{"success":true}`))
		}
	})

	resp, err := c.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, "tok-1", c.SessionToken())

	require.NoError(t, c.Follow(context.Background(), "alice", "bob"))
	assert.Equal(t, "Bearer tok-1", got)
}

func TestVerifySessionRejectedIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"valid":false}`))
	})

	user, ok, err := c.VerifySession(context.Background(), "tok", "alice")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, user)
}
