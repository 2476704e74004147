package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/InsulaLabs/sphere/db/models"
)

// AdminVerifyUser flips the verified badge of target and returns the user.
func (c *Client) AdminVerifyUser(ctx context.Context, admin, target string) (*models.User, error) {
	var resp userEnvelope
	req := models.AdminTargetRequest{AdminUsername: admin, TargetUsername: target}
	if err := c.doRequest(ctx, http.MethodPost, "admin/verify-user", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *Client) AdminDeleteUser(ctx context.Context, admin, target string) error {
	req := models.AdminTargetRequest{AdminUsername: admin, TargetUsername: target}
	return c.doRequest(ctx, http.MethodPost, "admin/delete-user", nil, req, nil)
}

func (c *Client) AdminStats(ctx context.Context, admin string) (*models.Stats, error) {
	var resp struct {
		Stats *models.Stats `json:"stats"`
	}
	query := url.Values{"adminUsername": {admin}}
	if err := c.doRequest(ctx, http.MethodGet, "admin/stats", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Stats, nil
}

// AdminBroadcast returns how many users received the message.
func (c *Client) AdminBroadcast(ctx context.Context, admin, message string) (int, error) {
	var resp models.BroadcastResponse
	req := models.BroadcastRequest{AdminUsername: admin, Message: message}
	if err := c.doRequest(ctx, http.MethodPost, "admin/broadcast", nil, req, &resp); err != nil {
		return 0, err
	}
	return resp.Recipients, nil
}

// Upload sends r as a multipart file and returns the data URL the server
// stored it under. kind is "avatar", "banner" or empty.
func (c *Client) Upload(ctx context.Context, username, kind, filename, mimeType string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("username", username); err != nil {
		return "", err
	}
	if kind != "" {
		if err := mw.WriteField("type", kind); err != nil {
			return "", err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to buffer upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("upload", nil), &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp models.UploadResponse
	if err := c.send(req, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// Health returns the server's reported uptime.
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "health", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Uptime, nil
}
