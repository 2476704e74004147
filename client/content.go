package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/InsulaLabs/sphere/db/models"
)

type userEnvelope struct {
	User *models.User `json:"user"`
}

type postEnvelope struct {
	Post  *models.Post   `json:"post"`
	Posts []*models.Post `json:"posts"`
}

type clipEnvelope struct {
	Clip  *models.Clip   `json:"clip"`
	Clips []*models.Clip `json:"clips"`
}

type trackEnvelope struct {
	Track  *models.Track   `json:"track"`
	Tracks []*models.Track `json:"tracks"`
}

type notificationEnvelope struct {
	Notifications []*models.Notification `json:"notifications"`
}

// -------------------------- USERS

func (c *Client) UpdateOnline(ctx context.Context, username string, online bool) error {
	req := models.UpdateOnlineRequest{Username: username, IsOnline: online}
	return c.doRequest(ctx, http.MethodPost, "update-online", nil, req, nil)
}

func (c *Client) GetUser(ctx context.Context, username string) (*models.User, error) {
	var resp userEnvelope
	if err := c.doRequest(ctx, http.MethodGet, "get-user/"+url.PathEscape(username), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, username string, updates models.ProfileUpdates) (*models.User, error) {
	var resp userEnvelope
	req := models.UpdateProfileRequest{Username: username, Updates: updates}
	if err := c.doRequest(ctx, http.MethodPost, "update-profile", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *Client) Follow(ctx context.Context, follower, following string) error {
	req := models.FollowRequest{Follower: follower, Following: following}
	return c.doRequest(ctx, http.MethodPost, "follow", nil, req, nil)
}

func (c *Client) Unfollow(ctx context.Context, follower, following string) error {
	req := models.FollowRequest{Follower: follower, Following: following}
	return c.doRequest(ctx, http.MethodPost, "unfollow", nil, req, nil)
}

// -------------------------- POSTS

func (c *Client) CreatePost(ctx context.Context, username, content string, media []models.Media) (*models.Post, error) {
	req := models.CreatePostRequest{Username: username, Content: content, Media: media}
	return c.postCall(ctx, "create-post", req)
}

func (c *Client) GetPosts(ctx context.Context) ([]*models.Post, error) {
	var resp postEnvelope
	if err := c.doRequest(ctx, http.MethodGet, "get-posts", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (c *Client) GetUserPosts(ctx context.Context, username string) ([]*models.Post, error) {
	var resp postEnvelope
	if err := c.doRequest(ctx, http.MethodGet, "get-user-posts/"+url.PathEscape(username), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (c *Client) LikePost(ctx context.Context, postID, username string) (*models.Post, error) {
	return c.postCall(ctx, "like-post", models.PostActionRequest{PostID: postID, Username: username})
}

func (c *Client) UnlikePost(ctx context.Context, postID, username string) (*models.Post, error) {
	return c.postCall(ctx, "unlike-post", models.PostActionRequest{PostID: postID, Username: username})
}

func (c *Client) AddComment(ctx context.Context, postID, username, content string, media []models.Media) (*models.Post, error) {
	req := models.AddCommentRequest{PostID: postID, Username: username, Content: content, Media: media}
	return c.postCall(ctx, "add-comment", req)
}

func (c *Client) DeletePost(ctx context.Context, postID, username string) error {
	req := models.PostActionRequest{PostID: postID, Username: username}
	return c.doRequest(ctx, http.MethodPost, "delete-post", nil, req, nil)
}

func (c *Client) postCall(ctx context.Context, path string, req any) (*models.Post, error) {
	var resp postEnvelope
	if err := c.doRequest(ctx, http.MethodPost, path, nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Post, nil
}

// -------------------------- CLIPS / TRACKS

func (c *Client) CreateClip(ctx context.Context, req models.CreateClipRequest) (*models.Clip, error) {
	var resp clipEnvelope
	if err := c.doRequest(ctx, http.MethodPost, "create-clip", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Clip, nil
}

func (c *Client) GetClips(ctx context.Context) ([]*models.Clip, error) {
	var resp clipEnvelope
	if err := c.doRequest(ctx, http.MethodGet, "get-clips", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Clips, nil
}

// LikeClip toggles username's like on the clip.
func (c *Client) LikeClip(ctx context.Context, clipID, username string) (*models.Clip, error) {
	var resp clipEnvelope
	req := models.ClipActionRequest{ClipID: clipID, Username: username}
	if err := c.doRequest(ctx, http.MethodPost, "like-clip", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Clip, nil
}

func (c *Client) UploadTrack(ctx context.Context, req models.CreateTrackRequest) (*models.Track, error) {
	var resp trackEnvelope
	if err := c.doRequest(ctx, http.MethodPost, "upload-track", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Track, nil
}

func (c *Client) GetTracks(ctx context.Context) ([]*models.Track, error) {
	var resp trackEnvelope
	if err := c.doRequest(ctx, http.MethodGet, "get-tracks", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks, nil
}

// LikeTrack toggles username's like on the track.
func (c *Client) LikeTrack(ctx context.Context, trackID, username string) (*models.Track, error) {
	var resp trackEnvelope
	req := models.TrackActionRequest{TrackID: trackID, Username: username}
	if err := c.doRequest(ctx, http.MethodPost, "like-track", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Track, nil
}

// -------------------------- NOTIFICATIONS / SEARCH

func (c *Client) GetNotifications(ctx context.Context, username string) ([]*models.Notification, error) {
	var resp notificationEnvelope
	if err := c.doRequest(ctx, http.MethodGet, "get-notifications/"+url.PathEscape(username), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Notifications, nil
}

func (c *Client) Search(ctx context.Context, q string) (*models.SearchResults, error) {
	var resp models.SearchResults
	if err := c.doRequest(ctx, http.MethodGet, "search", url.Values{"q": {q}}, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
