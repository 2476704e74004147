package content

import (
	"context"

	"github.com/InsulaLabs/sphere/db/models"
)

// Clips and tracks toggle likes on a single endpoint and send no
// notifications, unlike posts.

func (s *Service) CreateClip(ctx context.Context, author, videoURL, thumbnail, title string) (*models.Clip, error) {
	if _, err := s.requireUser(ctx, author); err != nil {
		return nil, err
	}
	if videoURL == "" {
		return nil, models.ErrInvalidInput("videoUrl is required")
	}
	clip := &models.Clip{
		ID:        s.newID(),
		Author:    author,
		VideoURL:  videoURL,
		Thumbnail: thumbnail,
		Title:     title,
		Likes:     []string{},
		Comments:  []models.Comment{},
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.clips.Put(ctx, clip); err != nil {
		return nil, err
	}
	return clip, nil
}

func (s *Service) ListClips(ctx context.Context) ([]*models.Clip, error) {
	return s.clips.List(ctx)
}

func (s *Service) ToggleClipLike(ctx context.Context, clipID, username string) (*models.Clip, error) {
	clip, _, err := s.clips.Toggle(ctx, clipID, username)
	return clip, err
}

// CreateTrack credits the uploader as artist when none is given.
func (s *Service) CreateTrack(ctx context.Context, req models.CreateTrackRequest) (*models.Track, error) {
	if _, err := s.requireUser(ctx, req.Username); err != nil {
		return nil, err
	}
	if req.AudioURL == "" {
		return nil, models.ErrInvalidInput("audioUrl is required")
	}
	if req.Duration < 0 {
		return nil, models.ErrInvalidInput("duration cannot be negative")
	}
	artist := req.Artist
	if artist == "" {
		artist = req.Username
	}
	track := &models.Track{
		ID:        s.newID(),
		Uploader:  req.Username,
		Title:     req.Title,
		Artist:    artist,
		AudioURL:  req.AudioURL,
		CoverURL:  req.CoverURL,
		Duration:  req.Duration,
		Likes:     []string{},
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.tracks.Put(ctx, track); err != nil {
		return nil, err
	}
	return track, nil
}

func (s *Service) ListTracks(ctx context.Context) ([]*models.Track, error) {
	return s.tracks.List(ctx)
}

func (s *Service) ToggleTrackLike(ctx context.Context, trackID, username string) (*models.Track, error) {
	track, _, err := s.tracks.Toggle(ctx, trackID, username)
	return track, err
}
