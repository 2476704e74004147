package core

import (
	"net/http"

	"github.com/InsulaLabs/sphere/db/models"
)

func (c *Core) createClipHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateClipRequest
	if !c.decodeBody(w, r, &req) || !c.actingAs(w, r, req.Username) {
		return
	}
	clip, err := c.svc.Content.CreateClip(r.Context(), req.Username, req.VideoURL, req.Thumbnail, req.Title)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clip": clip})
}

func (c *Core) getClipsHandler(w http.ResponseWriter, r *http.Request) {
	clips, err := c.svc.Content.ListClips(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clips": clips})
}

func (c *Core) likeClipHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ClipActionRequest
	if !c.decodeBody(w, r, &req) || !c.actingAs(w, r, req.Username) {
		return
	}
	clip, err := c.svc.Content.ToggleClipLike(r.Context(), req.ClipID, req.Username)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clip": clip})
}

func (c *Core) uploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTrackRequest
	if !c.decodeBody(w, r, &req) || !c.actingAs(w, r, req.Username) {
		return
	}
	track, err := c.svc.Content.CreateTrack(r.Context(), req)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"track": track})
}

func (c *Core) getTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := c.svc.Content.ListTracks(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": tracks})
}

func (c *Core) likeTrackHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TrackActionRequest
	if !c.decodeBody(w, r, &req) || !c.actingAs(w, r, req.Username) {
		return
	}
	track, err := c.svc.Content.ToggleTrackLike(r.Context(), req.TrackID, req.Username)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"track": track})
}
