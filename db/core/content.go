package core

import (
	"net/http"

	"github.com/InsulaLabs/sphere/db/models"
)

func (c *Core) updateOnlineHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateOnlineRequest
	if !c.decodeBody(w, r, &req) || !c.actingAs(w, r, req.Username) {
		return
	}
	if err := c.svc.Content.UpdateOnline(r.Context(), req.Username, req.IsOnline); err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

func (c *Core) getUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := c.svc.Content.GetUser(r.Context(), r.PathValue("username"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (c *Core) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !c.decodeBody(w, r, &req) || !c.actingAs(w, r, req.Username) {
		return
	}
	user, err := c.svc.Content.UpdateProfile(r.Context(), req.Username, req.Updates)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (c *Core) followHandler(w http.ResponseWriter, r *http.Request) {
	var req models.FollowRequest
	if !c.decodeBody(w, r, &req) || !c.actingAs(w, r, req.Follower) {
		return
	}
	if err := c.svc.Content.Follow(r.Context(), req.Follower, req.Following); err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

func (c *Core) unfollowHandler(w http.ResponseWriter, r *http.Request) {
	var req models.FollowRequest
	if !c.decodeBody(w, r, &req) || !c.actingAs(w, r, req.Follower) {
		return
	}
	if err := c.svc.Content.Unfollow(r.Context(), req.Follower, req.Following); err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

func (c *Core) createPostHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePostRequest
	if !c.decodeBody(w, r, &req) || !c.actingAs(w, r, req.Username) {
		return
	}
	post, err := c.svc.Content.CreatePost(r.Context(), req.Username, req.Content, req.Media)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post": post})
}

func (c *Core) getPostsHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := c.svc.Content.ListPosts(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (c *Core) getUserPostsHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := c.svc.Content.ListUserPosts(r.Context(), r.PathValue("username"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (c *Core) likePostHandler(w http.ResponseWriter, r *http.Request) {
	var req models.PostActionRequest
	if !c.decodeBody(w, r, &req) || !c.actingAs(w, r, req.Username) {
		return
	}
	post, err := c.svc.Content.LikePost(r.Context(), req.PostID, req.Username)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post": post})
}

func (c *Core) unlikePostHandler(w http.ResponseWriter, r *http.Request) {
	var req models.PostActionRequest
	if !c.decodeBody(w, r, &req) || !c.actingAs(w, r, req.Username) {
		return
	}
	post, err := c.svc.Content.UnlikePost(r.Context(), req.PostID, req.Username)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post": post})
}

func (c *Core) addCommentHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AddCommentRequest
	if !c.decodeBody(w, r, &req) || !c.actingAs(w, r, req.Username) {
		return
	}
	if err := required("content", req.Content); err != nil && len(req.Media) == 0 {
		c.writeError(w, r, err)
		return
	}
	post, err := c.svc.Content.AddComment(r.Context(), req.PostID, req.Username, req.Content, req.Media)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post": post})
}

func (c *Core) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	var req models.PostActionRequest
	if !c.decodeBody(w, r, &req) || !c.actingAs(w, r, req.Username) {
		return
	}
	if err := c.svc.Content.DeletePost(r.Context(), req.PostID, req.Username); err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

func (c *Core) getNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	notes, err := c.svc.Notify.List(r.Context(), r.PathValue("username"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notes})
}

func (c *Core) searchHandler(w http.ResponseWriter, r *http.Request) {
	res, err := c.svc.Search.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
