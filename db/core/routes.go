package core

import "net/http"

type route struct {
	pattern  string
	handler  http.HandlerFunc
	category string
	session  bool // needs a bearer session when sessions are enforced
}

func (c *Core) routes() []route {
	return []route{
		// Identity
		{"POST /register", c.registerHandler, CategoryAuth, false},
		{"POST /login", c.loginHandler, CategoryAuth, false},
		{"POST /verify-session", c.verifySessionHandler, CategoryAuth, false},
		{"POST /logout", c.logoutHandler, CategoryAuth, false},

		// Users
		{"POST /update-online", c.updateOnlineHandler, CategoryContent, true},
		{"GET /get-user/{username}", c.getUserHandler, CategoryContent, false},
		{"POST /update-profile", c.updateProfileHandler, CategoryContent, true},
		{"POST /follow", c.followHandler, CategoryContent, true},
		{"POST /unfollow", c.unfollowHandler, CategoryContent, true},

		// Posts
		{"POST /create-post", c.createPostHandler, CategoryContent, true},
		{"GET /get-posts", c.getPostsHandler, CategoryContent, false},
		{"GET /get-user-posts/{username}", c.getUserPostsHandler, CategoryContent, false},
		{"POST /like-post", c.likePostHandler, CategoryContent, true},
		{"POST /unlike-post", c.unlikePostHandler, CategoryContent, true},
		{"POST /add-comment", c.addCommentHandler, CategoryContent, true},
		{"POST /comment-post", c.addCommentHandler, CategoryContent, true},
		{"POST /delete-post", c.deletePostHandler, CategoryContent, true},

		// Clips and tracks
		{"POST /create-clip", c.createClipHandler, CategoryContent, true},
		{"GET /get-clips", c.getClipsHandler, CategoryContent, false},
		{"POST /like-clip", c.likeClipHandler, CategoryContent, true},
		{"POST /upload-track", c.uploadTrackHandler, CategoryContent, true},
		{"GET /get-tracks", c.getTracksHandler, CategoryContent, false},
		{"POST /like-track", c.likeTrackHandler, CategoryContent, true},

		// Notifications and search
		{"GET /get-notifications/{username}", c.getNotificationsHandler, CategoryContent, false},
		{"GET /search", c.searchHandler, CategoryContent, false},

		// Admin
		{"POST /admin/verify-user", c.adminVerifyUserHandler, CategoryAdmin, true},
		{"POST /admin/delete-user", c.adminDeleteUserHandler, CategoryAdmin, true},
		{"GET /admin/stats", c.adminStatsHandler, CategoryAdmin, true},
		{"POST /admin/broadcast", c.adminBroadcastHandler, CategoryAdmin, true},

		// Uploads happen during sign up, before any session exists.
		{"POST /upload", c.uploadHandler, CategoryUpload, false},

		{"GET /health", c.healthHandler, CategoryDefault, false},
	}
}

func (c *Core) registerRoutes() {
	for _, rt := range c.routes() {
		var h http.Handler = rt.handler
		if rt.session {
			h = c.sessionMiddleware(h)
		}
		h = c.timeoutMiddleware(h)
		h = c.rateLimitMiddleware(h, rt.category)
		c.mux.Handle(rt.pattern, h)
	}
}
