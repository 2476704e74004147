package core

import (
	"net/http"

	"github.com/InsulaLabs/sphere/db/models"
)

func (c *Core) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !c.decodeBody(w, r, &req) {
		return
	}
	if err := required("username", req.Username, "password", req.Password); err != nil {
		c.writeError(w, r, err)
		return
	}

	user, token, err := c.svc.Identity.Register(r.Context(), req)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.AuthResponse{User: user, SessionToken: token})
}

func (c *Core) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !c.decodeBody(w, r, &req) {
		return
	}

	user, token, err := c.svc.Identity.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.AuthResponse{User: user, SessionToken: token})
}

func (c *Core) verifySessionHandler(w http.ResponseWriter, r *http.Request) {
	var req models.VerifySessionRequest
	if !c.decodeBody(w, r, &req) {
		return
	}

	user, ok, err := c.svc.Identity.VerifySession(r.Context(), req.SessionToken, req.Username)
	if err != nil {
		c.logger.Error("session verification failed", "error", err)
	}
	if err != nil || !ok {
		writeJSON(w, http.StatusUnauthorized, models.VerifySessionResponse{Valid: false})
		return
	}
	writeJSON(w, http.StatusOK, models.VerifySessionResponse{Valid: true, User: user})
}

// logoutHandler accepts the token in the body or as a bearer header.
func (c *Core) logoutHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LogoutRequest
	if r.ContentLength != 0 && !c.decodeBody(w, r, &req) {
		return
	}
	if req.SessionToken == "" {
		req.SessionToken = bearerToken(r)
	}

	if err := c.svc.Identity.Logout(r.Context(), req.SessionToken); err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}
