package core

import (
	"net/http"

	"github.com/InsulaLabs/sphere/db/models"
)

func (c *Core) adminVerifyUserHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AdminTargetRequest
	if !c.decodeBody(w, r, &req) || !c.actingAs(w, r, req.AdminUsername) {
		return
	}
	user, err := c.svc.Admin.VerifyUser(r.Context(), req.AdminUsername, req.TargetUsername)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (c *Core) adminDeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AdminTargetRequest
	if !c.decodeBody(w, r, &req) || !c.actingAs(w, r, req.AdminUsername) {
		return
	}
	if err := c.svc.Admin.DeleteUser(r.Context(), req.AdminUsername, req.TargetUsername); err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

func (c *Core) adminStatsHandler(w http.ResponseWriter, r *http.Request) {
	adminUsername := r.URL.Query().Get("adminUsername")
	if !c.actingAs(w, r, adminUsername) {
		return
	}
	stats, err := c.svc.Admin.Stats(r.Context(), adminUsername)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

func (c *Core) adminBroadcastHandler(w http.ResponseWriter, r *http.Request) {
	var req models.BroadcastRequest
	if !c.decodeBody(w, r, &req) || !c.actingAs(w, r, req.AdminUsername) {
		return
	}
	n, err := c.svc.Admin.Broadcast(r.Context(), req.AdminUsername, req.Message)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.BroadcastResponse{Success: true, Recipients: n})
}
