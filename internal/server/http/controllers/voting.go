package controllers

import (
	"net/http"

	votingsvc "github.com/MFAIZAN20/dreamcanvas/internal/services/voting"
)

type VotingController struct {
	svc *votingsvc.Service
}

func NewVotingController(svc *votingsvc.Service) *VotingController {
	return &VotingController{svc: svc}
}

func (c *VotingController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /like/{id}", c.handleLike)
}

func (c *VotingController) handleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid dream ID")
		return
	}
	res, err := c.svc.Like(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Dream not found", "Failed to like dream")
		return
	}
	writeJSON(w, res)
}
