package controllers

import (
	"net/http"

	portfoliosvc "github.com/MFAIZAN20/dreamcanvas/internal/services/portfolio"
)

type PortfolioController struct {
	svc *portfoliosvc.Service
}

func NewPortfolioController(svc *portfoliosvc.Service) *PortfolioController {
	return &PortfolioController{svc: svc}
}

func (c *PortfolioController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /user/{id}/dreams", c.handleDreams)
}

func (c *PortfolioController) handleDreams(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	items, err := c.svc.Dreams(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch portfolio")
		return
	}
	if len(items) == 0 {
		writeJSON(w, portfoliosvc.Empty{Dreams: items, Message: portfoliosvc.EmptyMessage, UserID: userID})
		return
	}
	writeJSON(w, items)
}
