package controllers

import (
	"net/http"

	gallerysvc "github.com/MFAIZAN20/dreamcanvas/internal/services/gallery"
)

// GalleryController serves the public gallery listing.
type GalleryController struct {
	svc *gallerysvc.Service
}

func NewGalleryController(svc *gallerysvc.Service) *GalleryController {
	return &GalleryController{svc: svc}
}

func (c *GalleryController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /all", c.handleAll)
}

// handleAll accepts an optional CEL expression in ?filter=.
func (c *GalleryController) handleAll(w http.ResponseWriter, r *http.Request) {
	items, err := c.svc.List(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		writeServiceError(w, err, "Not found", "Failed to fetch gallery")
		return
	}
	writeJSON(w, items)
}
