package controllers

import (
	"encoding/json"
	"net/http"

	ingestsvc "github.com/MFAIZAN20/dreamcanvas/internal/services/ingest"
)

// DreamsController exposes the ingestion endpoints.
type DreamsController struct {
	svc *ingestsvc.Service
}

// NewDreamsController creates a new dreams controller.
func NewDreamsController(svc *ingestsvc.Service) *DreamsController {
	return &DreamsController{svc: svc}
}

// RegisterRoutes registers:
//   - POST /dreams
//   - GET /dreams
//   - GET /dreams/{id}
func (c *DreamsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /dreams", c.handleSubmit)
	mux.HandleFunc("GET /dreams", c.handleList)
	mux.HandleFunc("GET /dreams/{id}", c.handleGet)
}

func (c *DreamsController) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req ingestsvc.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	res, err := c.svc.Submit(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Dream not found", "Failed to save dream")
		return
	}
	writeJSON(w, res)
}

func (c *DreamsController) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := c.svc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch dreams")
		return
	}
	writeJSON(w, list)
}

func (c *DreamsController) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid dream ID")
		return
	}
	d, err := c.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Dream not found", "Failed to fetch dream")
		return
	}
	writeJSON(w, d)
}
