package controllers

import (
	"net/http"

	stubsvc "github.com/MFAIZAN20/dreamcanvas/internal/services/stubs"
)

// StubController serves one placeholder service's static payload.
type StubController struct {
	pattern string
	handler http.HandlerFunc
}

func (c *StubController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(c.pattern, c.handler)
}

func NewStoryController() *StubController {
	return &StubController{pattern: "GET /generate", handler: func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, stubsvc.Story())
	}}
}

func NewArtController() *StubController {
	return &StubController{pattern: "GET /generate", handler: func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, stubsvc.Art())
	}}
}

func NewNotificationController() *StubController {
	return &StubController{pattern: "GET /notify", handler: func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, stubsvc.Notify(r.URL.Query().Get("user")))
	}}
}

func NewTrendingController() *StubController {
	return &StubController{pattern: "GET /trending", handler: func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, stubsvc.TrendingNow())
	}}
}

func NewRemixController() *StubController {
	return &StubController{pattern: "POST /remix/{id}", handler: func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathInt(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid dream ID")
			return
		}
		writeJSON(w, stubsvc.Remix(id))
	}}
}
