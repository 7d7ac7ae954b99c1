package status

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the status catalogue so clients can build their picker.
type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Get("/api/v1/statuses", h.list) // GET /api/v1/statuses
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	views := make([]View, 0, len(Selectable()))
	for _, s := range Selectable() {
		views = append(views, s.View())
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"statuses": views,
		"default":  InProgress.View(),
	})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
