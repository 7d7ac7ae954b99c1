package customer

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/georgemunganga/qrpay/internal/modules/document"
	"github.com/georgemunganga/qrpay/internal/modules/qrcode"
)

// Handler exposes customer session endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/transactions", func(r chi.Router) {
		r.Post("/", h.startSession)           // POST   /api/v1/transactions
		r.Get("/{id}", h.getSession)          // GET    /api/v1/transactions/{id}
		r.Get("/{id}/qr.png", h.qrImage)      // GET    /api/v1/transactions/{id}/qr.png
		r.Get("/{id}/events", h.streamStatus) // GET    /api/v1/transactions/{id}/events
		r.Delete("/{id}", h.endSession)       // DELETE /api/v1/transactions/{id}
	})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.StartSession(r.Context())
	if err != nil {
		if sess != nil {
			respond(w, errorStatus(err), map[string]interface{}{
				"error":   err.Error(),
				"session": sess.View(false),
			})
			return
		}
		respond(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, sess.View(true))
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.GetSession(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, sess.View(false))
}

func (h *Handler) qrImage(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.GetSession(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	img := sess.Image()
	if img == nil {
		respond(w, http.StatusNotFound, map[string]string{"error": "qr image not available"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img.PNG)))
	w.WriteHeader(http.StatusOK)
	w.Write(img.PNG)
}

// streamStatus sends one server-sent event per observed status until the client leaves or
// the session ends.
func (h *Handler) streamStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.GetSession(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		respond(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}
	updates, err := sess.ObserveStatus(r.Context())
	if err != nil {
		respond(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for st := range updates {
		body, err := json.Marshal(st.View())
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("encoding status event")
			return
		}
		if _, err := fmt.Fprintf(w, "event: status\ndata: %s\n\n", body); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.EndSession(chi.URLParam(r, "id")); err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSessionClosed), errors.Is(err, ErrNotStarted):
		return http.StatusConflict
	case errors.Is(err, document.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, document.ErrStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, qrcode.ErrEncode):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
