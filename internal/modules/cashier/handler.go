package cashier

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/qrpay/internal/modules/document"
	"github.com/georgemunganga/qrpay/internal/modules/status"
)

// Handler exposes cashier terminal endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/cashier/terminals", func(r chi.Router) {
		r.Post("/", h.openTerminal)            // POST   /api/v1/cashier/terminals
		r.Get("/{id}", h.getTerminal)          // GET    /api/v1/cashier/terminals/{id}
		r.Post("/{id}/scan", h.scan)           // POST   /api/v1/cashier/terminals/{id}/scan
		r.Post("/{id}/select", h.selectStatus) // POST   /api/v1/cashier/terminals/{id}/select
		r.Post("/{id}/confirm", h.confirm)     // POST   /api/v1/cashier/terminals/{id}/confirm
		r.Post("/{id}/cancel", h.cancel)       // POST   /api/v1/cashier/terminals/{id}/cancel
		r.Post("/{id}/resume", h.resume)       // POST   /api/v1/cashier/terminals/{id}/resume
		r.Delete("/{id}", h.closeTerminal)     // DELETE /api/v1/cashier/terminals/{id}
	})
}

func (h *Handler) openTerminal(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.OpenTerminal()
	if err != nil {
		respond(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, u.View())
}

func (h *Handler) getTerminal(w http.ResponseWriter, r *http.Request) {
	u, ok := h.terminal(w, r)
	if !ok {
		return
	}
	respond(w, http.StatusOK, u.View())
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	u, ok := h.terminal(w, r)
	if !ok {
		return
	}
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	h.reply(w, u, u.HandleScan(r.Context(), req.Payload))
}

func (h *Handler) selectStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := h.terminal(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	var err error
	switch {
	case req.Label != nil:
		err = u.SelectLabel(*req.Label)
	case req.Code != nil:
		err = u.SelectCode(*req.Code)
	default:
		respond(w, http.StatusBadRequest, map[string]string{"error": "label or code is required"})
		return
	}
	h.reply(w, u, err)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	u, ok := h.terminal(w, r)
	if !ok {
		return
	}
	h.reply(w, u, u.Confirm(r.Context()))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	u, ok := h.terminal(w, r)
	if !ok {
		return
	}
	h.reply(w, u, u.Cancel())
}

func (h *Handler) resume(w http.ResponseWriter, r *http.Request) {
	u, ok := h.terminal(w, r)
	if !ok {
		return
	}
	h.reply(w, u, u.Resume())
}

func (h *Handler) closeTerminal(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CloseTerminal(chi.URLParam(r, "id")); err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) terminal(w http.ResponseWriter, r *http.Request) (*Updater, bool) {
	u, err := h.service.GetTerminal(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return nil, false
	}
	return u, true
}

// reply answers with the terminal view, alongside the error when the action failed.
func (h *Handler) reply(w http.ResponseWriter, u *Updater, err error) {
	if err != nil {
		respond(w, errorStatus(err), map[string]interface{}{
			"error":    err.Error(),
			"terminal": u.View(),
		})
		return
	}
	respond(w, http.StatusOK, u.View())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrNotSelectable), errors.Is(err, status.ErrUnknownStatus):
		return http.StatusBadRequest
	case errors.Is(err, ErrScannerPaused), errors.Is(err, ErrWrongState):
		return http.StatusConflict
	case errors.Is(err, ErrTerminalNotFound):
		return http.StatusNotFound
	case errors.Is(err, document.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, document.ErrStore), errors.Is(err, ErrCameraUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
