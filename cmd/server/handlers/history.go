package handlers

import (
	"net/http"

	"github.com/nfalk/supplierdesk/backend/internal/services"
)

// HistoryHandler exposes the undo/redo log.
type HistoryHandler struct {
	svc *services.SupplierService
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(svc *services.SupplierService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// Register wires the handler's routes into mux.
func (h *HistoryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/history", h.State)
	mux.HandleFunc("POST /api/history/undo", h.Undo)
	mux.HandleFunc("POST /api/history/redo", h.Redo)
	mux.HandleFunc("POST /api/history/clear", h.Clear)
}

// State handles GET /api/history
func (h *HistoryHandler) State(w http.ResponseWriter, r *http.Request) {
	store := h.svc.History()

	response := map[string]interface{}{
		"entries":  store.Entries(),
		"cursor":   store.Cursor(),
		"can_undo": store.CanUndo(),
		"can_redo": store.CanRedo(),
	}
	if desc, ok := store.UndoDescription(); ok {
		response["undo_description"] = desc
	}
	if desc, ok := store.RedoDescription(); ok {
		response["redo_description"] = desc
	}
	writeJSON(w, http.StatusOK, response)
}

// Undo handles POST /api/history/undo
func (h *HistoryHandler) Undo(w http.ResponseWriter, r *http.Request) {
	desc, err := h.svc.Undo()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"undone":   desc,
		"can_undo": h.svc.History().CanUndo(),
		"can_redo": h.svc.History().CanRedo(),
	})
}

// Redo handles POST /api/history/redo
func (h *HistoryHandler) Redo(w http.ResponseWriter, r *http.Request) {
	desc, err := h.svc.Redo()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"redone":   desc,
		"can_undo": h.svc.History().CanUndo(),
		"can_redo": h.svc.History().CanRedo(),
	})
}

// Clear handles POST /api/history/clear
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.svc.History().Clear()
	w.WriteHeader(http.StatusNoContent)
}
