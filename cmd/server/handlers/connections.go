package handlers

import (
	"net/http"
	"strconv"

	"github.com/nfalk/supplierdesk/backend/internal/errors"
	"github.com/nfalk/supplierdesk/backend/internal/models"
	"github.com/nfalk/supplierdesk/backend/internal/services"
	"github.com/nfalk/supplierdesk/backend/internal/sync"
)

// connectionRequest is a connection payload plus the write-only secret.
type connectionRequest struct {
	models.Connection
	Secret string `json:"secret"`
}

// ConnectionHandler handles connections, field mappings, and sync.
type ConnectionHandler struct {
	svc    *services.ConnectionService
	runner *sync.Runner
}

// NewConnectionHandler creates a ConnectionHandler.
func NewConnectionHandler(svc *services.ConnectionService, runner *sync.Runner) *ConnectionHandler {
	return &ConnectionHandler{svc: svc, runner: runner}
}

// Register wires the handler's routes into mux.
func (h *ConnectionHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/connections", h.List)
	mux.HandleFunc("POST /api/connections", h.Create)
	mux.HandleFunc("GET /api/connections/{id}", h.Get)
	mux.HandleFunc("PUT /api/connections/{id}", h.Update)
	mux.HandleFunc("DELETE /api/connections/{id}", h.Delete)
	mux.HandleFunc("POST /api/connections/{id}/test", h.Test)
	mux.HandleFunc("GET /api/connections/{id}/mappings", h.GetMappings)
	mux.HandleFunc("PUT /api/connections/{id}/mappings", h.SetMappings)
	mux.HandleFunc("GET /api/connections/{id}/sync", h.GetSyncSettings)
	mux.HandleFunc("PUT /api/connections/{id}/sync", h.SetSyncSettings)
	mux.HandleFunc("POST /api/connections/{id}/sync/run", h.RunSync)
	mux.HandleFunc("GET /api/connections/{id}/sync/runs", h.ListSyncRuns)
}

// List handles GET /api/connections
func (h *ConnectionHandler) List(w http.ResponseWriter, r *http.Request) {
	conns, err := h.svc.List(r.URL.Query().Get("supplier_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"connections": conns,
	})
}

// Create handles POST /api/connections
func (h *ConnectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var request connectionRequest
	if !decodeBody(w, r, &request) {
		return
	}
	request.Connection.ID = ""

	created, err := h.svc.Create(&request.Connection, request.Secret)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /api/connections/{id}
func (h *ConnectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	conn, err := h.svc.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// Update handles PUT /api/connections/{id}
func (h *ConnectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var request connectionRequest
	if !decodeBody(w, r, &request) {
		return
	}
	updated, err := h.svc.Update(r.PathValue("id"), &request.Connection, request.Secret)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/connections/{id}
func (h *ConnectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Test handles POST /api/connections/{id}/test. A failed probe is still a
// test result, so the connection comes back with status failed rather
// than an error body.
func (h *ConnectionHandler) Test(w http.ResponseWriter, r *http.Request) {
	conn, err := h.svc.Test(r.Context(), r.PathValue("id"))
	if err != nil && !errors.Is(err, errors.ErrConnectionProbe) {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// GetMappings handles GET /api/connections/{id}/mappings
func (h *ConnectionHandler) GetMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.svc.GetMappings(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mappings": mappings,
	})
}

// SetMappings handles PUT /api/connections/{id}/mappings
func (h *ConnectionHandler) SetMappings(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Mappings []models.FieldMapping `json:"mappings"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	saved, err := h.svc.SetMappings(r.PathValue("id"), request.Mappings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mappings": saved,
	})
}

// GetSyncSettings handles GET /api/connections/{id}/sync
func (h *ConnectionHandler) GetSyncSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.GetSyncSettings(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// SetSyncSettings handles PUT /api/connections/{id}/sync
func (h *ConnectionHandler) SetSyncSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.SyncSettings
	if !decodeBody(w, r, &settings) {
		return
	}
	settings.ConnectionID = models.UUID(r.PathValue("id"))

	saved, err := h.svc.SetSyncSettings(&settings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// RunSync handles POST /api/connections/{id}/sync/run. A failed run still
// produced a run record, so it is returned with its failure message.
func (h *ConnectionHandler) RunSync(w http.ResponseWriter, r *http.Request) {
	run, err := h.runner.Run(r.Context(), r.PathValue("id"))
	if err != nil && run == nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, run)
}

// ListSyncRuns handles GET /api/connections/{id}/sync/runs
func (h *ConnectionHandler) ListSyncRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.svc.SyncRuns(r.PathValue("id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs": runs,
	})
}
