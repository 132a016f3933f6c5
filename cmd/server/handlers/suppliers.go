package handlers

import (
	"net/http"
	"strconv"

	"github.com/nfalk/supplierdesk/backend/internal/db"
	"github.com/nfalk/supplierdesk/backend/internal/models"
	"github.com/nfalk/supplierdesk/backend/internal/services"
)

// SupplierHandler handles supplier CRUD and bulk operations.
type SupplierHandler struct {
	svc *services.SupplierService
}

// NewSupplierHandler creates a SupplierHandler.
func NewSupplierHandler(svc *services.SupplierService) *SupplierHandler {
	return &SupplierHandler{svc: svc}
}

// Register wires the handler's routes into mux.
func (h *SupplierHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/suppliers", h.List)
	mux.HandleFunc("POST /api/suppliers", h.Create)
	mux.HandleFunc("POST /api/suppliers/bulk", h.BulkUpdate)
	mux.HandleFunc("GET /api/suppliers/{id}", h.Get)
	mux.HandleFunc("PATCH /api/suppliers/{id}", h.Update)
	mux.HandleFunc("DELETE /api/suppliers/{id}", h.Delete)
	mux.HandleFunc("POST /api/suppliers/{id}/status", h.ChangeStatus)
	mux.HandleFunc("GET /api/audit", h.Audit)
}

// List handles GET /api/suppliers
func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}
	filter := db.SupplierFilter{
		Status:   models.SupplierStatus(q.Get("status")),
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}

	suppliers, total, err := h.svc.List(perPage, (page-1)*perPage, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suppliers": suppliers,
		"total":     total,
		"page":      page,
		"per_page":  perPage,
	})
}

// Create handles POST /api/suppliers
func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var sup models.Supplier
	if !decodeBody(w, r, &sup) {
		return
	}
	// Clients cannot pick server-managed fields.
	sup.ID = ""
	sup.IsDeleted = false
	sup.Version = 0

	created, err := h.svc.Create(&sup)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /api/suppliers/{id}
func (h *SupplierHandler) Get(w http.ResponseWriter, r *http.Request) {
	sup, err := h.svc.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

// Update handles PATCH /api/suppliers/{id}
func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.SupplierPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	sup, err := h.svc.Update(r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

// Delete handles DELETE /api/suppliers/{id}
func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangeStatus handles POST /api/suppliers/{id}/status
func (h *SupplierHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Status models.SupplierStatus `json:"status"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	sup, err := h.svc.ChangeStatus(r.PathValue("id"), request.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

// BulkUpdate handles POST /api/suppliers/bulk
func (h *SupplierHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var request struct {
		IDs   []string             `json:"ids"`
		Patch models.SupplierPatch `json:"patch"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	suppliers, err := h.svc.BulkUpdate(request.IDs, request.Patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suppliers": suppliers,
		"updated":   len(suppliers),
	})
}

// Audit handles GET /api/audit
func (h *SupplierHandler) Audit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.svc.ChangeLog(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}
