package handlers

import (
	"net/http"
	"strconv"

	"github.com/nfalk/supplierdesk/backend/internal/errors"
	"github.com/nfalk/supplierdesk/backend/internal/models"
	"github.com/nfalk/supplierdesk/backend/internal/services"
)

// OrderHandler handles purchase orders and commission rules.
type OrderHandler struct {
	svc *services.OrderService
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(svc *services.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// Register wires the handler's routes into mux.
func (h *OrderHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/orders", h.List)
	mux.HandleFunc("POST /api/orders", h.Create)
	mux.HandleFunc("GET /api/orders/{id}", h.Get)
	mux.HandleFunc("POST /api/orders/{id}/status", h.Transition)
	mux.HandleFunc("GET /api/suppliers/{id}/orders", h.ListForSupplier)
	mux.HandleFunc("GET /api/suppliers/{id}/commission", h.GetCommission)
	mux.HandleFunc("PUT /api/suppliers/{id}/commission", h.SetCommission)
	mux.HandleFunc("GET /api/suppliers/{id}/commission/preview", h.PreviewCommission)
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request, supplierID string) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}
	status := models.OrderStatus(q.Get("status"))

	orders, err := h.svc.List(supplierID, status, perPage, (page-1)*perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orders":   orders,
		"page":     page,
		"per_page": perPage,
	})
}

// List handles GET /api/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.URL.Query().Get("supplier_id"))
}

// ListForSupplier handles GET /api/suppliers/{id}/orders
func (h *OrderHandler) ListForSupplier(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.PathValue("id"))
}

// Create handles POST /api/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var order models.PurchaseOrder
	if !decodeBody(w, r, &order) {
		return
	}
	order.ID = ""
	order.Status = ""

	created, err := h.svc.Create(&order)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Transition handles POST /api/orders/{id}/status
func (h *OrderHandler) Transition(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Status models.OrderStatus `json:"status"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	order, err := h.svc.Transition(r.PathValue("id"), request.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// GetCommission handles GET /api/suppliers/{id}/commission
func (h *OrderHandler) GetCommission(w http.ResponseWriter, r *http.Request) {
	rule, err := h.svc.GetCommissionRule(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// SetCommission handles PUT /api/suppliers/{id}/commission
func (h *OrderHandler) SetCommission(w http.ResponseWriter, r *http.Request) {
	var rule models.CommissionRule
	if !decodeBody(w, r, &rule) {
		return
	}
	rule.SupplierID = models.UUID(r.PathValue("id"))

	saved, err := h.svc.SetCommissionRule(&rule)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// PreviewCommission handles GET /api/suppliers/{id}/commission/preview?total=
func (h *OrderHandler) PreviewCommission(w http.ResponseWriter, r *http.Request) {
	total, err := strconv.ParseFloat(r.URL.Query().Get("total"), 64)
	if err != nil {
		writeError(w, errors.New(errors.ErrInvalid, "total query parameter must be a number"))
		return
	}
	preview, err := h.svc.PreviewCommission(r.PathValue("id"), total)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}
