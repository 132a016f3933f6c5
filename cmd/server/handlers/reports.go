package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nfalk/supplierdesk/backend/internal/errors"
	"github.com/nfalk/supplierdesk/backend/internal/export"
	"github.com/nfalk/supplierdesk/backend/internal/services"
)

// ReportHandler serves supplier performance reports.
type ReportHandler struct {
	svc *services.ReportService
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(svc *services.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Register wires the handler's routes into mux.
func (h *ReportHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/reports/suppliers", h.Suppliers)
	mux.HandleFunc("GET /api/reports/suppliers/{id}", h.Supplier)
	mux.HandleFunc("GET /api/reports/dashboard", h.Dashboard)
	mux.HandleFunc("GET /api/reports/export", h.Export)
}

// reportParams reads the shared since/locale query parameters.
func reportParams(r *http.Request) (int64, string) {
	q := r.URL.Query()
	since, _ := strconv.ParseInt(q.Get("since"), 10, 64)
	if since < 0 {
		since = 0
	}
	return since, q.Get("locale")
}

// Suppliers handles GET /api/reports/suppliers
func (h *ReportHandler) Suppliers(w http.ResponseWriter, r *http.Request) {
	since, locale := reportParams(r)
	rows, err := h.svc.SupplierReport(since, locale)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suppliers": rows,
		"since":     since,
	})
}

// Supplier handles GET /api/reports/suppliers/{id}
func (h *ReportHandler) Supplier(w http.ResponseWriter, r *http.Request) {
	since, locale := reportParams(r)
	rows, err := h.svc.SupplierReport(since, locale)
	if err != nil {
		writeError(w, err)
		return
	}
	id := r.PathValue("id")
	for _, row := range rows {
		if row.SupplierID.String() == id {
			writeJSON(w, http.StatusOK, row)
			return
		}
	}
	writeError(w, errors.New(errors.ErrSupplierNotFound, fmt.Sprintf("supplier %s not found", id)))
}

// Dashboard handles GET /api/reports/dashboard
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Export handles GET /api/reports/export, streaming the report as CSV.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	since, locale := reportParams(r)
	rows, err := h.svc.SupplierReport(since, locale)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("supplier-report-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.SupplierReportCSV(w, rows); err != nil {
		// The CSV stream has started, so the status can no longer change.
		logError(err)
	}
}
