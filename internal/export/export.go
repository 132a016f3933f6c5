// Package export renders supplier performance reports as CSV downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/nfalk/supplierdesk/backend/internal/errors"
	"github.com/nfalk/supplierdesk/backend/internal/models"
	"github.com/nfalk/supplierdesk/backend/internal/services"
)

// reportHeader is the CSV column order for supplier performance exports.
var reportHeader = []string{
	"supplier_code",
	"supplier_name",
	"status",
	"orders_total",
	"orders_draft",
	"orders_submitted",
	"orders_confirmed",
	"orders_shipped",
	"orders_received",
	"orders_cancelled",
	"total_spend",
	"open_value",
	"avg_order_value",
	"on_time_rate",
	"cancellation_rate",
	"commission_accrued",
}

// SupplierReportCSV writes one row per supplier to w. Rates that could not
// be computed are written as empty cells rather than -1.
func SupplierReportCSV(w io.Writer, rows []*services.SupplierPerformance) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return errors.Wrap(errors.ErrExportFailed, "failed to write csv header", err)
	}
	for _, row := range rows {
		record := []string{
			row.SupplierCode,
			row.SupplierName,
			string(row.Status),
			fmt.Sprintf("%d", row.OrdersTotal),
			fmt.Sprintf("%d", row.OrdersByStatus[models.OrderDraft]),
			fmt.Sprintf("%d", row.OrdersByStatus[models.OrderSubmitted]),
			fmt.Sprintf("%d", row.OrdersByStatus[models.OrderConfirmed]),
			fmt.Sprintf("%d", row.OrdersByStatus[models.OrderShipped]),
			fmt.Sprintf("%d", row.OrdersByStatus[models.OrderReceived]),
			fmt.Sprintf("%d", row.OrdersByStatus[models.OrderCancelled]),
			formatAmount(row.TotalSpend),
			formatAmount(row.OpenValue),
			formatAmount(row.AvgOrderValue),
			formatRate(row.OnTimeRate),
			formatRate(row.CancellationRate),
			formatAmount(row.CommissionAccrued),
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(errors.ErrExportFailed, "failed to write csv row", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(errors.ErrExportFailed, "failed to flush csv", err)
	}
	return nil
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// formatRate renders a 0..1 rate as a percentage, or empty when the rate
// is undefined.
func formatRate(v float64) string {
	if v < 0 {
		return ""
	}
	return fmt.Sprintf("%.1f%%", v*100)
}
