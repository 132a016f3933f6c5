// Package export tests for the CSV report writer.
package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/nfalk/supplierdesk/backend/internal/models"
	"github.com/nfalk/supplierdesk/backend/internal/services"
)

func TestSupplierReportCSV(t *testing.T) {
	rows := []*services.SupplierPerformance{
		{
			SupplierID:   "a",
			SupplierName: "Acme, Inc.",
			SupplierCode: "ACME",
			Status:       models.SupplierActive,
			OrdersTotal:  3,
			OrdersByStatus: map[models.OrderStatus]int{
				models.OrderReceived:  2,
				models.OrderCancelled: 1,
			},
			TotalSpend:        1500,
			AvgOrderValue:     750,
			OnTimeRate:        0.5,
			CancellationRate:  1.0 / 3.0,
			CommissionAccrued: 75,
		},
		{
			SupplierID:       "b",
			SupplierName:     "Blank Co",
			SupplierCode:     "BLNK",
			Status:           models.SupplierPending,
			OnTimeRate:       -1,
			CancellationRate: -1,
		},
	}

	var buf bytes.Buffer
	if err := SupplierReportCSV(&buf, rows); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d records", len(records))
	}
	if records[0][0] != "supplier_code" {
		t.Errorf("Unexpected header %v", records[0])
	}

	acme := records[1]
	if acme[1] != "Acme, Inc." {
		t.Errorf("Names with commas must survive quoting, got %q", acme[1])
	}
	if acme[8] != "2" {
		t.Errorf("Expected 2 received orders, got %q", acme[8])
	}
	if acme[10] != "1500.00" {
		t.Errorf("Expected spend 1500.00, got %q", acme[10])
	}
	if acme[13] != "50.0%" {
		t.Errorf("Expected on-time rate 50.0%%, got %q", acme[13])
	}
	if acme[15] != "75.00" {
		t.Errorf("Expected commission 75.00, got %q", acme[15])
	}

	blank := records[2]
	if blank[13] != "" || blank[14] != "" {
		t.Errorf("Undefined rates should be empty cells, got %q and %q", blank[13], blank[14])
	}
}

func TestSupplierReportCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := SupplierReportCSV(&buf, nil); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Errorf("Expected just the header, got %d lines", len(lines))
	}
}
