// Package db provides database connection management and operations.
package db

import (
	"time"

	"github.com/nfalk/supplierdesk/backend/internal/models"
)

// Seed loads the demo dataset the UI is developed against. It is a no-op
// when suppliers already exist, so restarts against a file DSN stay clean.
func Seed(repo *Repository) error {
	count, err := repo.CountSuppliers(SupplierFilter{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	day := int64(24 * 3600)

	suppliers := []models.Supplier{
		{
			Name: "Nordwind Components", Code: "NWC", Category: "electronics",
			ContactName: "Petra Lindgren", ContactEmail: "petra@nordwind.example",
			Status: models.SupplierActive, Rating: 4.5,
			PaymentTerms: "net30", LeadTimeDays: 12,
		},
		{
			Name: "Baltic Fasteners", Code: "BALT", Category: "hardware",
			ContactName: "Tomas Ruks", ContactEmail: "tomas@baltic.example",
			Status: models.SupplierActive, Rating: 3.8,
			PaymentTerms: "net45", LeadTimeDays: 21,
		},
		{
			Name: "Meridian Textiles", Code: "MERI", Category: "textiles",
			ContactName: "Ana Duarte", ContactEmail: "ana@meridian.example",
			Status: models.SupplierPending, Rating: 0,
			PaymentTerms: "net30", LeadTimeDays: 30,
		},
		{
			Name: "Quarry Industrial", Code: "QIND", Category: "hardware",
			ContactName: "Dale Whitcombe", ContactEmail: "dale@quarry.example",
			Status: models.SupplierSuspended, Rating: 2.1,
			PaymentTerms: "prepaid", LeadTimeDays: 45,
		},
	}

	ids := make([]models.UUID, 0, len(suppliers))
	for i := range suppliers {
		if err := repo.CreateSupplier(&suppliers[i]); err != nil {
			return err
		}
		ids = append(ids, suppliers[i].ID)
	}

	orders := []models.PurchaseOrder{
		{
			SupplierID: ids[0], Status: models.OrderReceived, Currency: "EUR",
			Lines: []models.OrderLine{
				{SKU: "CAP-470u", Description: "Capacitor 470uF", Quantity: 2000, UnitPrice: 0.11},
				{SKU: "RES-10k", Description: "Resistor 10k", Quantity: 5000, UnitPrice: 0.02},
			},
			ExpectedAt: now.Unix() - 5*day, ReceivedAt: now.Unix() - 6*day,
		},
		{
			SupplierID: ids[0], Status: models.OrderShipped, Currency: "EUR",
			Lines: []models.OrderLine{
				{SKU: "PCB-A4", Description: "4-layer PCB", Quantity: 150, UnitPrice: 7.40},
			},
			ExpectedAt: now.Unix() + 4*day,
		},
		{
			SupplierID: ids[1], Status: models.OrderReceived, Currency: "EUR",
			Lines: []models.OrderLine{
				{SKU: "BOLT-M6", Description: "M6 hex bolt", Quantity: 10000, UnitPrice: 0.05},
			},
			ExpectedAt: now.Unix() - 10*day, ReceivedAt: now.Unix() - 8*day,
		},
		{
			SupplierID: ids[1], Status: models.OrderCancelled, Currency: "EUR",
			Lines: []models.OrderLine{
				{SKU: "NUT-M6", Description: "M6 nut", Quantity: 10000, UnitPrice: 0.03},
			},
		},
		{
			SupplierID: ids[2], Status: models.OrderDraft, Currency: "USD",
			Lines: []models.OrderLine{
				{SKU: "FAB-CT90", Description: "Cotton twill, 90cm", Quantity: 400, UnitPrice: 3.15},
			},
		},
	}
	for i := range orders {
		if err := repo.CreateOrder(&orders[i]); err != nil {
			return err
		}
	}

	rules := []models.CommissionRule{
		{
			SupplierID: ids[0], Basis: models.CommissionPercentage, Rate: 5, Enabled: true,
			Tiers: []models.CommissionTier{{MinAmount: 1000, Rate: 4}, {MinAmount: 10000, Rate: 3}},
		},
		{SupplierID: ids[1], Basis: models.CommissionFlat, Rate: 25, Enabled: true},
	}
	for i := range rules {
		if err := repo.UpsertCommissionRule(&rules[i]); err != nil {
			return err
		}
	}

	connection := models.Connection{
		SupplierID: ids[0], Name: "Nordwind price feed", Type: models.ConnectionAPI,
		BaseURL: "https://feed.nordwind.example/v2", AuthMethod: models.AuthAPIKey,
		SamplePayload: `[{"code":"NWC","item":"CAP-470u","qty":"2000","price":"0.11"}]`,
	}
	if err := repo.CreateConnection(&connection); err != nil {
		return err
	}

	mappings := []models.FieldMapping{
		{SourceField: "code", TargetField: "supplier_code", Transform: models.TransformUppercase, Required: true},
		{SourceField: "item", TargetField: "sku", Transform: models.TransformTrim, Required: true},
		{SourceField: "qty", TargetField: "quantity", Transform: models.TransformNumber, Required: true},
		{SourceField: "price", TargetField: "unit_price", Transform: models.TransformNumber},
	}
	if err := repo.ReplaceMappings(string(connection.ID), mappings); err != nil {
		return err
	}

	settings := models.SyncSettings{
		ConnectionID: connection.ID, Enabled: false,
		IntervalMinutes: 60, Direction: models.SyncPull, Policy: models.RemoteWins,
	}
	return repo.UpsertSyncSettings(&settings)
}
