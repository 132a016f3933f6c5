package services

import (
	"database/sql"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/nfalk/supplierdesk/backend/internal/db"
	"github.com/nfalk/supplierdesk/backend/internal/errors"
	"github.com/nfalk/supplierdesk/backend/internal/models"
)

// SupplierPerformance aggregates order activity for one supplier.
type SupplierPerformance struct {
	SupplierID   models.UUID           `json:"supplier_id"`
	SupplierName string                `json:"supplier_name"`
	SupplierCode string                `json:"supplier_code"`
	Status       models.SupplierStatus `json:"status"`

	OrdersTotal    int                        `json:"orders_total"`
	OrdersByStatus map[models.OrderStatus]int `json:"orders_by_status"`

	// TotalSpend covers received orders only; OpenValue covers orders that
	// are submitted, confirmed, or shipped.
	TotalSpend    float64 `json:"total_spend"`
	OpenValue     float64 `json:"open_value"`
	AvgOrderValue float64 `json:"avg_order_value"`

	// OnTimeRate is the share of received orders (with an expected date)
	// delivered on or before it. -1 when no order qualifies.
	OnTimeRate float64 `json:"on_time_rate"`

	// CancellationRate is cancelled orders over all non-draft orders.
	// -1 when no order qualifies.
	CancellationRate float64 `json:"cancellation_rate"`

	CommissionAccrued float64 `json:"commission_accrued"`
}

// TopSupplier is one row of the dashboard's spend ranking.
type TopSupplier struct {
	SupplierID   models.UUID `json:"supplier_id"`
	SupplierName string      `json:"supplier_name"`
	Spend        float64     `json:"spend"`
}

// topSupplierCount bounds the dashboard ranking.
const topSupplierCount = 5

// DashboardSummary is the aggregate view across all suppliers.
type DashboardSummary struct {
	SuppliersTotal  int           `json:"suppliers_total"`
	SuppliersActive int           `json:"suppliers_active"`
	OrdersTotal     int           `json:"orders_total"`
	OrdersOpen      int           `json:"orders_open"`
	TotalSpend      float64       `json:"total_spend"`
	OpenValue       float64       `json:"open_value"`
	TopSuppliers    []TopSupplier `json:"top_suppliers"`
}

// ReportService computes supplier performance reports from order history.
type ReportService struct {
	repo *db.Repository
}

// NewReportService creates a ReportService.
func NewReportService(repo *db.Repository) *ReportService {
	return &ReportService{repo: repo}
}

// openOrder reports whether the order still has money committed.
func openOrder(status models.OrderStatus) bool {
	switch status {
	case models.OrderSubmitted, models.OrderConfirmed, models.OrderShipped:
		return true
	}
	return false
}

// SupplierReport builds a performance row per supplier for orders created
// at or after since (unix seconds; 0 means all time). Rows are sorted by
// supplier name using the collation rules of locale; an unknown or empty
// locale falls back to English.
func (s *ReportService) SupplierReport(since int64, locale string) ([]*SupplierPerformance, error) {
	suppliers, err := s.repo.ListSuppliers(1000, 0, db.SupplierFilter{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list suppliers", err)
	}
	orders, err := s.repo.ListOrdersSince(since)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list orders", err)
	}

	bySupplier := make(map[models.UUID][]*models.PurchaseOrder)
	for _, o := range orders {
		bySupplier[o.SupplierID] = append(bySupplier[o.SupplierID], o)
	}

	rows := make([]*SupplierPerformance, 0, len(suppliers))
	for _, sup := range suppliers {
		row := &SupplierPerformance{
			SupplierID:     sup.ID,
			SupplierName:   sup.Name,
			SupplierCode:   sup.Code,
			Status:         sup.Status,
			OrdersByStatus: make(map[models.OrderStatus]int),
		}
		s.fillOrderStats(row, bySupplier[sup.ID])

		rule, err := s.repo.GetCommissionRule(sup.ID.String())
		if err != nil && err != sql.ErrNoRows {
			return nil, errors.Wrap(errors.ErrDatabase, "failed to load commission rule", err)
		}
		if rule != nil {
			for _, o := range bySupplier[sup.ID] {
				if o.Status == models.OrderReceived {
					row.CommissionAccrued += rule.Amount(o.TotalAmount)
				}
			}
		}
		rows = append(rows, row)
	}

	coll := collate.New(matchLocale(locale))
	sort.SliceStable(rows, func(i, j int) bool {
		return coll.CompareString(rows[i].SupplierName, rows[j].SupplierName) < 0
	})
	return rows, nil
}

func (s *ReportService) fillOrderStats(row *SupplierPerformance, orders []*models.PurchaseOrder) {
	var received, onTimeEligible, onTime, nonDraft, cancelled int
	for _, o := range orders {
		row.OrdersTotal++
		row.OrdersByStatus[o.Status]++
		switch {
		case o.Status == models.OrderReceived:
			received++
			row.TotalSpend += o.TotalAmount
			if o.ExpectedAt != 0 {
				onTimeEligible++
				if o.OnTime() {
					onTime++
				}
			}
		case openOrder(o.Status):
			row.OpenValue += o.TotalAmount
		}
		if o.Status != models.OrderDraft {
			nonDraft++
			if o.Status == models.OrderCancelled {
				cancelled++
			}
		}
	}

	if received > 0 {
		row.AvgOrderValue = row.TotalSpend / float64(received)
	}
	row.OnTimeRate = -1
	if onTimeEligible > 0 {
		row.OnTimeRate = float64(onTime) / float64(onTimeEligible)
	}
	row.CancellationRate = -1
	if nonDraft > 0 {
		row.CancellationRate = float64(cancelled) / float64(nonDraft)
	}
}

// matchLocale resolves a BCP 47 tag, falling back to English.
func matchLocale(locale string) language.Tag {
	if locale == "" {
		return language.English
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	return tag
}

// Summary computes the dashboard aggregate across all suppliers.
func (s *ReportService) Summary() (*DashboardSummary, error) {
	total, err := s.repo.CountSuppliers(db.SupplierFilter{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to count suppliers", err)
	}
	active, err := s.repo.CountSuppliers(db.SupplierFilter{Status: models.SupplierActive})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to count active suppliers", err)
	}
	orders, err := s.repo.ListOrdersSince(0)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list orders", err)
	}

	summary := &DashboardSummary{
		SuppliersTotal:  total,
		SuppliersActive: active,
		OrdersTotal:     len(orders),
	}
	spendBySupplier := make(map[models.UUID]float64)
	for _, o := range orders {
		switch {
		case o.Status == models.OrderReceived:
			summary.TotalSpend += o.TotalAmount
			spendBySupplier[o.SupplierID] += o.TotalAmount
		case openOrder(o.Status):
			summary.OrdersOpen++
			summary.OpenValue += o.TotalAmount
		}
	}
	summary.TopSuppliers, err = s.rankBySpend(spendBySupplier)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// rankBySpend resolves supplier names for the dashboard's top-spend list.
func (s *ReportService) rankBySpend(spend map[models.UUID]float64) ([]TopSupplier, error) {
	if len(spend) == 0 {
		return nil, nil
	}
	suppliers, err := s.repo.ListSuppliers(1000, 0, db.SupplierFilter{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list suppliers", err)
	}
	names := make(map[models.UUID]string, len(suppliers))
	for _, sup := range suppliers {
		names[sup.ID] = sup.Name
	}

	top := make([]TopSupplier, 0, len(spend))
	for id, amount := range spend {
		top = append(top, TopSupplier{SupplierID: id, SupplierName: names[id], Spend: amount})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Spend != top[j].Spend {
			return top[i].Spend > top[j].Spend
		}
		return top[i].SupplierName < top[j].SupplierName
	})
	if len(top) > topSupplierCount {
		top = top[:topSupplierCount]
	}
	return top, nil
}
