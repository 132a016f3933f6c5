// Package models provides data model definitions for the SupplierDesk backend.
package models

import "sort"

// CommissionBasis determines how a commission is calculated.
type CommissionBasis string

const (
	CommissionPercentage CommissionBasis = "percentage"
	CommissionFlat       CommissionBasis = "flat_per_order"
)

// Valid reports whether the basis is one of the known values.
func (b CommissionBasis) Valid() bool {
	return b == CommissionPercentage || b == CommissionFlat
}

// CommissionTier overrides the base rate for order totals at or above
// MinAmount. The tier with the highest qualifying threshold wins.
type CommissionTier struct {
	MinAmount float64 `json:"min_amount"`
	Rate      float64 `json:"rate"`
}

// CommissionRule configures commission calculation for one supplier.
// Tiers are stored as a JSON column.
type CommissionRule struct {
	ID            UUID             `db:"id" json:"id"`
	SupplierID    UUID             `db:"supplier_id" json:"supplier_id"`
	Basis         CommissionBasis  `db:"basis" json:"basis"`
	Rate          float64          `db:"rate" json:"rate"`
	Tiers         []CommissionTier `db:"-" json:"tiers,omitempty"`
	EffectiveFrom int64            `db:"effective_from" json:"effective_from,omitempty"`
	Enabled       bool             `db:"enabled" json:"enabled"`
	CreatedAt     int64            `db:"created_at" json:"created_at"`
	UpdatedAt     int64            `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for CommissionRule.
func (CommissionRule) TableName() string {
	return "commission_rules"
}

// RateFor returns the effective rate for an order total, resolving tiers.
func (r *CommissionRule) RateFor(orderTotal float64) float64 {
	rate := r.Rate
	tiers := make([]CommissionTier, len(r.Tiers))
	copy(tiers, r.Tiers)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinAmount < tiers[j].MinAmount })
	for _, t := range tiers {
		if orderTotal >= t.MinAmount {
			rate = t.Rate
		}
	}
	return rate
}

// Amount returns the commission for an order total.
// A disabled rule always yields zero.
func (r *CommissionRule) Amount(orderTotal float64) float64 {
	if !r.Enabled {
		return 0
	}
	rate := r.RateFor(orderTotal)
	switch r.Basis {
	case CommissionPercentage:
		return orderTotal * rate / 100
	case CommissionFlat:
		return rate
	}
	return 0
}
