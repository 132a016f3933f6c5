// Package models provides data model definitions for the SupplierDesk backend.
package models

import "time"

// OrderStatus represents the lifecycle status of a purchase order.
type OrderStatus string

const (
	OrderDraft     OrderStatus = "draft"
	OrderSubmitted OrderStatus = "submitted"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderReceived  OrderStatus = "received"
	OrderCancelled OrderStatus = "cancelled"
)

// orderTransitions lists the allowed next statuses per status.
// Any non-terminal status may also move to cancelled.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderDraft:     {OrderSubmitted, OrderCancelled},
	OrderSubmitted: {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderShipped, OrderCancelled},
	OrderShipped:   {OrderReceived, OrderCancelled},
	OrderReceived:  {},
	OrderCancelled: {},
}

// Valid reports whether the status is one of the known values.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// OrderLine is a single line item of a purchase order.
type OrderLine struct {
	SKU         string  `json:"sku"`
	Description string  `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Subtotal returns quantity times unit price.
func (l OrderLine) Subtotal() float64 {
	return float64(l.Quantity) * l.UnitPrice
}

// PurchaseOrder represents an order placed with a supplier.
// Lines are stored as a JSON column; TotalAmount is derived from them.
type PurchaseOrder struct {
	ID          UUID        `db:"id" json:"id"`
	Number      string      `db:"number" json:"number"`
	SupplierID  UUID        `db:"supplier_id" json:"supplier_id"`
	Status      OrderStatus `db:"status" json:"status"`
	Currency    string      `db:"currency" json:"currency"`
	Lines       []OrderLine `db:"-" json:"lines"`
	TotalAmount float64     `db:"total_amount" json:"total_amount"`
	ExpectedAt  int64       `db:"expected_at" json:"expected_at,omitempty"`
	ReceivedAt  int64       `db:"received_at" json:"received_at,omitempty"`
	CreatedAt   int64       `db:"created_at" json:"created_at"`
	UpdatedAt   int64       `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for PurchaseOrder.
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// ComputeTotal recalculates TotalAmount from the line items.
func (o *PurchaseOrder) ComputeTotal() {
	total := 0.0
	for _, l := range o.Lines {
		total += l.Subtotal()
	}
	o.TotalAmount = total
}

// OnTime reports whether the order was received by its expected date.
// Only meaningful for received orders with an expected date set.
func (o *PurchaseOrder) OnTime() bool {
	return o.Status == OrderReceived && o.ExpectedAt > 0 && o.ReceivedAt > 0 &&
		o.ReceivedAt <= o.ExpectedAt
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (o *PurchaseOrder) CreatedAtTime() time.Time {
	return time.Unix(o.CreatedAt, 0)
}

// Touch updates the UpdatedAt timestamp.
func (o *PurchaseOrder) Touch() {
	o.UpdatedAt = time.Now().Unix()
}
