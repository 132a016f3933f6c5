package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nfalk/supplierdesk/backend/internal/db"
	"github.com/nfalk/supplierdesk/backend/internal/errors"
	"github.com/nfalk/supplierdesk/backend/internal/logging"
	"github.com/nfalk/supplierdesk/backend/internal/models"
	"github.com/nfalk/supplierdesk/backend/internal/uuid"
)

// OrderService handles purchase order lifecycle and commission rules.
// Orders are not part of the undo history; their state machine makes
// transitions one-way.
type OrderService struct {
	repo    *db.Repository
	onEvent EventFunc
}

// NewOrderService creates an OrderService.
func NewOrderService(repo *db.Repository) *OrderService {
	return &OrderService{repo: repo}
}

// SetEventHandler registers the WebSocket notification callback.
func (s *OrderService) SetEventHandler(fn EventFunc) {
	s.onEvent = fn
}

func (s *OrderService) emit(event string, payload interface{}) {
	if s.onEvent != nil {
		s.onEvent(event, payload)
	}
}

func validateOrder(o *models.PurchaseOrder) error {
	if o.SupplierID == "" {
		return errors.New(errors.ErrOrderInvalid, "order requires a supplier")
	}
	if len(o.Lines) == 0 {
		return errors.New(errors.ErrOrderInvalid, "order requires at least one line")
	}
	for i, line := range o.Lines {
		if line.SKU == "" {
			return errors.New(errors.ErrOrderInvalid, fmt.Sprintf("line %d has no sku", i+1))
		}
		if line.Quantity <= 0 {
			return errors.New(errors.ErrOrderInvalid, fmt.Sprintf("line %d quantity must be positive", i+1))
		}
		if line.UnitPrice < 0 {
			return errors.New(errors.ErrOrderInvalid, fmt.Sprintf("line %d has a negative unit price", i+1))
		}
	}
	return nil
}

// Create stores a new draft purchase order. The order number and total are
// assigned by the repository.
func (s *OrderService) Create(o *models.PurchaseOrder) (*models.PurchaseOrder, error) {
	if err := validateOrder(o); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetSupplier(o.SupplierID.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrSupplierNotFound, fmt.Sprintf("supplier %s not found", o.SupplierID))
		}
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load supplier", err)
	}
	if o.ID == "" {
		o.ID = models.UUID(uuid.New())
	}
	if err := s.repo.CreateOrder(o); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to create order", err)
	}
	s.emit("order.created", o)
	logging.Info("Purchase order created", map[string]interface{}{
		"id":     o.ID.String(),
		"number": o.Number,
		"total":  o.TotalAmount,
	})
	return o, nil
}

// Get returns a single order, or ErrOrderNotFound.
func (s *OrderService) Get(id string) (*models.PurchaseOrder, error) {
	o, err := s.repo.GetOrder(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrOrderNotFound, fmt.Sprintf("order %s not found", id))
		}
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load order", err)
	}
	return o, nil
}

// List returns orders, optionally filtered by supplier and status.
func (s *OrderService) List(supplierID string, status models.OrderStatus, limit, offset int) ([]*models.PurchaseOrder, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if status != "" && !status.Valid() {
		return nil, errors.New(errors.ErrInvalid, fmt.Sprintf("unknown order status %q", status))
	}
	orders, err := s.repo.ListOrders(supplierID, status, limit, offset)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list orders", err)
	}
	return orders, nil
}

// Transition moves an order to a new status, enforcing the state machine.
func (s *OrderService) Transition(id string, target models.OrderStatus) (*models.PurchaseOrder, error) {
	if !target.Valid() {
		return nil, errors.New(errors.ErrInvalid, fmt.Sprintf("unknown order status %q", target))
	}
	o, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(target) {
		return nil, errors.New(errors.ErrOrderTransition,
			fmt.Sprintf("cannot move order %s from %s to %s", o.Number, o.Status, target))
	}
	if err := s.repo.UpdateOrderStatus(id, target); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to update order status", err)
	}
	o, err = s.Get(id)
	if err != nil {
		return nil, err
	}
	s.emit("order.updated", o)
	return o, nil
}

// SetCommissionRule creates or replaces a supplier's commission rule.
func (s *OrderService) SetCommissionRule(rule *models.CommissionRule) (*models.CommissionRule, error) {
	if rule.SupplierID == "" {
		return nil, errors.New(errors.ErrInvalid, "commission rule requires a supplier")
	}
	switch rule.Basis {
	case models.CommissionPercentage:
		if rule.Rate < 0 || rule.Rate > 100 {
			return nil, errors.New(errors.ErrInvalid, "percentage rate must be between 0 and 100")
		}
	case models.CommissionFlat:
		if rule.Rate < 0 {
			return nil, errors.New(errors.ErrInvalid, "flat rate cannot be negative")
		}
	default:
		return nil, errors.New(errors.ErrInvalid, fmt.Sprintf("unknown commission basis %q", rule.Basis))
	}
	for i, tier := range rule.Tiers {
		if tier.MinAmount < 0 || tier.Rate < 0 {
			return nil, errors.New(errors.ErrInvalid, fmt.Sprintf("tier %d has negative values", i+1))
		}
	}
	if _, err := s.repo.GetSupplier(rule.SupplierID.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrSupplierNotFound, fmt.Sprintf("supplier %s not found", rule.SupplierID))
		}
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load supplier", err)
	}
	if err := s.repo.UpsertCommissionRule(rule); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to save commission rule", err)
	}
	s.emit("commission.updated", rule)
	return rule, nil
}

// GetCommissionRule returns a supplier's commission rule if one is set.
func (s *OrderService) GetCommissionRule(supplierID string) (*models.CommissionRule, error) {
	rule, err := s.repo.GetCommissionRule(supplierID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrNotFound, fmt.Sprintf("no commission rule for supplier %s", supplierID))
		}
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load commission rule", err)
	}
	return rule, nil
}

// CommissionPreview is the computed commission for a hypothetical or real
// order total.
type CommissionPreview struct {
	SupplierID models.UUID            `json:"supplier_id"`
	OrderTotal float64                `json:"order_total"`
	Basis      models.CommissionBasis `json:"basis"`
	Rate       float64                `json:"rate"`
	Amount     float64                `json:"amount"`
	ComputedAt int64                  `json:"computed_at"`
}

// PreviewCommission computes the commission a supplier's rule would yield
// for the given order total.
func (s *OrderService) PreviewCommission(supplierID string, orderTotal float64) (*CommissionPreview, error) {
	if orderTotal < 0 {
		return nil, errors.New(errors.ErrInvalid, "order total cannot be negative")
	}
	rule, err := s.GetCommissionRule(supplierID)
	if err != nil {
		return nil, err
	}
	return &CommissionPreview{
		SupplierID: rule.SupplierID,
		OrderTotal: orderTotal,
		Basis:      rule.Basis,
		Rate:       rule.RateFor(orderTotal),
		Amount:     rule.Amount(orderTotal),
		ComputedAt: time.Now().Unix(),
	}, nil
}
