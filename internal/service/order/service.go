// Package order commits a priced cart into a durable order record and keeps
// the per-customer history aggregate up to date.
package order

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"

	"github.com/nottechincal/StuffedLamb-Final/internal/domain"
	customerrepo "github.com/nottechincal/StuffedLamb-Final/internal/repository/customer"
	orderrepo "github.com/nottechincal/StuffedLamb-Final/internal/repository/order"
)

// Service finalizes orders. Both repositories are written per order; a
// partial failure is surfaced as a PersistenceError naming the failed write
// so callers can distinguish "order unknown" from "order lost".
type Service struct {
	orders    orderrepo.Repository
	customers customerrepo.Repository
	loc       *time.Location
	logger    *log.Logger

	now func() time.Time
}

// New builds the service. loc is the shop timezone used for the
// order-number date prefix.
func New(orders orderrepo.Repository, customers customerrepo.Repository, loc *time.Location, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{orders: orders, customers: customers, loc: loc, logger: logger, now: time.Now}
}

// CreateInput carries everything needed to finalize an order.
type CreateInput struct {
	CustomerName  string
	CustomerPhone string
	Cart          []domain.LineItem
	Pricing       domain.Pricing
	PickupTime    string
	PickupTimeISO string
	Notes         string
}

// Create validates the preconditions, snapshots the cart and pricing into an
// immutable order record, persists it and folds it into the customer
// aggregate. Precondition violations write nothing.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	if len(in.Cart) == 0 {
		return nil, &domain.PreconditionError{
			Missing: "cart",
			Message: "Cart is empty",
		}
	}
	if strings.TrimSpace(in.PickupTime) == "" {
		return nil, &domain.PreconditionError{
			Missing: "pickupTime",
			Message: "When would you like to pick that up?",
		}
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:            uuid.NewString(),
		OrderNumber:   s.orderNumber(),
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		Items:         domain.CloneCart(in.Cart),
		Pricing:       in.Pricing,
		PickupTime:    in.PickupTime,
		PickupTimeISO: in.PickupTimeISO,
		Notes:         in.Notes,
		Status:        domain.OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, &domain.PersistenceError{Op: "order write", Err: err}
	}

	if err := s.updateCustomer(ctx, order); err != nil {
		// The order itself is durable; the aggregate write is the part
		// whose outcome is unknown.
		return order, &domain.PersistenceError{Op: "customer update", Err: err}
	}

	s.logger.Printf("order created: %s total=%d items=%d", order.OrderNumber, order.Pricing.TotalCents, len(order.Items))
	return order, nil
}

// orderNumber is date-prefixed with a short random discriminator; collisions
// are acceptably rare, not prevented.
func (s *Service) orderNumber() string {
	return s.now().In(s.loc).Format("20060102") + "-" + strings.ToUpper(shortuuid.New()[:4])
}

func (s *Service) updateCustomer(ctx context.Context, order *domain.Order) error {
	phone := strings.TrimSpace(order.CustomerPhone)
	if phone == "" {
		return nil
	}

	cust, err := s.customers.GetByPhone(ctx, phone)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		cust = &domain.Customer{Phone: phone}
	}
	cust.RecordOrder(order)
	return s.customers.Upsert(ctx, cust)
}

// Get fetches an order by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// Customer returns the aggregate for a phone number, or nil for a first-time
// caller.
func (s *Service) Customer(ctx context.Context, phone string) (*domain.Customer, error) {
	cust, err := s.customers.GetByPhone(ctx, phone)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return cust, err
}

// LastOrder returns the caller's most recent order, or nil when there is
// none.
func (s *Service) LastOrder(ctx context.Context, phone string) (*domain.Order, error) {
	cust, err := s.Customer(ctx, phone)
	if err != nil {
		return nil, err
	}
	if cust == nil || len(cust.Orders) == 0 {
		return nil, nil
	}
	order, err := s.orders.GetByID(ctx, cust.Orders[0].ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return order, err
}

var validStatuses = map[string]bool{
	domain.OrderStatusPending:   true,
	domain.OrderStatusPreparing: true,
	domain.OrderStatusReady:     true,
	domain.OrderStatusCollected: true,
	domain.OrderStatusCancelled: true,
}

// UpdateStatus transitions an order's status.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	if !validStatuses[status] {
		return nil, domain.Validationf("invalid order status: %s", status)
	}
	return s.orders.UpdateStatus(ctx, id, status)
}

// TodaysOrders lists orders placed today (shop timezone), newest first.
func (s *Service) TodaysOrders(ctx context.Context) ([]domain.Order, error) {
	prefix := s.now().In(s.loc).Format("20060102")
	return s.orders.ListByNumberPrefix(ctx, prefix)
}

// QueueSize counts orders still being prepared; it drives ready-time
// estimates.
func (s *Service) QueueSize(ctx context.Context) (int, error) {
	return s.orders.CountActive(ctx)
}
