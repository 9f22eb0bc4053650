package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
)

var (
	// ErrOrderNotFound is returned when the order does not exist or belongs to another user.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidTransition is returned when the status machine forbids the change.
	ErrInvalidTransition = errors.New("order status transition not allowed")
	// ErrStaleOrder is returned when the order changed between read and write.
	ErrStaleOrder = errors.New("order was modified concurrently")
)

// Update is the mutable part of an order.
type Update struct {
	Status      Status
	IsPaid      bool
	PaidAt      *time.Time
	IsDelivered bool
	DeliveredAt *time.Time
	UpdatedAt   time.Time
}

// Store persists orders. UpdateOrder applies u only while the stored status still equals from.
type Store interface {
	GetOrder(ctx context.Context, id string) (Order, error)
	ListOrders(ctx context.Context, f Filter) ([]Order, int, error)
	UpdateOrder(ctx context.Context, id string, from Status, u Update) (bool, error)
}

// Service implements the order lifecycle after checkout.
type Service struct {
	Store  Store
	Now    func() time.Time
	Logger *zerolog.Logger
}

// Get loads an order. A non-empty userID restricts the lookup to that owner.
func (s *Service) Get(ctx context.Context, id, userID string) (Order, error) {
	if s == nil || s.Store == nil {
		return Order{}, errors.New("order service not configured")
	}
	o, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	if userID != "" && o.UserID != userID {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

// List returns a page of orders and the total matching count.
func (s *Service) List(ctx context.Context, f Filter) ([]Order, int, error) {
	if s == nil || s.Store == nil {
		return nil, 0, errors.New("order service not configured")
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.Store.ListOrders(ctx, f)
}

// Cancel lets an owner cancel an order that has not started processing.
func (s *Service) Cancel(ctx context.Context, id, userID string) (Order, error) {
	o, err := s.Get(ctx, id, userID)
	if err != nil {
		return Order{}, err
	}
	if o.Status != StatusPending {
		return Order{}, fmt.Errorf("%w: only pending orders can be cancelled", ErrInvalidTransition)
	}
	return s.apply(ctx, o, StatusCancelled)
}

// MarkPaid flags an order as paid. Paying an already paid order returns it unchanged.
func (s *Service) MarkPaid(ctx context.Context, id, userID string) (Order, error) {
	o, err := s.Get(ctx, id, userID)
	if err != nil {
		return Order{}, err
	}
	if o.IsPaid {
		return o, nil
	}
	if o.Status == StatusCancelled || o.Status == StatusReturned {
		return Order{}, fmt.Errorf("%w: %s orders cannot be paid", ErrInvalidTransition, o.Status)
	}
	now := s.now()
	u := updateFrom(o, now)
	u.IsPaid = true
	u.PaidAt = &now
	return s.write(ctx, o, u)
}

// Transition moves an order along the fulfillment state machine on behalf of an administrator.
func (s *Service) Transition(ctx context.Context, id string, to Status) (Order, error) {
	if !to.Valid() {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	o, err := s.Get(ctx, id, "")
	if err != nil {
		return Order{}, err
	}
	return s.apply(ctx, o, to)
}

func (s *Service) apply(ctx context.Context, o Order, to Status) (Order, error) {
	if !CanTransition(o.Status, to) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	now := s.now()
	u := updateFrom(o, now)
	u.Status = to
	if to == StatusDelivered {
		u.IsDelivered = true
		u.DeliveredAt = &now
	}
	return s.write(ctx, o, u)
}

func (s *Service) write(ctx context.Context, o Order, u Update) (Order, error) {
	ok, err := s.Store.UpdateOrder(ctx, o.ID, o.Status, u)
	if err != nil {
		return Order{}, err
	}
	if !ok {
		return Order{}, ErrStaleOrder
	}
	if s.Logger != nil {
		s.Logger.Info().Str("order_id", o.ID).Str("from", string(o.Status)).Str("to", string(u.Status)).Bool("paid", u.IsPaid).Msg("order updated")
	}
	o.Status = u.Status
	o.IsPaid = u.IsPaid
	o.PaidAt = u.PaidAt
	o.IsDelivered = u.IsDelivered
	o.DeliveredAt = u.DeliveredAt
	o.UpdatedAt = u.UpdatedAt
	return o, nil
}

func updateFrom(o Order, now time.Time) Update {
	return Update{
		Status:      o.Status,
		IsPaid:      o.IsPaid,
		PaidAt:      o.PaidAt,
		IsDelivered: o.IsDelivered,
		DeliveredAt: o.DeliveredAt,
		UpdatedAt:   now,
	}
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
