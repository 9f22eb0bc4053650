package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/catalog"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/discount"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/events"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/obs"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/order"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/payment"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/pricing"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/repo"
)

// MaxCodes bounds how many discount codes a single order may carry.
const MaxCodes = 10

type LineInput struct {
	ProductID string `json:"productId" validate:"required,max=100"`
	Quantity  int    `json:"quantity" validate:"min=1,max=1000"`
}

type Input struct {
	LineItems       []LineInput    `json:"lineItems" validate:"max=100,dive"`
	ShippingAddress order.Address  `json:"shippingAddress"`
	PaymentMethod   payment.Method `json:"paymentMethod"`
	AppliedCodes    []string       `json:"appliedCodes" validate:"max=10,dive,max=64"`
}

// Catalog resolves the products referenced by an order.
type Catalog interface {
	Lookup(ctx context.Context, ids []string) (map[string]catalog.Product, error)
}

// Locker serializes checkouts of the same user.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

type Service struct {
	Store     repo.Store
	Catalog   Catalog
	Discounts *discount.Service
	Policy    pricing.Policy
	Currency  string
	Events    *events.Bus
	Locker    Locker
	LockTTL   time.Duration
	Now       func() time.Time
	NewID     func() string
	Logger    *zerolog.Logger
}

// PlaceOrder prices the cart, commits every discount code and stores the order in one
// transaction. Either all codes are redeemed and the order exists, or nothing changed.
func (s *Service) PlaceOrder(ctx context.Context, userID string, in Input) (order.Order, error) {
	if s == nil || s.Store == nil || s.Catalog == nil || s.Discounts == nil {
		return order.Order{}, errors.New("checkout service not configured")
	}
	if userID == "" {
		return order.Order{}, errors.New("user is required for checkout")
	}
	if len(in.LineItems) == 0 {
		obs.CountOrderPlaced(string(discount.ReasonEmptyCart), 0)
		return order.Order{}, discount.Reject(discount.ReasonEmptyCart, "")
	}
	now := s.now()

	lines, err := s.snapshotLines(ctx, in.LineItems)
	if err != nil {
		return order.Order{}, err
	}
	if err := in.PaymentMethod.Validate(now); err != nil {
		return order.Order{}, &common.AppError{
			Code:       "INVALID_PAYMENT_METHOD",
			Message:    err.Error(),
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
		}
	}
	codes := dedupeCodes(in.AppliedCodes)
	if len(codes) > MaxCodes {
		return order.Order{}, common.NewAppError("TOO_MANY_CODES", fmt.Sprintf("at most %d discount codes per order", MaxCodes), http.StatusBadRequest, nil)
	}

	items := order.PricingItems(lines)
	base := pricing.Base(items, s.Policy)
	applied, err := s.price(ctx, userID, codes, lines, base, now)
	if err != nil {
		obs.CountOrderPlaced(resultOf(err), 0)
		return order.Order{}, err
	}
	summary := pricing.Compose(items, s.Policy, applied)

	ord, err := order.Assemble(order.AssembleInput{
		ID:              s.newID(),
		UserID:          userID,
		Lines:           lines,
		Summary:         summary,
		ShippingAddress: in.ShippingAddress,
		Payment:         in.PaymentMethod.Snapshot(),
		Currency:        s.Currency,
		Now:             now,
	})
	if err != nil {
		return order.Order{}, err
	}

	var redemptions []discount.Redemption
	place := func(ctx context.Context) error {
		redemptions = redemptions[:0]
		return s.Store.InTx(ctx, func(tx repo.Store) error {
			ledger := discount.Ledger{Store: tx, Now: func() time.Time { return now }, Logger: s.Logger}
			for _, a := range applied {
				r, err := ledger.Commit(ctx, discount.Commitment{Code: a.Code, Source: discount.Source(a.Source), Amount: a.Amount}, userID, ord.ID)
				if err != nil {
					return err
				}
				redemptions = append(redemptions, r)
			}
			return tx.InsertOrder(ctx, ord)
		})
	}
	if s.Locker != nil {
		err = s.Locker.WithLock(ctx, "checkout:lock:"+userID, s.lockTTL(), place)
	} else {
		err = place(ctx)
	}
	if err != nil {
		obs.CountOrderPlaced(resultOf(err), 0)
		s.log().Warn().Err(err).Str("user_id", userID).Str("order_id", ord.ID).Msg("order rejected")
		return order.Order{}, err
	}

	obs.CountOrderPlaced(obs.ResultPlaced, ord.DiscountTotal)
	s.log().Info().
		Str("order_id", ord.ID).
		Str("user_id", userID).
		Int64("total", ord.TotalPrice).
		Int64("discount_total", ord.DiscountTotal).
		Int("codes", len(redemptions)).
		Msg("order placed")
	s.emit(ctx, ord, redemptions)
	return ord, nil
}

func (s *Service) snapshotLines(ctx context.Context, inputs []LineInput) ([]order.Line, error) {
	ids := make([]string, 0, len(inputs))
	for _, li := range inputs {
		if li.Quantity <= 0 {
			return nil, common.NewAppError("INVALID_QUANTITY", "quantity must be positive", http.StatusBadRequest, nil)
		}
		ids = append(ids, li.ProductID)
	}
	products, err := s.Catalog.Lookup(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup products: %w", err)
	}
	lines := make([]order.Line, 0, len(inputs))
	for _, li := range inputs {
		p, ok := products[li.ProductID]
		if !ok || !p.Active {
			return nil, &common.AppError{
				Code:       "PRODUCT_UNAVAILABLE",
				Message:    "product is not available",
				HTTPStatus: http.StatusUnprocessableEntity,
				Details:    map[string]string{"productId": li.ProductID},
			}
		}
		lines = append(lines, order.Line{
			ProductID:  p.ID,
			Name:       p.Name,
			Image:      p.Image,
			CategoryID: p.CategoryID,
			UnitPrice:  p.Price,
			Quantity:   li.Quantity,
		})
	}
	return lines, nil
}

// price resolves and checks every code, then computes coupons on the items price and
// gift cards against what is still owed, in request order.
func (s *Service) price(ctx context.Context, userID string, codes []string, lines []order.Line, base pricing.Summary, now time.Time) ([]pricing.Applied, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	subtotal := base.ItemsPrice
	subject := discount.Subject{
		UserID:   userID,
		Subtotal: &subtotal,
		Items:    order.DiscountItems(lines),
		Currency: discount.Currency(s.Currency),
		Now:      now,
	}
	var coupons, cards []discount.Resolved
	for _, code := range codes {
		resolved, err := s.Discounts.Resolve(ctx, code)
		if err != nil {
			return nil, err
		}
		if err := resolved.Check(subject); err != nil {
			return nil, err
		}
		if resolved.Coupon != nil {
			coupons = append(coupons, resolved)
		} else {
			cards = append(cards, resolved)
		}
	}

	applied := make([]pricing.Applied, 0, len(codes))
	discountable := base.ItemsPrice
	for _, r := range coupons {
		amount := discount.CouponAmount(r.Coupon, discount.CouponBase(r.Coupon, base.ItemsPrice, subject.Items))
		amount = min(amount, discountable)
		discountable -= amount
		applied = append(applied, pricing.Applied{
			Code:   r.Coupon.Code,
			Source: string(discount.SourceCoupon),
			Kind:   string(r.Coupon.Kind),
			Amount: amount,
		})
	}
	remaining := base.Payable() - (base.ItemsPrice - discountable)
	for _, r := range cards {
		amount := discount.GiftCardAmount(r.GiftCard, remaining)
		if amount == 0 {
			return nil, discount.Reject(discount.ReasonNotApplicable, r.GiftCard.Code)
		}
		remaining -= amount
		applied = append(applied, pricing.Applied{
			Code:      r.GiftCard.Code,
			Source:    string(discount.SourceGiftCard),
			Kind:      string(discount.KindFixed),
			Amount:    amount,
			Remainder: r.GiftCard.Amount - amount,
		})
	}
	return applied, nil
}

func (s *Service) emit(ctx context.Context, ord order.Order, redemptions []discount.Redemption) {
	if s.Events == nil {
		return
	}
	codes := make([]string, 0, len(ord.Discounts))
	for _, d := range ord.Discounts {
		codes = append(codes, d.Code)
	}
	if _, err := s.Events.Emit(ctx, events.TopicOrderCreated, ord.ID, map[string]any{
		"orderId":       ord.ID,
		"userId":        ord.UserID,
		"total":         ord.TotalPrice,
		"discountTotal": ord.DiscountTotal,
		"currency":      ord.Currency,
		"codes":         codes,
	}); err != nil {
		s.log().Error().Err(err).Str("order_id", ord.ID).Msg("emit order event")
	}
	for _, r := range redemptions {
		if _, err := s.Events.Emit(ctx, events.TopicDiscountRedeemed, r.Code, r); err != nil {
			s.log().Error().Err(err).Str("code", r.Code).Msg("emit redemption event")
		}
	}
}

// dedupeCodes normalises codes and drops blanks and repeats, keeping request order.
func dedupeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		n := discount.NormalizeCode(c)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func resultOf(err error) string {
	if reason := discount.ReasonOf(err); reason != "" {
		return string(reason)
	}
	return "error"
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) lockTTL() time.Duration {
	if s.LockTTL > 0 {
		return s.LockTTL
	}
	return 10 * time.Second
}

func (s *Service) log() *zerolog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	nop := zerolog.Nop()
	return &nop
}
