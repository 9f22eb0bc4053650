package discount

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
)

// AdminStore holds the write paths used by administrators. Updates never touch
// usedCount, usedBy or redemption state; those belong to the ledger.
type AdminStore interface {
	Querier
	InsertCoupon(ctx context.Context, c Coupon) error
	UpdateCoupon(ctx context.Context, c Coupon) error
	ListCoupons(ctx context.Context, limit, offset int) ([]Coupon, int, error)
	SetCouponActive(ctx context.Context, code string, active bool, now time.Time) error
	InsertGiftCard(ctx context.Context, g GiftCard) error
	ListGiftCards(ctx context.Context, limit, offset int) ([]GiftCard, int, error)
	SetGiftCardActive(ctx context.Context, code string, active bool, now time.Time) error
	ListRedemptions(ctx context.Context, code string, limit, offset int) ([]Redemption, int, error)
}

const issueAttempts = 5

// Admin manages coupons and gift cards.
type Admin struct {
	Store  AdminStore
	Now    func() time.Time
	Logger *zerolog.Logger
	// NewCode generates gift card codes; GenerateCode is used when nil.
	NewCode func(length int) (string, error)
}

// CreateCoupon stores a new coupon. Usage counters always start at zero.
func (a *Admin) CreateCoupon(ctx context.Context, c Coupon) (Coupon, error) {
	c.Code = NormalizeCode(c.Code)
	c.UsedCount = 0
	c.UsedBy = []string{}
	if err := c.Validate(); err != nil {
		return Coupon{}, invalid(err)
	}
	now := a.now()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := a.Store.InsertCoupon(ctx, c); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			return Coupon{}, common.NewAppError("DUPLICATE_CODE", "a coupon with this code already exists", http.StatusConflict, err)
		}
		return Coupon{}, err
	}
	a.log().Info().Str("code", c.Code).Str("type", string(c.Kind)).Msg("coupon created")
	return c, nil
}

// UpdateCoupon replaces the editable fields of a coupon.
func (a *Admin) UpdateCoupon(ctx context.Context, c Coupon) (Coupon, error) {
	c.Code = NormalizeCode(c.Code)
	existing, err := a.GetCoupon(ctx, c.Code)
	if err != nil {
		return Coupon{}, err
	}
	c.ID = existing.ID
	c.UsedCount = existing.UsedCount
	c.UsedBy = existing.UsedBy
	c.CreatedAt = existing.CreatedAt
	if err := c.Validate(); err != nil {
		return Coupon{}, invalid(err)
	}
	c.UpdatedAt = a.now()
	if err := a.Store.UpdateCoupon(ctx, c); err != nil {
		return Coupon{}, notFoundOr(err, c.Code)
	}
	return c, nil
}

// GetCoupon returns a coupon regardless of its active flag.
func (a *Admin) GetCoupon(ctx context.Context, code string) (Coupon, error) {
	code = NormalizeCode(code)
	c, err := a.Store.FindCouponByCode(ctx, code)
	if err != nil {
		return Coupon{}, notFoundOr(err, code)
	}
	return c, nil
}

// ListCoupons returns a page of coupons.
func (a *Admin) ListCoupons(ctx context.Context, limit, offset int) ([]Coupon, int, error) {
	return a.Store.ListCoupons(ctx, limit, offset)
}

// DeactivateCoupon soft-deletes a coupon so orders referencing it stay intact.
func (a *Admin) DeactivateCoupon(ctx context.Context, code string) error {
	code = NormalizeCode(code)
	if err := a.Store.SetCouponActive(ctx, code, false, a.now()); err != nil {
		return notFoundOr(err, code)
	}
	a.log().Info().Str("code", code).Msg("coupon deactivated")
	return nil
}

// IssueGiftCard generates a fresh code and stores the card. Code collisions are retried.
func (a *Admin) IssueGiftCard(ctx context.Context, g GiftCard) (GiftCard, error) {
	if g.Currency == "" {
		g.Currency = CurrencyUSD
	}
	g.Code = "PENDING"
	if err := g.Validate(); err != nil {
		return GiftCard{}, invalid(err)
	}
	now := a.now()
	g.ID = uuid.NewString()
	g.Active = true
	g.Redeemed = false
	g.RedeemedAt = nil
	g.RedeemedBy = ""
	g.RedeemedOrderID = ""
	g.CreatedAt = now
	g.UpdatedAt = now

	gen := a.NewCode
	if gen == nil {
		gen = GenerateCode
	}
	for attempt := 1; attempt <= issueAttempts; attempt++ {
		code, err := gen(GiftCardCodeLength)
		if err != nil {
			return GiftCard{}, fmt.Errorf("generate gift card code: %w", err)
		}
		g.Code = code
		err = a.Store.InsertGiftCard(ctx, g)
		if err == nil {
			a.log().Info().Str("gift_card_id", g.ID).Int64("amount", g.Amount).Msg("gift card issued")
			return g, nil
		}
		if !errors.Is(err, common.ErrDuplicate) {
			return GiftCard{}, err
		}
		a.log().Warn().Int("attempt", attempt).Msg("gift card code collision")
	}
	return GiftCard{}, errors.New("could not allocate a unique gift card code")
}

// GetGiftCard returns a gift card regardless of its state.
func (a *Admin) GetGiftCard(ctx context.Context, code string) (GiftCard, error) {
	code = NormalizeCode(code)
	g, err := a.Store.FindGiftCardByCode(ctx, code)
	if err != nil {
		return GiftCard{}, notFoundOr(err, code)
	}
	return g, nil
}

// ListGiftCards returns a page of gift cards.
func (a *Admin) ListGiftCards(ctx context.Context, limit, offset int) ([]GiftCard, int, error) {
	return a.Store.ListGiftCards(ctx, limit, offset)
}

// DeactivateGiftCard disables a card that has not been redeemed.
func (a *Admin) DeactivateGiftCard(ctx context.Context, code string) error {
	code = NormalizeCode(code)
	if err := a.Store.SetGiftCardActive(ctx, code, false, a.now()); err != nil {
		return notFoundOr(err, code)
	}
	return nil
}

// ListRedemptions returns ledger rows, optionally filtered by code.
func (a *Admin) ListRedemptions(ctx context.Context, code string, limit, offset int) ([]Redemption, int, error) {
	return a.Store.ListRedemptions(ctx, NormalizeCode(code), limit, offset)
}

func (a *Admin) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}

func (a *Admin) log() *zerolog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

func invalid(err error) error {
	return common.NewAppError("VALIDATION_FAILED", err.Error(), http.StatusBadRequest, err)
}

func notFoundOr(err error, code string) error {
	if errors.Is(err, common.ErrNotFound) {
		return Reject(ReasonNotFound, code)
	}
	return err
}
