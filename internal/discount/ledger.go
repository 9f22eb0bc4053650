package discount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/obs"
)

// LedgerStore is the persistence boundary for redemptions. The Redeem methods must be
// single atomic conditional updates: they report false when the guard did not match.
type LedgerStore interface {
	Querier
	// RedeemCoupon increments usedCount and appends userID to usedBy only while the coupon
	// is active, userID is not yet in usedBy and usedCount is below maxUses.
	RedeemCoupon(ctx context.Context, code, userID string, now time.Time) (bool, error)
	// RedeemGiftCard flips redeemed from false to true on an active card.
	RedeemGiftCard(ctx context.Context, code, userID, orderID string, now time.Time) (bool, error)
	InsertRedemption(ctx context.Context, r Redemption) error
}

// Commitment is a computed discount about to be consumed by an order.
type Commitment struct {
	Code   string
	Source Source
	Amount int64
}

// Ledger commits redemptions. Bind it to a transactional store so a failed commit
// rolls back together with the order it belongs to.
type Ledger struct {
	Store  LedgerStore
	Now    func() time.Time
	Logger *zerolog.Logger
}

// Commit consumes the code for the user and order. When the conditional update loses,
// the record is re-read and a CONFLICT carrying the observed cause is returned.
func (l Ledger) Commit(ctx context.Context, c Commitment, userID, orderID string) (Redemption, error) {
	if l.Store == nil {
		return Redemption{}, errors.New("ledger store not configured")
	}
	code := NormalizeCode(c.Code)
	if code == "" || userID == "" || orderID == "" {
		return Redemption{}, errors.New("ledger: code, user and order are required")
	}
	now := l.now()

	var (
		ok  bool
		err error
	)
	switch c.Source {
	case SourceCoupon:
		ok, err = l.Store.RedeemCoupon(ctx, code, userID, now)
	case SourceGiftCard:
		ok, err = l.Store.RedeemGiftCard(ctx, code, userID, orderID, now)
	default:
		return Redemption{}, fmt.Errorf("ledger: unknown source %q", c.Source)
	}
	if err != nil {
		obs.CountDiscountRedemption(string(c.Source), "error")
		return Redemption{}, fmt.Errorf("redeem %s: %w", code, err)
	}
	if !ok {
		conflict := l.classify(ctx, c.Source, code, userID)
		obs.CountDiscountRedemption(string(c.Source), string(ReasonConflict))
		if l.Logger != nil {
			l.Logger.Warn().Str("code", code).Str("source", string(c.Source)).Str("cause", string(conflict.Cause)).Msg("redemption conflict")
		}
		return Redemption{}, conflict
	}

	redemption := Redemption{
		ID:         uuid.NewString(),
		Code:       code,
		Source:     c.Source,
		UserID:     userID,
		OrderID:    orderID,
		Amount:     c.Amount,
		RedeemedAt: now,
	}
	if err := l.Store.InsertRedemption(ctx, redemption); err != nil {
		obs.CountDiscountRedemption(string(c.Source), "error")
		return Redemption{}, fmt.Errorf("record redemption %s: %w", code, err)
	}
	obs.CountDiscountRedemption(string(c.Source), "committed")
	return redemption, nil
}

func (l Ledger) classify(ctx context.Context, source Source, code, userID string) *RuleError {
	conflict := &RuleError{Reason: ReasonConflict, Code: code}
	switch source {
	case SourceCoupon:
		coupon, err := l.Store.FindCouponByCode(ctx, code)
		switch {
		case errors.Is(err, common.ErrNotFound), err == nil && !coupon.Active:
			conflict.Cause = ReasonNotFound
		case err != nil:
		case coupon.HasBeenUsedBy(userID):
			conflict.Cause = ReasonAlreadyUsed
		case coupon.MaxUses != nil && coupon.UsedCount >= *coupon.MaxUses:
			conflict.Cause = ReasonUsageLimitReached
		}
	case SourceGiftCard:
		card, err := l.Store.FindGiftCardByCode(ctx, code)
		switch {
		case errors.Is(err, common.ErrNotFound), err == nil && !card.Active:
			conflict.Cause = ReasonNotFound
		case err != nil:
		case card.Redeemed:
			conflict.Cause = ReasonAlreadyRedeemed
		}
	}
	return conflict
}

func (l Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}
