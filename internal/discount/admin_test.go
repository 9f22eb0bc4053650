package discount

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
)

func TestCreateCouponNormalizesAndResetsUsage(t *testing.T) {
	store := newStubStore()
	admin := &Admin{Store: store, Now: clock}

	c, err := admin.CreateCoupon(context.Background(), Coupon{Code: " save10 ", Kind: KindPercentage, Amount: 1000, Active: true, UsedCount: 7})
	require.NoError(t, err)
	require.Equal(t, "SAVE10", c.Code)
	require.Zero(t, c.UsedCount)
	require.NotEmpty(t, c.ID)

	_, err = admin.CreateCoupon(context.Background(), Coupon{Code: "SAVE10", Kind: KindFixed, Amount: 100, Active: true})
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "DUPLICATE_CODE", appErr.Code)
}

func TestUpdateCouponKeepsUsage(t *testing.T) {
	store := newStubStore()
	c := fixedCoupon("KEEP", 500)
	c.UsedCount = 3
	c.UsedBy = []string{"a", "b", "c"}
	store.coupons["KEEP"] = c
	admin := &Admin{Store: store, Now: clock}

	updated, err := admin.UpdateCoupon(context.Background(), Coupon{Code: "keep", Kind: KindFixed, Amount: 900, Active: true})
	require.NoError(t, err)
	require.Equal(t, 3, updated.UsedCount)
	require.Equal(t, int64(900), store.coupons["KEEP"].Amount)

	_, err = admin.UpdateCoupon(context.Background(), Coupon{Code: "KEEP", Kind: KindFixed, Amount: 900, MaxUses: ptr(2), Active: true})
	require.True(t, common.IsAppError(err))
}

func TestDeactivateCouponIsSoft(t *testing.T) {
	store := newStubStore()
	store.coupons["GONE"] = fixedCoupon("GONE", 500)
	admin := &Admin{Store: store, Now: clock}

	require.NoError(t, admin.DeactivateCoupon(context.Background(), "gone"))
	c, err := admin.GetCoupon(context.Background(), "GONE")
	require.NoError(t, err)
	require.False(t, c.Active)

	require.ErrorIs(t, admin.DeactivateCoupon(context.Background(), "MISSING"), ErrNotFound)
}

func TestIssueGiftCardRetriesCollisions(t *testing.T) {
	store := newStubStore()
	store.giftCards["TAKEN"] = giftCard("TAKEN", 100)
	codes := []string{"TAKEN", "FRESH"}
	admin := &Admin{Store: store, Now: clock, NewCode: func(int) (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}}

	g, err := admin.IssueGiftCard(context.Background(), GiftCard{Amount: 7_500})
	require.NoError(t, err)
	require.Equal(t, "FRESH", g.Code)
	require.Equal(t, CurrencyUSD, g.Currency)
	require.True(t, g.Active)
	require.False(t, g.Redeemed)
}

func TestIssueGiftCardRejectsUnknownCurrency(t *testing.T) {
	admin := &Admin{Store: newStubStore(), Now: clock}
	_, err := admin.IssueGiftCard(context.Background(), GiftCard{Amount: 100, Currency: "XYZ"})
	require.True(t, common.IsAppError(err))
}
