package discount

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func newService(store *stubStore) *Service {
	return &Service{Q: store, Now: clock}
}

func TestApplyPercentageCoupon(t *testing.T) {
	store := newStubStore()
	store.coupons["SAVE10"] = percentCoupon("SAVE10", 1000)

	eval, err := newService(store).Apply(context.Background(), " save10 ", Subject{UserID: "u1", Subtotal: ptr[int64](20_000)})
	require.NoError(t, err)
	require.True(t, eval.Valid)
	require.Equal(t, SourceCoupon, eval.Source)
	require.Equal(t, int64(2_000), eval.Amount)
}

func TestApplyFixedCouponClamped(t *testing.T) {
	store := newStubStore()
	store.coupons["FIFTY"] = fixedCoupon("FIFTY", 5_000)

	eval, err := newService(store).Apply(context.Background(), "FIFTY", Subject{UserID: "u1", Subtotal: ptr[int64](3_000)})
	require.NoError(t, err)
	require.Equal(t, int64(3_000), eval.Amount)
}

func TestApplyGiftCardReportsRemainder(t *testing.T) {
	store := newStubStore()
	store.giftCards["GIFT75"] = giftCard("GIFT75", 7_500)

	eval, err := newService(store).Apply(context.Background(), "GIFT75", Subject{UserID: "u1", Subtotal: ptr[int64](5_000)})
	require.NoError(t, err)
	require.Equal(t, SourceGiftCard, eval.Source)
	require.Equal(t, KindFixed, eval.Kind)
	require.Equal(t, int64(5_000), eval.Amount)
	require.Equal(t, int64(2_500), eval.Remainder)
}

func TestApplyReturnsRuleError(t *testing.T) {
	_, err := newService(newStubStore()).Apply(context.Background(), "NOPE", Subject{UserID: "u1", Subtotal: ptr[int64](100)})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestValidateReportsReasonWithoutError(t *testing.T) {
	store := newStubStore()
	c := fixedCoupon("ONCE", 500)
	c.UsedBy = []string{"u1"}
	store.coupons["ONCE"] = c

	eval, err := newService(store).Validate(context.Background(), "ONCE", Subject{UserID: "u1"})
	require.NoError(t, err)
	require.False(t, eval.Valid)
	require.Equal(t, ReasonAlreadyUsed, eval.Reason)
	require.Zero(t, eval.Amount)
}

func TestValidateWithoutSubtotalSkipsAmount(t *testing.T) {
	store := newStubStore()
	store.coupons["SAVE10"] = percentCoupon("SAVE10", 1000)

	eval, err := newService(store).Validate(context.Background(), "SAVE10", Subject{UserID: "u1"})
	require.NoError(t, err)
	require.True(t, eval.Valid)
	require.Equal(t, int64(1000), eval.Value)
	require.Zero(t, eval.Amount)
}

func TestValidatePropagatesStoreFailure(t *testing.T) {
	store := newStubStore()
	store.findErr = errors.New("connection reset")

	_, err := newService(store).Validate(context.Background(), "SAVE10", Subject{UserID: "u1"})
	require.Error(t, err)
	require.Empty(t, ReasonOf(err))
}

func TestResolvePrefersCoupon(t *testing.T) {
	store := newStubStore()
	store.coupons["DUP"] = fixedCoupon("DUP", 100)
	store.giftCards["DUP"] = giftCard("DUP", 200)

	res, err := newService(store).Resolve(context.Background(), "dup")
	require.NoError(t, err)
	require.Equal(t, SourceCoupon, res.Source)
}
