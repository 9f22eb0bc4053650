package mongorepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/discount"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/order"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/payment"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/pricing"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/repo"
)

func TestCouponDocumentKeepsRestrictions(t *testing.T) {
	minimum := int64(5000)
	limit := 10
	c := discount.Coupon{
		ID:     "c1",
		Code:   "SAVE10",
		Kind:   discount.KindPercentage,
		Amount: 1000,
		Restrictions: discount.Restrictions{
			ProductIDs:  []string{"p1"},
			MinPurchase: &minimum,
		},
		MaxUses: &limit,
		Active:  true,
	}
	raw, err := bson.Marshal(toCouponDoc(c))
	require.NoError(t, err)

	var doc couponDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))
	got := doc.model()
	require.Equal(t, c.Code, got.Code)
	require.Equal(t, []string{"p1"}, got.Restrictions.ProductIDs)
	require.Equal(t, int64(5000), *got.Restrictions.MinPurchase)
	require.Equal(t, 10, *got.MaxUses)
	require.Equal(t, []string{}, got.UsedBy)
}

func TestOrderDocumentSnapshot(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	o := order.Order{
		ID:     "o1",
		UserID: "u1",
		Lines:  []order.Line{{ProductID: "p1", Name: "Mug", UnitPrice: 1250, Quantity: 2}},
		ShippingAddress: order.Address{
			FullName: "Ada", Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
		},
		Payment:    payment.Snapshot{Type: payment.TypeCard, Brand: "visa", Last4: "4242"},
		ItemsPrice: 2500,
		TotalPrice: 2500,
		Discounts:  []pricing.Applied{{Code: "GIFT", Source: "gift_card", Amount: 500, Remainder: 100}},
		Currency:   "USD",
		Status:     order.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	raw, err := bson.Marshal(toOrderDoc(o))
	require.NoError(t, err)
	var doc orderDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))

	got := doc.model()
	require.Equal(t, o.Lines, got.Lines)
	require.Equal(t, o.Discounts, got.Discounts)
	require.Equal(t, payment.TypeCard, got.Payment.Type)
	require.Equal(t, "Springfield", got.ShippingAddress.City)
	require.True(t, got.CreatedAt.Equal(now))
}

func TestCouponRedeemFilterGuards(t *testing.T) {
	f := couponRedeemFilter("SAVE10", "u1")
	require.Equal(t, "SAVE10", f["code"])
	require.Equal(t, true, f["active"])
	require.Equal(t, bson.M{"$ne": "u1"}, f["usedBy"])
	require.Len(t, f["$or"], 2)
}

func TestOrderFilter(t *testing.T) {
	require.Empty(t, orderFilter(order.Filter{}))
	f := orderFilter(order.Filter{UserID: "u1", Status: order.StatusShipped})
	require.Equal(t, bson.M{"userId": "u1", "status": "shipped"}, f)
}

func TestMapErr(t *testing.T) {
	require.ErrorIs(t, mapErr(mongo.ErrNoDocuments), repo.ErrNotFound)
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	require.ErrorIs(t, mapErr(dup), repo.ErrDuplicate)
	other := errors.New("boom")
	require.Equal(t, other, mapErr(other))
}

func TestUnconfiguredStore(t *testing.T) {
	var s *Store
	require.ErrorIs(t, s.Ping(context.Background()), ErrStoreUnavailable)
	_, err := (&Store{}).GetOrder(context.Background(), "o1")
	require.ErrorIs(t, err, ErrStoreUnavailable)
}
