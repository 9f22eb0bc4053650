package mongorepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/discount"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/repo"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "code", Value: 1}}

// FindCouponByCode implements discount.Querier.
func (s *Store) FindCouponByCode(ctx context.Context, code string) (discount.Coupon, error) {
	if err := s.ready(); err != nil {
		return discount.Coupon{}, err
	}
	var doc couponDoc
	if err := s.coll(collCoupons).FindOne(s.bind(ctx), bson.M{"code": code}).Decode(&doc); err != nil {
		return discount.Coupon{}, mapErr(err)
	}
	return doc.model(), nil
}

// FindGiftCardByCode implements discount.Querier.
func (s *Store) FindGiftCardByCode(ctx context.Context, code string) (discount.GiftCard, error) {
	if err := s.ready(); err != nil {
		return discount.GiftCard{}, err
	}
	var doc giftCardDoc
	if err := s.coll(collGiftCards).FindOne(s.bind(ctx), bson.M{"code": code}).Decode(&doc); err != nil {
		return discount.GiftCard{}, mapErr(err)
	}
	return doc.model(), nil
}

// couponRedeemFilter matches the coupon only while the user may still redeem it.
func couponRedeemFilter(code, userID string) bson.M {
	return bson.M{
		"code":   code,
		"active": true,
		"usedBy": bson.M{"$ne": userID},
		"$or": bson.A{
			bson.M{"maxUses": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$usedCount", "$maxUses"}}},
		},
	}
}

// RedeemCoupon implements discount.LedgerStore with a single conditional UpdateOne.
func (s *Store) RedeemCoupon(ctx context.Context, code, userID string, now time.Time) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	res, err := s.coll(collCoupons).UpdateOne(s.bind(ctx), couponRedeemFilter(code, userID), bson.M{
		"$inc":  bson.M{"usedCount": 1},
		"$push": bson.M{"usedBy": userID},
		"$set":  bson.M{"updatedAt": now},
	})
	if err != nil {
		return false, mapErr(err)
	}
	return res.ModifiedCount == 1, nil
}

// RedeemGiftCard implements discount.LedgerStore with a single conditional UpdateOne.
func (s *Store) RedeemGiftCard(ctx context.Context, code, userID, orderID string, now time.Time) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	res, err := s.coll(collGiftCards).UpdateOne(s.bind(ctx),
		bson.M{"code": code, "active": true, "redeemed": false},
		bson.M{"$set": bson.M{
			"redeemed":        true,
			"redeemedAt":      now,
			"redeemedBy":      userID,
			"redeemedOrderId": orderID,
			"updatedAt":       now,
		}})
	if err != nil {
		return false, mapErr(err)
	}
	return res.ModifiedCount == 1, nil
}

// InsertRedemption implements discount.LedgerStore.
func (s *Store) InsertRedemption(ctx context.Context, r discount.Redemption) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.coll(collRedemptions).InsertOne(s.bind(ctx), redemptionDoc{
		ID:         r.ID,
		Code:       r.Code,
		Source:     string(r.Source),
		UserID:     r.UserID,
		OrderID:    r.OrderID,
		Amount:     r.Amount,
		RedeemedAt: r.RedeemedAt,
	})
	return mapErr(err)
}

// InsertCoupon implements discount.AdminStore.
func (s *Store) InsertCoupon(ctx context.Context, c discount.Coupon) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.coll(collCoupons).InsertOne(s.bind(ctx), toCouponDoc(c))
	return mapErr(err)
}

// UpdateCoupon implements discount.AdminStore. Usage fields are not part of the update.
func (s *Store) UpdateCoupon(ctx context.Context, c discount.Coupon) error {
	if err := s.ready(); err != nil {
		return err
	}
	doc := toCouponDoc(c)
	res, err := s.coll(collCoupons).UpdateOne(s.bind(ctx), bson.M{"code": c.Code}, bson.M{"$set": bson.M{
		"type":         doc.Kind,
		"amount":       doc.Amount,
		"expiresAt":    doc.ExpiresAt,
		"maxUses":      doc.MaxUses,
		"restrictions": doc.Restrictions,
		"active":       doc.Active,
		"updatedAt":    doc.UpdatedAt,
	}})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ListCoupons implements discount.AdminStore.
func (s *Store) ListCoupons(ctx context.Context, limit, offset int) ([]discount.Coupon, int, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}
	ctx = s.bind(ctx)
	total, err := s.coll(collCoupons).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, mapErr(err)
	}
	rows, err := findAll(ctx, s.coll(collCoupons), bson.M{}, page(limit, offset).SetSort(newestFirst), couponDoc.model)
	return rows, int(total), err
}

// SetCouponActive implements discount.AdminStore.
func (s *Store) SetCouponActive(ctx context.Context, code string, active bool, now time.Time) error {
	return s.setActive(ctx, collCoupons, code, active, now)
}

// InsertGiftCard implements discount.AdminStore.
func (s *Store) InsertGiftCard(ctx context.Context, g discount.GiftCard) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.coll(collGiftCards).InsertOne(s.bind(ctx), toGiftCardDoc(g))
	return mapErr(err)
}

// ListGiftCards implements discount.AdminStore.
func (s *Store) ListGiftCards(ctx context.Context, limit, offset int) ([]discount.GiftCard, int, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}
	ctx = s.bind(ctx)
	total, err := s.coll(collGiftCards).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, mapErr(err)
	}
	rows, err := findAll(ctx, s.coll(collGiftCards), bson.M{}, page(limit, offset).SetSort(newestFirst), giftCardDoc.model)
	return rows, int(total), err
}

// SetGiftCardActive implements discount.AdminStore.
func (s *Store) SetGiftCardActive(ctx context.Context, code string, active bool, now time.Time) error {
	return s.setActive(ctx, collGiftCards, code, active, now)
}

// ListRedemptions implements discount.AdminStore. An empty code lists every row.
func (s *Store) ListRedemptions(ctx context.Context, code string, limit, offset int) ([]discount.Redemption, int, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}
	ctx = s.bind(ctx)
	filter := bson.M{}
	if code != "" {
		filter["code"] = code
	}
	total, err := s.coll(collRedemptions).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	opts := page(limit, offset).SetSort(bson.D{{Key: "redeemedAt", Value: -1}, {Key: "_id", Value: 1}})
	rows, err := findAll(ctx, s.coll(collRedemptions), filter, opts, redemptionDoc.model)
	return rows, int(total), err
}

func (s *Store) setActive(ctx context.Context, coll, code string, active bool, now time.Time) error {
	if err := s.ready(); err != nil {
		return err
	}
	res, err := s.coll(coll).UpdateOne(s.bind(ctx), bson.M{"code": code}, bson.M{"$set": bson.M{"active": active, "updatedAt": now}})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}
