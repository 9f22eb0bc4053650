package discount

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
)

type stubStore struct {
	mu          sync.Mutex
	coupons     map[string]Coupon
	giftCards   map[string]GiftCard
	redemptions []Redemption
	findErr     error
	insertErr   error
}

func newStubStore() *stubStore {
	return &stubStore{coupons: map[string]Coupon{}, giftCards: map[string]GiftCard{}}
}

func (s *stubStore) FindCouponByCode(ctx context.Context, code string) (Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return Coupon{}, s.findErr
	}
	c, ok := s.coupons[code]
	if !ok {
		return Coupon{}, common.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *stubStore) FindGiftCardByCode(ctx context.Context, code string) (GiftCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.giftCards[code]
	if !ok {
		return GiftCard{}, common.ErrNotFound
	}
	return g.Clone(), nil
}

func (s *stubStore) RedeemCoupon(ctx context.Context, code, userID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[code]
	if !ok || !c.Active || slices.Contains(c.UsedBy, userID) || (c.MaxUses != nil && c.UsedCount >= *c.MaxUses) {
		return false, nil
	}
	c.UsedCount++
	c.UsedBy = append(slices.Clone(c.UsedBy), userID)
	s.coupons[code] = c
	return true, nil
}

func (s *stubStore) RedeemGiftCard(ctx context.Context, code, userID, orderID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.giftCards[code]
	if !ok || !g.Active || g.Redeemed {
		return false, nil
	}
	g.Redeemed = true
	g.RedeemedAt = &now
	g.RedeemedBy = userID
	g.RedeemedOrderID = orderID
	s.giftCards[code] = g
	return true, nil
}

func (s *stubStore) InsertRedemption(ctx context.Context, r Redemption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.redemptions = append(s.redemptions, r)
	return nil
}

func (s *stubStore) InsertCoupon(ctx context.Context, c Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.coupons[c.Code]; ok {
		return common.ErrDuplicate
	}
	s.coupons[c.Code] = c.Clone()
	return nil
}

func (s *stubStore) UpdateCoupon(ctx context.Context, c Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.coupons[c.Code]; !ok {
		return common.ErrNotFound
	}
	s.coupons[c.Code] = c.Clone()
	return nil
}

func (s *stubStore) ListCoupons(ctx context.Context, limit, offset int) ([]Coupon, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Coupon, 0, len(s.coupons))
	for _, c := range s.coupons {
		out = append(out, c.Clone())
	}
	return out, len(out), nil
}

func (s *stubStore) SetCouponActive(ctx context.Context, code string, active bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[code]
	if !ok {
		return common.ErrNotFound
	}
	c.Active = active
	s.coupons[code] = c
	return nil
}

func (s *stubStore) InsertGiftCard(ctx context.Context, g GiftCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.giftCards[g.Code]; ok {
		return common.ErrDuplicate
	}
	s.giftCards[g.Code] = g.Clone()
	return nil
}

func (s *stubStore) ListGiftCards(ctx context.Context, limit, offset int) ([]GiftCard, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GiftCard, 0, len(s.giftCards))
	for _, g := range s.giftCards {
		out = append(out, g.Clone())
	}
	return out, len(out), nil
}

func (s *stubStore) SetGiftCardActive(ctx context.Context, code string, active bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.giftCards[code]
	if !ok {
		return common.ErrNotFound
	}
	g.Active = active
	s.giftCards[code] = g
	return nil
}

func (s *stubStore) ListRedemptions(ctx context.Context, code string, limit, offset int) ([]Redemption, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Redemption
	for _, r := range s.redemptions {
		if code == "" || r.Code == code {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func ptr[T any](v T) *T { return &v }

func percentCoupon(code string, bps int64) Coupon {
	return Coupon{ID: code + "-id", Code: code, Kind: KindPercentage, Amount: bps, Active: true, UsedBy: []string{}}
}

func fixedCoupon(code string, amount int64) Coupon {
	return Coupon{ID: code + "-id", Code: code, Kind: KindFixed, Amount: amount, Active: true, UsedBy: []string{}}
}

func giftCard(code string, amount int64) GiftCard {
	return GiftCard{ID: code + "-id", Code: code, Amount: amount, Currency: CurrencyUSD, Active: true}
}
