package pgrepo

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/discount"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/repo"
)

const couponColumns = `id, code, kind, amount, expires_at, max_uses, used_count, used_by, restrictions, active, created_at, updated_at`

const giftCardColumns = `id, code, amount, currency, expires_at, restrictions, active, redeemed, redeemed_at, redeemed_by, redeemed_order_id, created_at, updated_at`

func scanCoupon(row pgx.Row) (discount.Coupon, error) {
	var (
		c            discount.Coupon
		kind         string
		restrictions []byte
	)
	err := row.Scan(&c.ID, &c.Code, &kind, &c.Amount, &c.ExpiresAt, &c.MaxUses, &c.UsedCount, &c.UsedBy, &restrictions, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return discount.Coupon{}, mapErr(err)
	}
	c.Kind = discount.Kind(kind)
	if len(restrictions) > 0 {
		if err := json.Unmarshal(restrictions, &c.Restrictions); err != nil {
			return discount.Coupon{}, err
		}
	}
	if c.UsedBy == nil {
		c.UsedBy = []string{}
	}
	return c, nil
}

func scanGiftCard(row pgx.Row) (discount.GiftCard, error) {
	var (
		g            discount.GiftCard
		currency     string
		restrictions []byte
	)
	err := row.Scan(&g.ID, &g.Code, &g.Amount, &currency, &g.ExpiresAt, &restrictions, &g.Active, &g.Redeemed, &g.RedeemedAt, &g.RedeemedBy, &g.RedeemedOrderID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return discount.GiftCard{}, mapErr(err)
	}
	g.Currency = discount.Currency(currency)
	if len(restrictions) > 0 {
		if err := json.Unmarshal(restrictions, &g.Restrictions); err != nil {
			return discount.GiftCard{}, err
		}
	}
	return g, nil
}

// FindCouponByCode implements discount.Querier.
func (s *Store) FindCouponByCode(ctx context.Context, code string) (discount.Coupon, error) {
	if s == nil || s.db == nil {
		return discount.Coupon{}, ErrStoreUnavailable
	}
	return scanCoupon(s.db.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code))
}

// FindGiftCardByCode implements discount.Querier.
func (s *Store) FindGiftCardByCode(ctx context.Context, code string) (discount.GiftCard, error) {
	if s == nil || s.db == nil {
		return discount.GiftCard{}, ErrStoreUnavailable
	}
	return scanGiftCard(s.db.QueryRow(ctx, `SELECT `+giftCardColumns+` FROM gift_cards WHERE code = $1`, code))
}

// RedeemCoupon implements discount.LedgerStore with a single guarded UPDATE.
func (s *Store) RedeemCoupon(ctx context.Context, code, userID string, now time.Time) (bool, error) {
	if s == nil || s.db == nil {
		return false, ErrStoreUnavailable
	}
	tag, err := s.db.Exec(ctx, `UPDATE coupons
SET used_count = used_count + 1, used_by = array_append(used_by, $2), updated_at = $3
WHERE code = $1
  AND active
  AND NOT ($2 = ANY(used_by))
  AND (max_uses IS NULL OR used_count < max_uses)`, code, userID, now)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

// RedeemGiftCard implements discount.LedgerStore with a single guarded UPDATE.
func (s *Store) RedeemGiftCard(ctx context.Context, code, userID, orderID string, now time.Time) (bool, error) {
	if s == nil || s.db == nil {
		return false, ErrStoreUnavailable
	}
	tag, err := s.db.Exec(ctx, `UPDATE gift_cards
SET redeemed = TRUE, redeemed_at = $4, redeemed_by = $2, redeemed_order_id = $3, updated_at = $4
WHERE code = $1 AND active AND NOT redeemed`, code, userID, orderID, now)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

// InsertRedemption implements discount.LedgerStore.
func (s *Store) InsertRedemption(ctx context.Context, r discount.Redemption) error {
	if s == nil || s.db == nil {
		return ErrStoreUnavailable
	}
	_, err := s.db.Exec(ctx, `INSERT INTO redemptions (id, code, source, user_id, order_id, amount, redeemed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, r.ID, r.Code, string(r.Source), r.UserID, r.OrderID, r.Amount, r.RedeemedAt)
	return mapErr(err)
}

// InsertCoupon implements discount.AdminStore.
func (s *Store) InsertCoupon(ctx context.Context, c discount.Coupon) error {
	if s == nil || s.db == nil {
		return ErrStoreUnavailable
	}
	restrictions, err := json.Marshal(c.Restrictions)
	if err != nil {
		return err
	}
	usedBy := c.UsedBy
	if usedBy == nil {
		usedBy = []string{}
	}
	_, err = s.db.Exec(ctx, `INSERT INTO coupons (`+couponColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.Code, string(c.Kind), c.Amount, c.ExpiresAt, c.MaxUses, c.UsedCount, usedBy, restrictions, c.Active, c.CreatedAt, c.UpdatedAt)
	return mapErr(err)
}

// UpdateCoupon implements discount.AdminStore. Usage columns are never written here.
func (s *Store) UpdateCoupon(ctx context.Context, c discount.Coupon) error {
	if s == nil || s.db == nil {
		return ErrStoreUnavailable
	}
	restrictions, err := json.Marshal(c.Restrictions)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `UPDATE coupons
SET kind = $2, amount = $3, expires_at = $4, max_uses = $5, restrictions = $6, active = $7, updated_at = $8
WHERE code = $1`, c.Code, string(c.Kind), c.Amount, c.ExpiresAt, c.MaxUses, restrictions, c.Active, c.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ListCoupons implements discount.AdminStore.
func (s *Store) ListCoupons(ctx context.Context, limit, offset int) ([]discount.Coupon, int, error) {
	if s == nil || s.db == nil {
		return nil, 0, ErrStoreUnavailable
	}
	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM coupons`).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}
	lim, off := offsetLimit(limit, offset)
	rows, err := s.db.Query(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC, code LIMIT $1 OFFSET $2`, lim, off)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer rows.Close()
	out := []discount.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// SetCouponActive implements discount.AdminStore.
func (s *Store) SetCouponActive(ctx context.Context, code string, active bool, now time.Time) error {
	return s.setActive(ctx, `UPDATE coupons SET active = $2, updated_at = $3 WHERE code = $1`, code, active, now)
}

// InsertGiftCard implements discount.AdminStore.
func (s *Store) InsertGiftCard(ctx context.Context, g discount.GiftCard) error {
	if s == nil || s.db == nil {
		return ErrStoreUnavailable
	}
	restrictions, err := json.Marshal(g.Restrictions)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO gift_cards (`+giftCardColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		g.ID, g.Code, g.Amount, string(g.Currency), g.ExpiresAt, restrictions, g.Active, g.Redeemed, g.RedeemedAt, g.RedeemedBy, g.RedeemedOrderID, g.CreatedAt, g.UpdatedAt)
	return mapErr(err)
}

// ListGiftCards implements discount.AdminStore.
func (s *Store) ListGiftCards(ctx context.Context, limit, offset int) ([]discount.GiftCard, int, error) {
	if s == nil || s.db == nil {
		return nil, 0, ErrStoreUnavailable
	}
	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM gift_cards`).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}
	lim, off := offsetLimit(limit, offset)
	rows, err := s.db.Query(ctx, `SELECT `+giftCardColumns+` FROM gift_cards ORDER BY created_at DESC, code LIMIT $1 OFFSET $2`, lim, off)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer rows.Close()
	out := []discount.GiftCard{}
	for rows.Next() {
		g, err := scanGiftCard(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, g)
	}
	return out, total, rows.Err()
}

// SetGiftCardActive implements discount.AdminStore.
func (s *Store) SetGiftCardActive(ctx context.Context, code string, active bool, now time.Time) error {
	return s.setActive(ctx, `UPDATE gift_cards SET active = $2, updated_at = $3 WHERE code = $1`, code, active, now)
}

// ListRedemptions implements discount.AdminStore. An empty code lists all rows.
func (s *Store) ListRedemptions(ctx context.Context, code string, limit, offset int) ([]discount.Redemption, int, error) {
	if s == nil || s.db == nil {
		return nil, 0, ErrStoreUnavailable
	}
	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM redemptions WHERE $1 = '' OR code = $1`, code).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}
	lim, off := offsetLimit(limit, offset)
	rows, err := s.db.Query(ctx, `SELECT id, code, source, user_id, order_id, amount, redeemed_at
FROM redemptions WHERE $1 = '' OR code = $1
ORDER BY redeemed_at DESC, id LIMIT $2 OFFSET $3`, code, lim, off)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer rows.Close()
	out := []discount.Redemption{}
	for rows.Next() {
		var (
			r      discount.Redemption
			source string
		)
		if err := rows.Scan(&r.ID, &r.Code, &source, &r.UserID, &r.OrderID, &r.Amount, &r.RedeemedAt); err != nil {
			return nil, 0, err
		}
		r.Source = discount.Source(source)
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func (s *Store) setActive(ctx context.Context, sql, code string, active bool, now time.Time) error {
	if s == nil || s.db == nil {
		return ErrStoreUnavailable
	}
	tag, err := s.db.Exec(ctx, sql, code, active, now)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
