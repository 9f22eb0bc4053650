package pgrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/catalog"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/order"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/pricing"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/repo"
)

const productColumns = `id, name, image, category_id, price, active, created_at, updated_at`

const orderColumns = `id, user_id, line_items, shipping_address, payment_method, discounts, items_price, shipping_price,
tax_price, discount_total, total_price, currency, status, is_paid, paid_at, is_delivered, delivered_at, created_at, updated_at`

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var p catalog.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Image, &p.CategoryID, &p.Price, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return catalog.Product{}, mapErr(err)
	}
	return p, nil
}

// GetProduct implements catalog.Store.
func (s *Store) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	if s == nil || s.db == nil {
		return catalog.Product{}, ErrStoreUnavailable
	}
	return scanProduct(s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

// ListProducts implements catalog.Store.
func (s *Store) ListProducts(ctx context.Context, limit, offset int) ([]catalog.Product, int, error) {
	if s == nil || s.db == nil {
		return nil, 0, ErrStoreUnavailable
	}
	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}
	lim, off := offsetLimit(limit, offset)
	rows, err := s.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id LIMIT $1 OFFSET $2`, lim, off)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	products, err := collectProducts(rows)
	return products, total, err
}

// GetProductsByIDs implements catalog.Store.
func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreUnavailable
	}
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	rows, err := s.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, mapErr(err)
	}
	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]catalog.Product, error) {
	defer rows.Close()
	out := []catalog.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertProduct implements catalog.Store.
func (s *Store) InsertProduct(ctx context.Context, p catalog.Product) error {
	if s == nil || s.db == nil {
		return ErrStoreUnavailable
	}
	_, err := s.db.Exec(ctx, `INSERT INTO products (`+productColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Name, p.Image, p.CategoryID, p.Price, p.Active, p.CreatedAt, p.UpdatedAt)
	return mapErr(err)
}

// UpdateProduct implements catalog.Store.
func (s *Store) UpdateProduct(ctx context.Context, p catalog.Product) error {
	if s == nil || s.db == nil {
		return ErrStoreUnavailable
	}
	tag, err := s.db.Exec(ctx, `UPDATE products SET name = $2, image = $3, category_id = $4, price = $5, active = $6, updated_at = $7 WHERE id = $1`,
		p.ID, p.Name, p.Image, p.CategoryID, p.Price, p.Active, p.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// InsertOrder implements repo.Store.
func (s *Store) InsertOrder(ctx context.Context, o order.Order) error {
	if s == nil || s.db == nil {
		return ErrStoreUnavailable
	}
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return err
	}
	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}
	pay, err := json.Marshal(o.Payment)
	if err != nil {
		return err
	}
	discounts := o.Discounts
	if discounts == nil {
		discounts = []pricing.Applied{}
	}
	applied, err := json.Marshal(discounts)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO orders (`+orderColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		o.ID, o.UserID, lines, address, pay, applied, o.ItemsPrice, o.ShippingPrice,
		o.TaxPrice, o.DiscountTotal, o.TotalPrice, o.Currency, string(o.Status), o.IsPaid, o.PaidAt, o.IsDelivered, o.DeliveredAt, o.CreatedAt, o.UpdatedAt)
	return mapErr(err)
}

func scanOrder(row pgx.Row) (order.Order, error) {
	var (
		o                            order.Order
		lines, address, pay, applied []byte
		status                       string
	)
	err := row.Scan(&o.ID, &o.UserID, &lines, &address, &pay, &applied, &o.ItemsPrice, &o.ShippingPrice,
		&o.TaxPrice, &o.DiscountTotal, &o.TotalPrice, &o.Currency, &status, &o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return order.Order{}, mapErr(err)
	}
	o.Status = order.Status(status)
	for _, doc := range []struct {
		raw  []byte
		dest any
	}{{lines, &o.Lines}, {address, &o.ShippingAddress}, {pay, &o.Payment}, {applied, &o.Discounts}} {
		if len(doc.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(doc.raw, doc.dest); err != nil {
			return order.Order{}, fmt.Errorf("decode order %s: %w", o.ID, err)
		}
	}
	return o, nil
}

// GetOrder implements order.Store.
func (s *Store) GetOrder(ctx context.Context, id string) (order.Order, error) {
	if s == nil || s.db == nil {
		return order.Order{}, ErrStoreUnavailable
	}
	return scanOrder(s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

// ListOrders implements order.Store.
func (s *Store) ListOrders(ctx context.Context, f order.Filter) ([]order.Order, int, error) {
	if s == nil || s.db == nil {
		return nil, 0, ErrStoreUnavailable
	}
	var (
		conds []string
		args  []any
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}
	lim, off := offsetLimit(f.Limit, f.Offset)
	args = append(args, lim, off)
	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, orderColumns, where, len(args)-1, len(args))
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer rows.Close()
	out := []order.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// UpdateOrder implements order.Store. The status guard makes concurrent transitions lose cleanly.
func (s *Store) UpdateOrder(ctx context.Context, id string, from order.Status, u order.Update) (bool, error) {
	if s == nil || s.db == nil {
		return false, ErrStoreUnavailable
	}
	tag, err := s.db.Exec(ctx, `UPDATE orders
SET status = $3, is_paid = $4, paid_at = $5, is_delivered = $6, delivered_at = $7, updated_at = $8
WHERE id = $1 AND status = $2`, id, string(from), string(u.Status), u.IsPaid, u.PaidAt, u.IsDelivered, u.DeliveredAt, u.UpdatedAt)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}
