package repo

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/catalog"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/discount"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/order"
)

type memData struct {
	coupons     map[string]discount.Coupon
	giftCards   map[string]discount.GiftCard
	redemptions []discount.Redemption
	products    map[string]catalog.Product
	orders      map[string]order.Order
}

func newMemData() *memData {
	return &memData{
		coupons:   map[string]discount.Coupon{},
		giftCards: map[string]discount.GiftCard{},
		products:  map[string]catalog.Product{},
		orders:    map[string]order.Order{},
	}
}

func (d *memData) clone() *memData {
	out := newMemData()
	for k, v := range d.coupons {
		out.coupons[k] = v.Clone()
	}
	for k, v := range d.giftCards {
		out.giftCards[k] = v.Clone()
	}
	out.redemptions = slices.Clone(d.redemptions)
	for k, v := range d.products {
		out.products[k] = v
	}
	for k, v := range d.orders {
		out.orders[k] = v.Clone()
	}
	return out
}

// Memory is an in-process Store. Transactions work on a private copy of the data that
// replaces the shared state on commit; all access is serialized while one is open.
type Memory struct {
	mu   *sync.Mutex
	data *memData
	inTx bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{mu: &sync.Mutex{}, data: newMemData()}
}

func (m *Memory) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

// InTx implements Store.
func (m *Memory) InTx(ctx context.Context, fn func(tx Store) error) error {
	if m.inTx {
		return fn(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &Memory{mu: m.mu, data: m.data.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.data = tx.data
	return nil
}

// Ping implements Store.
func (m *Memory) Ping(ctx context.Context) error { return nil }

// Close implements Store.
func (m *Memory) Close(ctx context.Context) error { return nil }

// FindCouponByCode implements discount.Querier.
func (m *Memory) FindCouponByCode(ctx context.Context, code string) (discount.Coupon, error) {
	defer m.lock()()
	c, ok := m.data.coupons[code]
	if !ok {
		return discount.Coupon{}, ErrNotFound
	}
	return c.Clone(), nil
}

// FindGiftCardByCode implements discount.Querier.
func (m *Memory) FindGiftCardByCode(ctx context.Context, code string) (discount.GiftCard, error) {
	defer m.lock()()
	g, ok := m.data.giftCards[code]
	if !ok {
		return discount.GiftCard{}, ErrNotFound
	}
	return g.Clone(), nil
}

// RedeemCoupon implements discount.LedgerStore.
func (m *Memory) RedeemCoupon(ctx context.Context, code, userID string, now time.Time) (bool, error) {
	defer m.lock()()
	c, ok := m.data.coupons[code]
	if !ok || !c.Active || slices.Contains(c.UsedBy, userID) {
		return false, nil
	}
	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return false, nil
	}
	c = c.Clone()
	c.UsedCount++
	c.UsedBy = append(c.UsedBy, userID)
	c.UpdatedAt = now
	m.data.coupons[code] = c
	return true, nil
}

// RedeemGiftCard implements discount.LedgerStore.
func (m *Memory) RedeemGiftCard(ctx context.Context, code, userID, orderID string, now time.Time) (bool, error) {
	defer m.lock()()
	g, ok := m.data.giftCards[code]
	if !ok || !g.Active || g.Redeemed {
		return false, nil
	}
	g = g.Clone()
	g.Redeemed = true
	g.RedeemedAt = &now
	g.RedeemedBy = userID
	g.RedeemedOrderID = orderID
	g.UpdatedAt = now
	m.data.giftCards[code] = g
	return true, nil
}

// InsertRedemption implements discount.LedgerStore.
func (m *Memory) InsertRedemption(ctx context.Context, r discount.Redemption) error {
	defer m.lock()()
	m.data.redemptions = append(m.data.redemptions, r)
	return nil
}

// InsertCoupon implements discount.AdminStore.
func (m *Memory) InsertCoupon(ctx context.Context, c discount.Coupon) error {
	defer m.lock()()
	if _, ok := m.data.coupons[c.Code]; ok {
		return ErrDuplicate
	}
	m.data.coupons[c.Code] = c.Clone()
	return nil
}

// UpdateCoupon implements discount.AdminStore. Usage counters are left untouched.
func (m *Memory) UpdateCoupon(ctx context.Context, c discount.Coupon) error {
	defer m.lock()()
	existing, ok := m.data.coupons[c.Code]
	if !ok {
		return ErrNotFound
	}
	next := c.Clone()
	next.ID = existing.ID
	next.UsedCount = existing.UsedCount
	next.UsedBy = slices.Clone(existing.UsedBy)
	next.CreatedAt = existing.CreatedAt
	m.data.coupons[c.Code] = next
	return nil
}

// ListCoupons implements discount.AdminStore, newest first.
func (m *Memory) ListCoupons(ctx context.Context, limit, offset int) ([]discount.Coupon, int, error) {
	defer m.lock()()
	rows := make([]discount.Coupon, 0, len(m.data.coupons))
	for _, c := range m.data.coupons {
		rows = append(rows, c.Clone())
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return window(rows, limit, offset), len(rows), nil
}

// SetCouponActive implements discount.AdminStore.
func (m *Memory) SetCouponActive(ctx context.Context, code string, active bool, now time.Time) error {
	defer m.lock()()
	c, ok := m.data.coupons[code]
	if !ok {
		return ErrNotFound
	}
	c.Active = active
	c.UpdatedAt = now
	m.data.coupons[code] = c
	return nil
}

// InsertGiftCard implements discount.AdminStore.
func (m *Memory) InsertGiftCard(ctx context.Context, g discount.GiftCard) error {
	defer m.lock()()
	if _, ok := m.data.giftCards[g.Code]; ok {
		return ErrDuplicate
	}
	m.data.giftCards[g.Code] = g.Clone()
	return nil
}

// ListGiftCards implements discount.AdminStore, newest first.
func (m *Memory) ListGiftCards(ctx context.Context, limit, offset int) ([]discount.GiftCard, int, error) {
	defer m.lock()()
	rows := make([]discount.GiftCard, 0, len(m.data.giftCards))
	for _, g := range m.data.giftCards {
		rows = append(rows, g.Clone())
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return window(rows, limit, offset), len(rows), nil
}

// SetGiftCardActive implements discount.AdminStore.
func (m *Memory) SetGiftCardActive(ctx context.Context, code string, active bool, now time.Time) error {
	defer m.lock()()
	g, ok := m.data.giftCards[code]
	if !ok {
		return ErrNotFound
	}
	g.Active = active
	g.UpdatedAt = now
	m.data.giftCards[code] = g
	return nil
}

// ListRedemptions implements discount.AdminStore, newest first.
func (m *Memory) ListRedemptions(ctx context.Context, code string, limit, offset int) ([]discount.Redemption, int, error) {
	defer m.lock()()
	var rows []discount.Redemption
	for i := len(m.data.redemptions) - 1; i >= 0; i-- {
		r := m.data.redemptions[i]
		if code == "" || r.Code == code {
			rows = append(rows, r)
		}
	}
	return window(rows, limit, offset), len(rows), nil
}

// GetProduct implements catalog.Store.
func (m *Memory) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	defer m.lock()()
	p, ok := m.data.products[id]
	if !ok {
		return catalog.Product{}, ErrNotFound
	}
	return p, nil
}

// ListProducts implements catalog.Store in creation order.
func (m *Memory) ListProducts(ctx context.Context, limit, offset int) ([]catalog.Product, int, error) {
	defer m.lock()()
	rows := make([]catalog.Product, 0, len(m.data.products))
	for _, p := range m.data.products {
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID < rows[j].ID
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	return window(rows, limit, offset), len(rows), nil
}

// GetProductsByIDs implements catalog.Store. Unknown ids are skipped.
func (m *Memory) GetProductsByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	defer m.lock()()
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.data.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// InsertProduct implements catalog.Store.
func (m *Memory) InsertProduct(ctx context.Context, p catalog.Product) error {
	defer m.lock()()
	if _, ok := m.data.products[p.ID]; ok {
		return ErrDuplicate
	}
	m.data.products[p.ID] = p
	return nil
}

// UpdateProduct implements catalog.Store.
func (m *Memory) UpdateProduct(ctx context.Context, p catalog.Product) error {
	defer m.lock()()
	if _, ok := m.data.products[p.ID]; !ok {
		return ErrNotFound
	}
	m.data.products[p.ID] = p
	return nil
}

// InsertOrder implements Store.
func (m *Memory) InsertOrder(ctx context.Context, o order.Order) error {
	defer m.lock()()
	if _, ok := m.data.orders[o.ID]; ok {
		return ErrDuplicate
	}
	m.data.orders[o.ID] = o.Clone()
	return nil
}

// GetOrder implements order.Store.
func (m *Memory) GetOrder(ctx context.Context, id string) (order.Order, error) {
	defer m.lock()()
	o, ok := m.data.orders[id]
	if !ok {
		return order.Order{}, ErrNotFound
	}
	return o.Clone(), nil
}

// ListOrders implements order.Store, newest first.
func (m *Memory) ListOrders(ctx context.Context, f order.Filter) ([]order.Order, int, error) {
	defer m.lock()()
	var rows []order.Order
	for _, o := range m.data.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		rows = append(rows, o.Clone())
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return window(rows, f.Limit, f.Offset), len(rows), nil
}

// UpdateOrder implements order.Store.
func (m *Memory) UpdateOrder(ctx context.Context, id string, from order.Status, u order.Update) (bool, error) {
	defer m.lock()()
	o, ok := m.data.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = u.Status
	o.IsPaid = u.IsPaid
	o.PaidAt = u.PaidAt
	o.IsDelivered = u.IsDelivered
	o.DeliveredAt = u.DeliveredAt
	o.UpdatedAt = u.UpdatedAt
	m.data.orders[id] = o
	return true, nil
}

var _ Store = (*Memory)(nil)
