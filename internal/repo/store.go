package repo

import (
	"context"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/catalog"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/discount"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/order"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = common.ErrNotFound
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = common.ErrDuplicate
)

// Store is the full persistence boundary of the service. Every driver implements it.
type Store interface {
	discount.LedgerStore
	discount.AdminStore
	catalog.Store
	order.Store

	InsertOrder(ctx context.Context, o order.Order) error

	// InTx runs fn against a transactional view of the store. The transaction commits when
	// fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

func window[T any](rows []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []T{}
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]T(nil), rows[offset:end]...)
}
