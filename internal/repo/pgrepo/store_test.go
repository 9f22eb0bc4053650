package pgrepo

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/repo"
)

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@db:5432/shop?sslmode=disable":   "pgx5://u:p@db:5432/shop?sslmode=disable",
		"postgresql://u:p@db:5432/shop?sslmode=disable": "pgx5://u:p@db:5432/shop?sslmode=disable",
		"pgx5://u:p@db/shop":                             "pgx5://u:p@db/shop",
	}
	for in, want := range cases {
		if got := migrateURL(in); got != want {
			t.Fatalf("migrateURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMapErr(t *testing.T) {
	if !errors.Is(mapErr(pgx.ErrNoRows), repo.ErrNotFound) {
		t.Fatalf("expected ErrNoRows to map to ErrNotFound")
	}
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "coupons_code_key"}
	if !errors.Is(mapErr(dup), repo.ErrDuplicate) {
		t.Fatalf("expected unique violation to map to ErrDuplicate")
	}
	other := errors.New("boom")
	if mapErr(other) != other {
		t.Fatalf("expected other errors to pass through")
	}
	if mapErr(nil) != nil {
		t.Fatalf("expected nil to stay nil")
	}
}

func TestMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	downs, err := fs.Glob(migrations, "migrations/*.down.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(ups) == 0 || len(ups) != len(downs) {
		t.Fatalf("expected paired migrations, got %d up and %d down", len(ups), len(downs))
	}
}

func TestUnconfiguredStore(t *testing.T) {
	var s *Store
	if err := s.Ping(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := (&Store{}).FindCouponByCode(context.Background(), "X"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
