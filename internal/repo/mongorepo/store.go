// Package mongorepo implements repo.Store on MongoDB.
package mongorepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/repo"
)

const (
	collCoupons     = "coupons"
	collGiftCards   = "gift_cards"
	collRedemptions = "redemptions"
	collProducts    = "products"
	collOrders      = "orders"
)

// ErrStoreUnavailable indicates the client was never configured.
var ErrStoreUnavailable = errors.New("mongorepo: store unavailable")

// Config configures the client.
type Config struct {
	URI      string
	Database string
	AppName  string
	Timeout  time.Duration
}

// Store is a repo.Store backed by a MongoDB database. Inside InTx it carries the session.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	session mongo.Session
}

// Open connects, pings and ensures indexes.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Database == "" {
		return nil, errors.New("mongorepo: database name is required")
	}
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}
	if cfg.Timeout > 0 {
		opts.SetTimeout(cfg.Timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	s := &Store{client: client, db: client.Database(cfg.Database)}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// EnsureIndexes creates the unique code indexes and listing indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrStoreUnavailable
	}
	unique := options.Index().SetUnique(true)
	specs := map[string][]mongo.IndexModel{
		collCoupons:   {{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique}},
		collGiftCards: {{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique}},
		collRedemptions: {
			{Keys: bson.D{{Key: "code", Value: 1}, {Key: "redeemedAt", Value: -1}}},
		},
		collProducts: {{Keys: bson.D{{Key: "createdAt", Value: 1}}}},
		collOrders: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
	}
	for name, models := range specs {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

// InTx implements repo.Store with a multi-document transaction. It requires a replica set.
func (s *Store) InTx(ctx context.Context, fn func(tx repo.Store) error) error {
	if s == nil || s.client == nil {
		return ErrStoreUnavailable
	}
	if s.session != nil {
		return fn(s)
	}
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)
	_, err = session.WithTransaction(ctx, func(mongo.SessionContext) (any, error) {
		return nil, fn(&Store{client: s.client, db: s.db, session: session})
	})
	return err
}

// Ping implements repo.Store.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return ErrStoreUnavailable
	}
	return s.client.Ping(ctx, nil)
}

// Close implements repo.Store.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil || s.session != nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store) coll(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// bind attaches the open session, if any, so operations join the transaction.
func (s *Store) bind(ctx context.Context) context.Context {
	if s.session != nil {
		return mongo.NewSessionContext(ctx, s.session)
	}
	return ctx
}

func (s *Store) ready() error {
	if s == nil || s.db == nil {
		return ErrStoreUnavailable
	}
	return nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repo.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", repo.ErrDuplicate, err)
	}
	return err
}

func page(limit, offset int) *options.FindOptions {
	opts := options.Find()
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

func findAll[D any, M any](ctx context.Context, c *mongo.Collection, filter any, opts *options.FindOptions, conv func(D) M) ([]M, error) {
	cur, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapErr(err)
	}
	defer cur.Close(ctx)
	out := []M{}
	for cur.Next(ctx) {
		var doc D
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, conv(doc))
	}
	return out, cur.Err()
}

var _ repo.Store = (*Store)(nil)
