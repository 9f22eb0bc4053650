package mongorepo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/catalog"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/order"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/repo"
)

// GetProduct implements catalog.Store.
func (s *Store) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	if err := s.ready(); err != nil {
		return catalog.Product{}, err
	}
	var doc productDoc
	if err := s.coll(collProducts).FindOne(s.bind(ctx), bson.M{"_id": id}).Decode(&doc); err != nil {
		return catalog.Product{}, mapErr(err)
	}
	return doc.model(), nil
}

// ListProducts implements catalog.Store.
func (s *Store) ListProducts(ctx context.Context, limit, offset int) ([]catalog.Product, int, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}
	ctx = s.bind(ctx)
	total, err := s.coll(collProducts).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, mapErr(err)
	}
	opts := page(limit, offset).SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	rows, err := findAll(ctx, s.coll(collProducts), bson.M{}, opts, productDoc.model)
	return rows, int(total), err
}

// GetProductsByIDs implements catalog.Store.
func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	return findAll(s.bind(ctx), s.coll(collProducts), bson.M{"_id": bson.M{"$in": ids}}, page(0, 0), productDoc.model)
}

// InsertProduct implements catalog.Store.
func (s *Store) InsertProduct(ctx context.Context, p catalog.Product) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.coll(collProducts).InsertOne(s.bind(ctx), toProductDoc(p))
	return mapErr(err)
}

// UpdateProduct implements catalog.Store.
func (s *Store) UpdateProduct(ctx context.Context, p catalog.Product) error {
	if err := s.ready(); err != nil {
		return err
	}
	res, err := s.coll(collProducts).ReplaceOne(s.bind(ctx), bson.M{"_id": p.ID}, toProductDoc(p))
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// InsertOrder implements repo.Store.
func (s *Store) InsertOrder(ctx context.Context, o order.Order) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.coll(collOrders).InsertOne(s.bind(ctx), toOrderDoc(o))
	return mapErr(err)
}

// GetOrder implements order.Store.
func (s *Store) GetOrder(ctx context.Context, id string) (order.Order, error) {
	if err := s.ready(); err != nil {
		return order.Order{}, err
	}
	var doc orderDoc
	if err := s.coll(collOrders).FindOne(s.bind(ctx), bson.M{"_id": id}).Decode(&doc); err != nil {
		return order.Order{}, mapErr(err)
	}
	return doc.model(), nil
}

// ListOrders implements order.Store.
func (s *Store) ListOrders(ctx context.Context, f order.Filter) ([]order.Order, int, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}
	ctx = s.bind(ctx)
	filter := orderFilter(f)
	total, err := s.coll(collOrders).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	opts := page(f.Limit, f.Offset).SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	rows, err := findAll(ctx, s.coll(collOrders), filter, opts, orderDoc.model)
	return rows, int(total), err
}

func orderFilter(f order.Filter) bson.M {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	return filter
}

// UpdateOrder implements order.Store. The update matches only while the status is still from.
func (s *Store) UpdateOrder(ctx context.Context, id string, from order.Status, u order.Update) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	res, err := s.coll(collOrders).UpdateOne(s.bind(ctx),
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": bson.M{
			"status":      string(u.Status),
			"isPaid":      u.IsPaid,
			"paidAt":      u.PaidAt,
			"isDelivered": u.IsDelivered,
			"deliveredAt": u.DeliveredAt,
			"updatedAt":   u.UpdatedAt,
		}})
	if err != nil {
		return false, mapErr(err)
	}
	return res.MatchedCount == 1, nil
}
