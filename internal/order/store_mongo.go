package order

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"SpiceKart/internal/database"
)

const ordersCollection = "orders"

type MongoStore struct {
	conn    *database.Mongo
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoStore(conn *database.Mongo, timeout time.Duration) *MongoStore {
	return &MongoStore{
		conn:    conn,
		coll:    conn.DB.Collection(ordersCollection),
		timeout: timeout,
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) error {
		_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		})
		return err
	})
}

func (s *MongoStore) Create(ctx context.Context, o Order) error {
	err := s.do(ctx, func(ctx context.Context) error {
		_, err := s.coll.InsertOne(ctx, o)
		return err
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateID
	}
	return err
}

func (s *MongoStore) Get(ctx context.Context, id string) (Order, bool, error) {
	var o Order
	err := s.do(ctx, func(ctx context.Context) error {
		return s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Order{}, false, nil
	}
	if err != nil {
		return Order{}, false, err
	}
	return o, true, nil
}

func (s *MongoStore) List(ctx context.Context, limit int) ([]Order, error) {
	out := []Order{}
	err := s.do(ctx, func(ctx context.Context) error {
		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
			SetLimit(int64(clampLimit(limit)))
		cur, err := s.coll.Find(ctx, bson.M{}, opts)
		if err != nil {
			return err
		}
		return cur.All(ctx, &out)
	})
	return out, err
}

func (s *MongoStore) Ping(ctx context.Context) error { return s.conn.Ping(ctx) }

func (s *MongoStore) do(ctx context.Context, fn func(ctx context.Context) error) error {
	err := withTimeout(ctx, s.timeout, fn)
	if errors.Is(err, mongo.ErrNoDocuments) {
		s.conn.Health.MarkUp()
		return err
	}
	if s.conn.Health.Observe(err, database.IsMongoTransient) {
		return unavailable(err)
	}
	return err
}
