package catalog

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"SpiceKart/internal/database"
)

const productsCollection = "products"

type MongoStore struct {
	conn    *database.Mongo
	coll    *mongo.Collection
	ids     IDAllocator
	timeout time.Duration
}

func NewMongoStore(conn *database.Mongo, ids IDAllocator, timeout time.Duration) *MongoStore {
	return &MongoStore{
		conn:    conn,
		coll:    conn.DB.Collection(productsCollection),
		ids:     ids,
		timeout: timeout,
	}
}

// EnsureIndexes creates the unique index on the numeric product id.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) error {
		_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		return err
	})
}

func (s *MongoStore) Available() bool { return s.conn.Health.Available() }

func (s *MongoStore) Ping(ctx context.Context) error { return s.conn.Ping(ctx) }

func (s *MongoStore) Find(ctx context.Context, f Filter) ([]Product, error) {
	var docs []bson.M

	err := s.do(ctx, func(ctx context.Context) error {
		cur, err := s.coll.Find(ctx, mongoFilter(f), options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
		if err != nil {
			return err
		}
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	out := make([]Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, Normalize(Record(d), s.ids))
	}
	return out, nil
}

func (s *MongoStore) FindOne(ctx context.Context, id int64) (Product, bool, error) {
	var doc bson.M

	err := s.do(ctx, func(ctx context.Context) error {
		return s.coll.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return Normalize(Record(doc), s.ids), true, nil
}

func (s *MongoStore) Insert(ctx context.Context, p Product) error {
	err := s.do(ctx, func(ctx context.Context) error {
		_, err := s.coll.InsertOne(ctx, p)
		return err
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateID
	}
	return err
}

func (s *MongoStore) Update(ctx context.Context, p Product) (bool, error) {
	var matched int64

	err := s.do(ctx, func(ctx context.Context) error {
		res, err := s.coll.UpdateOne(ctx, bson.M{"id": p.ID}, bson.M{"$set": bson.M{
			"name":        p.Name,
			"price":       p.Price,
			"category":    p.Category,
			"description": p.Description,
			"image":       p.Image,
		}})
		if err != nil {
			return err
		}
		matched = res.MatchedCount
		return nil
	})
	return matched > 0, err
}

func (s *MongoStore) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted int64

	err := s.do(ctx, func(ctx context.Context) error {
		res, err := s.coll.DeleteOne(ctx, bson.M{"id": id})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		return nil
	})
	return deleted > 0, err
}

func (s *MongoStore) Upsert(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(products))
	for _, p := range products {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"id": p.ID}).
			SetReplacement(p).
			SetUpsert(true))
	}

	return s.do(ctx, func(ctx context.Context) error {
		_, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
		return err
	})
}

func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.coll.CountDocuments(ctx, bson.M{})
		return err
	})
	return n, err
}

// do runs one bounded operation and feeds its outcome into the connection
// health; unreachable-server failures come back as ErrUnavailable.
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

// mongoFilter translates f into the native query: the text term becomes a
// case-insensitive literal match on name or description.
func mongoFilter(f Filter) bson.M {
	q := bson.M{}

	if f.Query != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"description": re},
		}
	}
	if f.Category != "" {
		q["category"] = f.Category
	}

	price := bson.M{}
	if f.Min != nil {
		price["$gte"] = *f.Min
	}
	if f.Max != nil {
		price["$lte"] = *f.Max
	}
	if len(price) > 0 {
		q["price"] = price
	}

	return q
}
