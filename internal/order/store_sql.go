package order

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"SpiceKart/internal/database"
)

// SQLStore keeps orders in one table; customer and items are JSON columns.
type SQLStore struct {
	conn    *database.SQL
	timeout time.Duration
}

func NewSQLStore(conn *database.SQL, timeout time.Duration) *SQLStore {
	return &SQLStore{conn: conn, timeout: timeout}
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	return s.do(ctx, func(db *gorm.DB) error {
		return db.AutoMigrate(&Order{})
	})
}

func (s *SQLStore) Create(ctx context.Context, o Order) error {
	err := s.do(ctx, func(db *gorm.DB) error {
		return db.Create(&o).Error
	})
	if database.IsUniqueViolation(err) {
		return ErrDuplicateID
	}
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Order, bool, error) {
	var o Order
	err := s.do(ctx, func(db *gorm.DB) error {
		return db.Where("id = ?", id).Take(&o).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Order{}, false, nil
	}
	if err != nil {
		return Order{}, false, err
	}
	return o, true, nil
}

func (s *SQLStore) List(ctx context.Context, limit int) ([]Order, error) {
	out := []Order{}
	err := s.do(ctx, func(db *gorm.DB) error {
		return db.Order("created_at DESC").Order("id DESC").Limit(clampLimit(limit)).Find(&out).Error
	})
	return out, err
}

func (s *SQLStore) Ping(ctx context.Context) error { return s.conn.Ping(ctx) }

func (s *SQLStore) do(ctx context.Context, fn func(db *gorm.DB) error) error {
	err := withTimeout(ctx, s.timeout, func(ctx context.Context) error {
		return fn(s.conn.DB.WithContext(ctx))
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.conn.Health.MarkUp()
		return err
	}
	if s.conn.Health.Observe(err, database.IsSQLTransient) {
		return unavailable(err)
	}
	return err
}
