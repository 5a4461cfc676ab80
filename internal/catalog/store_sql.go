package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"SpiceKart/internal/database"
)

type productRow struct {
	ID          int64   `gorm:"primaryKey;autoIncrement:false"`
	Name        string  `gorm:"not null"`
	Price       float64 `gorm:"not null;index"`
	Category    string  `gorm:"index"`
	Description string
	Image       string
}

func (productRow) TableName() string { return "products" }

func rowFrom(p Product) productRow {
	return productRow{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Category:    p.Category,
		Description: p.Description,
		Image:       p.Image,
	}
}

func (r productRow) record() Record {
	return Product{
		ID:          r.ID,
		Name:        r.Name,
		Price:       r.Price,
		Category:    r.Category,
		Description: r.Description,
		Image:       r.Image,
	}.Record()
}

// SQLStore keeps products in SQLite or Postgres via gorm.
type SQLStore struct {
	conn    *database.SQL
	ids     IDAllocator
	timeout time.Duration
}

func NewSQLStore(conn *database.SQL, ids IDAllocator, timeout time.Duration) *SQLStore {
	return &SQLStore{conn: conn, ids: ids, timeout: timeout}
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	return s.do(ctx, func(db *gorm.DB) error {
		return db.AutoMigrate(&productRow{})
	})
}

func (s *SQLStore) Available() bool { return s.conn.Health.Available() }

func (s *SQLStore) Ping(ctx context.Context) error { return s.conn.Ping(ctx) }

func (s *SQLStore) Find(ctx context.Context, f Filter) ([]Product, error) {
	var rows []productRow

	textInSQL := s.foldsUnicode()
	err := s.do(ctx, func(db *gorm.DB) error {
		return sqlFilter(db.Model(&productRow{}), f, textInSQL).Order("id ASC").Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	text := Filter{Query: f.Query}
	out := make([]Product, 0, len(rows))
	for _, r := range rows {
		p := Normalize(r.record(), s.ids)
		if !textInSQL && !text.Match(p) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// foldsUnicode reports whether the database's LOWER folds non-ASCII letters.
// SQLite only folds ASCII, so there the text term is matched after the fetch.
func (s *SQLStore) foldsUnicode() bool {
	return s.conn.DB.Dialector.Name() != "sqlite"
}

func (s *SQLStore) FindOne(ctx context.Context, id int64) (Product, bool, error) {
	var row productRow

	err := s.do(ctx, func(db *gorm.DB) error {
		return db.Where("id = ?", id).Take(&row).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return Normalize(row.record(), s.ids), true, nil
}

func (s *SQLStore) Insert(ctx context.Context, p Product) error {
	row := rowFrom(p)
	err := s.do(ctx, func(db *gorm.DB) error {
		return db.Create(&row).Error
	})
	if database.IsUniqueViolation(err) {
		return ErrDuplicateID
	}
	return err
}

func (s *SQLStore) Update(ctx context.Context, p Product) (bool, error) {
	var affected int64

	err := s.do(ctx, func(db *gorm.DB) error {
		res := db.Model(&productRow{}).Where("id = ?", p.ID).Updates(map[string]any{
			"name":        p.Name,
			"price":       p.Price,
			"category":    p.Category,
			"description": p.Description,
			"image":       p.Image,
		})
		affected = res.RowsAffected
		return res.Error
	})
	return affected > 0, err
}

func (s *SQLStore) Delete(ctx context.Context, id int64) (bool, error) {
	var affected int64

	err := s.do(ctx, func(db *gorm.DB) error {
		res := db.Where("id = ?", id).Delete(&productRow{})
		affected = res.RowsAffected
		return res.Error
	})
	return affected > 0, err
}

func (s *SQLStore) Upsert(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}

	rows := make([]productRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, rowFrom(p))
	}

	return s.do(ctx, func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&rows).Error
	})
}

func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.do(ctx, func(db *gorm.DB) error {
		return db.Model(&productRow{}).Count(&n).Error
	})
	return n, err
}

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

func sqlFilter(q *gorm.DB, f Filter, withText bool) *gorm.DB {
	if withText && f.Query != "" {
		like := "%" + escapeLike(strings.ToLower(f.Query)) + "%"
		q = q.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, like, like)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Min != nil {
		q = q.Where("price >= ?", *f.Min)
	}
	if f.Max != nil {
		q = q.Where("price <= ?", *f.Max)
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
