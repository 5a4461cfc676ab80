package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const UnnamedProduct = "Unnamed product"

// Product is the canonical shape every consumer sees. Values only reach
// callers through Normalize, so all fields are present and typed.
type Product struct {
	ID          int64   `json:"id" bson:"id"`
	Name        string  `json:"name" bson:"name"`
	Price       float64 `json:"price" bson:"price"`
	Category    string  `json:"category" bson:"category"`
	Description string  `json:"description" bson:"description"`
	Image       string  `json:"image" bson:"image"`
}

// Record is a raw, possibly sparse product as read from a document store,
// the seed file or a request body.
type Record map[string]any

func (p Product) Record() Record {
	return Record{
		"id":          p.ID,
		"name":        p.Name,
		"price":       p.Price,
		"category":    p.Category,
		"description": p.Description,
		"image":       p.Image,
	}
}

// Normalize maps any record onto Product. An id that is not a positive
// integer is replaced with one from ids. Negative prices pass through.
func Normalize(raw Record, ids IDAllocator) Product {
	p := Product{
		Name:        coerceString(raw["name"]),
		Category:    coerceString(raw["category"]),
		Description: coerceString(raw["description"]),
		Image:       coerceString(raw["image"]),
	}

	if id, ok := coerceID(raw["id"]); ok {
		p.ID = id
	} else {
		p.ID = ids.NextID()
	}

	if p.Name == "" {
		p.Name = UnnamedProduct
	}

	if price, ok := coerceNumber(raw["price"]); ok {
		p.Price = price
	}

	return p
}

func NormalizeAll(raws []Record, ids IDAllocator) []Product {
	out := make([]Product, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r, ids))
	}
	return out
}

func coerceID(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, n > 0
	case int32:
		return int64(n), n > 0
	case int:
		return int64(n), n > 0
	}

	f, ok := coerceNumber(v)
	if !ok || f < 1 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// coerceNumber accepts numeric types and numeric strings; anything else,
// including NaN and infinities, is not a number.
func coerceNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		return parseNumber(n.String())
	case string:
		return parseNumber(n)
	case fmt.Stringer:
		return parseNumber(n.String())
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int, int32, int64:
		return fmt.Sprint(s)
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	default:
		return ""
	}
}
