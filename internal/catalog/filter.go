package catalog

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Filter is a product query. Zero values mean "no constraint".
type Filter struct {
	Query    string
	Category string
	Min      *float64
	Max      *float64
}

// ParseFilter reads q, category, min and max. Bounds that do not parse as
// finite numbers are dropped rather than rejected.
func ParseFilter(v url.Values) Filter {
	return Filter{
		Query:    strings.TrimSpace(v.Get("q")),
		Category: v.Get("category"),
		Min:      parseBound(v.Get("min")),
		Max:      parseBound(v.Get("max")),
	}
}

func parseBound(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func (f Filter) Empty() bool {
	return f.Query == "" && f.Category == "" && f.Min == nil && f.Max == nil
}

func (f Filter) Match(p Product) bool {
	return f.matcher()(p)
}

func (f Filter) matcher() func(Product) bool {
	q := strings.ToLower(f.Query)
	return func(p Product) bool {
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
		if f.Category != "" && p.Category != f.Category {
			return false
		}
		if f.Min != nil && p.Price < *f.Min {
			return false
		}
		if f.Max != nil && p.Price > *f.Max {
			return false
		}
		return true
	}
}

// Apply returns the products matching f, ascending by id. The input slice is
// left untouched.
func Apply(products []Product, f Filter) []Product {
	match := f.matcher()

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if match(p) {
			out = append(out, p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func Float(f float64) *float64 { return &f }
