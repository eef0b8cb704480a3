// Package catalog derives storefront views over the read-only product dataset.
package catalog

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/yourchoice-store/internal/domain/product"
)

// SortBy selects the ordering applied after filtering.
type SortBy string

const (
	SortNone      SortBy = ""
	SortPriceLow  SortBy = "price-low"
	SortPriceHigh SortBy = "price-high"
	SortRating    SortBy = "rating"
	// SortNewest orders by the numeric value of the product id, descending.
	// Ids are not creation timestamps; this mirrors the storefront's demo
	// behaviour and is kept as-is.
	SortNewest SortBy = "newest"
)

// ErrUnknownSort is returned by ParseSortBy for unrecognised sort keys.
var ErrUnknownSort = errors.New("unknown sort key")

// ParseSortBy converts a query value into a SortBy. The empty string means
// no sorting.
func ParseSortBy(s string) (SortBy, error) {
	switch v := SortBy(s); v {
	case SortNone, SortPriceLow, SortPriceHigh, SortRating, SortNewest:
		return v, nil
	default:
		return SortNone, errors.Wrapf(ErrUnknownSort, "%q", s)
	}
}

// PriceRange is an inclusive bound on product price. Min greater than Max is
// legal and matches nothing.
type PriceRange struct {
	Min int64
	Max int64
}

// Contains reports whether price lies within the range.
func (r PriceRange) Contains(price int64) bool {
	return price >= r.Min && price <= r.Max
}

// Filter narrows the catalog view. Zero-valued fields impose no constraint;
// all present constraints must hold.
type Filter struct {
	// Category restricts to an exact category match.
	Category   product.Category
	PriceRange *PriceRange
	// Colors matches when any entry is a case-insensitive substring of the
	// product color.
	Colors []string
	// Fabrics follows the Colors semantics against the product fabric.
	Fabrics []string
	SortBy  SortBy
}

// ComputeView returns the products matching query and f, in the order
// requested by f.SortBy. The input slice is never modified and the result is
// always a fresh slice.
func ComputeView(products []product.Product, query string, f Filter) []product.Product {
	q := strings.ToLower(query)
	colors := lowerAll(f.Colors)
	fabrics := lowerAll(f.Fabrics)

	out := make([]product.Product, 0, len(products))
	for _, p := range products {
		if q != "" && !matchesQuery(p, q) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.PriceRange != nil && !f.PriceRange.Contains(p.Price) {
			continue
		}
		if len(colors) > 0 && !containsAny(p.Color, colors) {
			continue
		}
		if len(fabrics) > 0 && !containsAny(p.Fabric, fabrics) {
			continue
		}
		out = append(out, p)
	}

	if cmpFn := comparator(f.SortBy); cmpFn != nil {
		slices.SortStableFunc(out, cmpFn)
	}
	return out
}

func matchesQuery(p product.Product, q string) bool {
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q) ||
		strings.Contains(strings.ToLower(string(p.Category)), q) ||
		strings.Contains(strings.ToLower(p.Color), q)
}

// containsAny reports whether any needle (already lowercased) is a substring
// of the lowercased haystack.
func containsAny(haystack string, needles []string) bool {
	h := strings.ToLower(haystack)
	for _, n := range needles {
		if strings.Contains(h, n) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func comparator(s SortBy) func(a, b product.Product) int {
	switch s {
	case SortPriceLow:
		return func(a, b product.Product) int { return cmp.Compare(a.Price, b.Price) }
	case SortPriceHigh:
		return func(a, b product.Product) int { return cmp.Compare(b.Price, a.Price) }
	case SortRating:
		return func(a, b product.Product) int { return cmp.Compare(b.Rating, a.Rating) }
	case SortNewest:
		return compareNewest
	default:
		return nil
	}
}

// compareNewest orders numeric ids descending. Ids that do not parse as
// integers sort after every numeric id and keep their relative order.
func compareNewest(a, b product.Product) int {
	an, aErr := strconv.ParseInt(a.ID, 10, 64)
	bn, bErr := strconv.ParseInt(b.ID, 10, 64)
	switch {
	case aErr != nil && bErr != nil:
		return 0
	case aErr != nil:
		return 1
	case bErr != nil:
		return -1
	}
	return cmp.Compare(bn, an)
}
