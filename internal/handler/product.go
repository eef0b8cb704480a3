package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/yourchoice-store/internal/domain/analytics"
	"github.com/xenking/yourchoice-store/internal/domain/catalog"
	"github.com/xenking/yourchoice-store/internal/domain/product"
)

// ListProducts serves the filtered and sorted catalog view.
//
// Query parameters: q, category, minPrice, maxPrice, color and fabric
// (repeatable or comma separated) and sortBy.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query, filter, err := parseFilter(r)
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}

	view := h.catalog.View(query, filter)
	if strings.TrimSpace(query) != "" {
		h.events.Notify(r.Context(), analytics.Search{Term: query, Results: len(view)})
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeProducts(e, view)
	})
}

func parseFilter(r *http.Request) (string, catalog.Filter, error) {
	q := r.URL.Query()
	var f catalog.Filter

	if c := q.Get("category"); c != "" {
		f.Category = product.Category(c)
		if !f.Category.Valid() {
			return "", f, badRequest("unknown category %q", c)
		}
	}

	minPrice, hasMin, err := parsePrice(q.Get("minPrice"), "minPrice")
	if err != nil {
		return "", f, err
	}
	maxPrice, hasMax, err := parsePrice(q.Get("maxPrice"), "maxPrice")
	if err != nil {
		return "", f, err
	}
	if hasMin || hasMax {
		f.PriceRange = &catalog.PriceRange{Min: 0, Max: math.MaxInt64}
		if hasMin {
			f.PriceRange.Min = minPrice
		}
		if hasMax {
			f.PriceRange.Max = maxPrice
		}
	}

	f.Colors = listParam(q["color"])
	f.Fabrics = listParam(q["fabric"])

	sortBy, err := catalog.ParseSortBy(q.Get("sortBy"))
	if err != nil {
		return "", f, badRequest("unknown sortBy %q", q.Get("sortBy"))
	}
	f.SortBy = sortBy

	return q.Get("q"), f, nil
}

func parsePrice(v, name string) (int64, bool, error) {
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, badRequest("%s must be an integer", name)
	}
	return n, true, nil
}

// listParam accepts both ?color=Red&color=Blue and ?color=Red,Blue.
func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ProductFacets serves the metadata for the filter sidebar.
func (h *Handler) ProductFacets(w http.ResponseWriter, _ *http.Request) {
	facets := h.catalog.Facets()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeFacets(e, facets)
	})
}

// FeaturedProducts serves the home page lists.
func (h *Handler) FeaturedProducts(w http.ResponseWriter, _ *http.Request) {
	arrivals := h.catalog.NewArrivals(h.featuredCount)
	best := h.catalog.BestSellers(h.featuredCount)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("newArrivals")
		h.encodeProducts(e, arrivals)
		e.FieldStart("bestSellers")
		h.encodeProducts(e, best)
		e.ObjEnd()
	})
}

// GetProduct serves a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.lookup(chi.URLParam(r, "productId"))
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}

	h.events.Notify(r.Context(), analytics.ViewItem{Item: analytics.ItemFromProduct(p, 1)})
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeProduct(e, p)
	})
}
