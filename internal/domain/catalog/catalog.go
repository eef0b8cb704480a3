package catalog

import (
	"context"
	"slices"

	"github.com/go-faster/errors"

	"github.com/xenking/yourchoice-store/internal/domain/product"
)

// BestSellerMinRating is the rating a product needs to be featured as a best
// seller.
const BestSellerMinRating = 4.5

// DuplicateIDError is returned when the dataset contains the same id twice.
type DuplicateIDError struct {
	ProductID string
}

func (e *DuplicateIDError) Error() string {
	return "duplicate product id " + e.ProductID
}

// Catalog is the read-only product dataset loaded once at process start.
// It is safe for concurrent use.
type Catalog struct {
	products []product.Product
	byID     map[string]int
}

// Load reads and validates the full dataset from repo.
func Load(ctx context.Context, repo product.Repository) (*Catalog, error) {
	products, err := repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return New(products)
}

// New builds a Catalog from an ordered dataset. Dataset order is preserved
// and drives the unsorted view.
func New(products []product.Product) (*Catalog, error) {
	c := &Catalog{
		products: slices.Clone(products),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range c.products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, &DuplicateIDError{ProductID: p.ID}
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

// Len returns the number of products in the dataset.
func (c *Catalog) Len() int {
	return len(c.products)
}

// Products returns a copy of the dataset in its original order.
func (c *Catalog) Products() []product.Product {
	return slices.Clone(c.products)
}

// Product looks up a product by id.
func (c *Catalog) Product(id string) (product.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return product.Product{}, false
	}
	return c.products[i], true
}

// View applies ComputeView to the full dataset.
func (c *Catalog) View(query string, f Filter) []product.Product {
	return ComputeView(c.products, query, f)
}

// NewArrivals returns the first n products in dataset order.
func (c *Catalog) NewArrivals(n int) []product.Product {
	if n <= 0 {
		return nil
	}
	return slices.Clone(c.products[:min(n, len(c.products))])
}

// BestSellers returns up to n products rated at least BestSellerMinRating,
// in dataset order.
func (c *Catalog) BestSellers(n int) []product.Product {
	if n <= 0 {
		return nil
	}
	out := make([]product.Product, 0, n)
	for _, p := range c.products {
		if len(out) == n {
			break
		}
		if p.Rating >= BestSellerMinRating {
			out = append(out, p)
		}
	}
	return out
}
