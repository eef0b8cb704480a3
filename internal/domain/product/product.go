package product

import (
	"context"
	"math"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Category enumerates the saree collections offered by the store.
type Category string

const (
	CategorySilk      Category = "silk"
	CategoryCotton    Category = "cotton"
	CategoryGeorgette Category = "georgette"
	CategoryPartyWear Category = "party-wear"
	CategoryCasual    Category = "casual"
)

// CategoryInfo pairs a category with its storefront label.
type CategoryInfo struct {
	Category Category
	Label    string
}

var categories = []CategoryInfo{
	{Category: CategorySilk, Label: "Silk Sarees"},
	{Category: CategoryCotton, Label: "Cotton Sarees"},
	{Category: CategoryGeorgette, Label: "Georgette Sarees"},
	{Category: CategoryPartyWear, Label: "Party Wear"},
	{Category: CategoryCasual, Label: "Casual Wear"},
}

// Categories returns every known category in display order.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, info := range categories {
		if info.Category == c {
			return true
		}
	}
	return false
}

// Product represents a catalog item available for purchase. Prices are whole
// rupees.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       int64
	// OriginalPrice is zero unless the item is discounted.
	OriginalPrice int64
	Images        []string
	Category      Category
	Fabric        string
	Color         string
	Work          string
	Length        string
	BlousePiece   bool
	InStock       bool
	Rating        float64
	Reviews       int
}

// Discounted reports whether the product carries an original price.
func (p Product) Discounted() bool {
	return p.OriginalPrice > 0
}

// DiscountPercent returns the rounded percentage off the original price, or
// zero when the product is not discounted.
func (p Product) DiscountPercent() int {
	if !p.Discounted() {
		return 0
	}
	ratio := 1 - float64(p.Price)/float64(p.OriginalPrice)
	return int(math.Round(ratio * 100))
}

// Savings returns how much cheaper the product is than its original price.
func (p Product) Savings() int64 {
	if !p.Discounted() {
		return 0
	}
	return p.OriginalPrice - p.Price
}

// InvalidProductError describes a dataset record that breaks the catalog
// schema.
type InvalidProductError struct {
	ProductID string
	Reason    string
}

func (e *InvalidProductError) Error() string {
	return "invalid product " + e.ProductID + ": " + e.Reason
}

// Validate checks the record against the catalog schema.
func (p Product) Validate() error {
	invalid := func(reason string) error {
		return &InvalidProductError{ProductID: p.ID, Reason: reason}
	}
	switch {
	case p.ID == "":
		return invalid("id is required")
	case p.Price <= 0:
		return invalid("price must be positive")
	case p.OriginalPrice != 0 && p.OriginalPrice < p.Price:
		return invalid("original price must not be below price")
	case p.Rating < 0 || p.Rating > 5:
		return invalid("rating must be within [0,5]")
	case p.Reviews < 0:
		return invalid("reviews must not be negative")
	case !p.Category.Valid():
		return invalid("unknown category " + string(p.Category))
	}
	return nil
}

// Repository supplies the product dataset.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
}
