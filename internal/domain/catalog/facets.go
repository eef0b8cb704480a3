package catalog

import (
	"github.com/xenking/yourchoice-store/internal/domain/product"
)

// Filter choices offered in the storefront sidebar.
var (
	ColorChoices  = []string{"Red", "Blue", "Green", "Yellow", "Purple", "Pink", "Orange", "Black", "White"}
	FabricChoices = []string{"Pure Silk", "Soft Silk", "Cotton", "Georgette", "Chiffon", "Handloom"}
)

// Facets summarises the dataset for building filter controls.
type Facets struct {
	Categories []CategoryCount
	Colors     []string
	Fabrics    []string
	// MinPrice and MaxPrice are zero for an empty catalog.
	MinPrice   int64
	MaxPrice   int64
	InStock    int
	OutOfStock int
}

// CategoryCount is a category with the number of products in it.
type CategoryCount struct {
	product.CategoryInfo
	Count int
}

// Facets computes filter metadata over the whole dataset.
func (c *Catalog) Facets() Facets {
	counts := make(map[product.Category]int)
	f := Facets{
		Colors:  append([]string(nil), ColorChoices...),
		Fabrics: append([]string(nil), FabricChoices...),
	}
	for i, p := range c.products {
		counts[p.Category]++
		if p.InStock {
			f.InStock++
		} else {
			f.OutOfStock++
		}
		if i == 0 || p.Price < f.MinPrice {
			f.MinPrice = p.Price
		}
		if p.Price > f.MaxPrice {
			f.MaxPrice = p.Price
		}
	}
	for _, info := range product.Categories() {
		f.Categories = append(f.Categories, CategoryCount{CategoryInfo: info, Count: counts[info.Category]})
	}
	return f
}
