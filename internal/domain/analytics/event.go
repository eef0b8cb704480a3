// Package analytics defines the storefront tracking events and the sinks
// that receive them.
package analytics

import (
	"github.com/xenking/yourchoice-store/internal/domain/cart"
	"github.com/xenking/yourchoice-store/internal/domain/product"
)

// Currency of every monetary value carried by an event.
const Currency = "INR"

// Kind names an event the way the storefront tag reports it.
type Kind string

const (
	KindAddToCart      Kind = "add_to_cart"
	KindRemoveFromCart Kind = "remove_from_cart"
	KindViewItem       Kind = "view_item"
	KindBeginCheckout  Kind = "begin_checkout"
	KindPurchase       Kind = "purchase"
	KindSearch         Kind = "search"
)

// Item is the product payload shared by item-level events.
type Item struct {
	ProductID string
	Name      string
	Category  string
	Size      string
	Quantity  int
	Price     int64
}

// ItemFromProduct describes quantity units of p.
func ItemFromProduct(p product.Product, quantity int) Item {
	return Item{
		ProductID: p.ID,
		Name:      p.Name,
		Category:  string(p.Category),
		Quantity:  quantity,
		Price:     p.Price,
	}
}

// ItemFromLine describes a cart line.
func ItemFromLine(line cart.Line) Item {
	it := ItemFromProduct(line.Product, line.Quantity)
	it.Size = line.Size
	return it
}

// ItemsFromLines describes every line in order.
func ItemsFromLines(lines []cart.Line) []Item {
	items := make([]Item, len(lines))
	for i, line := range lines {
		items[i] = ItemFromLine(line)
	}
	return items
}

// Event is one of the concrete event types below.
type Event interface {
	Kind() Kind
	// Value is the monetary value of the event in rupees, zero when the
	// event carries none.
	Value() int64
}

// AddToCart is emitted after a successful ledger add. Item.Quantity is the
// added amount, not the resulting line quantity.
type AddToCart struct {
	Item Item
}

func (AddToCart) Kind() Kind     { return KindAddToCart }
func (e AddToCart) Value() int64 { return e.Item.Price * int64(e.Item.Quantity) }

// RemoveFromCart is emitted after a line leaves the ledger.
type RemoveFromCart struct {
	Item Item
}

func (RemoveFromCart) Kind() Kind     { return KindRemoveFromCart }
func (e RemoveFromCart) Value() int64 { return e.Item.Price * int64(e.Item.Quantity) }

// ViewItem is emitted when a product detail is served.
type ViewItem struct {
	Item Item
}

func (ViewItem) Kind() Kind     { return KindViewItem }
func (e ViewItem) Value() int64 { return e.Item.Price }

// BeginCheckout is emitted when checkout starts with a non-empty cart.
type BeginCheckout struct {
	Items []Item
	Total int64
}

func (BeginCheckout) Kind() Kind     { return KindBeginCheckout }
func (e BeginCheckout) Value() int64 { return e.Total }

// Purchase is emitted once an order is stored.
type Purchase struct {
	TransactionID string
	Items         []Item
	Shipping      int64
	Tax           int64
	Total         int64
}

func (Purchase) Kind() Kind     { return KindPurchase }
func (e Purchase) Value() int64 { return e.Total }

// Search is emitted for non-empty catalog queries.
type Search struct {
	Term    string
	Results int
}

func (Search) Kind() Kind   { return KindSearch }
func (Search) Value() int64 { return 0 }
