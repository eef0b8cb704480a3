// Package cart implements the session cart ledger: an ordered set of lines
// keyed by product id and size.
package cart

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-faster/errors"

	"github.com/xenking/yourchoice-store/internal/domain/product"
)

// MaxQuantity bounds the quantity of a single line. It keeps line subtotals
// representable and is not a stock limit.
const MaxQuantity = 1_000_000

var (
	// ErrInvalidQuantity is matched by InvalidQuantityError.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrLineNotFound is returned when no line has the requested key. Callers
	// treat it as a no-op.
	ErrLineNotFound = errors.New("cart line not found")
)

// InvalidQuantityError indicates a non-positive quantity passed to AddItem,
// or a resulting line quantity the ledger cannot hold.
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	if e.Quantity < 1 {
		return fmt.Sprintf("quantity must be greater than 0 for product %s, got %d", e.ProductID, e.Quantity)
	}
	return fmt.Sprintf("quantity for product %s exceeds the cart limit, got %d", e.ProductID, e.Quantity)
}

// Is makes errors.Is(err, ErrInvalidQuantity) succeed.
func (e *InvalidQuantityError) Is(target error) bool {
	return target == ErrInvalidQuantity
}

// Key identifies a line. An empty Size means no size was chosen; two lines
// without a size for the same product are the same line.
type Key struct {
	ProductID string
	Size      string
}

// Line is a product held in the cart.
type Line struct {
	Product  product.Product
	Quantity int
	Size     string
}

// Key returns the identity key of the line.
func (l Line) Key() Key {
	return Key{ProductID: l.Product.ID, Size: l.Size}
}

// Subtotal returns price times quantity.
func (l Line) Subtotal() int64 {
	return l.Product.Price * int64(l.Quantity)
}

// Ledger is the authoritative cart for one session. Every line has a unique
// key and a quantity of at least one. A Ledger is not safe for concurrent
// use; see Sessions for serialized access.
type Ledger struct {
	lines []Line
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) index(k Key) int {
	return slices.IndexFunc(l.lines, func(line Line) bool { return line.Key() == k })
}

// fits reports whether line i (or a new line when i < 0) can hold quantity
// units of p without pushing the quantity past MaxQuantity or the ledger
// total out of int64.
func (l *Ledger) fits(p product.Product, quantity, i int) bool {
	if quantity > MaxQuantity {
		return false
	}
	if p.Price <= 0 {
		return true
	}
	var rest int64
	for j, line := range l.lines {
		if j != i {
			rest += line.Subtotal()
		}
	}
	return p.Price <= (math.MaxInt64-rest)/int64(quantity)
}

// AddItem increments the line for (p.ID, size) by quantity, appending a new
// line when none exists. Non-positive quantities, and additions that would
// take the line past MaxQuantity, are rejected and leave the ledger untouched.
// The resulting line is returned.
func (l *Ledger) AddItem(p product.Product, quantity int, size string) (Line, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return Line{}, &InvalidQuantityError{ProductID: p.ID, Quantity: quantity}
	}
	k := Key{ProductID: p.ID, Size: size}
	if i := l.index(k); i >= 0 {
		// Both operands are within MaxQuantity, so the sum cannot wrap.
		total := l.lines[i].Quantity + quantity
		if !l.fits(l.lines[i].Product, total, i) {
			return Line{}, &InvalidQuantityError{ProductID: p.ID, Quantity: total}
		}
		l.lines[i].Quantity = total
		return l.lines[i], nil
	}
	if !l.fits(p, quantity, -1) {
		return Line{}, &InvalidQuantityError{ProductID: p.ID, Quantity: quantity}
	}
	line := Line{Product: p, Quantity: quantity, Size: size}
	l.lines = append(l.lines, line)
	return line, nil
}

// UpdateQuantity sets the quantity of the line for (productID, size). A
// quantity of zero or less removes the line; one above MaxQuantity is
// rejected. The returned line holds the new state, or the removed line when
// the quantity dropped to zero.
func (l *Ledger) UpdateQuantity(productID string, quantity int, size string) (Line, error) {
	if quantity <= 0 {
		return l.RemoveItem(productID, size)
	}
	i := l.index(Key{ProductID: productID, Size: size})
	if i < 0 {
		return Line{}, ErrLineNotFound
	}
	if !l.fits(l.lines[i].Product, quantity, i) {
		return Line{}, &InvalidQuantityError{ProductID: productID, Quantity: quantity}
	}
	l.lines[i].Quantity = quantity
	return l.lines[i], nil
}

// RemoveItem deletes the line for (productID, size) and returns it.
func (l *Ledger) RemoveItem(productID, size string) (Line, error) {
	i := l.index(Key{ProductID: productID, Size: size})
	if i < 0 {
		return Line{}, ErrLineNotFound
	}
	removed := l.lines[i]
	l.lines = slices.Delete(l.lines, i, i+1)
	return removed, nil
}

// Clear empties the ledger.
func (l *Ledger) Clear() {
	l.lines = nil
}

// Find returns the line for (productID, size).
func (l *Ledger) Find(productID, size string) (Line, bool) {
	i := l.index(Key{ProductID: productID, Size: size})
	if i < 0 {
		return Line{}, false
	}
	return l.lines[i], true
}

// Lines returns a copy of the lines in insertion order.
func (l *Ledger) Lines() []Line {
	return slices.Clone(l.lines)
}

// Len returns the number of distinct lines.
func (l *Ledger) Len() int {
	return len(l.lines)
}

// IsEmpty reports whether the ledger has no lines.
func (l *Ledger) IsEmpty() bool {
	return len(l.lines) == 0
}

// TotalPrice sums price times quantity over all lines.
func (l *Ledger) TotalPrice() int64 {
	var total int64
	for _, line := range l.lines {
		total += line.Subtotal()
	}
	return total
}

// TotalItemCount sums the quantities of all lines.
func (l *Ledger) TotalItemCount() int {
	total := 0
	for _, line := range l.lines {
		total += line.Quantity
	}
	return total
}
