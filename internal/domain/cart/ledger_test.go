package cart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/yourchoice-store/internal/domain/product"
)

func newTestProduct(id string, price int64) product.Product {
	return product.Product{
		ID:       id,
		Name:     "Saree " + id,
		Price:    price,
		Category: product.CategorySilk,
		InStock:  true,
	}
}

func TestLedger_AddItemMergesSameKey(t *testing.T) {
	p := newTestProduct("1", 8999)
	l := NewLedger()

	_, err := l.AddItem(p, 2, "")
	require.NoError(t, err)
	line, err := l.AddItem(p, 3, "")
	require.NoError(t, err)

	assert.Equal(t, 5, line.Quantity)
	require.Equal(t, 1, l.Len())
	assert.Equal(t, 5, l.Lines()[0].Quantity)
}

func TestLedger_AddItemDistinctSizes(t *testing.T) {
	p := newTestProduct("1", 8999)
	l := NewLedger()

	_, err := l.AddItem(p, 1, "Blouse: M")
	require.NoError(t, err)
	_, err = l.AddItem(p, 1, "Blouse: L")
	require.NoError(t, err)
	_, err = l.AddItem(p, 1, "")
	require.NoError(t, err)

	require.Equal(t, 3, l.Len())
	lines := l.Lines()
	assert.Equal(t, Key{ProductID: "1", Size: "Blouse: M"}, lines[0].Key())
	assert.Equal(t, Key{ProductID: "1", Size: "Blouse: L"}, lines[1].Key())
	assert.Equal(t, Key{ProductID: "1"}, lines[2].Key())
	assert.Equal(t, 3, l.TotalItemCount())
}

func TestLedger_AddItemRejectsNonPositive(t *testing.T) {
	for _, qty := range []int{0, -1} {
		l := NewLedger()
		_, err := l.AddItem(newTestProduct("1", 100), qty, "")

		require.ErrorIs(t, err, ErrInvalidQuantity)
		var iqErr *InvalidQuantityError
		require.ErrorAs(t, err, &iqErr)
		assert.Equal(t, "1", iqErr.ProductID)
		assert.Equal(t, qty, iqErr.Quantity)
		assert.True(t, l.IsEmpty())
	}
}

func TestLedger_QuantityLimit(t *testing.T) {
	p := newTestProduct("1", 8999)
	l := NewLedger()

	_, err := l.AddItem(p, math.MaxInt, "")
	require.ErrorIs(t, err, ErrInvalidQuantity)
	assert.True(t, l.IsEmpty())

	_, err = l.AddItem(p, MaxQuantity, "")
	require.NoError(t, err)

	// Merging past the limit leaves the line as it was.
	_, err = l.AddItem(p, 1, "")
	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, MaxQuantity+1, iqErr.Quantity)
	assert.Equal(t, MaxQuantity, l.TotalItemCount())

	_, err = l.UpdateQuantity("1", math.MaxInt, "")
	require.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, MaxQuantity, l.TotalItemCount())
	assert.Equal(t, int64(8999)*MaxQuantity, l.TotalPrice())
}

func TestLedger_TotalStaysRepresentable(t *testing.T) {
	// Each line alone fits, two of them overflow the total.
	price := int64(math.MaxInt64 / 3)
	l := NewLedger()

	_, err := l.AddItem(newTestProduct("1", price), 2, "")
	require.NoError(t, err)
	_, err = l.AddItem(newTestProduct("2", price), 2, "")
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = l.UpdateQuantity("1", 3, "")
	require.NoError(t, err)
	_, err = l.UpdateQuantity("1", 4, "")
	require.ErrorIs(t, err, ErrInvalidQuantity)

	assert.Equal(t, 1, l.Len())
	assert.Positive(t, l.TotalPrice())
}

func TestLedger_UpdateQuantity(t *testing.T) {
	p := newTestProduct("1", 1500)
	l := NewLedger()
	_, err := l.AddItem(p, 2, "Free Size")
	require.NoError(t, err)

	line, err := l.UpdateQuantity("1", 7, "Free Size")
	require.NoError(t, err)
	assert.Equal(t, 7, line.Quantity)
	assert.Equal(t, 7, l.TotalItemCount())

	// Sets, does not add.
	line, err = l.UpdateQuantity("1", 1, "Free Size")
	require.NoError(t, err)
	assert.Equal(t, 1, line.Quantity)
}

func TestLedger_UpdateQuantityMissingLine(t *testing.T) {
	l := NewLedger()
	_, err := l.AddItem(newTestProduct("1", 1500), 1, "Blouse: S")
	require.NoError(t, err)

	_, err = l.UpdateQuantity("1", 3, "Blouse: XL")
	require.ErrorIs(t, err, ErrLineNotFound)
	_, err = l.UpdateQuantity("2", 3, "Blouse: S")
	require.ErrorIs(t, err, ErrLineNotFound)

	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 1, l.TotalItemCount())
}

func TestLedger_UpdateQuantityZeroRemoves(t *testing.T) {
	p := newTestProduct("1", 1500)
	l := NewLedger()
	_, err := l.AddItem(p, 2, "")
	require.NoError(t, err)

	removed, err := l.UpdateQuantity("1", 0, "")
	require.NoError(t, err)
	assert.Equal(t, 2, removed.Quantity)
	assert.True(t, l.IsEmpty())

	_, err = l.RemoveItem("1", "")
	require.ErrorIs(t, err, ErrLineNotFound)

	_, err = l.UpdateQuantity("1", -3, "")
	require.ErrorIs(t, err, ErrLineNotFound)
}

func TestLedger_RemoveItemKeepsOrder(t *testing.T) {
	l := NewLedger()
	for _, id := range []string{"1", "2", "3"} {
		_, err := l.AddItem(newTestProduct(id, 100), 1, "")
		require.NoError(t, err)
	}

	removed, err := l.RemoveItem("2", "")
	require.NoError(t, err)
	assert.Equal(t, "2", removed.Product.ID)

	lines := l.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "1", lines[0].Product.ID)
	assert.Equal(t, "3", lines[1].Product.ID)

	_, err = l.RemoveItem("2", "")
	require.ErrorIs(t, err, ErrLineNotFound)
}

func TestLedger_Totals(t *testing.T) {
	a := newTestProduct("a", 8999)
	b := newTestProduct("b", 1500)
	l := NewLedger()

	assert.Zero(t, l.TotalPrice())
	assert.Zero(t, l.TotalItemCount())

	_, err := l.AddItem(a, 2, "")
	require.NoError(t, err)
	_, err = l.AddItem(b, 1, "")
	require.NoError(t, err)

	assert.Equal(t, 2*a.Price+b.Price, l.TotalPrice())
	assert.Equal(t, 3, l.TotalItemCount())

	l.Clear()
	assert.Zero(t, l.TotalItemCount())
	assert.Zero(t, l.TotalPrice())
	assert.True(t, l.IsEmpty())
}

func TestLedger_FindAndLinesCopy(t *testing.T) {
	l := NewLedger()
	_, err := l.AddItem(newTestProduct("1", 100), 4, "Blouse: M")
	require.NoError(t, err)

	line, ok := l.Find("1", "Blouse: M")
	require.True(t, ok)
	assert.Equal(t, int64(400), line.Subtotal())

	_, ok = l.Find("1", "")
	assert.False(t, ok)

	lines := l.Lines()
	lines[0].Quantity = 99
	line, _ = l.Find("1", "Blouse: M")
	assert.Equal(t, 4, line.Quantity)
}
