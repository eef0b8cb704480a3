package handler

import (
	"slices"
	"strings"
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/yourchoice-store/internal/domain/cart"
	"github.com/xenking/yourchoice-store/internal/domain/catalog"
	"github.com/xenking/yourchoice-store/internal/domain/order"
	"github.com/xenking/yourchoice-store/internal/domain/product"
)

func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || strings.Contains(path, "://") {
		return path
	}
	return h.imageBaseURL + "/" + strings.TrimLeft(path, "/")
}

func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("price")
	e.Int64(p.Price)
	if p.Discounted() {
		e.FieldStart("originalPrice")
		e.Int64(p.OriginalPrice)
		e.FieldStart("discountPercent")
		e.Int(p.DiscountPercent())
		e.FieldStart("savings")
		e.Int64(p.Savings())
	}
	e.FieldStart("images")
	e.ArrStart()
	for _, img := range p.Images {
		e.Str(h.imageURL(img))
	}
	e.ArrEnd()
	e.FieldStart("category")
	e.Str(string(p.Category))
	e.FieldStart("fabric")
	e.Str(p.Fabric)
	e.FieldStart("color")
	e.Str(p.Color)
	if p.Work != "" {
		e.FieldStart("work")
		e.Str(p.Work)
	}
	if p.Length != "" {
		e.FieldStart("length")
		e.Str(p.Length)
	}
	e.FieldStart("blousePiece")
	e.Bool(p.BlousePiece)
	e.FieldStart("inStock")
	e.Bool(p.InStock)
	e.FieldStart("rating")
	e.Float64(p.Rating)
	e.FieldStart("reviews")
	e.Int(p.Reviews)
	e.ObjEnd()
}

func (h *Handler) encodeProducts(e *jx.Encoder, products []product.Product) {
	e.ArrStart()
	for _, p := range products {
		h.encodeProduct(e, p)
	}
	e.ArrEnd()
}

func encodeFacets(e *jx.Encoder, f catalog.Facets) {
	e.ObjStart()
	e.FieldStart("categories")
	e.ArrStart()
	for _, c := range f.Categories {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(string(c.Category))
		e.FieldStart("label")
		e.Str(c.Label)
		e.FieldStart("count")
		e.Int(c.Count)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("colors")
	encodeStrings(e, f.Colors)
	e.FieldStart("fabrics")
	encodeStrings(e, f.Fabrics)
	e.FieldStart("priceRange")
	e.ObjStart()
	e.FieldStart("min")
	e.Int64(f.MinPrice)
	e.FieldStart("max")
	e.Int64(f.MaxPrice)
	e.ObjEnd()
	e.FieldStart("inStock")
	e.Int(f.InStock)
	e.FieldStart("outOfStock")
	e.Int(f.OutOfStock)
	e.ObjEnd()
}

func encodeStrings(e *jx.Encoder, values []string) {
	e.ArrStart()
	for _, v := range values {
		e.Str(v)
	}
	e.ArrEnd()
}

// encodeStringMap writes m with sorted keys.
func encodeStringMap(e *jx.Encoder, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	e.ObjStart()
	for _, k := range keys {
		e.FieldStart(k)
		e.Str(m[k])
	}
	e.ObjEnd()
}

func (h *Handler) encodeLine(e *jx.Encoder, line cart.Line) {
	e.ObjStart()
	e.FieldStart("product")
	h.encodeProduct(e, line.Product)
	e.FieldStart("quantity")
	e.Int(line.Quantity)
	if line.Size != "" {
		e.FieldStart("size")
		e.Str(line.Size)
	}
	e.FieldStart("subtotal")
	e.Int64(line.Subtotal())
	e.ObjEnd()
}

func encodeSummary(e *jx.Encoder, s order.Summary) {
	e.ObjStart()
	e.FieldStart("subtotal")
	e.Int64(s.Subtotal)
	e.FieldStart("shipping")
	e.Int64(s.Shipping)
	e.FieldStart("tax")
	e.Int64(s.Tax)
	e.FieldStart("total")
	e.Int64(s.Total)
	e.FieldStart("itemCount")
	e.Int(s.ItemCount)
	e.FieldStart("freeShippingGap")
	e.Int64(s.FreeShippingGap)
	e.ObjEnd()
}

// cartView is the state of a ledger captured under the session lock.
type cartView struct {
	lines      []cart.Line
	totalItems int
	totalPrice int64
	summary    *order.Summary
}

func (h *Handler) viewOf(l *cart.Ledger) cartView {
	v := cartView{
		lines:      l.Lines(),
		totalItems: l.TotalItemCount(),
		totalPrice: l.TotalPrice(),
	}
	if !l.IsEmpty() {
		s := h.orders.Summarize(l)
		v.summary = &s
	}
	return v
}

func (h *Handler) encodeCart(e *jx.Encoder, v cartView) {
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, line := range v.lines {
		h.encodeLine(e, line)
	}
	e.ArrEnd()
	e.FieldStart("totalItems")
	e.Int(v.totalItems)
	e.FieldStart("totalPrice")
	e.Int64(v.totalPrice)
	if v.summary != nil {
		e.FieldStart("summary")
		encodeSummary(e, *v.summary)
	}
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(it.ProductID)
		e.FieldStart("name")
		e.Str(it.Name)
		if it.Size != "" {
			e.FieldStart("size")
			e.Str(it.Size)
		}
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("price")
		e.Int64(it.Price)
		e.FieldStart("subtotal")
		e.Int64(it.Subtotal())
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("customer")
	e.ObjStart()
	e.FieldStart("name")
	e.Str(o.Customer.Name)
	e.FieldStart("email")
	e.Str(o.Customer.Email)
	e.FieldStart("phone")
	e.Str(o.Customer.Phone)
	e.ObjEnd()

	a := o.ShippingAddress
	e.FieldStart("shippingAddress")
	e.ObjStart()
	e.FieldStart("street")
	e.Str(a.Street)
	e.FieldStart("city")
	e.Str(a.City)
	e.FieldStart("state")
	e.Str(a.State)
	e.FieldStart("pincode")
	e.Str(a.Pincode)
	e.FieldStart("country")
	e.Str(a.Country)
	e.ObjEnd()

	e.FieldStart("paymentMethod")
	e.Str(string(o.PaymentMethod))
	e.FieldStart("subtotal")
	e.Int64(o.Subtotal)
	e.FieldStart("shipping")
	e.Int64(o.Shipping)
	e.FieldStart("tax")
	e.Int64(o.Tax)
	e.FieldStart("taxRate")
	e.Str(o.TaxRate.String())
	e.FieldStart("total")
	e.Int64(o.Total)
	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	e.ObjEnd()
}
