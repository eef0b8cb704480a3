package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/yourchoice-store/internal/domain/cart"
	"github.com/xenking/yourchoice-store/internal/domain/order"
)

// BeginCheckout prices the session cart for the checkout page.
func (h *Handler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := sessionID(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	var (
		sum      order.Summary
		beginErr error
	)
	if err := h.sessions.View(ctx, id, func(l *cart.Ledger) {
		sum, beginErr = h.orders.Begin(ctx, l)
	}); err != nil {
		handleError(ctx, w, err)
		return
	}
	if beginErr != nil {
		handleError(ctx, w, beginErr)
		return
	}

	policy := h.orders.Policy()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("summary")
		encodeSummary(e, sum)
		e.FieldStart("freeShippingThreshold")
		e.Int64(policy.FreeShippingThreshold)
		e.FieldStart("taxRate")
		e.Str(policy.TaxRate.String())
		e.FieldStart("paymentMethods")
		e.ArrStart()
		for _, m := range []order.PaymentMethod{order.PaymentCOD, order.PaymentCard} {
			e.ObjStart()
			e.FieldStart("id")
			e.Str(string(m))
			e.FieldStart("available")
			e.Bool(m.Available())
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

func decodePlaceOrder(r *http.Request) (order.PlaceOrderRequest, error) {
	var req order.PlaceOrderRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "customer":
			return decodeStrings(d, map[string]*string{
				"name":  &req.Customer.Name,
				"email": &req.Customer.Email,
				"phone": &req.Customer.Phone,
			})
		case "address":
			return decodeStrings(d, map[string]*string{
				"street":  &req.Address.Street,
				"city":    &req.Address.City,
				"state":   &req.Address.State,
				"pincode": &req.Address.Pincode,
				"country": &req.Address.Country,
			})
		case "paymentMethod":
			m, err := optStr(d)
			req.PaymentMethod = order.PaymentMethod(m)
			return err
		default:
			return d.Skip()
		}
	})
	return req, err
}

// decodeStrings decodes an object of string fields into dst. Unknown fields
// are skipped.
func decodeStrings(d *jx.Decoder, dst map[string]*string) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		p, ok := dst[key]
		if !ok {
			return d.Skip()
		}
		v, err := optStr(d)
		*p = v
		return err
	})
}

// PlaceOrder turns the session cart into an order and empties the cart.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := decodePlaceOrder(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	id, err := sessionID(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	var o *order.Order
	if err := h.sessions.Update(ctx, id, func(l *cart.Ledger) error {
		var err error
		o, err = h.orders.PlaceOrder(ctx, l, req)
		return err
	}); err != nil {
		handleError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}
