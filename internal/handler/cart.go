package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/yourchoice-store/internal/domain/analytics"
	"github.com/xenking/yourchoice-store/internal/domain/cart"
)

func (h *Handler) writeCart(w http.ResponseWriter, v cartView) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeCart(e, v)
	})
}

// GetCart serves the session cart with its checkout summary. The summary is
// omitted while the cart is empty.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := sessionID(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	var v cartView
	if err := h.sessions.View(ctx, id, func(l *cart.Ledger) { v = h.viewOf(l) }); err != nil {
		handleError(ctx, w, err)
		return
	}
	h.writeCart(w, v)
}

// mutate applies fn to the session ledger and writes the resulting cart.
// The event returned by fn, if any, is dispatched once the session is
// released. A missing line is a no-op and still answers with the current
// cart.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(l *cart.Ledger) (analytics.Event, error)) {
	ctx := r.Context()
	id, err := sessionID(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	var (
		v     cartView
		event analytics.Event
	)
	err = h.sessions.Update(ctx, id, func(l *cart.Ledger) error {
		var err error
		if event, err = fn(l); err != nil {
			return err
		}
		v = h.viewOf(l)
		return nil
	})
	if errors.Is(err, cart.ErrLineNotFound) {
		err = h.sessions.View(ctx, id, func(l *cart.Ledger) { v = h.viewOf(l) })
	}
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	if event != nil {
		h.events.Notify(ctx, event)
	}
	h.writeCart(w, v)
}

type addItemRequest struct {
	ProductID string
	Quantity  int
	Size      string
}

func decodeAddItem(r *http.Request) (addItemRequest, error) {
	req := addItemRequest{Quantity: 1}
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			req.ProductID, err = d.Str()
		case "quantity":
			req.Quantity, err = d.Int()
		case "size":
			req.Size, err = optStr(d)
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return req, err
	}
	if req.ProductID == "" {
		return req, badRequest("productId is required")
	}
	return req, nil
}

// AddCartItem adds quantity units of a product to the session cart, merging
// with an existing line of the same size.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAddItem(r)
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	p, err := h.lookup(req.ProductID)
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}

	h.mutate(w, r, func(l *cart.Ledger) (analytics.Event, error) {
		if _, err := l.AddItem(p, req.Quantity, req.Size); err != nil {
			return nil, err
		}
		item := analytics.ItemFromProduct(p, req.Quantity)
		item.Size = req.Size
		return analytics.AddToCart{Item: item}, nil
	})
}

// UpdateCartItem sets the quantity of a line. Zero or less removes it.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	var (
		quantity    int
		hasQuantity bool
		size        string
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "quantity":
			hasQuantity = true
			quantity, err = d.Int()
		case "size":
			size, err = optStr(d)
		default:
			return d.Skip()
		}
		return err
	})
	if err == nil && !hasQuantity {
		err = badRequest("quantity is required")
	}
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}

	h.mutate(w, r, func(l *cart.Ledger) (analytics.Event, error) {
		line, err := l.UpdateQuantity(productID, quantity, size)
		if err != nil || quantity > 0 {
			return nil, err
		}
		return analytics.RemoveFromCart{Item: analytics.ItemFromLine(line)}, nil
	})
}

// RemoveCartItem deletes the line identified by the path product id and the
// size query parameter.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	size := r.URL.Query().Get("size")

	h.mutate(w, r, func(l *cart.Ledger) (analytics.Event, error) {
		line, err := l.RemoveItem(productID, size)
		if err != nil {
			return nil, err
		}
		return analytics.RemoveFromCart{Item: analytics.ItemFromLine(line)}, nil
	})
}

// ClearCart empties the session cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(l *cart.Ledger) (analytics.Event, error) {
		l.Clear()
		return nil, nil
	})
}

// optStr reads a string that may be null.
func optStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}
