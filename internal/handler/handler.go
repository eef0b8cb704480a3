// Package handler serves the storefront JSON API.
package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/yourchoice-store/internal/domain/analytics"
	"github.com/xenking/yourchoice-store/internal/domain/cart"
	"github.com/xenking/yourchoice-store/internal/domain/catalog"
	"github.com/xenking/yourchoice-store/internal/domain/order"
	"github.com/xenking/yourchoice-store/internal/domain/product"
	"github.com/xenking/yourchoice-store/pkg/httpmiddleware"
)

const maxBodySize = 64 << 10

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored.
	ImageBaseURL string
	// FeaturedCount bounds each featured list. Defaults to 4.
	FeaturedCount int
	// Checkout wraps the checkout routes, typically with a throttle.
	Checkout httpmiddleware.Middleware
}

// Handler implements the storefront API on top of the catalog, the session
// ledgers and the order service.
type Handler struct {
	catalog  *catalog.Catalog
	sessions *cart.Sessions
	orders   *order.Service
	events   *analytics.Dispatcher

	imageBaseURL  string
	featuredCount int
	checkout      httpmiddleware.Middleware
}

// New constructs a Handler. events may be nil.
func New(
	cfg Config,
	c *catalog.Catalog,
	sessions *cart.Sessions,
	orders *order.Service,
	events *analytics.Dispatcher,
) *Handler {
	if cfg.FeaturedCount <= 0 {
		cfg.FeaturedCount = 4
	}
	return &Handler{
		catalog:       c,
		sessions:      sessions,
		orders:        orders,
		events:        events,
		imageBaseURL:  strings.TrimRight(cfg.ImageBaseURL, "/"),
		featuredCount: cfg.FeaturedCount,
		checkout:      cfg.Checkout,
	}
}

// Router returns the API routes mounted under /api.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/product", h.ListProducts)
		r.Get("/product/facets", h.ProductFacets)
		r.Get("/product/featured", h.FeaturedProducts)
		r.Get("/product/{productId}", h.GetProduct)

		r.Get("/cart", h.GetCart)
		r.Delete("/cart", h.ClearCart)
		r.Post("/cart/items", h.AddCartItem)
		r.Put("/cart/items/{productId}", h.UpdateCartItem)
		r.Delete("/cart/items/{productId}", h.RemoveCartItem)

		r.Group(func(r chi.Router) {
			if h.checkout != nil {
				r.Use(h.checkout)
			}
			r.Post("/checkout/begin", h.BeginCheckout)
			r.Post("/checkout", h.PlaceOrder)
		})
	})
	return r
}

// requestError marks malformed input. Its message is shown to the client.
type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

type productNotFoundError struct {
	ProductID string
}

func (e *productNotFoundError) Error() string {
	return "product " + e.ProductID + " not found"
}

// writeError writes {"code":..,"message":..}.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, func(e *jx.Encoder) {
		e.ObjStart()
		encodeErrorFields(e, code, message)
		e.ObjEnd()
	})
}

func encodeErrorFields(e *jx.Encoder, code int, message string) {
	e.FieldStart("code")
	e.Int(code)
	e.FieldStart("message")
	e.Str(message)
}

func writeJSON(w http.ResponseWriter, code int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

// handleError converts domain errors to API error responses. Anything
// unrecognised is logged and reported as 500.
func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		reqErr   *requestError
		valErr   *order.ValidationError
		notFound *productNotFoundError
		qtyErr   *cart.InvalidQuantityError
	)
	switch {
	case errors.As(err, &reqErr):
		writeError(w, http.StatusBadRequest, reqErr.Error())
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, order.ErrEmptyCart.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &qtyErr):
		writeError(w, http.StatusUnprocessableEntity, qtyErr.Error())
	case errors.Is(err, order.ErrPaymentMethodUnavailable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusUnprocessableEntity, func(e *jx.Encoder) {
			e.ObjStart()
			encodeErrorFields(e, http.StatusUnprocessableEntity, "invalid checkout details")
			e.FieldStart("fields")
			encodeStringMap(e, valErr.Fields)
			e.ObjEnd()
		})
	default:
		zctx.From(ctx).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// sessionID returns the cart session of the request.
func sessionID(r *http.Request) (string, error) {
	id, ok := httpmiddleware.SessionIDFromContext(r.Context())
	if !ok {
		return "", errors.New("request has no cart session")
	}
	return id, nil
}

// decodeBody decodes a JSON object body, calling fn for each field.
func decodeBody(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return badRequest("request body too large")
		}
		return errors.Wrap(err, "read body")
	}
	if len(data) == 0 {
		return badRequest("request body required")
	}
	if err := jx.DecodeBytes(data).Obj(fn); err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			return err
		}
		return badRequest("invalid request body: %s", err.Error())
	}
	return nil
}

func (h *Handler) lookup(id string) (product.Product, error) {
	p, ok := h.catalog.Product(id)
	if !ok {
		return product.Product{}, &productNotFoundError{ProductID: id}
	}
	return p, nil
}
