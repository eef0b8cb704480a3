package order

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/xenking/yourchoice-store/internal/domain/analytics"
	"github.com/xenking/yourchoice-store/internal/domain/cart"
)

// Sentinel errors for checkout.
var (
	ErrEmptyCart                = errors.New("cart is empty")
	ErrPaymentMethodUnavailable = errors.New("payment method unavailable")
)

// ValidationError lists the checkout form fields that failed validation,
// keyed by dotted path such as "address.city".
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + e.Fields[k]
	}
	return "invalid checkout: " + strings.Join(parts, ", ")
}

// PlaceOrderRequest holds the checkout form.
type PlaceOrderRequest struct {
	Customer      Customer
	Address       Address
	PaymentMethod PaymentMethod
}

// Service prices carts and turns them into orders.
type Service struct {
	policy   Policy
	orders   Repository
	events   *analytics.Dispatcher
	validate *validator.Validate
	now      func() time.Time
}

// NewService creates an order Service. events may be nil.
func NewService(policy Policy, orders Repository, events *analytics.Dispatcher) *Service {
	return &Service{
		policy:   policy,
		orders:   orders,
		events:   events,
		validate: newValidator(),
		now:      time.Now,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// Policy returns the pricing rules used by the service.
func (s *Service) Policy() Policy {
	return s.policy
}

// Summarize prices the ledger without side effects.
func (s *Service) Summarize(l *cart.Ledger) Summary {
	return s.policy.Summarize(l.TotalPrice(), l.TotalItemCount())
}

// Begin prices the ledger for checkout and reports the checkout start.
func (s *Service) Begin(ctx context.Context, l *cart.Ledger) (Summary, error) {
	if l.IsEmpty() {
		return Summary{}, ErrEmptyCart
	}
	sum := s.Summarize(l)
	s.events.Notify(ctx, analytics.BeginCheckout{
		Items: analytics.ItemsFromLines(l.Lines()),
		Total: sum.Total,
	})
	return sum, nil
}

// PlaceOrder validates the checkout form, stores an order built from the
// ledger and clears the ledger. The ledger is left untouched on any error.
func (s *Service) PlaceOrder(ctx context.Context, l *cart.Ledger, req PlaceOrderRequest) (*Order, error) {
	if l.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	method := req.PaymentMethod
	if method == "" {
		method = PaymentCOD
	}
	if !method.Available() {
		return nil, errors.Wrapf(ErrPaymentMethodUnavailable, "%q", method)
	}

	addr := req.Address
	if addr.Country == "" {
		addr.Country = DefaultCountry
	}

	lines := l.Lines()
	items := make([]Item, len(lines))
	for i, line := range lines {
		items[i] = Item{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Size:      line.Size,
			Quantity:  line.Quantity,
			Price:     line.Product.Price,
		}
	}

	now := s.now()
	sum := s.Summarize(l)
	o := &Order{
		ID:              newOrderID(now),
		Items:           items,
		Customer:        req.Customer,
		ShippingAddress: addr,
		PaymentMethod:   method,
		Status:          StatusPending,
		Subtotal:        sum.Subtotal,
		Shipping:        sum.Shipping,
		Tax:             sum.Tax,
		TaxRate:         s.policy.TaxRate,
		Total:           sum.Total,
		CreatedAt:       now,
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.events.Notify(ctx, analytics.Purchase{
		TransactionID: o.ID,
		Items:         analytics.ItemsFromLines(lines),
		Shipping:      o.Shipping,
		Tax:           o.Tax,
		Total:         o.Total,
	})
	l.Clear()

	return o, nil
}

func (s *Service) validateRequest(req PlaceOrderRequest) error {
	fields := make(map[string]string)
	collect := func(prefix string, v any) error {
		err := s.validate.Struct(v)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields[prefix+"."+fe.Field()] = validationMessage(fe)
		}
		return nil
	}
	if err := collect("customer", req.Customer); err != nil {
		return errors.Wrap(err, "validate customer")
	}
	if err := collect("address", req.Address); err != nil {
		return errors.Wrap(err, "validate address")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}

// newOrderID returns ORD-<unix millis>-<9 random base16 chars>.
func newOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}
