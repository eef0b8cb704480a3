package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCountry is used for addresses submitted without a country.
const DefaultCountry = "India"

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// PaymentMethod selects how the customer pays.
type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "cod"
	PaymentCard PaymentMethod = "card"
)

// Available reports whether orders can currently be placed with m. Only cash
// on delivery is accepted.
func (m PaymentMethod) Available() bool {
	return m == PaymentCOD
}

// Customer holds the buyer contact details.
type Customer struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
}

// Address is a shipping address.
type Address struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Pincode string `json:"pincode" validate:"required"`
	Country string `json:"country"`
}

// Item is an order line frozen at purchase time.
type Item struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Size      string `json:"size,omitempty"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// Subtotal returns price times quantity.
func (i Item) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Order represents a placed customer order with its pricing breakdown.
type Order struct {
	ID              string
	Items           []Item
	Customer        Customer
	ShippingAddress Address
	PaymentMethod   PaymentMethod
	Status          Status
	Subtotal        int64
	Shipping        int64
	Tax             int64
	TaxRate         decimal.Decimal
	Total           int64
	CreatedAt       time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
}
