package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/yourchoice-store/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const insertOrder = `
INSERT INTO orders (
    id, items, customer, shipping_address, payment_method, status,
    subtotal, shipping, tax, tax_rate, total, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Create persists a new order. Items, customer and address are serialized to
// JSON for the JSONB columns.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}
	customerJSON, err := json.Marshal(o.Customer)
	if err != nil {
		return errors.Wrap(err, "marshal customer")
	}
	addressJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return errors.Wrap(err, "marshal shipping address")
	}

	_, err = r.pool.Exec(ctx, insertOrder,
		o.ID, itemsJSON, customerJSON, addressJSON, string(o.PaymentMethod), string(o.Status),
		o.Subtotal, o.Shipping, o.Tax, o.TaxRate, o.Total, o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}

const selectOrder = `
SELECT id, items, customer, shipping_address, payment_method, status,
       subtotal, shipping, tax, tax_rate, total, created_at
FROM orders
WHERE id = $1`

// Get loads an order by id.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var (
		o                                 order.Order
		itemsJSON, customerJSON, addrJSON []byte
		method, status                    string
	)
	err := r.pool.QueryRow(ctx, selectOrder, id).Scan(
		&o.ID, &itemsJSON, &customerJSON, &addrJSON, &method, &status,
		&o.Subtotal, &o.Shipping, &o.Tax, &o.TaxRate, &o.Total, &o.CreatedAt,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	o.PaymentMethod = order.PaymentMethod(method)
	o.Status = order.Status(status)

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, errors.Wrap(err, "unmarshal order items")
	}
	if err := json.Unmarshal(customerJSON, &o.Customer); err != nil {
		return nil, errors.Wrap(err, "unmarshal customer")
	}
	if err := json.Unmarshal(addrJSON, &o.ShippingAddress); err != nil {
		return nil, errors.Wrap(err, "unmarshal shipping address")
	}
	return &o, nil
}
