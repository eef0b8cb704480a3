package memory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/yourchoice-store/internal/domain/order"
)

// ErrDuplicateOrder is returned when an order id is reused.
var ErrDuplicateOrder = errors.New("duplicate order id")

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository keeps placed orders in creation order.
type OrderRepository struct {
	mu     sync.RWMutex
	orders []order.Order
	byID   map[string]int
}

// NewOrderRepository returns an empty OrderRepository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{byID: make(map[string]int)}
}

func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[o.ID]; ok {
		return errors.Wrapf(ErrDuplicateOrder, "%q", o.ID)
	}
	r.byID[o.ID] = len(r.orders)
	r.orders = append(r.orders, *o)
	return nil
}

// Get returns a copy of the stored order.
func (r *OrderRepository) Get(_ context.Context, id string) (*order.Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	o := r.orders[i]
	return &o, true
}

// Len returns the number of stored orders.
func (r *OrderRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}
