package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/yourchoice-store/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const listProducts = `
SELECT id, name, description, price, original_price, images, category,
       fabric, color, work, length, blouse_piece, in_stock, rating, reviews
FROM products
ORDER BY position`

// List returns the catalog in dataset order.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProducts)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Product, error) {
		var (
			p        product.Product
			category string
		)
		err := row.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.OriginalPrice, &p.Images, &category,
			&p.Fabric, &p.Color, &p.Work, &p.Length, &p.BlousePiece, &p.InStock, &p.Rating, &p.Reviews,
		)
		p.Category = product.Category(category)
		return p, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan products")
	}
	return products, nil
}

const upsertProduct = `
INSERT INTO products (
    id, position, name, description, price, original_price, images, category,
    fabric, color, work, length, blouse_piece, in_stock, rating, reviews
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (id) DO UPDATE SET
    position = EXCLUDED.position,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    original_price = EXCLUDED.original_price,
    images = EXCLUDED.images,
    category = EXCLUDED.category,
    fabric = EXCLUDED.fabric,
    color = EXCLUDED.color,
    work = EXCLUDED.work,
    length = EXCLUDED.length,
    blouse_piece = EXCLUDED.blouse_piece,
    in_stock = EXCLUDED.in_stock,
    rating = EXCLUDED.rating,
    reviews = EXCLUDED.reviews`

// Replace makes the products table hold exactly products, in the given
// order, inside one transaction.
func (r *ProductRepository) Replace(ctx context.Context, products []product.Product) error {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM products WHERE NOT (id = ANY($1))`, ids); err != nil {
			return errors.Wrap(err, "delete stale products")
		}

		batch := &pgx.Batch{}
		for i, p := range products {
			images := p.Images
			if images == nil {
				images = []string{}
			}
			batch.Queue(upsertProduct,
				p.ID, i, p.Name, p.Description, p.Price, p.OriginalPrice, images, string(p.Category),
				p.Fabric, p.Color, p.Work, p.Length, p.BlousePiece, p.InStock, p.Rating, p.Reviews,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "upsert products")
		}
		return nil
	})
}
