// Command seed-db loads a product dataset into PostgreSQL.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/yourchoice-store/internal/domain/catalog"
	"github.com/xenking/yourchoice-store/internal/storage/memory"
	"github.com/xenking/yourchoice-store/internal/storage/postgres"
)

func main() {
	var (
		databaseURL  string
		productsFile string
		dryRun       bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file, optionally gzipped (.json.gz)")
	flag.BoolVar(&dryRun, "dry-run", false, "validate the dataset without writing")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		lg.Error("Database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, productsFile, dryRun); err != nil {
		lg.Error("Seed failed", zap.Error(err))
		os.Exit(1)
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, productsFile string, dryRun bool) error {
	lg.Info("Reading products file", zap.String("path", productsFile))

	products, err := memory.NewProductFile(productsFile).List(ctx)
	if err != nil {
		return errors.Wrap(err, "read products")
	}
	// Same checks the API applies at startup.
	cat, err := catalog.New(products)
	if err != nil {
		return errors.Wrap(err, "validate products")
	}
	lg.Info("Dataset is valid", zap.Int("count", cat.Len()))
	if dryRun {
		return nil
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := postgres.NewProductRepository(pool).Replace(ctx, cat.Products()); err != nil {
		return errors.Wrap(err, "replace products")
	}
	lg.Info("Products replaced", zap.Int("count", cat.Len()))
	return nil
}
