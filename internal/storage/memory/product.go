// Package memory provides process-local storage: a file-backed product
// dataset and in-memory cart and order stores.
package memory

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"

	"github.com/xenking/yourchoice-store/internal/domain/product"
)

var _ product.Repository = (*ProductFile)(nil)

// ProductFile reads the catalog from a JSON array file. Files ending in .gz
// are gunzipped.
type ProductFile struct {
	path string
}

// NewProductFile returns a repository reading path on every List.
func NewProductFile(path string) *ProductFile {
	return &ProductFile{path: path}
}

func (f *ProductFile) List(_ context.Context) ([]product.Product, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, errors.Wrap(err, "open dataset")
	}
	defer func() { _ = file.Close() }()

	var r io.Reader = bufio.NewReader(file)
	if strings.HasSuffix(f.path, ".gz") {
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	products, err := ReadProducts(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", f.path)
	}
	return products, nil
}

// ReadProducts decodes a JSON array of products in the storefront dataset
// format (camelCase keys, prices in whole rupees). Unknown keys are ignored.
func ReadProducts(r io.Reader) ([]product.Product, error) {
	products := []product.Product{}
	d := jx.Decode(r, 4096)
	err := d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return errors.Wrapf(err, "product #%d", len(products))
		}
		products = append(products, p)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		var err error
		switch key {
		case "id":
			p.ID, err = decodeID(d)
		case "name":
			p.Name, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "price":
			p.Price, err = d.Int64()
		case "originalPrice":
			p.OriginalPrice, err = d.Int64()
		case "images":
			err = d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				if err != nil {
					return err
				}
				p.Images = append(p.Images, s)
				return nil
			})
		case "category":
			var s string
			s, err = d.Str()
			p.Category = product.Category(s)
		case "fabric":
			p.Fabric, err = d.Str()
		case "color":
			p.Color, err = d.Str()
		case "work":
			p.Work, err = d.Str()
		case "length":
			p.Length, err = d.Str()
		case "blousePiece":
			p.BlousePiece, err = d.Bool()
		case "inStock":
			p.InStock, err = d.Bool()
		case "rating":
			p.Rating, err = d.Float64()
		case "reviews":
			p.Reviews, err = d.Int()
		default:
			return d.Skip()
		}
		return errors.Wrap(err, key)
	})
	return p, err
}

// decodeID accepts both string and numeric ids.
func decodeID(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Number {
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	}
	return d.Str()
}
