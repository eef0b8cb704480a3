// Package db provides the embedded database schema.
package db

import _ "embed"

// Schema contains the DDL statements for the products, orders and cart
// snapshot tables. Every statement is idempotent.
//
//go:embed migrations/001_schema.sql
var Schema string
