// Package testdb opens in-memory SQLite databases carrying the ledger schema
// for repository and service tests.
package testdb

import (
	"fmt"
	"strings"
	"testing"

	"github.com/angelmondragon/orderledger-backend/pkg/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// schema mirrors the goose migrations in SQLite dialect, including the
// partial draft index and the (order_id, product_code) constraint.
var schema = []string{
	`CREATE TABLE products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		stock_status INTEGER NOT NULL DEFAULT 1,
		stock_quantity INTEGER NOT NULL DEFAULT 0,
		closed_box_quantity INTEGER NOT NULL DEFAULT 0,
		closed_box_price NUMERIC NOT NULL DEFAULT 0,
		fractional_quantity INTEGER NOT NULL DEFAULT 1,
		fractional_price NUMERIC NOT NULL DEFAULT 0,
		ipi_applicable BOOLEAN NOT NULL DEFAULT 0,
		season TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'customer',
		last_login_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		representative TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		tax_id TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX customers_tax_id_key ON customers (tax_id) WHERE tax_id <> ''`,
	`CREATE TABLE orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		customer_name TEXT NOT NULL,
		representative TEXT NOT NULL DEFAULT '',
		customer_tax_id TEXT NOT NULL DEFAULT '',
		status INTEGER NOT NULL DEFAULT 0,
		total NUMERIC NOT NULL DEFAULT 0,
		ipi_tax NUMERIC NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX orders_one_draft_per_username ON orders (username) WHERE status = 0`,
	`CREATE TABLE order_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_code TEXT NOT NULL,
		description TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC NOT NULL,
		ipi_applicable BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT order_items_order_product_key UNIQUE (order_id, product_code)
	)`,
	`CREATE TABLE archived_orders (
		id INTEGER PRIMARY KEY,
		username TEXT NOT NULL,
		customer_name TEXT NOT NULL,
		representative TEXT NOT NULL DEFAULT '',
		customer_tax_id TEXT NOT NULL DEFAULT '',
		status INTEGER NOT NULL,
		total NUMERIC NOT NULL,
		ipi_tax NUMERIC NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		archived_by TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		archived_at DATETIME NOT NULL
	)`,
}

// Open returns a fresh database named after the running test. A single
// connection is kept so transactions never contend for the shared cache.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return conn
}

// Client wraps Open in the shared db.Client.
func Client(t testing.TB) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.Wrap(conn), conn
}
