// Package db embeds the SQL schema applied at startup.
package db

import _ "embed"

// Schema holds the full storefront DDL: catalog, coupons, orders, customers,
// newsletter, blog, archive, Blacktop tables, and api_keys. Every statement
// is idempotent so RunMigrations can be executed on each boot.
//
//go:embed migrations/001_schema.sql
var Schema string
