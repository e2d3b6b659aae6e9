package cache

import "time"

const (
	// Product catalog listing: catalog:products -> JSON array of products.
	KeyProductList = "catalog:products"

	// Single product: catalog:product:{id} -> JSON product.
	KeyProduct = "catalog:product:%s"

	// Blacktop standings: blacktop:standings:{tournament_id} -> JSON array.
	KeyStandings = "blacktop:standings:%s"

	// Presigned archive URL: archive:url:{entry_id}:{size} -> URL string.
	KeySignedURL = "archive:url:%s:%s"

	// Checkout idempotency: orders:idem:{idempotency_key} -> order_id.
	KeyOrderIdem = "orders:idem:%s"
)

var (
	TTLProductList = 2 * time.Minute
	TTLProduct     = 5 * time.Minute
	TTLStandings   = 30 * time.Second
	TTLSignedURL   = 10 * time.Minute
	TTLOrderIdem   = 24 * time.Hour
)
