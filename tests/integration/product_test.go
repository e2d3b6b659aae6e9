//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 6 {
		t.Fatalf("expected 6 products, got %d", len(products))
	}

	for _, p := range products {
		if p.ID == "" {
			t.Errorf("product %q has empty ID", p.Name)
		}
		if p.Price <= 0 {
			t.Errorf("product %q has non-positive price %v", p.Name, p.Price)
		}
		if p.Image.Thumbnail == "" {
			t.Errorf("product %q has no thumbnail", p.Name)
		}
	}
}

func TestGetProduct(t *testing.T) {
	hoodie := productBySlug(t, "busy-day-one-hoodie")

	resp := doGet(t, "/api/products/"+hoodie.ID)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	got := decodeJSON[productResponse](t, resp)
	if got.Name != "Busy Day One Hoodie" {
		t.Errorf("name: got %q", got.Name)
	}
	if got.Price != 54990 {
		t.Errorf("price: got %v, want 54990", got.Price)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/products/00000000-0000-0000-0000-000000000000")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Error == "" {
		t.Error("expected an error message")
	}
}

func TestUpdateProduct_RefreshesCachedGet(t *testing.T) {
	create := map[string]any{
		"name": "Nylon Tote V1", "slug": "nylon-tote", "price": 21990,
		"category": "accessories", "stock": 10,
	}
	resp := doPostWithAuth(t, "/api/admin/products", create, testAPIKey)
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decodeJSON[productResponse](t, resp)
	resp.Body.Close()

	// Prime the single-product cache.
	warm := doGet(t, "/api/products/"+created.ID)
	warm.Body.Close()

	update := map[string]any{
		"name": "Nylon Tote V2", "slug": "nylon-tote", "price": 23990,
		"category": "accessories", "stock": 10,
	}
	resp = doRequest(t, http.MethodPut, "/api/admin/products/"+created.ID, update, testAPIKey)
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doGet(t, "/api/products/"+created.ID)
	defer resp.Body.Close()
	got := decodeJSON[productResponse](t, resp)
	if got.Name != "Nylon Tote V2" {
		t.Errorf("stale cached name: got %q, want Nylon Tote V2", got.Name)
	}
	if got.Price != 23990 {
		t.Errorf("stale cached price: got %v, want 23990", got.Price)
	}

	del := doRequest(t, http.MethodDelete, "/api/admin/products/"+created.ID, nil, testAPIKey)
	del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", del.StatusCode)
	}

	// The deleted product must not be served from cache.
	gone := doGet(t, "/api/products/"+created.ID)
	defer gone.Body.Close()
	if gone.StatusCode != http.StatusNotFound {
		t.Errorf("after delete: expected 404, got %d", gone.StatusCode)
	}
}

func TestCreateProduct_RequiresAuth(t *testing.T) {
	resp := doPost(t, "/api/admin/products", map[string]any{"name": "x"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
