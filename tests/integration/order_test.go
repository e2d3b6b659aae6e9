//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func testCustomer(email string) orderCustomer {
	return orderCustomer{
		Email:    email,
		FullName: "Valen Gonzalez",
		Phone:    "+54 9 223 555 0101",
		Address:  "Av. Independencia 2400",
		City:     "Mar del Plata",
	}
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	req := orderRequest{
		Items:    []orderItemRequest{},
		Customer: testCustomer("empty@busy.test"),
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_MissingEmail(t *testing.T) {
	hoodie := productBySlug(t, "busy-day-one-hoodie")

	req := orderRequest{
		Items: []orderItemRequest{{ProductID: hoodie.ID, Quantity: 1}},
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	req := orderRequest{
		Items:    []orderItemRequest{{ProductID: "00000000-0000-0000-0000-000000000000", Quantity: 1}},
		Customer: testCustomer("unknown@busy.test"),
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_OutOfStock(t *testing.T) {
	crewneck := productBySlug(t, "archive-crewneck-02") // seeded with stock 0

	req := orderRequest{
		Items:    []orderItemRequest{{ProductID: crewneck.ID, Quantity: 1}},
		Customer: testCustomer("oos@busy.test"),
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_SingleItem(t *testing.T) {
	hoodie := productBySlug(t, "busy-day-one-hoodie") // 54990.00

	req := orderRequest{
		Items:    []orderItemRequest{{ProductID: hoodie.ID, Quantity: 1}},
		Customer: testCustomer("single@busy.test"),
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if !uuidPattern.MatchString(order.ID) {
		t.Errorf("order ID %q is not a UUID", order.ID)
	}
	if order.ItemsTotal != 54990 {
		t.Errorf("items total: got %v, want 54990", order.ItemsTotal)
	}
	if order.Shipping != 8000 {
		t.Errorf("shipping: got %v, want 8000", order.Shipping)
	}
	// (54990 + 8000) * 10% tax
	if order.Tax != 6299 {
		t.Errorf("tax: got %v, want 6299", order.Tax)
	}
	if order.Total != 69289 {
		t.Errorf("total: got %v, want 69289", order.Total)
	}
	if order.Status != "pending" {
		t.Errorf("status: got %q, want pending", order.Status)
	}
}

func TestPlaceOrder_CouponUsageCap(t *testing.T) {
	hoodie := productBySlug(t, "busy-day-one-hoodie")

	create := map[string]any{"code": "ONETIME15", "percent": 15, "max_uses": 1}
	resp := doPostWithAuth(t, "/api/admin/coupons", create, testAPIKey)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create coupon: expected 201, got %d", resp.StatusCode)
	}

	order := orderRequest{
		Items:      []orderItemRequest{{ProductID: hoodie.ID, Quantity: 1}},
		Customer:   testCustomer("cap1@busy.test"),
		CouponCode: "ONETIME15",
	}
	first := doPost(t, "/api/orders", order)
	defer first.Body.Close()
	if first.StatusCode != http.StatusCreated {
		t.Fatalf("first redemption: expected 201, got %d", first.StatusCode)
	}

	order.Customer = testCustomer("cap2@busy.test")
	second := doPost(t, "/api/orders", order)
	defer second.Body.Close()
	if second.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("exhausted coupon: expected 422, got %d", second.StatusCode)
	}
}

func TestPlaceOrder_IdempotencyKeyReturnsSameOrder(t *testing.T) {
	hoodie := productBySlug(t, "busy-day-one-hoodie")

	req := orderRequest{
		Items:    []orderItemRequest{{ProductID: hoodie.ID, Quantity: 1}},
		Customer: testCustomer("retry@busy.test"),
	}

	first := doPostIdempotent(t, "/api/orders", req, "retry-key-001")
	defer first.Body.Close()
	if first.StatusCode != http.StatusCreated {
		t.Fatalf("first attempt: expected 201, got %d", first.StatusCode)
	}
	created := decodeJSON[orderResponse](t, first)

	second := doPostIdempotent(t, "/api/orders", req, "retry-key-001")
	defer second.Body.Close()
	if second.StatusCode != http.StatusOK {
		t.Fatalf("retry: expected 200, got %d", second.StatusCode)
	}
	replayed := decodeJSON[orderResponse](t, second)

	if replayed.ID != created.ID {
		t.Errorf("retry created a new order: %s vs %s", replayed.ID, created.ID)
	}
	if replayed.Total != created.Total {
		t.Errorf("retry total: got %v, want %v", replayed.Total, created.Total)
	}
}

func TestPlaceOrder_CouponAndFreeShipping(t *testing.T) {
	hoodie := productBySlug(t, "busy-day-one-hoodie") // 54990.00 each

	req := orderRequest{
		Items:      []orderItemRequest{{ProductID: hoodie.ID, Quantity: 2}},
		Customer:   testCustomer("coupon@busy.test"),
		CouponCode: "STREET10",
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if order.ItemsTotal != 109980 {
		t.Errorf("items total: got %v, want 109980", order.ItemsTotal)
	}
	// 109980 crosses the free-shipping threshold.
	if order.Shipping != 0 {
		t.Errorf("shipping: got %v, want 0", order.Shipping)
	}
	if order.Discount != 10998 {
		t.Errorf("discount: got %v, want 10998", order.Discount)
	}
	if order.Tax != 9898.2 {
		t.Errorf("tax: got %v, want 9898.2", order.Tax)
	}
	if order.Total != 108880.2 {
		t.Errorf("total: got %v, want 108880.2", order.Total)
	}
	if order.CouponCode != "STREET10" {
		t.Errorf("coupon code: got %q, want STREET10", order.CouponCode)
	}
}

func TestValidateCoupon(t *testing.T) {
	resp := doPost(t, "/api/coupons/validate", map[string]string{"code": "street10"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	v := decodeJSON[couponValidation](t, resp)
	if v.Code != "street10" {
		t.Errorf("code: got %q, want street10", v.Code)
	}
	if v.Percent != 10 {
		t.Errorf("percent: got %v, want 10", v.Percent)
	}
}

func TestCreateCoupon_FractionalPercent(t *testing.T) {
	create := map[string]any{"code": "HALFOFF125", "percent": 12.5}
	resp := doPostWithAuth(t, "/api/admin/coupons", create, testAPIKey)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create coupon: expected 201, got %d", resp.StatusCode)
	}

	// The fraction must survive the round trip through Postgres.
	check := doPost(t, "/api/coupons/validate", map[string]string{"code": "HALFOFF125"})
	defer check.Body.Close()
	if check.StatusCode != http.StatusOK {
		t.Fatalf("validate: expected 200, got %d", check.StatusCode)
	}
	v := decodeJSON[couponValidation](t, check)
	if v.Percent != 12.5 {
		t.Errorf("percent: got %v, want 12.5", v.Percent)
	}
}

func TestValidateCoupon_Unknown(t *testing.T) {
	resp := doPost(t, "/api/coupons/validate", map[string]string{"code": "NOPE123"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
