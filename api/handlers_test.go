package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/stock-engine/api"
	"github.com/warp/stock-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	server := httptest.NewServer(api.NewRouter(api.NewHandler(store)))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func doJSONList(t *testing.T, url string) (*http.Response, []map[string]any) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded []map[string]any
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

// seedShop provisions a variant with stock through the API itself.
func seedShop(t *testing.T, base, sku, price string, qty int) {
	t.Helper()

	resp, _ := doJSON(t, "POST", base+"/api/variants", map[string]any{
		"sku": sku, "name": "Test " + sku, "price": price,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, loc := doJSON(t, "POST", base+"/api/locations", map[string]any{
		"code": "WH-" + sku, "name": "Warehouse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, "POST", base+"/api/stock", map[string]any{
		"sku": sku, "location_id": loc["id"], "quantity": qty,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// =============================================================================
// CATALOG ENDPOINTS
// =============================================================================

func TestCreateVariant_DuplicateSKU_Returns409(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, "POST", server.URL+"/api/variants", map[string]any{
		"sku": "TEE-1", "name": "Logo Tee",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, "POST", server.URL+"/api/variants", map[string]any{
		"sku": "TEE-1", "name": "Duplicate",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "SKU already in use", body["error"])
}

func TestGetVariant_Unknown_Returns404(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, "GET", server.URL+"/api/variants/GHOST", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReceiveStock_ThenAvailabilityAndStatus(t *testing.T) {
	server := newTestServer(t)
	seedShop(t, server.URL, "TEE-1", "19.99", 25)

	resp, body := doJSON(t, "GET", server.URL+"/api/variants/TEE-1/availability", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(25), body["available"])

	resp, body = doJSON(t, "GET", server.URL+"/api/variants/TEE-1/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "in_stock", body["status"])

	resp, records := doJSONList(t, server.URL+"/api/variants/TEE-1/stock")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, records, 1)
	assert.Equal(t, float64(25), records[0]["on_hand"])
	assert.Equal(t, float64(0), records[0]["reserved"])
	assert.Equal(t, float64(1), records[0]["version"])
}

func TestGetAvailability_UnknownSKU_ReadsAsZero(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, "GET", server.URL+"/api/variants/GHOST/availability", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["available"])
}

// =============================================================================
// CART AND CHECKOUT FLOW
// =============================================================================

func TestShoppingFlow_AddCheckoutAndDeduct(t *testing.T) {
	// The storefront's whole happy path through the HTTP surface:
	// seed, add to cart, see the reservation, check out, see the
	// deduction and the placed order.

	server := newTestServer(t)
	seedShop(t, server.URL, "TEE-1", "19.99", 10)

	resp, _ := doJSON(t, "POST", server.URL+"/api/cart/s1/items", map[string]any{
		"sku": "TEE-1", "quantity": 3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, "GET", server.URL+"/api/variants/TEE-1/availability", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(7), body["available"])

	resp, cart := doJSONList(t, server.URL+"/api/cart/s1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, cart, 1)
	assert.Equal(t, float64(3), cart[0]["quantity"])

	resp, order := doJSON(t, "POST", server.URL+"/api/checkout/s1", map[string]any{
		"items": []map[string]any{{"sku": "TEE-1", "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "placed", order["status"])
	assert.Equal(t, "59.97", order["total"])

	resp, fetched := doJSON(t, "GET", fmt.Sprintf("%s/api/orders/%s", server.URL, order["id"]), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, order["id"], fetched["id"])

	resp, sessionOrders := doJSONList(t, server.URL+"/api/sessions/s1/orders")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, sessionOrders, 1)

	resp, records := doJSONList(t, server.URL+"/api/variants/TEE-1/stock")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, records, 1)
	assert.Equal(t, float64(7), records[0]["on_hand"])
	assert.Equal(t, float64(0), records[0]["reserved"])

	resp, cart = doJSONList(t, server.URL+"/api/cart/s1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, cart, "holds are cleared after checkout")
}

func TestAddToCart_InsufficientStock_Returns409WithFigures(t *testing.T) {
	server := newTestServer(t)
	seedShop(t, server.URL, "TEE-1", "19.99", 2)

	resp, body := doJSON(t, "POST", server.URL+"/api/cart/s1/items", map[string]any{
		"sku": "TEE-1", "quantity": 5,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "insufficient_stock", body["code"])

	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "TEE-1", details["sku"])
	assert.Equal(t, float64(5), details["requested"])
	assert.Equal(t, float64(2), details["available"])
}

func TestAddToCart_InvalidQuantity_Returns400(t *testing.T) {
	server := newTestServer(t)
	seedShop(t, server.URL, "TEE-1", "19.99", 10)

	resp, _ := doJSON(t, "POST", server.URL+"/api/cart/s1/items", map[string]any{
		"sku": "TEE-1", "quantity": 0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRemoveFromCart_RestoresAvailability(t *testing.T) {
	server := newTestServer(t)
	seedShop(t, server.URL, "TEE-1", "19.99", 10)

	resp, _ := doJSON(t, "POST", server.URL+"/api/cart/s1/items", map[string]any{
		"sku": "TEE-1", "quantity": 4,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, "DELETE", server.URL+"/api/cart/s1/items", map[string]any{
		"sku": "TEE-1", "quantity": 4,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, "GET", server.URL+"/api/variants/TEE-1/availability", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(10), body["available"])
}

func TestCheckout_InsufficientStock_NoOrderCreated(t *testing.T) {
	server := newTestServer(t)
	seedShop(t, server.URL, "TEE-1", "19.99", 2)

	resp, body := doJSON(t, "POST", server.URL+"/api/checkout/s1", map[string]any{
		"items": []map[string]any{{"sku": "TEE-1", "quantity": 5}},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "insufficient_stock", body["code"])

	resp, orders := doJSONList(t, server.URL+"/api/sessions/s1/orders")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, orders)

	resp, avail := doJSON(t, "GET", server.URL+"/api/variants/TEE-1/availability", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), avail["available"])
}

func TestCheckout_EmptyOrder_Returns400(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, "POST", server.URL+"/api/checkout/s1", map[string]any{
		"items": []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetOrder_Unknown_Returns404(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, "GET", server.URL+"/api/orders/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestArchiveVariant_ThenStillListed(t *testing.T) {
	server := newTestServer(t)
	seedShop(t, server.URL, "TEE-1", "19.99", 5)

	resp, _ := doJSON(t, "POST", server.URL+"/api/variants/TEE-1/archive", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, variants := doJSONList(t, server.URL+"/api/variants")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, variants, 1)
	assert.Equal(t, true, variants[0]["archived"])
}
