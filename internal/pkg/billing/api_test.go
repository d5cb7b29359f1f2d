package billing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/ShopifyBilling/app/models"
)

func newTestClient(srv *httptest.Server) *ShopifyClient {
	return &ShopifyClient{APIVersion: "2024-01", Endpoint: srv.URL, HTTPClient: srv.Client()}
}

func TestShopifyClientCreateRecurringCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/api/2024-01/recurring_application_charges.json", r.URL.Path)
		assert.Equal(t, "shpat_123", r.Header.Get("X-Shopify-Access-Token"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		var body map[string]map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		charge := body["recurring_application_charge"]
		assert.Equal(t, "Basic", charge["name"])
		assert.Equal(t, "9.99", charge["price"])
		assert.EqualValues(t, 7, charge["trial_days"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"recurring_application_charge":{"id":1029266947,"name":"Basic","price":"9.99","status":"pending","trial_days":7,"confirmation_url":"`+testConfirmationURL+`"}}`)
	}))
	defer srv.Close()

	shop := &models.Shop{Name: "example.myshopify.com", AccessToken: "shpat_123"}
	remote, err := newTestClient(srv).CreateCharge(context.Background(), shop, models.ChargeTypeRecurring, ChargeParams{
		Name:      "Basic",
		Price:     decimal.RequireFromString("9.99"),
		ReturnURL: "https://example-app.com/billing/process/1",
		TrialDays: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1029266947), remote.ID)
	assert.Equal(t, testConfirmationURL, remote.ConfirmationURL)
	assert.True(t, remote.Price.Equal(decimal.RequireFromString("9.99")))
	assert.Contains(t, string(remote.Raw), `"id":1029266947`)
}

func TestShopifyClientActivateOneTimeCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-01/application_charges/675931192/activate.json", r.URL.Path)
		_, _ = io.WriteString(w, `{"application_charge":{"id":675931192,"status":"active"}}`)
	}))
	defer srv.Close()

	shop := &models.Shop{Name: "example.myshopify.com"}
	remote, err := newTestClient(srv).ActivateCharge(context.Background(), shop, models.ChargeTypeOneTime, 675931192)
	require.NoError(t, err)
	assert.Equal(t, "active", remote.Status)
}

func TestShopifyClientCreateUsageCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-01/recurring_application_charges/455696195/usage_charges.json", r.URL.Path)
		_, _ = io.WriteString(w, `{"usage_charge":{"id":1034618210,"description":"1000 emails","price":"1.00","billing_on":"2024-03-08"}}`)
	}))
	defer srv.Close()

	shop := &models.Shop{Name: "example.myshopify.com"}
	remote, err := newTestClient(srv).CreateUsageCharge(context.Background(), shop, 455696195, UsageChargeParams{
		Description: "1000 emails",
		Price:       decimal.RequireFromString("1"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1034618210), remote.ID)
	assert.Equal(t, "2024-03-08", remote.BillingOn)
}

func TestShopifyClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"errors":{"price":["must be greater than 0"]}}`)
	}))
	defer srv.Close()

	shop := &models.Shop{Name: "example.myshopify.com"}
	_, err := newTestClient(srv).CreateCharge(context.Background(), shop, models.ChargeTypeRecurring, ChargeParams{Name: "Basic"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBillingAPI))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "must be greater than 0")
}

func TestShopifyClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := &ShopifyClient{APIVersion: "2024-01", Endpoint: srv.URL, HTTPClient: &http.Client{Timeout: 50 * time.Millisecond}}
	shop := &models.Shop{Name: "example.myshopify.com"}
	_, err := client.ActivateCharge(context.Background(), shop, models.ChargeTypeRecurring, 1029266947)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBillingAPI))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 0, apiErr.StatusCode)
}

func TestShopifyClientTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "512")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"recurring_application_charge":{"id":10`)
	}))
	defer srv.Close()

	shop := &models.Shop{Name: "example.myshopify.com"}
	_, err := newTestClient(srv).GetCharge(context.Background(), shop, models.ChargeTypeRecurring, 1029266947)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBillingAPI))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "read response")
}

func TestShopifyClientRequiresShop(t *testing.T) {
	client := &ShopifyClient{APIVersion: "2024-01"}
	_, err := client.GetCharge(context.Background(), &models.Shop{}, models.ChargeTypeRecurring, 1)
	assert.ErrorIs(t, err, ErrMissingShopDomain)
}

func TestShopifyClientDefaultsToShopHost(t *testing.T) {
	client := &ShopifyClient{APIVersion: "2024-01"}
	shop := &models.Shop{Name: "Example.myshopify.com"}
	assert.Equal(t, "https://example.myshopify.com/admin/api/2024-01", client.baseURL(shop))
}
