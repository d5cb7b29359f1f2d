package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/ShopifyBilling/app/models"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/env"
)

// APIClient is the subset of the platform's billing API used by the service.
type APIClient interface {
	CreateCharge(ctx context.Context, shop *models.Shop, chargeType string, params ChargeParams) (*RemoteCharge, error)
	ActivateCharge(ctx context.Context, shop *models.Shop, chargeType string, chargeID int64) (*RemoteCharge, error)
	GetCharge(ctx context.Context, shop *models.Shop, chargeType string, chargeID int64) (*RemoteCharge, error)
	CreateUsageCharge(ctx context.Context, shop *models.Shop, recurringChargeID int64, params UsageChargeParams) (*RemoteUsageCharge, error)
}

// ChargeParams is the body of a recurring or one-time charge creation.
type ChargeParams struct {
	Name         string           `json:"name"`
	Price        decimal.Decimal  `json:"price"`
	ReturnURL    string           `json:"return_url"`
	TrialDays    int              `json:"trial_days,omitempty"`
	Test         bool             `json:"test,omitempty"`
	CappedAmount *decimal.Decimal `json:"capped_amount,omitempty"`
	Terms        string           `json:"terms,omitempty"`
}

// UsageChargeParams is the body of a usage charge creation.
type UsageChargeParams struct {
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// RemoteCharge is a recurring or one-time charge as returned by the API.
type RemoteCharge struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Status          string          `json:"status"`
	ReturnURL       string          `json:"return_url"`
	ConfirmationURL string          `json:"confirmation_url"`
	Test            *bool           `json:"test"`
	TrialDays       int             `json:"trial_days"`
	CappedAmount    decimal.Decimal `json:"capped_amount"`
	Terms           string          `json:"terms"`
	BillingOn       string          `json:"billing_on"`
	ActivatedOn     string          `json:"activated_on"`
	CancelledOn     string          `json:"cancelled_on"`
	TrialEndsOn     string          `json:"trial_ends_on"`
	CreatedAt       string          `json:"created_at"`

	Raw json.RawMessage `json:"-"`
}

// RemoteUsageCharge is a usage charge as returned by the API.
type RemoteUsageCharge struct {
	ID               int64           `json:"id"`
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"price"`
	BillingOn        string          `json:"billing_on"`
	BalanceUsed      decimal.Decimal `json:"balance_used"`
	BalanceRemaining decimal.Decimal `json:"balance_remaining"`
	CreatedAt        string          `json:"created_at"`

	Raw json.RawMessage `json:"-"`
}

// ShopifyClient talks to the REST admin API of a shop.
type ShopifyClient struct {
	APIVersion string
	// Endpoint replaces https://{shop} when set, e.g. for proxies and tests.
	Endpoint string

	HTTPClient *http.Client
}

func NewShopifyClient(cfg env.Config) *ShopifyClient {
	return &ShopifyClient{
		APIVersion: cfg.APIVersion,
		Endpoint:   cfg.APIEndpoint,
		HTTPClient: &http.Client{
			Timeout: cfg.APITimeout,
		},
	}
}

func (c *ShopifyClient) CreateCharge(ctx context.Context, shop *models.Shop, chargeType string, params ChargeParams) (*RemoteCharge, error) {
	resource := chargeResource(chargeType)
	body := map[string]ChargeParams{singular(resource): params}
	return c.doCharge(ctx, shop, http.MethodPost, fmt.Sprintf("/%s.json", resource), resource, body)
}

func (c *ShopifyClient) ActivateCharge(ctx context.Context, shop *models.Shop, chargeType string, chargeID int64) (*RemoteCharge, error) {
	resource := chargeResource(chargeType)
	body := map[string]map[string]int64{singular(resource): {"id": chargeID}}
	return c.doCharge(ctx, shop, http.MethodPost, fmt.Sprintf("/%s/%d/activate.json", resource, chargeID), resource, body)
}

func (c *ShopifyClient) GetCharge(ctx context.Context, shop *models.Shop, chargeType string, chargeID int64) (*RemoteCharge, error) {
	resource := chargeResource(chargeType)
	return c.doCharge(ctx, shop, http.MethodGet, fmt.Sprintf("/%s/%d.json", resource, chargeID), resource, nil)
}

func (c *ShopifyClient) CreateUsageCharge(ctx context.Context, shop *models.Shop, recurringChargeID int64, params UsageChargeParams) (*RemoteUsageCharge, error) {
	path := fmt.Sprintf("/recurring_application_charges/%d/usage_charges.json", recurringChargeID)
	raw, err := c.do(ctx, shop, http.MethodPost, path, map[string]UsageChargeParams{"usage_charge": params})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		UsageCharge json.RawMessage `json:"usage_charge"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &APIError{Method: http.MethodPost, Path: path, Err: err}
	}
	var out RemoteUsageCharge
	if err := json.Unmarshal(envelope.UsageCharge, &out); err != nil {
		return nil, &APIError{Method: http.MethodPost, Path: path, Err: err}
	}
	if out.ID == 0 {
		return nil, &APIError{Method: http.MethodPost, Path: path, Err: fmt.Errorf("usage charge response missing id")}
	}
	out.Raw = envelope.UsageCharge
	return &out, nil
}

func (c *ShopifyClient) doCharge(ctx context.Context, shop *models.Shop, method, path, resource string, body interface{}) (*RemoteCharge, error) {
	raw, err := c.do(ctx, shop, method, path, body)
	if err != nil {
		return nil, err
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &APIError{Method: method, Path: path, Err: err}
	}
	item, ok := envelope[singular(resource)]
	if !ok {
		return nil, &APIError{Method: method, Path: path, Err: fmt.Errorf("response missing %s", singular(resource))}
	}
	var out RemoteCharge
	if err := json.Unmarshal(item, &out); err != nil {
		return nil, &APIError{Method: method, Path: path, Err: err}
	}
	if out.ID == 0 {
		return nil, &APIError{Method: method, Path: path, Err: fmt.Errorf("%s response missing id", singular(resource))}
	}
	out.Raw = item
	return &out, nil
}

func (c *ShopifyClient) do(ctx context.Context, shop *models.Shop, method, path string, body interface{}) ([]byte, error) {
	if shop == nil || strings.TrimSpace(shop.Name) == "" {
		return nil, ErrMissingShopDomain
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL(shop)+path, reader)
	if err != nil {
		return nil, &APIError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if shop.AccessToken != "" {
		req.Header.Set("X-Shopify-Access-Token", shop.AccessToken)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &APIError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

func (c *ShopifyClient) baseURL(shop *models.Shop) string {
	base := strings.TrimRight(c.Endpoint, "/")
	if base == "" {
		base = "https://" + shop.Domain()
	}
	version := strings.TrimSpace(c.APIVersion)
	if version == "" {
		return base + "/admin"
	}
	return base + "/admin/api/" + version
}

func (c *ShopifyClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func chargeResource(chargeType string) string {
	if chargeType == models.ChargeTypeOneTime {
		return "application_charges"
	}
	return "recurring_application_charges"
}

func singular(resource string) string {
	return strings.TrimSuffix(resource, "s")
}
