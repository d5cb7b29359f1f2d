package billing

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/ShopifyBilling/app/models"
	"github.com/ManuelReschke/ShopifyBilling/app/repository"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/database"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/env"
)

const (
	testSecret          = "hush"
	testConfirmationURL = "https://example.myshopify.com/admin/charges/1029266947/confirm_recurring_application_charge?signature=BAhpBANeWT0%3D--64de8739eb1e63a8f848382bb757b20343eb414f"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeAPI records calls and returns canned responses.
type fakeAPI struct {
	mu sync.Mutex

	created     []ChargeParams
	activated   []int64
	fetched     []int64
	usage       []UsageChargeParams
	usageParent []int64

	createErr   error
	activateErr error
	usageErr    error
	status      string
	trialEndsOn string
}

func (f *fakeAPI) CreateCharge(ctx context.Context, shop *models.Shop, chargeType string, params ChargeParams) (*RemoteCharge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, params)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &RemoteCharge{
		ID:              1029266947,
		Name:            params.Name,
		Price:           params.Price,
		Status:          "pending",
		ConfirmationURL: testConfirmationURL,
		Raw:             []byte(`{"id":1029266947}`),
	}, nil
}

func (f *fakeAPI) ActivateCharge(ctx context.Context, shop *models.Shop, chargeType string, chargeID int64) (*RemoteCharge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activated = append(f.activated, chargeID)
	if f.activateErr != nil {
		return nil, f.activateErr
	}
	status := f.status
	if status == "" {
		status = "active"
	}
	return &RemoteCharge{
		ID:          chargeID,
		Status:      status,
		TrialDays:   7,
		TrialEndsOn: f.trialEndsOn,
		BillingOn:   "2024-03-08",
		ActivatedOn: "2024-03-01",
	}, nil
}

func (f *fakeAPI) GetCharge(ctx context.Context, shop *models.Shop, chargeType string, chargeID int64) (*RemoteCharge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, chargeID)
	status := f.status
	if status == "" {
		status = "active"
	}
	return &RemoteCharge{ID: chargeID, Status: status, BillingOn: "2024-03-08", ActivatedOn: "2024-03-01"}, nil
}

func (f *fakeAPI) CreateUsageCharge(ctx context.Context, shop *models.Shop, recurringChargeID int64, params UsageChargeParams) (*RemoteUsageCharge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage = append(f.usage, params)
	f.usageParent = append(f.usageParent, recurringChargeID)
	if f.usageErr != nil {
		return nil, f.usageErr
	}
	return &RemoteUsageCharge{ID: 1034618210, Description: params.Description, Price: params.Price}, nil
}

func newTestRepositories(t *testing.T) *repository.Repositories {
	t.Helper()
	db, err := database.OpenInMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	return repository.NewRepositories(db)
}

func testConfig() env.Config {
	return env.Config{
		AppURL:          "https://example-app.com",
		APISecret:       testSecret,
		APIVersion:      "2024-01",
		FrontendType:    env.FrontendMPA,
		BillingRedirect: "/billing/process",
		ActivationTTL:   time.Minute,
	}
}

func newTestService(t *testing.T, api APIClient, opts ...Option) (*Service, *repository.Repositories) {
	t.Helper()
	repos := newTestRepositories(t)
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewService(repos, api, testConfig(), opts...), repos
}

func seedPlan(t *testing.T, repos *repository.Repositories, plan *models.Plan) *models.Plan {
	t.Helper()
	if plan == nil {
		plan = &models.Plan{
			Type:      models.PlanTypeRecurring,
			Name:      "Basic",
			Price:     decimal.RequireFromString("9.99"),
			TrialDays: 7,
			OnInstall: true,
		}
	}
	require.NoError(t, repos.Plan.Create(plan))
	return plan
}

func seedShop(t *testing.T, repos *repository.Repositories) *models.Shop {
	t.Helper()
	shop := &models.Shop{Name: "example.myshopify.com", AccessToken: "shpat_123"}
	require.NoError(t, repos.Shop.Create(shop))
	return shop
}
