package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/ShopifyBilling/app/models"
)

func TestBuildChargeParamsRecurringCapped(t *testing.T) {
	plan := &models.Plan{
		Type:         models.PlanTypeUsage,
		Name:         "Pro",
		Price:        decimal.RequireFromString("19.00"),
		CappedAmount: decimal.RequireFromString("100"),
		Terms:        "$1 for 1000 emails",
		TrialDays:    14,
	}

	params := BuildChargeParams(plan, "https://example-app.com/billing/process/2", 5, false)
	assert.Equal(t, "Pro", params.Name)
	assert.Equal(t, 5, params.TrialDays)
	require.NotNil(t, params.CappedAmount)
	assert.True(t, params.CappedAmount.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, "$1 for 1000 emails", params.Terms)
	assert.False(t, params.Test)
}

func TestBuildChargeParamsOneTime(t *testing.T) {
	plan := &models.Plan{Type: models.PlanTypeOneTime, Name: "Lifetime", Price: decimal.RequireFromString("99"), TrialDays: 7, Test: true}

	params := BuildChargeParams(plan, "https://example-app.com/billing/process/3", 7, false)
	assert.Zero(t, params.TrialDays)
	assert.Nil(t, params.CappedAmount)
	assert.True(t, params.Test)
}

func TestBuildChargeParamsForcedTest(t *testing.T) {
	plan := &models.Plan{Type: models.PlanTypeRecurring, Name: "Basic", Price: decimal.RequireFromString("9.99")}
	assert.True(t, BuildChargeParams(plan, "", 0, true).Test)
}

func TestTrialDaysFor(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	plan := &models.Plan{Type: models.PlanTypeRecurring, TrialDays: 7}

	assert.Equal(t, 7, TrialDaysFor(plan, nil, now))

	inTrial := now.Add(36 * time.Hour)
	current := &models.Charge{Status: models.ChargeStatusAccepted, TrialEndsOn: &inTrial}
	assert.Equal(t, 2, TrialDaysFor(plan, current, now))

	longTrial := now.AddDate(0, 0, 30)
	current = &models.Charge{Status: models.ChargeStatusAccepted, TrialEndsOn: &longTrial}
	assert.Equal(t, 7, TrialDaysFor(plan, current, now))

	ended := now.Add(-time.Hour)
	current = &models.Charge{Status: models.ChargeStatusAccepted, TrialEndsOn: &ended}
	assert.Equal(t, 0, TrialDaysFor(plan, current, now))

	cancelled := &models.Charge{Status: models.ChargeStatusCancelled, TrialEndsOn: &ended}
	assert.Equal(t, 7, TrialDaysFor(plan, cancelled, now))

	assert.Equal(t, 0, TrialDaysFor(&models.Plan{Type: models.PlanTypeRecurring}, nil, now))
}

func TestReturnURL(t *testing.T) {
	got := ReturnURL("https://example-app.com/", "/billing/process", 4, "example.myshopify.com", "YWRtaW4=")
	assert.Equal(t, "https://example-app.com/billing/process/4?shop=example.myshopify.com&host=YWRtaW4%3D", got)

	got = ReturnURL("https://example-app.com", "billing/process", 4, "example.myshopify.com", "")
	assert.Equal(t, "https://example-app.com/billing/process/4?shop=example.myshopify.com", got)
}

func TestParseChargeID(t *testing.T) {
	id, err := ParseChargeID(" 1029266947 ")
	require.NoError(t, err)
	assert.Equal(t, int64(1029266947), id)

	_, err = ParseChargeID("abc")
	assert.Error(t, err)
	_, err = ParseChargeID("-4")
	assert.Error(t, err)
}
