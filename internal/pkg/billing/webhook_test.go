package billing

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/ShopifyBilling/app/models"
)

func subscriptionPayload(status string) string {
	return subscriptionPayloadFor(200, status)
}

func subscriptionPayloadFor(chargeID int64, status string) string {
	return `{"app_subscription":{"admin_graphql_api_id":"gid://shopify/AppSubscription/` + strconv.FormatInt(chargeID, 10) + `","name":"Basic","status":"` + status + `","admin_graphql_api_shop_id":"gid://shopify/Shop/1"}}`
}

func TestApplySubscriptionUpdateCancelsCurrentPlan(t *testing.T) {
	svc, repos := newTestService(t, &fakeAPI{})
	plan := seedPlan(t, repos, nil)
	shop := seedShop(t, repos)
	_, err := svc.Activate(context.Background(), shop, plan.ID, 200)
	require.NoError(t, err)

	charge, err := svc.ApplySubscriptionUpdate(context.Background(), "example.myshopify.com", subscriptionPayload("CANCELLED"))
	require.NoError(t, err)
	require.NotNil(t, charge)
	assert.Equal(t, models.ChargeStatusCancelled, charge.Status)

	reloaded, err := repos.Shop.GetByID(shop.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.HasPlan())
}

func TestApplySubscriptionUpdateFrozenKeepsPlan(t *testing.T) {
	svc, repos := newTestService(t, &fakeAPI{})
	plan := seedPlan(t, repos, nil)
	shop := seedShop(t, repos)
	_, err := svc.Activate(context.Background(), shop, plan.ID, 200)
	require.NoError(t, err)

	charge, err := svc.ApplySubscriptionUpdate(context.Background(), "example.myshopify.com", subscriptionPayload("FROZEN"))
	require.NoError(t, err)
	assert.Equal(t, models.ChargeStatusFrozen, charge.Status)

	reloaded, err := repos.Shop.GetByID(shop.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.HasPlan())
}

func TestApplySubscriptionUpdateUnknownCharge(t *testing.T) {
	svc, repos := newTestService(t, &fakeAPI{})
	seedShop(t, repos)

	charge, err := svc.ApplySubscriptionUpdate(context.Background(), "example.myshopify.com", subscriptionPayload("ACTIVE"))
	require.NoError(t, err)
	assert.Nil(t, charge)

	_, err = svc.ApplySubscriptionUpdate(context.Background(), "example.myshopify.com", `{"app_subscription":{}}`)
	assert.Error(t, err)
}

func TestRecordWebhookEventIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t, &fakeAPI{})
	in := WebhookDelivery{
		Topic:          TopicAppSubscriptionsUpdate,
		ShopDomain:     "Example.myshopify.com",
		PayloadJSON:    subscriptionPayload("ACTIVE"),
		SignatureValid: true,
	}

	created, event, err := svc.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "example.myshopify.com", event.ShopDomain)

	created, again, err := svc.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, event.ID, again.ID)

	require.NoError(t, svc.MarkWebhookProcessed(context.Background(), event.ID, errors.New("boom")))
	assert.Error(t, svc.MarkWebhookProcessed(context.Background(), 0, nil))
}

func TestApplySubscriptionUpdateLeavesPendingChargeToCallback(t *testing.T) {
	api := &fakeAPI{}
	svc, repos := newTestService(t, api)
	plan := seedPlan(t, repos, nil)
	shop := seedShop(t, repos)

	checkout, err := svc.Begin(context.Background(), shop, nil, "")
	require.NoError(t, err)

	charge, err := svc.ApplySubscriptionUpdate(context.Background(), "example.myshopify.com", subscriptionPayloadFor(checkout.ChargeID, "ACTIVE"))
	require.NoError(t, err)
	assert.Equal(t, models.ChargeStatusPending, charge.Status)

	stored, err := repos.Charge.GetByChargeID(checkout.ChargeID)
	require.NoError(t, err)
	assert.Equal(t, models.ChargeStatusPending, stored.Status)

	fresh, err := repos.Shop.GetByID(shop.ID)
	require.NoError(t, err)
	_, err = svc.Activate(context.Background(), fresh, plan.ID, checkout.ChargeID)
	require.NoError(t, err)
	assert.Equal(t, []int64{checkout.ChargeID}, api.activated)

	reloaded, err := repos.Shop.GetByID(shop.ID)
	require.NoError(t, err)
	require.True(t, reloaded.HasPlan())
	assert.Equal(t, plan.ID, *reloaded.PlanID)
}

func TestApplySubscriptionUpdateDeclinesPendingCharge(t *testing.T) {
	svc, repos := newTestService(t, &fakeAPI{})
	seedPlan(t, repos, nil)
	shop := seedShop(t, repos)

	checkout, err := svc.Begin(context.Background(), shop, nil, "")
	require.NoError(t, err)

	charge, err := svc.ApplySubscriptionUpdate(context.Background(), "example.myshopify.com", subscriptionPayloadFor(checkout.ChargeID, "DECLINED"))
	require.NoError(t, err)
	assert.Equal(t, models.ChargeStatusDeclined, charge.Status)
}
