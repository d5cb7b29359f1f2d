package billing

import (
	"strings"
	"time"

	"github.com/ManuelReschke/ShopifyBilling/app/models"
)

// Checkout is the result of starting a charge: the merchant must be sent to
// ConfirmationURL to approve it.
type Checkout struct {
	ChargeID        int64
	ConfirmationURL string
	Plan            *models.Plan
	State           FlowState
}

// WebhookDelivery is the normalized input for a subscription webhook.
type WebhookDelivery struct {
	Topic          string
	ShopDomain     string
	WebhookID      string
	PayloadJSON    string
	SignatureValid bool
}

// SubscriptionUpdate is the app_subscriptions/update payload.
type SubscriptionUpdate struct {
	AppSubscription struct {
		AdminGraphqlAPIID string `json:"admin_graphql_api_id"`
		Name              string `json:"name"`
		Status            string `json:"status"`
		AdminGraphqlShop  string `json:"admin_graphql_api_shop_id"`
		CreatedAt         string `json:"created_at"`
		UpdatedAt         string `json:"updated_at"`
		Currency          string `json:"currency"`
		CappedAmount      string `json:"capped_amount"`
	} `json:"app_subscription"`
}

// ChargeID extracts the numeric id from the GraphQL gid, e.g.
// gid://shopify/AppSubscription/1029266947.
func (u SubscriptionUpdate) ChargeID() (int64, bool) {
	gid := strings.TrimSpace(u.AppSubscription.AdminGraphqlAPIID)
	if gid == "" {
		return 0, false
	}
	return parseChargeID(gid[strings.LastIndex(gid, "/")+1:])
}

// NormalizeRemoteStatus maps the status vocabulary of the REST and GraphQL
// APIs onto local charge statuses. Unknown values map to pending.
func NormalizeRemoteStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "accepted":
		return models.ChargeStatusAccepted
	case "declined":
		return models.ChargeStatusDeclined
	case "cancelled", "canceled":
		return models.ChargeStatusCancelled
	case "expired":
		return models.ChargeStatusExpired
	case "frozen":
		return models.ChargeStatusFrozen
	default:
		return models.ChargeStatusPending
	}
}

func parseRemoteTime(v string) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}
