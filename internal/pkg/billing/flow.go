package billing

import (
	"strings"

	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/env"
)

// FlowState is the position of a shop in the billing flow.
type FlowState int

const (
	StateNoCharge FlowState = iota
	StateNoPlanSelected
	StateAwaitingConfirmation
	StateActivated
)

func (s FlowState) String() string {
	switch s {
	case StateNoPlanSelected:
		return "no_plan_selected"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateActivated:
		return "activated"
	default:
		return "no_charge"
	}
}

// CallbackState decides the transition for a merchant returning from the
// confirmation page. An empty charge id means the merchant cancelled; a
// charge without a plan cannot be activated.
func CallbackState(chargeID, plan string) FlowState {
	if strings.TrimSpace(chargeID) == "" {
		return StateNoCharge
	}
	if strings.TrimSpace(plan) == "" {
		return StateNoPlanSelected
	}
	return StateActivated
}

// RedirectAfterActivation is where the merchant lands after a successful
// activation. SPA front ends get billing=success so they can refresh state
// without a reload. MPA front ends re-read state on the next page load.
func RedirectAfterActivation(appURL string, mode env.FrontendType, shop, host string) string {
	params := []queryParam{{"shop", shop}, {"host", host}}
	if mode == env.FrontendSPA {
		params = append(params, queryParam{"billing", "success"})
	}
	return buildURL(appURL, params...)
}

// RedirectHome is where the merchant lands after cancelling a confirmation.
func RedirectHome(appURL, shop, host string) string {
	return buildURL(appURL, queryParam{"shop", shop}, queryParam{"host", host})
}
