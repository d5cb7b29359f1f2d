package billing

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ManuelReschke/ShopifyBilling/app/models"
)

// BuildChargeParams turns a plan into the body of a charge creation request.
// trialDays is the trial to grant, already adjusted for carry-over.
func BuildChargeParams(plan *models.Plan, returnURL string, trialDays int, forceTest bool) ChargeParams {
	params := ChargeParams{
		Name:      plan.Name,
		Price:     plan.Price,
		ReturnURL: returnURL,
		Test:      plan.Test || forceTest,
	}
	if plan.IsRecurring() {
		params.TrialDays = trialDays
		if plan.IsCapped() {
			capped := plan.CappedAmount
			params.CappedAmount = &capped
			params.Terms = plan.Terms
		}
	}
	return params
}

// TrialDaysFor returns the trial to grant for plan. A shop moving off an
// ongoing trial keeps what is left of it, capped at the plan's own trial. A
// shop whose previous charge is past its trial gets none.
func TrialDaysFor(plan *models.Plan, current *models.Charge, now time.Time) int {
	if !plan.IsRecurring() || !plan.HasTrial() {
		return 0
	}
	if current == nil || !current.IsOngoing() {
		return plan.TrialDays
	}
	remaining := current.RemainingTrialDays(now)
	if remaining > plan.TrialDays {
		return plan.TrialDays
	}
	return remaining
}

// ReturnURL is where the platform sends the merchant after the confirmation
// page, e.g. https://app.example.com/billing/process/1?shop=x&host=y.
func ReturnURL(appURL, billingRedirect string, planID uint, shop, host string) string {
	base := strings.TrimRight(appURL, "/") + "/" + strings.Trim(billingRedirect, "/") + "/" + strconv.FormatUint(uint64(planID), 10)
	return buildURL(base, queryParam{"shop", shop}, queryParam{"host", host})
}

type queryParam struct {
	key   string
	value string
}

// buildURL appends params in the given order and skips empty values.
func buildURL(base string, params ...queryParam) string {
	var b strings.Builder
	b.WriteString(base)
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	for _, p := range params {
		if p.value == "" {
			continue
		}
		b.WriteString(sep)
		b.WriteString(url.QueryEscape(p.key))
		b.WriteString("=")
		b.WriteString(url.QueryEscape(p.value))
		sep = "&"
	}
	return b.String()
}

func parseChargeID(v string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ParseChargeID parses the charge_id query parameter of the return URL.
func ParseChargeID(v string) (int64, error) {
	id, ok := parseChargeID(v)
	if !ok {
		return 0, fmt.Errorf("invalid charge_id %q", v)
	}
	return id, nil
}
