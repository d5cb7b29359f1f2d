package billing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ShopifyBilling/app/models"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/metrics"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/signature"
)

// usageSignedFields are the form fields covered by a usage charge signature.
// The shop is resolved separately and never signed.
var usageSignedFields = []string{"description", "price", "redirect"}

// UsageChargeRequest is the signed form a host app posts to record usage.
// Price is kept as the raw string that was signed.
type UsageChargeRequest struct {
	Description string `form:"description" json:"description" validate:"required,max=255"`
	Price       string `form:"price" json:"price" validate:"required,numeric"`
	Signature   string `form:"signature" json:"signature" validate:"required"`
	Redirect    string `form:"redirect" json:"redirect" validate:"omitempty,url"`
	Shop        string `form:"shop" json:"shop"`
}

// Form returns the posted fields. Empty optional fields are left out.
func (r UsageChargeRequest) Form() signature.Payload {
	p := signature.Payload{
		"description": r.Description,
		"price":       r.Price,
		"signature":   r.Signature,
	}
	if r.Redirect != "" {
		p["redirect"] = r.Redirect
	}
	if r.Shop != "" {
		p["shop"] = r.Shop
	}
	return p
}

// Validate checks the shape of the request before the signature is verified.
func (r *UsageChargeRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	price, err := decimal.NewFromString(strings.TrimSpace(r.Price))
	if err != nil {
		return err
	}
	if !price.IsPositive() {
		return fmt.Errorf("price must be greater than zero")
	}
	return nil
}

// SignedFields returns the part of the form covered by the usage charge
// signature: description, price and redirect when present.
func SignedFields(req UsageChargeRequest) signature.Payload {
	return req.Form().Only(usageSignedFields...)
}

// SignUsageCharge builds the signed form a host app posts to the usage
// charge endpoint.
func SignUsageCharge(description, price, redirect, secret string) url.Values {
	req := UsageChargeRequest{Description: description, Price: price, Redirect: redirect}
	form := url.Values{}
	for k, v := range SignedFields(req) {
		form.Set(k, v)
	}
	form.Set("signature", signature.Sign(SignedFields(req), []byte(secret), signature.Options{}))
	return form
}

// VerifyUsageCharge checks the request signature against the app secret.
func (s *Service) VerifyUsageCharge(req UsageChargeRequest) error {
	if !signature.Verify(SignedFields(req), req.Signature, []byte(s.cfg.APISecret), signature.Options{}) {
		metrics.SignatureFailures.WithLabelValues("usage_charge").Inc()
		return ErrInvalidSignature
	}
	return nil
}

// RecordUsageCharge creates a usage charge against the shop's active
// recurring charge and stores it.
func (s *Service) RecordUsageCharge(ctx context.Context, shop *models.Shop, req UsageChargeRequest) (*models.Charge, error) {
	if !shop.HasPlan() {
		return nil, ErrNoActiveCharge
	}
	active, err := s.repos.Charge.FindActiveRecurring(shop.ID, *shop.PlanID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveCharge
	}
	if err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		return nil, err
	}

	remote, err := s.api.CreateUsageCharge(ctx, shop, active.ChargeID, UsageChargeParams{
		Description: req.Description,
		Price:       price,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues("create_usage_charge").Inc()
		return nil, fmt.Errorf("create usage charge for %s: %w", shop.Domain(), err)
	}

	reference := active.ChargeID
	charge := &models.Charge{
		ChargeID:        remote.ID,
		Type:            models.ChargeTypeUsage,
		Status:          models.ChargeStatusAccepted,
		Description:     req.Description,
		Price:           price,
		Test:            active.Test,
		BillingOn:       parseRemoteTime(remote.BillingOn),
		ReferenceCharge: &reference,
		ShopID:          shop.ID,
		PlanID:          shop.PlanID,
		RawPayload:      datatypes.JSON(remote.Raw),
	}
	if err := s.repos.Charge.Create(charge); err != nil {
		return nil, err
	}

	metrics.UsageChargesRecorded.Inc()
	fiberlog.Infof("[Billing] Usage charge %d (%s) recorded for %s", remote.ID, price.String(), shop.Domain())
	return charge, nil
}
