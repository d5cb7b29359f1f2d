package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/ShopifyBilling/app/repository"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/billing"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/cache"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/env"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/metrics"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/shopcontext"
)

// BillingController handles the billing flow and usage charge endpoints.
type BillingController struct {
	svc *billing.Service
}

// NewBillingController creates a billing controller around a billing service
func NewBillingController(svc *billing.Service) *BillingController {
	return &BillingController{svc: svc}
}

// HandleBilling starts a charge for the requested plan, or the install plan,
// and sends the merchant to the confirmation page.
func (bc *BillingController) HandleBilling(c *fiber.Ctx) error {
	domain, ok := shopcontext.Resolve(c)
	if !ok {
		return billing.ErrMissingShopDomain
	}
	shop, err := bc.svc.ResolveShop(domain)
	if err != nil {
		return err
	}

	planID, err := optionalPlanID(c.Params("plan"))
	if err != nil {
		return err
	}

	host := shopcontext.Host(c)
	checkout, err := bc.svc.Begin(c.UserContext(), shop, planID, host)
	if err != nil {
		return err
	}

	if c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON {
		return c.JSON(fiber.Map{"url": checkout.ConfirmationURL})
	}
	return c.Render("billing/fullpage_redirect", fiber.Map{
		"url":    checkout.ConfirmationURL,
		"apiKey": bc.svc.Config().APIKey,
		"host":   host,
		"shop":   shop.Domain(),
	})
}

// HandleBillingProcess is the return URL of the confirmation page. Without a
// charge id the merchant cancelled and goes back to the app home.
func (bc *BillingController) HandleBillingProcess(c *fiber.Ctx) error {
	domain, ok := shopcontext.Resolve(c)
	if !ok {
		return billing.ErrMissingShopDomain
	}
	shop, err := bc.svc.ResolveShop(domain)
	if err != nil {
		return err
	}

	cfg := bc.svc.Config()
	host := shopcontext.Host(c)
	chargeParam := c.Query("charge_id")
	switch billing.CallbackState(chargeParam, c.Params("plan")) {
	case billing.StateNoCharge:
		metrics.ChargesAbandoned.Inc()
		fiberlog.Infof("[Billing] %s returned without accepting a charge", shop.Domain())
		return c.Redirect(billing.RedirectHome(cfg.AppURL, shop.Domain(), host))
	case billing.StateNoPlanSelected:
		return fiber.NewError(fiber.StatusBadRequest, "plan is required")
	}

	planID, err := optionalPlanID(c.Params("plan"))
	if err != nil {
		return err
	}
	chargeID, err := billing.ParseChargeID(chargeParam)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	home := billing.RedirectHome(cfg.AppURL, shop.Domain(), host)
	_, err = bc.svc.Activate(c.UserContext(), shop, *planID, chargeID)
	switch {
	case errors.Is(err, billing.ErrChargeNotAccepted):
		return flash.WithError(c, fiber.Map{"type": "error", "message": "The charge was not accepted."}).Redirect(home)
	case errors.Is(err, billing.ErrActivationInProgress):
		return flash.WithInfo(c, fiber.Map{"type": "info", "message": "The charge is being activated."}).Redirect(home)
	case err != nil:
		return err
	}

	target := billing.RedirectAfterActivation(cfg.AppURL, cfg.FrontendType, shop.Domain(), host)
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Plan activated."}).Redirect(target)
}

// HandleUsageCharge records a signed usage charge. The shop must be known
// before anything else happens; a request without one is an error, not a
// redirect.
func (bc *BillingController) HandleUsageCharge(c *fiber.Ctx) error {
	domain, ok := shopcontext.Resolve(c)
	if !ok {
		return billing.ErrMissingShopDomain
	}
	shop, err := bc.svc.ResolveShop(domain)
	if err != nil {
		return err
	}

	cfg := bc.svc.Config()
	back := c.Get(fiber.HeaderReferer, cfg.AppURL)

	var req billing.UsageChargeRequest
	if err := c.BodyParser(&req); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Invalid usage charge request."}).Redirect(back)
	}
	if err := req.Validate(); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Invalid usage charge request."}).Redirect(back)
	}
	if err := bc.svc.VerifyUsageCharge(req); err != nil {
		fiberlog.Warnf("[Billing] Usage charge signature mismatch for %s", shop.Domain())
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Signature verification failed."}).Redirect(back)
	}

	if _, err := bc.svc.RecordUsageCharge(c.UserContext(), shop, req); err != nil {
		if errors.Is(err, billing.ErrNoActiveCharge) {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "No active plan to charge usage against."}).Redirect(back)
		}
		return err
	}

	target := req.Redirect
	if target == "" {
		target = cfg.AppURL
	}
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Usage charge recorded."}).Redirect(target)
}

func optionalPlanID(raw string) (*uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid plan id")
	}
	v := uint(id)
	return &v, nil
}

// ============================================================================
// GLOBAL BILLING CONTROLLER INSTANCE - Singleton Pattern
// ============================================================================

var billingController *BillingController

// InitializeBillingController wires the billing service from the global
// repositories, the environment config and, when available, the cache.
func InitializeBillingController() {
	cfg := env.LoadConfig()
	opts := []billing.Option{}
	if cache.Enabled() {
		opts = append(opts, billing.WithGuard(cache.NewActivationGuard(cache.GetClient())))
	}
	svc := billing.NewService(
		repository.GetGlobalFactory().GetRepositories(),
		billing.NewShopifyClient(cfg),
		cfg,
		opts...,
	)
	billingController = NewBillingController(svc)
}

// GetBillingController returns the global billing controller instance
func GetBillingController() *BillingController {
	if billingController == nil {
		InitializeBillingController()
	}
	return billingController
}
