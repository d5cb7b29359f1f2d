package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/billing"
)

// ErrorHandler maps billing errors onto HTTP responses. Anything unknown is
// treated as an internal error.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, code := errorStatus(err)
	if status >= fiber.StatusInternalServerError {
		fiberlog.Errorf("[HTTP] %s %s failed: %v", c.Method(), c.Path(), err)
	} else {
		fiberlog.Warnf("[HTTP] %s %s rejected: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": err.Error(),
	})
}

func errorStatus(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.Is(err, billing.ErrMissingShopDomain):
		return fiber.StatusBadRequest, "missing_shop_domain"
	case errors.Is(err, billing.ErrPlanMismatch):
		return fiber.StatusBadRequest, "plan_mismatch"
	case errors.Is(err, billing.ErrShopNotAuthenticated):
		return fiber.StatusUnauthorized, "shop_not_authenticated"
	case errors.Is(err, billing.ErrShopNotFound):
		return fiber.StatusNotFound, "shop_not_found"
	case errors.Is(err, billing.ErrInvalidSignature):
		return fiber.StatusForbidden, "invalid_signature"
	case errors.Is(err, billing.ErrNoActiveCharge):
		return fiber.StatusConflict, "no_active_charge"
	case errors.Is(err, billing.ErrActivationInProgress):
		return fiber.StatusConflict, "activation_in_progress"
	case errors.Is(err, billing.ErrChargeNotAccepted):
		return fiber.StatusPaymentRequired, "charge_not_accepted"
	case errors.Is(err, billing.ErrBillingAPI):
		return fiber.StatusBadGateway, "billing_api_failed"
	case errors.Is(err, billing.ErrNoPlan):
		return fiber.StatusInternalServerError, "no_plan_configured"
	case errors.As(err, &fe):
		return fe.Code, "request_failed"
	default:
		return fiber.StatusInternalServerError, "internal_error"
	}
}
