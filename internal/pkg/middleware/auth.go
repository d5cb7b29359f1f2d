package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/billing"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/shopcontext"
)

// RequireShop stops requests that carry no shop identity. The error is
// returned to the error handler; there is nowhere sensible to redirect to.
func RequireShop(c *fiber.Ctx) error {
	if _, ok := shopcontext.Resolve(c); !ok {
		return billing.ErrMissingShopDomain
	}
	return c.Next()
}

// RequireAuthenticatedShop lets through only requests whose shop was
// established by a signed launch or the session. Used for endpoints that
// expose stored billing data.
func RequireAuthenticatedShop(c *fiber.Ctx) error {
	if _, ok := shopcontext.Authenticated(c); !ok {
		return billing.ErrShopNotAuthenticated
	}
	return c.Next()
}
