package shopcontext

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ShopifyBilling/app/models"
)

// ShopContext is the shop identity attached to a request by the session
// middleware.
type ShopContext struct {
	Domain        string `json:"domain"`
	Host          string `json:"host"`
	Authenticated bool   `json:"authenticated"`
}

// GetShopContext retrieves the shop context from fiber context.
// Returns an anonymous context if none is set
func GetShopContext(c *fiber.Ctx) ShopContext {
	if ctx, ok := c.Locals(LocalsKey).(ShopContext); ok {
		return ctx
	}
	return ShopContext{}
}

// SetShopContext stores the shop context for the rest of the request.
func SetShopContext(c *fiber.Ctx, sc ShopContext) {
	c.Locals(LocalsKey, sc)
}

// Resolve returns the shop domain for the request: an explicit shop
// parameter wins over the session. The boolean is false when neither is set.
func Resolve(c *fiber.Ctx) (string, bool) {
	explicit := c.Query(ParamShop)
	if explicit == "" && c.Method() == fiber.MethodPost {
		explicit = c.FormValue(ParamShop)
	}
	if d := models.NormalizeShopDomain(explicit); d != "" {
		return d, true
	}
	if sc := GetShopContext(c); sc.Authenticated && sc.Domain != "" {
		return sc.Domain, true
	}
	return "", false
}

// Authenticated returns the shop domain of a signed launch or session only.
// Query and form parameters are ignored.
func Authenticated(c *fiber.Ctx) (string, bool) {
	sc := GetShopContext(c)
	if !sc.Authenticated || sc.Domain == "" {
		return "", false
	}
	return sc.Domain, true
}

// Host returns the host parameter, falling back to the session value.
func Host(c *fiber.Ctx) string {
	if h := strings.TrimSpace(c.Query(ParamHost)); h != "" {
		return h
	}
	return GetShopContext(c).Host
}
