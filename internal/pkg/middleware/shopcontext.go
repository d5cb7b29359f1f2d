package middleware

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ShopifyBilling/app/models"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/session"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/shopcontext"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/signature"
)

// ShopContextMiddleware loads the shop identity for every request. A request
// signed by the platform (shop + hmac query) starts or refreshes the session;
// otherwise the shop stored in the session is used.
func ShopContextMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if session.GetSessionStore() == nil {
			shopcontext.SetShopContext(c, shopcontext.ShopContext{})
			return c.Next()
		}

		if domain, host, ok := signedLaunch(c, secret); ok {
			err := session.SetSessionValues(c, map[string]string{
				shopcontext.KeyShop: domain,
				shopcontext.KeyHost: host,
			})
			if err != nil {
				fiberlog.Warnf("[ShopContext] Failed to save session for %s: %v", domain, err)
			}
			shopcontext.SetShopContext(c, shopcontext.ShopContext{Domain: domain, Host: host, Authenticated: true})
			return c.Next()
		}

		domain := session.GetSessionValue(c, shopcontext.KeyShop)
		host := session.GetSessionValue(c, shopcontext.KeyHost)
		shopcontext.SetShopContext(c, shopcontext.ShopContext{
			Domain:        domain,
			Host:          host,
			Authenticated: domain != "",
		})
		return c.Next()
	}
}

func signedLaunch(c *fiber.Ctx, secret string) (string, string, bool) {
	if secret == "" || c.Query(shopcontext.ParamHmac) == "" || c.Query(shopcontext.ParamShop) == "" {
		return "", "", false
	}
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return "", "", false
	}
	if !signature.VerifyQuery(values, []byte(secret)) {
		return "", "", false
	}
	return models.NormalizeShopDomain(values.Get(shopcontext.ParamShop)), values.Get(shopcontext.ParamHost), true
}
