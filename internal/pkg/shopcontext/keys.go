package shopcontext

// Shared Locals/session keys used across controllers and middlewares
const (
	LocalsKey = "SHOP_CONTEXT"
	KeyShop   = "shop_domain"
	KeyHost   = "host"
	ParamShop = "shop"
	ParamHost = "host"
	ParamHmac = "hmac"
)
