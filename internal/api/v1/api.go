package apiv1

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Pong is the ping response.
type Pong struct {
	Ping string `json:"ping"`
}

// ChargeResource is the public shape of a stored charge.
type ChargeResource struct {
	ChargeID        int64           `json:"charge_id"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	Name            string          `json:"name,omitempty"`
	Description     string          `json:"description,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Test            bool            `json:"test"`
	TrialEndsOn     *time.Time      `json:"trial_ends_on,omitempty"`
	BillingOn       *time.Time      `json:"billing_on,omitempty"`
	ActivatedOn     *time.Time      `json:"activated_on,omitempty"`
	CancelledOn     *time.Time      `json:"cancelled_on,omitempty"`
	ReferenceCharge *int64          `json:"reference_charge,omitempty"`
	PlanID          *uint           `json:"plan_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ShopPlan is the current plan of a shop.
type ShopPlan struct {
	Shop           string          `json:"shop"`
	PlanID         *uint           `json:"plan_id"`
	PlanName       string          `json:"plan_name,omitempty"`
	Price          decimal.Decimal `json:"price"`
	TrialDaysLeft  int             `json:"trial_days_left"`
	ActiveChargeID *int64          `json:"active_charge_id,omitempty"`
	Freemium       bool            `json:"freemium"`
}

// ServerInterface is implemented by the v1 API.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	GetShopPlan(c *fiber.Ctx) error
	ListShopCharges(c *fiber.Ctx) error
}

// RegisterHandlers mounts the v1 endpoints on router. Shop-scoped
// endpoints run behind the given middlewares.
func RegisterHandlers(router fiber.Router, si ServerInterface, shopMiddlewares ...fiber.Handler) {
	router.Get("/ping", si.GetPing)

	shop := router.Group("/shop", shopMiddlewares...)
	shop.Get("/plan", si.GetShopPlan)
	shop.Get("/charges", si.ListShopCharges)
}
