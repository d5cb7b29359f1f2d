package apiv1

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ShopifyBilling/app/models"
	"github.com/ManuelReschke/ShopifyBilling/app/repository"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/billing"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/shopcontext"
)

// APIServer implements the ServerInterface
type APIServer struct {
	repos *repository.Repositories
	now   func() time.Time
}

// NewAPIServer creates a new API server instance
func NewAPIServer(repos *repository.Repositories) *APIServer {
	return &APIServer{repos: repos, now: time.Now}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Pong{Ping: "pong"})
}

// GetShopPlan returns the plan the current shop is billed for.
func (s *APIServer) GetShopPlan(c *fiber.Ctx) error {
	shop, err := s.currentShop(c)
	if err != nil {
		return err
	}

	out := ShopPlan{Shop: shop.Domain(), PlanID: shop.PlanID, Freemium: shop.Freemium}
	if shop.Plan != nil {
		out.PlanName = shop.Plan.Name
		out.Price = shop.Plan.Price
	}
	if charge, err := s.repos.Charge.FindLatestActive(shop.ID); err == nil {
		id := charge.ChargeID
		out.ActiveChargeID = &id
		out.TrialDaysLeft = charge.RemainingTrialDays(s.now())
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return c.JSON(out)
}

// ListShopCharges returns every charge stored for the current shop.
func (s *APIServer) ListShopCharges(c *fiber.Ctx) error {
	shop, err := s.currentShop(c)
	if err != nil {
		return err
	}
	charges, err := s.repos.Charge.ListByShop(shop.ID)
	if err != nil {
		return err
	}

	out := make([]ChargeResource, 0, len(charges))
	for _, ch := range charges {
		out = append(out, toChargeResource(ch))
	}
	return c.JSON(fiber.Map{"charges": out})
}

func (s *APIServer) currentShop(c *fiber.Ctx) (*models.Shop, error) {
	domain, ok := shopcontext.Authenticated(c)
	if !ok {
		return nil, billing.ErrShopNotAuthenticated
	}
	shop, err := s.repos.Shop.GetByDomain(domain)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billing.ErrShopNotFound
	}
	return shop, err
}

func toChargeResource(ch models.Charge) ChargeResource {
	return ChargeResource{
		ChargeID:        ch.ChargeID,
		Type:            ch.Type,
		Status:          ch.Status,
		Name:            ch.Name,
		Description:     ch.Description,
		Price:           ch.Price,
		Test:            ch.Test,
		TrialEndsOn:     ch.TrialEndsOn,
		BillingOn:       ch.BillingOn,
		ActivatedOn:     ch.ActivatedOn,
		CancelledOn:     ch.CancelledOn,
		ReferenceCharge: ch.ReferenceCharge,
		PlanID:          ch.PlanID,
		CreatedAt:       ch.CreatedAt,
	}
}
