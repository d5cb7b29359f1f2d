package repository

import (
	"time"

	"github.com/ManuelReschke/ShopifyBilling/app/models"
	"gorm.io/gorm"
)

// ShopRepository defines the interface for shop-related database operations
type ShopRepository interface {
	Create(shop *models.Shop) error
	GetByID(id uint) (*models.Shop, error)
	GetByDomain(domain string) (*models.Shop, error)
	AssignPlan(shopID uint, planID *uint) error
}

// PlanRepository defines the interface for plan lookups. Plans are read-only
// for the billing flow; Create exists for seeding.
type PlanRepository interface {
	Create(plan *models.Plan) error
	GetByID(id uint) (*models.Plan, error)
	GetOnInstall() (*models.Plan, error)
}

// ChargeRepository defines the interface for charge-related database operations
type ChargeRepository interface {
	Create(charge *models.Charge) error
	Upsert(charge *models.Charge) error
	GetByChargeID(chargeID int64) (*models.Charge, error)
	GetByChargeIDForShop(chargeID int64, shopID uint) (*models.Charge, error)
	FindActiveRecurring(shopID, planID uint) (*models.Charge, error)
	FindLatestActive(shopID uint) (*models.Charge, error)
	CancelActive(shopID uint, exceptChargeID int64, at time.Time) (int64, error)
	UpdateStatus(chargeID int64, status string, at time.Time) error
	ListByShop(shopID uint) ([]models.Charge, error)
}

// WebhookEventRepository persists webhook deliveries idempotently.
type WebhookEventRepository interface {
	CreateIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkProcessed(id uint, processingError string) error
}

// Repositories holds all repository instances
type Repositories struct {
	db *gorm.DB

	Shop    ShopRepository
	Plan    PlanRepository
	Charge  ChargeRepository
	Webhook WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:      db,
		Shop:    NewShopRepository(db),
		Plan:    NewPlanRepository(db),
		Charge:  NewChargeRepository(db),
		Webhook: NewWebhookEventRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single database transaction.
// The transaction is rolled back when fn returns an error.
func (r *Repositories) Transaction(fn func(tx *Repositories) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
