package repository

import (
	"github.com/ManuelReschke/ShopifyBilling/app/models"
	"gorm.io/gorm"
)

// shopRepository implements the ShopRepository interface
type shopRepository struct {
	db *gorm.DB
}

// NewShopRepository creates a new shop repository instance
func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) Create(shop *models.Shop) error {
	shop.Name = models.NormalizeShopDomain(shop.Name)
	return r.db.Create(shop).Error
}

func (r *shopRepository) GetByID(id uint) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.Preload("Plan").First(&shop, id).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// GetByDomain finds a shop by its myshopify domain
func (r *shopRepository) GetByDomain(domain string) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.Preload("Plan").Where("name = ?", models.NormalizeShopDomain(domain)).First(&shop).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// AssignPlan sets the shop's current plan. A nil planID clears it.
func (r *shopRepository) AssignPlan(shopID uint, planID *uint) error {
	return r.db.Model(&models.Shop{}).Where("id = ?", shopID).Update("plan_id", planID).Error
}
