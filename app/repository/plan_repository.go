package repository

import (
	"github.com/ManuelReschke/ShopifyBilling/app/models"
	"gorm.io/gorm"
)

type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(plan *models.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	return r.db.Create(plan).Error
}

func (r *planRepository) GetByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetOnInstall returns the plan flagged for billing right after install.
// When several are flagged the oldest one wins.
func (r *planRepository) GetOnInstall() (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("on_install = ?", true).Order("id ASC").First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
