package repository

import (
	"time"

	"github.com/ManuelReschke/ShopifyBilling/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type chargeRepository struct {
	db *gorm.DB
}

// NewChargeRepository creates a new charge repository instance
func NewChargeRepository(db *gorm.DB) ChargeRepository {
	return &chargeRepository{db: db}
}

func (r *chargeRepository) Create(charge *models.Charge) error {
	return r.db.Create(charge).Error
}

// Upsert inserts the charge or updates the row with the same remote charge id.
func (r *chargeRepository) Upsert(charge *models.Charge) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "charge_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"type",
			"status",
			"name",
			"price",
			"capped_amount",
			"terms",
			"test",
			"trial_days",
			"trial_ends_on",
			"billing_on",
			"activated_on",
			"cancelled_on",
			"shop_id",
			"plan_id",
			"raw_payload",
			"updated_at",
		}),
	}).Create(charge).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("charge_id = ?", charge.ChargeID).First(charge).Error
}

func (r *chargeRepository) GetByChargeID(chargeID int64) (*models.Charge, error) {
	var charge models.Charge
	err := r.db.Where("charge_id = ?", chargeID).First(&charge).Error
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

func (r *chargeRepository) GetByChargeIDForShop(chargeID int64, shopID uint) (*models.Charge, error) {
	var charge models.Charge
	err := r.db.Where("charge_id = ? AND shop_id = ?", chargeID, shopID).First(&charge).Error
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

// FindActiveRecurring returns the most recent accepted recurring charge for
// the shop that belongs to the given plan.
func (r *chargeRepository) FindActiveRecurring(shopID, planID uint) (*models.Charge, error) {
	var charge models.Charge
	err := r.db.
		Where("shop_id = ? AND plan_id = ? AND type = ? AND status = ?", shopID, planID, models.ChargeTypeRecurring, models.ChargeStatusAccepted).
		Order("created_at DESC").Order("id DESC").
		First(&charge).Error
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

// FindLatestActive returns the newest accepted recurring or one-time charge
// regardless of plan.
func (r *chargeRepository) FindLatestActive(shopID uint) (*models.Charge, error) {
	var charge models.Charge
	err := r.db.
		Where("shop_id = ? AND type IN ? AND status = ?", shopID, []string{models.ChargeTypeRecurring, models.ChargeTypeOneTime}, models.ChargeStatusAccepted).
		Order("created_at DESC").Order("id DESC").
		First(&charge).Error
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

// CancelActive marks every accepted recurring or one-time charge of the shop
// as cancelled, except the one with exceptChargeID.
func (r *chargeRepository) CancelActive(shopID uint, exceptChargeID int64, at time.Time) (int64, error) {
	tx := r.db.Model(&models.Charge{}).
		Where("shop_id = ? AND charge_id <> ? AND type IN ? AND status = ?", shopID, exceptChargeID, []string{models.ChargeTypeRecurring, models.ChargeTypeOneTime}, models.ChargeStatusAccepted).
		Updates(map[string]interface{}{
			"status":       models.ChargeStatusCancelled,
			"cancelled_on": &at,
		})
	return tx.RowsAffected, tx.Error
}

func (r *chargeRepository) UpdateStatus(chargeID int64, status string, at time.Time) error {
	updates := map[string]interface{}{"status": status}
	if status == models.ChargeStatusCancelled {
		updates["cancelled_on"] = &at
	}
	return r.db.Model(&models.Charge{}).Where("charge_id = ?", chargeID).Updates(updates).Error
}

func (r *chargeRepository) ListByShop(shopID uint) ([]models.Charge, error) {
	var charges []models.Charge
	err := r.db.Where("shop_id = ?", shopID).Order("id ASC").Find(&charges).Error
	return charges, err
}
