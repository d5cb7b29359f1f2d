package models

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	ChargeTypeRecurring = "recurring"
	ChargeTypeOneTime   = "one_time"
	ChargeTypeUsage     = "usage"
	ChargeTypeCredit    = "credit"
)

const (
	ChargeStatusPending   = "pending"
	ChargeStatusAccepted  = "accepted"
	ChargeStatusDeclined  = "declined"
	ChargeStatusCancelled = "cancelled"
	ChargeStatusExpired   = "expired"
	ChargeStatusFrozen    = "frozen"
)

var ErrNegativePrice = errors.New("price must not be negative")

// Charge records a billing transaction between a shop and the platform.
type Charge struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	ChargeID        int64           `gorm:"not null;uniqueIndex" json:"charge_id"`
	Type            string          `gorm:"type:varchar(20);not null;index:idx_charges_shop_type_status,priority:2" json:"type"`
	Status          string          `gorm:"type:varchar(20);not null;default:'pending';index:idx_charges_shop_type_status,priority:3" json:"status"`
	Name            string          `gorm:"type:varchar(150);default:''" json:"name"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CappedAmount    decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"capped_amount"`
	Terms           string          `gorm:"type:varchar(255);default:''" json:"terms"`
	Description     string          `gorm:"type:varchar(255);default:'';index" json:"description"`
	Test            bool            `gorm:"default:false" json:"test"`
	TrialDays       int             `gorm:"default:0" json:"trial_days"`
	TrialEndsOn     *time.Time      `gorm:"type:timestamp;default:null" json:"trial_ends_on,omitempty"`
	BillingOn       *time.Time      `gorm:"type:timestamp;default:null" json:"billing_on,omitempty"`
	ActivatedOn     *time.Time      `gorm:"type:timestamp;default:null" json:"activated_on,omitempty"`
	CancelledOn     *time.Time      `gorm:"type:timestamp;default:null" json:"cancelled_on,omitempty"`
	ExpiresOn       *time.Time      `gorm:"type:timestamp;default:null" json:"expires_on,omitempty"`
	ReferenceCharge *int64          `gorm:"default:null;index" json:"reference_charge,omitempty"`
	ShopID          uint            `gorm:"not null;index:idx_charges_shop_type_status,priority:1" json:"shop_id"`
	PlanID          *uint           `gorm:"index;default:null" json:"plan_id"`
	RawPayload      datatypes.JSON  `json:"-"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Charge) IsRecurring() bool {
	return c.Type == ChargeTypeRecurring
}

func (c *Charge) IsActive() bool {
	return c.Status == ChargeStatusAccepted
}

// IsTrial reports whether the charge is still inside its trial window.
func (c *Charge) IsTrial(now time.Time) bool {
	return c.TrialEndsOn != nil && now.Before(*c.TrialEndsOn)
}

// RemainingTrialDays returns the whole days left in the trial, rounding up
// partial days. Zero when there is no ongoing trial.
func (c *Charge) RemainingTrialDays(now time.Time) int {
	if !c.IsTrial(now) {
		return 0
	}
	left := c.TrialEndsOn.Sub(now).Hours() / 24
	return int(math.Ceil(left))
}

// IsOngoing reports whether the charge is accepted and not cancelled.
func (c *Charge) IsOngoing() bool {
	return c.IsActive() && c.CancelledOn == nil
}
