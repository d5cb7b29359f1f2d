package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	PlanTypeRecurring = "recurring"
	PlanTypeOneTime   = "one_time"
	PlanTypeUsage     = "usage"
)

// Plan describes what a shop gets billed for. Plans are managed outside of
// this service and are read-only here.
type Plan struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Type         string          `gorm:"type:varchar(20);not null;default:'recurring';index" json:"type" validate:"oneof=recurring one_time usage"`
	Name         string          `gorm:"type:varchar(150);not null" json:"name" validate:"required,max=150"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CappedAmount decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"capped_amount"`
	Terms        string          `gorm:"type:varchar(255);default:''" json:"terms"`
	TrialDays    int             `gorm:"default:0" json:"trial_days" validate:"gte=0"`
	Test         bool            `gorm:"default:false" json:"test"`
	OnInstall    bool            `gorm:"default:false;index" json:"on_install"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Plan) Validate() error {
	v := validator.New()
	if err := v.Struct(p); err != nil {
		return err
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

func (p *Plan) IsRecurring() bool {
	return p.Type == PlanTypeRecurring || p.Type == PlanTypeUsage
}

func (p *Plan) IsOneTime() bool {
	return p.Type == PlanTypeOneTime
}

// IsCapped reports whether the plan allows usage charges on top of the
// recurring price.
func (p *Plan) IsCapped() bool {
	return p.CappedAmount.IsPositive()
}

// HasTrial reports whether the plan grants trial days.
func (p *Plan) HasTrial() bool {
	return p.TrialDays > 0
}

// ChargeType maps the plan type onto the charge type that bills it.
func (p *Plan) ChargeType() string {
	if p.IsOneTime() {
		return ChargeTypeOneTime
	}
	return ChargeTypeRecurring
}
