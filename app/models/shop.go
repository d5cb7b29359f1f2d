package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Shop is an installed store. Name holds the myshopify domain.
type Shop struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(191);uniqueIndex;not null" json:"name"`
	Email       string         `gorm:"type:varchar(200);default:''" json:"email"`
	AccessToken string         `gorm:"type:text" json:"-"`
	PlanID      *uint          `gorm:"index;default:null" json:"plan_id"`
	Plan        *Plan          `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Freemium    bool           `gorm:"default:false" json:"freemium"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Domain returns the normalized shop domain.
func (s *Shop) Domain() string {
	return NormalizeShopDomain(s.Name)
}

// HasPlan reports whether a plan is assigned to the shop.
func (s *Shop) HasPlan() bool {
	return s.PlanID != nil && *s.PlanID != 0
}

// NormalizeShopDomain lowercases the domain and strips scheme, path and port.
func NormalizeShopDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.Index(d, ":"); i >= 0 {
		d = d[:i]
	}
	return d
}
