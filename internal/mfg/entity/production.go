package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionStatus 生产状态
const (
	ProductionStatusInProgress = "IN_PROGRESS"
	ProductionStatusCompleted  = "COMPLETED"
)

// ValidProductionStatus 校验生产状态
func ValidProductionStatus(s string) bool {
	return s == ProductionStatusInProgress || s == ProductionStatusCompleted
}

// Production 生产批次
type Production struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	ProductType string          `json:"product_type" gorm:"size:128;not null;index"`
	StartTime   time.Time       `json:"start_time" gorm:"not null"`
	EndTime     *time.Time      `json:"end_time"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null;default:0"`
	Quantity    int             `json:"quantity" gorm:"not null;default:1"`
	Status      string          `json:"status" gorm:"size:20;not null;default:IN_PROGRESS"`
	UserID      string          `json:"user_id" gorm:"size:36;not null;index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Production) TableName() string {
	return "mfg_productions"
}
