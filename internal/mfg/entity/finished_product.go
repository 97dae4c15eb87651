package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinishedProductStatus 成品状态
const (
	FinishedProductStatusAvailable = "AVAILABLE"
	FinishedProductStatusSold      = "SOLD"
)

// ValidFinishedProductStatus 校验成品状态
func ValidFinishedProductStatus(s string) bool {
	return s == FinishedProductStatusAvailable || s == FinishedProductStatusSold
}

// FinishedProduct 可销售成品
type FinishedProduct struct {
	ID           string          `json:"id" gorm:"primaryKey;size:36"`
	ProductType  string          `json:"product_type" gorm:"size:128;not null;index"`
	Quantity     int             `json:"quantity" gorm:"not null"`
	UnitPrice    decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null;default:0"`
	TotalCost    decimal.Decimal `json:"total_cost" gorm:"type:decimal(14,2);not null;default:0"`
	Status       string          `json:"status" gorm:"size:20;not null;default:AVAILABLE"`
	ProductionID *string         `json:"production_id" gorm:"size:36;index"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	Production *Production `json:"production,omitempty" gorm:"foreignKey:ProductionID;constraint:OnDelete:SET NULL"`
}

func (FinishedProduct) TableName() string {
	return "mfg_finished_products"
}
