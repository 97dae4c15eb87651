package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesReport 销售记录
type SalesReport struct {
	ID                string          `json:"id" gorm:"primaryKey;size:36"`
	ProductType       string          `json:"product_type" gorm:"size:128;not null;index"`
	SalesDate         time.Time       `json:"sales_date" gorm:"not null"`
	QuantitySold      int             `json:"quantity_sold" gorm:"not null"`
	TotalRevenue      decimal.Decimal `json:"total_revenue" gorm:"type:decimal(14,2);not null;default:0"`
	FinishedProductID *string         `json:"finished_product_id" gorm:"size:36;index"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	FinishedProduct *FinishedProduct `json:"finished_product,omitempty" gorm:"foreignKey:FinishedProductID;constraint:OnDelete:SET NULL"`
}

func (SalesReport) TableName() string {
	return "mfg_sales_reports"
}
