package entity

import (
	"time"
)

// 库存变动原因
const (
	TxReasonManualIn     = "MANUAL_IN"     // 手工入库
	TxReasonAdjust       = "ADJUST"        // 库存调整
	TxReasonProductionIn = "PRODUCTION_IN" // 生产入库
	TxReasonSalesOut     = "SALES_OUT"     // 销售出库
)

// 关联单据类型
const (
	RefTypeProduction      = "PRODUCTION"
	RefTypeFinishedProduct = "FINISHED_PRODUCT"
	RefTypeManual          = "MANUAL"
)

// InventoryData 库存台账，按类型唯一
type InventoryData struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Type      string    `json:"type" gorm:"size:128;not null;uniqueIndex"`
	Quantity  int       `json:"quantity" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (InventoryData) TableName() string {
	return "mfg_inventory"
}

// InventoryTransaction 库存变动记录
type InventoryTransaction struct {
	ID            string    `json:"id" gorm:"primaryKey;size:36"`
	InventoryID   string    `json:"inventory_id" gorm:"size:36;not null;index"`
	Type          string    `json:"type" gorm:"size:128;not null"`
	Quantity      int       `json:"quantity" gorm:"not null"` // 正=入，负=出
	Reason        string    `json:"reason" gorm:"size:20;not null"`
	ReferenceType string    `json:"reference_type" gorm:"size:32;not null"`
	ReferenceID   string    `json:"reference_id" gorm:"size:36"`
	CreatedAt     time.Time `json:"created_at"`
}

func (InventoryTransaction) TableName() string {
	return "mfg_inventory_transactions"
}
