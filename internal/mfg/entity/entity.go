package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有生产管理表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 基础数据
		&User{},

		// 生产
		&Production{},

		// 库存
		&InventoryData{},
		&InventoryTransaction{},

		// 成品与销售
		&FinishedProduct{},
		&SalesReport{},
	)
}
