package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
)

// Repositories 生产管理仓库集合
type Repositories struct {
	User            *UserRepository
	Production      *ProductionRepository
	Inventory       *InventoryRepository
	FinishedProduct *FinishedProductRepository
	SalesReport     *SalesReportRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:            NewUserRepository(db),
		Production:      NewProductionRepository(db),
		Inventory:       NewInventoryRepository(db),
		FinishedProduct: NewFinishedProductRepository(db),
		SalesReport:     NewSalesReportRepository(db),
	}
}

// WithTx 返回绑定到事务的仓库集合
func (r *Repositories) WithTx(tx *gorm.DB) *Repositories {
	return NewRepositories(tx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
