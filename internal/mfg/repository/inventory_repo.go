package repository

import (
	"context"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) Create(ctx context.Context, inv *entity.InventoryData) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

// CreateIfAbsent 按 type 插入，已存在时不做任何修改。返回是否插入
func (r *InventoryRepository) CreateIfAbsent(ctx context.Context, inv *entity.InventoryData) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "type"}}, DoNothing: true}).
		Create(inv)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *InventoryRepository) FindByID(ctx context.Context, id string) (*entity.InventoryData, error) {
	var inv entity.InventoryData
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

// FindByIDForUpdate 加行锁读取，需在事务内调用
func (r *InventoryRepository) FindByIDForUpdate(ctx context.Context, id string) (*entity.InventoryData, error) {
	var inv entity.InventoryData
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&inv).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

// FindByTypeForUpdate 按类型加锁读取库存
func (r *InventoryRepository) FindByTypeForUpdate(ctx context.Context, typ string) (*entity.InventoryData, error) {
	var inv entity.InventoryData
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("type = ?", typ).First(&inv).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (r *InventoryRepository) FindByType(ctx context.Context, typ string) (*entity.InventoryData, error) {
	var inv entity.InventoryData
	if err := r.db.WithContext(ctx).Where("type = ?", typ).First(&inv).Error; err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (r *InventoryRepository) List(ctx context.Context) ([]entity.InventoryData, error) {
	var items []entity.InventoryData
	err := r.db.WithContext(ctx).Order("type ASC").Find(&items).Error
	return items, err
}

func (r *InventoryRepository) Update(ctx context.Context, inv *entity.InventoryData) error {
	return r.db.WithContext(ctx).Save(inv).Error
}

func (r *InventoryRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.InventoryData{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *InventoryRepository) CreateTransaction(ctx context.Context, tx *entity.InventoryTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *InventoryRepository) ListTransactions(ctx context.Context, inventoryID string) ([]entity.InventoryTransaction, error) {
	var txs []entity.InventoryTransaction
	err := r.db.WithContext(ctx).
		Where("inventory_id = ?", inventoryID).
		Order("created_at DESC").Find(&txs).Error
	return txs, err
}

func (r *InventoryRepository) DeleteTransactions(ctx context.Context, inventoryID string) error {
	return r.db.WithContext(ctx).Where("inventory_id = ?", inventoryID).Delete(&entity.InventoryTransaction{}).Error
}
