package repository

import (
	"context"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FinishedProductRepository struct {
	db *gorm.DB
}

func NewFinishedProductRepository(db *gorm.DB) *FinishedProductRepository {
	return &FinishedProductRepository{db: db}
}

func (r *FinishedProductRepository) Create(ctx context.Context, fp *entity.FinishedProduct) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(fp).Error
}

func (r *FinishedProductRepository) FindByID(ctx context.Context, id string) (*entity.FinishedProduct, error) {
	var fp entity.FinishedProduct
	err := r.db.WithContext(ctx).Preload("Production.User").Where("id = ?", id).First(&fp).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &fp, nil
}

// FindByIDForUpdate 加行锁读取，需在事务内调用
func (r *FinishedProductRepository) FindByIDForUpdate(ctx context.Context, id string) (*entity.FinishedProduct, error) {
	var fp entity.FinishedProduct
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&fp).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &fp, nil
}

func (r *FinishedProductRepository) List(ctx context.Context) ([]entity.FinishedProduct, error) {
	var items []entity.FinishedProduct
	err := r.db.WithContext(ctx).Preload("Production.User").Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *FinishedProductRepository) ListByProductionID(ctx context.Context, productionID string) ([]entity.FinishedProduct, error) {
	var items []entity.FinishedProduct
	err := r.db.WithContext(ctx).Where("production_id = ?", productionID).Find(&items).Error
	return items, err
}

func (r *FinishedProductRepository) Update(ctx context.Context, fp *entity.FinishedProduct) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(fp).Error
}

// DetachProduction 生产批次删除时解除成品关联
func (r *FinishedProductRepository) DetachProduction(ctx context.Context, productionID string) error {
	return r.db.WithContext(ctx).Model(&entity.FinishedProduct{}).
		Where("production_id = ?", productionID).
		Update("production_id", nil).Error
}

func (r *FinishedProductRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.FinishedProduct{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
