package repository

import (
	"context"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductionRepository struct {
	db *gorm.DB
}

func NewProductionRepository(db *gorm.DB) *ProductionRepository {
	return &ProductionRepository{db: db}
}

func (r *ProductionRepository) Create(ctx context.Context, p *entity.Production) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *ProductionRepository) FindByID(ctx context.Context, id string) (*entity.Production, error) {
	var p entity.Production
	if err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindByIDForUpdate 加行锁读取，需在事务内调用
func (r *ProductionRepository) FindByIDForUpdate(ctx context.Context, id string) (*entity.Production, error) {
	var p entity.Production
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *ProductionRepository) List(ctx context.Context) ([]entity.Production, error) {
	var items []entity.Production
	err := r.db.WithContext(ctx).Preload("User").Order("start_time DESC").Find(&items).Error
	return items, err
}

func (r *ProductionRepository) ListByUserID(ctx context.Context, userID string) ([]entity.Production, error) {
	var items []entity.Production
	err := r.db.WithContext(ctx).Preload("User").
		Where("user_id = ?", userID).
		Order("start_time DESC").Find(&items).Error
	return items, err
}

func (r *ProductionRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.Production{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *ProductionRepository) Update(ctx context.Context, p *entity.Production) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

func (r *ProductionRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Production{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
