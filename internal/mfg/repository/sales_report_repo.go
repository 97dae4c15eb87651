package repository

import (
	"context"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SalesReportRepository struct {
	db *gorm.DB
}

func NewSalesReportRepository(db *gorm.DB) *SalesReportRepository {
	return &SalesReportRepository{db: db}
}

func (r *SalesReportRepository) Create(ctx context.Context, sr *entity.SalesReport) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(sr).Error
}

func (r *SalesReportRepository) FindByID(ctx context.Context, id string) (*entity.SalesReport, error) {
	var sr entity.SalesReport
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&sr).Error; err != nil {
		return nil, notFound(err)
	}
	return &sr, nil
}

func (r *SalesReportRepository) List(ctx context.Context) ([]entity.SalesReport, error) {
	var items []entity.SalesReport
	err := r.db.WithContext(ctx).Order("sales_date DESC").Find(&items).Error
	return items, err
}

func (r *SalesReportRepository) ListByProductType(ctx context.Context, productType string) ([]entity.SalesReport, error) {
	var items []entity.SalesReport
	err := r.db.WithContext(ctx).
		Where("product_type = ?", productType).
		Order("sales_date DESC").Find(&items).Error
	return items, err
}

func (r *SalesReportRepository) ListByFinishedProductID(ctx context.Context, finishedProductID string) ([]entity.SalesReport, error) {
	var items []entity.SalesReport
	err := r.db.WithContext(ctx).Where("finished_product_id = ?", finishedProductID).Find(&items).Error
	return items, err
}

// DetachFinishedProduct 成品删除时保留销售记录，仅解除关联
func (r *SalesReportRepository) DetachFinishedProduct(ctx context.Context, finishedProductID string) error {
	return r.db.WithContext(ctx).Model(&entity.SalesReport{}).
		Where("finished_product_id = ?", finishedProductID).
		Update("finished_product_id", nil).Error
}

func (r *SalesReportRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.SalesReport{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
