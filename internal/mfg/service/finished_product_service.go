package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/entity"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/events"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type FinishedProductService struct {
	base
}

// FinishedProductRequest 创建 / 更新成品请求
type FinishedProductRequest struct {
	ProductType  string           `json:"product_type" binding:"required,max=128"`
	Quantity     *int             `json:"quantity" binding:"required,gt=0"`
	Status       string           `json:"status" binding:"required,oneof=AVAILABLE SOLD"`
	UnitPrice    *decimal.Decimal `json:"unit_price" binding:"required"`
	TotalCost    *decimal.Decimal `json:"total_cost"`
	ProductionID *string          `json:"production_id"`
}

func (req FinishedProductRequest) validate() error {
	verr := &ValidationError{}
	checkProductType(verr, "product_type", req.ProductType)
	if req.Quantity == nil || *req.Quantity <= 0 {
		verr.add("quantity", "must be greater than 0")
	}
	if !entity.ValidFinishedProductStatus(req.Status) {
		verr.add("status", "must be one of AVAILABLE, SOLD")
	}
	if req.UnitPrice == nil {
		verr.add("unit_price", "is required")
	} else {
		checkMoney(verr, "unit_price", *req.UnitPrice, maxUnitPrice)
	}
	if req.TotalCost != nil {
		checkMoney(verr, "total_cost", *req.TotalCost, maxAmount)
	}
	if len(verr.Fields) == 0 && lineTotal(*req.UnitPrice, *req.Quantity).GreaterThanOrEqual(maxAmount) {
		verr.add("quantity", "unit_price * quantity must be less than "+maxAmount.String())
	}
	return verr.orNil()
}

// FinishedProductSold 售出事件负载
type FinishedProductSold struct {
	FinishedProduct *entity.FinishedProduct `json:"finished_product"`
	SalesReport     *entity.SalesReport     `json:"sales_report"`
	Inventory       *entity.InventoryData   `json:"inventory"`
}

func (s *FinishedProductService) List(ctx context.Context) ([]entity.FinishedProduct, error) {
	return s.repos.FinishedProduct.List(ctx)
}

func (s *FinishedProductService) Get(ctx context.Context, id string) (*entity.FinishedProduct, error) {
	return s.repos.FinishedProduct.FindByID(ctx, id)
}

// Create 直接以 SOLD 创建时先入账为 AVAILABLE，再在同一事务内售出
func (s *FinishedProductService) Create(ctx context.Context, req FinishedProductRequest) (*entity.FinishedProduct, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	productionID, err := s.checkProduction(ctx, req.ProductionID)
	if err != nil {
		return nil, err
	}

	fp := &entity.FinishedProduct{
		ID:           uuid.New().String(),
		Status:       entity.FinishedProductStatusAvailable,
		ProductionID: productionID,
	}
	applyFinishedProduct(fp, req)

	var sold *FinishedProductSold
	err = s.inTx(ctx, func(r *repository.Repositories) error {
		if err := r.FinishedProduct.Create(ctx, fp); err != nil {
			return fmt.Errorf("create finished product: %w", err)
		}
		if req.Status == entity.FinishedProductStatusSold {
			var err error
			sold, err = sellFinishedProduct(ctx, r, fp)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterSold(ctx, sold)
	return s.repos.FinishedProduct.FindByID(ctx, fp.ID)
}

// Update 状态由 AVAILABLE 变为 SOLD 时在同一事务内扣减库存并生成销售记录
func (s *FinishedProductService) Update(ctx context.Context, id string, req FinishedProductRequest) (*entity.FinishedProduct, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if _, err := s.repos.FinishedProduct.FindByID(ctx, id); err != nil {
		return nil, err
	}
	productionID, err := s.checkProduction(ctx, req.ProductionID)
	if err != nil {
		return nil, err
	}

	var sold *FinishedProductSold
	err = s.inTx(ctx, func(r *repository.Repositories) error {
		fp, err := r.FinishedProduct.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		wasSold := fp.Status == entity.FinishedProductStatusSold
		if wasSold && req.Status != entity.FinishedProductStatusSold {
			return fmt.Errorf("%w: finished product %s is already sold", ErrConflict, id)
		}
		// 售出后出库与销售记录已按这些字段生成
		if wasSold && (strings.TrimSpace(req.ProductType) != fp.ProductType ||
			*req.Quantity != fp.Quantity || !req.UnitPrice.Equal(fp.UnitPrice)) {
			return fmt.Errorf("%w: finished product %s is sold, product_type, quantity and unit_price are fixed", ErrConflict, id)
		}

		applyFinishedProduct(fp, req)
		fp.ProductionID = productionID

		if !wasSold && req.Status == entity.FinishedProductStatusSold {
			sold, err = sellFinishedProduct(ctx, r, fp)
			return err
		}
		if err := r.FinishedProduct.Update(ctx, fp); err != nil {
			return fmt.Errorf("update finished product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterSold(ctx, sold)
	return s.repos.FinishedProduct.FindByID(ctx, id)
}

// Delete 删除成品，其销售记录保留但解除关联
func (s *FinishedProductService) Delete(ctx context.Context, id string) (*entity.FinishedProduct, error) {
	var deleted *entity.FinishedProduct
	err := s.inTx(ctx, func(r *repository.Repositories) error {
		fp, err := r.FinishedProduct.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := r.SalesReport.DetachFinishedProduct(ctx, id); err != nil {
			return fmt.Errorf("detach sales reports: %w", err)
		}
		if err := r.FinishedProduct.Delete(ctx, id); err != nil {
			return err
		}
		deleted = fp
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, deleted.ProductType)
	return deleted, nil
}

func (s *FinishedProductService) checkProduction(ctx context.Context, id *string) (*string, error) {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil, nil
	}
	pid := strings.TrimSpace(*id)
	if _, err := s.repos.Production.FindByID(ctx, pid); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, invalid("production_id", "no production with this id")
		}
		return nil, fmt.Errorf("find production: %w", err)
	}
	return &pid, nil
}

func (s *FinishedProductService) afterSold(ctx context.Context, sold *FinishedProductSold) {
	if sold == nil {
		return
	}
	s.cache.Invalidate(ctx, sold.FinishedProduct.ProductType)
	s.logger.Info("finished product sold",
		zap.String("finished_product_id", sold.FinishedProduct.ID),
		zap.String("product_type", sold.FinishedProduct.ProductType),
		zap.Int("quantity", sold.FinishedProduct.Quantity),
		zap.String("sales_report_id", sold.SalesReport.ID),
		zap.String("total_revenue", sold.SalesReport.TotalRevenue.StringFixed(2)),
		zap.Int("inventory_quantity", sold.Inventory.Quantity),
	)
	s.publish(ctx, events.New(events.TypeFinishedProductSold, sold.FinishedProduct.ID, sold))
}

func applyFinishedProduct(fp *entity.FinishedProduct, req FinishedProductRequest) {
	fp.ProductType = strings.TrimSpace(req.ProductType)
	fp.Quantity = *req.Quantity
	fp.UnitPrice = *req.UnitPrice
	if req.TotalCost != nil {
		fp.TotalCost = *req.TotalCost
	} else {
		fp.TotalCost = lineTotal(fp.UnitPrice, fp.Quantity)
	}
}

// sellFinishedProduct 售出：扣减库存、更新状态、生成销售记录
func sellFinishedProduct(ctx context.Context, r *repository.Repositories, fp *entity.FinishedProduct) (*FinishedProductSold, error) {
	inv, err := decrement(ctx, r, movement{
		Type:          fp.ProductType,
		Quantity:      fp.Quantity,
		Reason:        entity.TxReasonSalesOut,
		ReferenceType: entity.RefTypeFinishedProduct,
		ReferenceID:   fp.ID,
	})
	if err != nil {
		return nil, err
	}

	fp.Status = entity.FinishedProductStatusSold
	if err := r.FinishedProduct.Update(ctx, fp); err != nil {
		return nil, fmt.Errorf("update finished product: %w", err)
	}

	fpID := fp.ID
	sr := &entity.SalesReport{
		ID:                uuid.New().String(),
		ProductType:       fp.ProductType,
		SalesDate:         time.Now(),
		QuantitySold:      fp.Quantity,
		TotalRevenue:      lineTotal(fp.UnitPrice, fp.Quantity),
		FinishedProductID: &fpID,
	}
	if err := r.SalesReport.Create(ctx, sr); err != nil {
		return nil, fmt.Errorf("create sales report: %w", err)
	}
	return &FinishedProductSold{FinishedProduct: fp, SalesReport: sr, Inventory: inv}, nil
}
