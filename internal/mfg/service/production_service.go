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

type ProductionService struct {
	base
}

// ProductionRequest 创建 / 更新生产批次请求
type ProductionRequest struct {
	ProductType string           `json:"product_type" binding:"required,max=128"`
	StartTime   *time.Time       `json:"start_time" binding:"required"`
	Status      string           `json:"status" binding:"required,oneof=IN_PROGRESS COMPLETED"`
	UserEmail   string           `json:"user_email" binding:"required,email,max=255"`
	Quantity    *int             `json:"quantity" binding:"omitempty,gt=0"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

func (req ProductionRequest) validate() error {
	verr := &ValidationError{}
	checkProductType(verr, "product_type", req.ProductType)
	if req.StartTime == nil {
		verr.add("start_time", "is required")
	}
	if !entity.ValidProductionStatus(req.Status) {
		verr.add("status", "must be one of IN_PROGRESS, COMPLETED")
	}
	if req.Quantity != nil && *req.Quantity <= 0 {
		verr.add("quantity", "must be greater than 0")
	}
	if req.UnitPrice != nil {
		checkMoney(verr, "unit_price", *req.UnitPrice, maxUnitPrice)
	}
	if len(verr.Fields) == 0 && lineTotal(req.unitPrice(), req.quantity()).GreaterThanOrEqual(maxAmount) {
		verr.add("quantity", "unit_price * quantity must be less than "+maxAmount.String())
	}
	return verr.orNil()
}

func (req ProductionRequest) quantity() int {
	if req.Quantity == nil {
		return 1
	}
	return *req.Quantity
}

func (req ProductionRequest) unitPrice() decimal.Decimal {
	if req.UnitPrice == nil {
		return decimal.Zero
	}
	return *req.UnitPrice
}

// ProductionCompleted 完工事件负载
type ProductionCompleted struct {
	Production      *entity.Production      `json:"production"`
	FinishedProduct *entity.FinishedProduct `json:"finished_product"`
	Inventory       *entity.InventoryData   `json:"inventory"`
}

func (s *ProductionService) List(ctx context.Context) ([]entity.Production, error) {
	return s.repos.Production.List(ctx)
}

func (s *ProductionService) Get(ctx context.Context, id string) (*entity.Production, error) {
	return s.repos.Production.FindByID(ctx, id)
}

// ListByUserEmail 用户不存在时返回 ErrNotFound
func (s *ProductionService) ListByUserEmail(ctx context.Context, email string) ([]entity.Production, error) {
	user, err := s.repos.User.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	return s.repos.Production.ListByUserID(ctx, user.ID)
}

func (s *ProductionService) Create(ctx context.Context, req ProductionRequest) (*entity.Production, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	user, err := s.lookupUser(ctx, req.UserEmail)
	if err != nil {
		return nil, err
	}

	p := &entity.Production{
		ID:          uuid.New().String(),
		ProductType: strings.TrimSpace(req.ProductType),
		StartTime:   *req.StartTime,
		Quantity:    req.quantity(),
		UnitPrice:   req.unitPrice(),
		Status:      entity.ProductionStatusInProgress,
		UserID:      user.ID,
	}

	var done *ProductionCompleted
	err = s.inTx(ctx, func(r *repository.Repositories) error {
		if err := r.Production.Create(ctx, p); err != nil {
			return fmt.Errorf("create production: %w", err)
		}
		if req.Status == entity.ProductionStatusCompleted {
			var err error
			done, err = completeProduction(ctx, r, p)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterCompleted(ctx, done)
	return s.repos.Production.FindByID(ctx, p.ID)
}

// Update 状态由非 COMPLETED 变为 COMPLETED 时在同一事务内完工入库
func (s *ProductionService) Update(ctx context.Context, id string, req ProductionRequest) (*entity.Production, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if _, err := s.repos.Production.FindByID(ctx, id); err != nil {
		return nil, err
	}
	user, err := s.lookupUser(ctx, req.UserEmail)
	if err != nil {
		return nil, err
	}

	var done *ProductionCompleted
	err = s.inTx(ctx, func(r *repository.Repositories) error {
		p, err := r.Production.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		wasCompleted := p.Status == entity.ProductionStatusCompleted
		if wasCompleted && req.Status != entity.ProductionStatusCompleted {
			return fmt.Errorf("%w: production %s is already completed", ErrConflict, id)
		}

		productType := strings.TrimSpace(req.ProductType)
		quantity, unitPrice := p.Quantity, p.UnitPrice
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			unitPrice = *req.UnitPrice
		}
		// 完工后入库与成品已按这些字段生成
		if wasCompleted && (productType != p.ProductType || quantity != p.Quantity || !unitPrice.Equal(p.UnitPrice)) {
			return fmt.Errorf("%w: production %s is completed, product_type, quantity and unit_price are fixed", ErrConflict, id)
		}
		if lineTotal(unitPrice, quantity).GreaterThanOrEqual(maxAmount) {
			return invalid("quantity", "unit_price * quantity must be less than "+maxAmount.String())
		}

		p.ProductType = productType
		p.StartTime = *req.StartTime
		p.UserID = user.ID
		p.Quantity = quantity
		p.UnitPrice = unitPrice

		if !wasCompleted && req.Status == entity.ProductionStatusCompleted {
			done, err = completeProduction(ctx, r, p)
			return err
		}
		p.Status = req.Status
		if err := r.Production.Update(ctx, p); err != nil {
			return fmt.Errorf("update production: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterCompleted(ctx, done)
	return s.repos.Production.FindByID(ctx, id)
}

// Delete 删除生产批次，由其产生的成品保留但解除关联
func (s *ProductionService) Delete(ctx context.Context, id string) (*entity.Production, error) {
	var deleted *entity.Production
	err := s.inTx(ctx, func(r *repository.Repositories) error {
		p, err := r.Production.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := r.FinishedProduct.DetachProduction(ctx, id); err != nil {
			return fmt.Errorf("detach finished products: %w", err)
		}
		if err := r.Production.Delete(ctx, id); err != nil {
			return err
		}
		deleted = p
		return nil
	})
	return deleted, err
}

func (s *ProductionService) lookupUser(ctx context.Context, email string) (*entity.User, error) {
	user, err := s.repos.User.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return nil, invalid("user_email", "no user with this email")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *ProductionService) afterCompleted(ctx context.Context, done *ProductionCompleted) {
	if done == nil {
		return
	}
	s.logger.Info("production completed",
		zap.String("production_id", done.Production.ID),
		zap.String("product_type", done.Production.ProductType),
		zap.Int("quantity", done.Production.Quantity),
		zap.String("finished_product_id", done.FinishedProduct.ID),
		zap.Int("inventory_quantity", done.Inventory.Quantity),
	)
	s.publish(ctx, events.New(events.TypeProductionCompleted, done.Production.ID, done))
}

// completeProduction 完工：记录结束时间、成品入库、生成可售成品
func completeProduction(ctx context.Context, r *repository.Repositories, p *entity.Production) (*ProductionCompleted, error) {
	now := time.Now()
	p.Status = entity.ProductionStatusCompleted
	p.EndTime = &now
	if err := r.Production.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update production: %w", err)
	}

	inv, _, err := increment(ctx, r, movement{
		Type:          p.ProductType,
		Quantity:      p.Quantity,
		Reason:        entity.TxReasonProductionIn,
		ReferenceType: entity.RefTypeProduction,
		ReferenceID:   p.ID,
	})
	if err != nil {
		return nil, err
	}

	productionID := p.ID
	fp := &entity.FinishedProduct{
		ID:           uuid.New().String(),
		ProductType:  p.ProductType,
		Quantity:     p.Quantity,
		UnitPrice:    p.UnitPrice,
		TotalCost:    lineTotal(p.UnitPrice, p.Quantity),
		Status:       entity.FinishedProductStatusAvailable,
		ProductionID: &productionID,
	}
	if err := r.FinishedProduct.Create(ctx, fp); err != nil {
		return nil, fmt.Errorf("create finished product: %w", err)
	}
	return &ProductionCompleted{Production: p, FinishedProduct: fp, Inventory: inv}, nil
}
