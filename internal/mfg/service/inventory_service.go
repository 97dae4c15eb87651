package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/entity"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/repository"
	"github.com/google/uuid"
)

type InventoryService struct {
	base
}

// InventoryRequest 入库 / 更新库存请求
type InventoryRequest struct {
	Type     string `json:"type" binding:"required,max=128"`
	Quantity *int   `json:"quantity" binding:"required,gte=0"`
}

// movement 一次库存变动
type movement struct {
	Type          string
	Quantity      int
	Reason        string
	ReferenceType string
	ReferenceID   string
}

func (s *InventoryService) List(ctx context.Context) ([]entity.InventoryData, error) {
	return s.repos.Inventory.List(ctx)
}

func (s *InventoryService) Get(ctx context.Context, id string) (*entity.InventoryData, error) {
	return s.repos.Inventory.FindByID(ctx, id)
}

func (s *InventoryService) ListTransactions(ctx context.Context, id string) ([]entity.InventoryTransaction, error) {
	if _, err := s.repos.Inventory.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repos.Inventory.ListTransactions(ctx, id)
}

// Add 按类型入库，类型不存在时新建台账。created 表示是否新建
func (s *InventoryService) Add(ctx context.Context, req InventoryRequest) (inv *entity.InventoryData, created bool, err error) {
	typ := strings.TrimSpace(req.Type)
	if typ == "" {
		return nil, false, invalid("type", "must not be empty")
	}
	err = s.inTx(ctx, func(r *repository.Repositories) error {
		var txErr error
		inv, created, txErr = increment(ctx, r, movement{
			Type:          typ,
			Quantity:      *req.Quantity,
			Reason:        entity.TxReasonManualIn,
			ReferenceType: entity.RefTypeManual,
		})
		return txErr
	})
	if err != nil {
		return nil, false, err
	}
	return inv, created, nil
}

// Update 直接设置类型与数量，数量差额记为调整
func (s *InventoryService) Update(ctx context.Context, id string, req InventoryRequest) (*entity.InventoryData, error) {
	typ := strings.TrimSpace(req.Type)
	if typ == "" {
		return nil, invalid("type", "must not be empty")
	}
	var inv *entity.InventoryData
	err := s.inTx(ctx, func(r *repository.Repositories) error {
		current, err := r.Inventory.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if typ != current.Type {
			other, err := r.Inventory.FindByType(ctx, typ)
			if err == nil && other.ID != current.ID {
				return fmt.Errorf("%w: inventory type %q already exists", ErrConflict, typ)
			}
			if err != nil && !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("find inventory by type: %w", err)
			}
		}
		delta := *req.Quantity - current.Quantity
		current.Type = typ
		current.Quantity = *req.Quantity
		if err := r.Inventory.Update(ctx, current); err != nil {
			return fmt.Errorf("update inventory: %w", err)
		}
		if delta != 0 {
			if err := recordMovement(ctx, r, current, movement{
				Type:          typ,
				Quantity:      delta,
				Reason:        entity.TxReasonAdjust,
				ReferenceType: entity.RefTypeManual,
			}); err != nil {
				return err
			}
		}
		inv = current
		return nil
	})
	return inv, err
}

func (s *InventoryService) Delete(ctx context.Context, id string) (*entity.InventoryData, error) {
	var deleted *entity.InventoryData
	err := s.inTx(ctx, func(r *repository.Repositories) error {
		inv, err := r.Inventory.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := r.Inventory.DeleteTransactions(ctx, id); err != nil {
			return fmt.Errorf("delete inventory transactions: %w", err)
		}
		if err := r.Inventory.Delete(ctx, id); err != nil {
			return err
		}
		deleted = inv
		return nil
	})
	return deleted, err
}

// increment 加锁增加某类型库存，不存在时创建。并发首次入库由唯一索引上的 ON CONFLICT 收敛为一行
func increment(ctx context.Context, r *repository.Repositories, m movement) (*entity.InventoryData, bool, error) {
	created, err := r.Inventory.CreateIfAbsent(ctx, &entity.InventoryData{
		ID:   uuid.New().String(),
		Type: m.Type,
	})
	if err != nil {
		return nil, false, fmt.Errorf("create inventory: %w", err)
	}
	inv, err := r.Inventory.FindByTypeForUpdate(ctx, m.Type)
	if err != nil {
		return nil, false, fmt.Errorf("find inventory: %w", err)
	}
	inv.Quantity += m.Quantity
	if err := r.Inventory.Update(ctx, inv); err != nil {
		return nil, false, fmt.Errorf("update inventory: %w", err)
	}
	if m.Quantity != 0 {
		if err := recordMovement(ctx, r, inv, m); err != nil {
			return nil, false, err
		}
	}
	return inv, created, nil
}

// decrement 加锁扣减某类型库存，库存不足时返回 ErrInsufficientStock
func decrement(ctx context.Context, r *repository.Repositories, m movement) (*entity.InventoryData, error) {
	inv, err := r.Inventory.FindByTypeForUpdate(ctx, m.Type)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: no inventory of type %q", ErrInsufficientStock, m.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("find inventory: %w", err)
	}
	if inv.Quantity < m.Quantity {
		return nil, fmt.Errorf("%w: need %d of %q, have %d", ErrInsufficientStock, m.Quantity, m.Type, inv.Quantity)
	}
	inv.Quantity -= m.Quantity
	if err := r.Inventory.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("update inventory: %w", err)
	}
	out := m
	out.Quantity = -m.Quantity
	if err := recordMovement(ctx, r, inv, out); err != nil {
		return nil, err
	}
	return inv, nil
}

func recordMovement(ctx context.Context, r *repository.Repositories, inv *entity.InventoryData, m movement) error {
	tx := &entity.InventoryTransaction{
		ID:            uuid.New().String(),
		InventoryID:   inv.ID,
		Type:          inv.Type,
		Quantity:      m.Quantity,
		Reason:        m.Reason,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
	}
	if err := r.Inventory.CreateTransaction(ctx, tx); err != nil {
		return fmt.Errorf("record inventory transaction: %w", err)
	}
	return nil
}
