package service

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/events"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options 服务依赖
type Options struct {
	Logger     *zap.Logger
	Publisher  events.Publisher
	Cache      *ReportCache
	BcryptCost int
}

// Services 生产管理服务集合
type Services struct {
	User            *UserService
	Production      *ProductionService
	Inventory       *InventoryService
	FinishedProduct *FinishedProductService
	SalesReport     *SalesReportService
}

func NewServices(repos *repository.Repositories, db *gorm.DB, opts Options) *Services {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	b := base{db: db, repos: repos, logger: opts.Logger, publisher: opts.Publisher, cache: opts.Cache}
	return &Services{
		User:            &UserService{base: b, cost: opts.BcryptCost},
		Production:      &ProductionService{base: b},
		Inventory:       &InventoryService{base: b},
		FinishedProduct: &FinishedProductService{base: b},
		SalesReport:     &SalesReportService{base: b},
	}
}

// base 各服务共享的事务、日志、事件与缓存依赖
type base struct {
	db        *gorm.DB
	repos     *repository.Repositories
	logger    *zap.Logger
	publisher events.Publisher
	cache     *ReportCache
}

// inTx 在单个事务中执行，fn 只能使用传入的仓库
func (b base) inTx(ctx context.Context, fn func(r *repository.Repositories) error) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(b.repos.WithTx(tx))
	})
}

// publish 提交后发布事件，失败只记录日志
// publishTimeout 单次事件投递上限，超时只记录日志
const publishTimeout = 3 * time.Second

func (b base) publish(ctx context.Context, event events.Event) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := b.publisher.Publish(ctx, event); err != nil {
		b.logger.Warn("publish event failed",
			zap.String("type", event.Type),
			zap.String("entity_id", event.EntityID),
			zap.Error(err),
		)
	}
}
