package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/entity"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const reportCachePrefix = "mfg:sales:type:"

// ReportCache 按产品类型缓存销售记录列表，nil 时所有操作为空操作
type ReportCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewReportCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ReportCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportCache{rdb: rdb, ttl: ttl, logger: logger}
}

func reportCacheKey(productType string) string {
	return reportCachePrefix + productType
}

func (c *ReportCache) Get(ctx context.Context, productType string) ([]entity.SalesReport, bool) {
	if c == nil {
		return nil, false
	}
	bs, err := c.rdb.Get(ctx, reportCacheKey(productType)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("sales report cache read failed", zap.String("product_type", productType), zap.Error(err))
		}
		return nil, false
	}
	var reports []entity.SalesReport
	if err := json.Unmarshal(bs, &reports); err != nil {
		return nil, false
	}
	return reports, true
}

func (c *ReportCache) Set(ctx context.Context, productType string, reports []entity.SalesReport) {
	if c == nil {
		return
	}
	bs, err := json.Marshal(reports)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, reportCacheKey(productType), bs, c.ttl).Err(); err != nil {
		c.logger.Warn("sales report cache write failed", zap.String("product_type", productType), zap.Error(err))
	}
}

func (c *ReportCache) Invalidate(ctx context.Context, productTypes ...string) {
	if c == nil || len(productTypes) == 0 {
		return
	}
	keys := make([]string, 0, len(productTypes))
	for _, t := range productTypes {
		keys = append(keys, reportCacheKey(t))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("sales report cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
