// Package events 生产与销售领域事件的发布
package events

import (
	"context"
	"errors"
	"time"
)

// 事件类型
const (
	TypeProductionCompleted = "production.completed"
	TypeFinishedProductSold = "finished_product.sold"
)

// Event 领域事件
type Event struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entity_id"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New 创建事件
func New(typ, entityID string, payload any) Event {
	return Event{
		Type:       typ,
		EntityID:   entityID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher 事件发布者
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop 丢弃所有事件
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi 依次发布到多个发布者，收集全部错误
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
