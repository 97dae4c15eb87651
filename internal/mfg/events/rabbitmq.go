package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultDialTimeout   = 2 * time.Second
	defaultRetryInterval = 10 * time.Second
)

// ErrBrokerUnavailable 上次连接失败后的重试冷却期内直接返回
var ErrBrokerUnavailable = errors.New("rabbitmq unavailable")

// RabbitPublisher 将事件投递到以事件类型命名的持久化队列
type RabbitPublisher struct {
	url    string
	prefix string

	// DialTimeout 建连与握手超时
	DialTimeout time.Duration
	// RetryInterval 连接失败后多久再尝试
	RetryInterval time.Duration

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
}

// NewRabbitPublisher 队列名为 prefix + 事件类型
func NewRabbitPublisher(url, prefix string) *RabbitPublisher {
	return &RabbitPublisher{
		url:           url,
		prefix:        prefix,
		DialTimeout:   defaultDialTimeout,
		RetryInterval: defaultRetryInterval,
	}
}

// Connect 启动时建立连接，失败不影响后续按需重连
func (p *RabbitPublisher) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.channel(ctx)
	return err
}

func (p *RabbitPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		if time.Now().Before(p.retryAt) {
			return nil, ErrBrokerUnavailable
		}
		timeout := p.DialTimeout
		if deadline, ok := ctx.Deadline(); ok {
			if left := time.Until(deadline); left < timeout {
				timeout = left
			}
		}
		if timeout <= 0 {
			return nil, fmt.Errorf("rabbitmq dial: %w", context.DeadlineExceeded)
		}
		conn, err := amqp.DialConfig(p.url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Dial:      amqp.DefaultDial(timeout),
		})
		if err != nil {
			p.retryAt = time.Now().Add(p.RetryInterval)
			return nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		p.conn = conn
		p.retryAt = time.Time{}
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	p.ch = ch
	return ch, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	queue := p.prefix + event.Type
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    event.EntityID,
		Type:         event.Type,
		Body:         body,
	})
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
