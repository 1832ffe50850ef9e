// File: internal/pkg/messaging/consumer.go
package messaging

import (
	"context"
	"encoding/json"
	"time"

	"catalog-self/internal/pkg/correlation"
	"catalog-self/internal/pkg/log"
	"catalog-self/internal/pkg/metrics"

	"github.com/nats-io/nats.go"
)

// EventHandler 商品事件处理函数
type EventHandler func(ctx context.Context, event *ProductEvent) error

// Consumer 商品事件消费器。
// 每条消息作为独立工作单元处理：trace ID 从消息头延续（缺失则生成），
// request ID 无条件新生成。
type Consumer struct {
	conn    *nats.Conn
	queue   string
	service string
	subs    []*nats.Subscription
}

// NewConsumer 创建事件消费器，queue 为 NATS 队列组名称
func NewConsumer(conn *nats.Conn, queue, service string) *Consumer {
	if service == "" {
		service = metrics.GetServiceName()
	}
	return &Consumer{
		conn:    conn,
		queue:   queue,
		service: service,
	}
}

// Subscribe 订阅指定主题，每条消息交给 handler 处理
func (c *Consumer) Subscribe(subject string, handler EventHandler) error {
	sub, err := c.conn.QueueSubscribe(subject, c.queue, func(msg *nats.Msg) {
		c.handleMessage(subject, msg, handler)
	})
	if err != nil {
		return err
	}
	c.subs = append(c.subs, sub)
	return nil
}

// handleMessage 处理单条消息：为其建立独立的关联存储，
// 通过消息头装配标识后执行 handler。
func (c *Consumer) handleMessage(subject string, msg *nats.Msg, handler EventHandler) {
	ctx := correlation.NewContext(context.Background())
	start := time.Now()

	_, err := ProcessInbound(ctx, msg.Header.Get, func(ctx context.Context, raw []byte) (struct{}, error) {
		var event ProductEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			log.ErrorContext(ctx, "商品事件解析失败", err,
				log.String("subject", subject),
			)
			return struct{}{}, err
		}
		return struct{}{}, handler(ctx, &event)
	}, msg.Data)

	metrics.DefaultResourceMetrics.RecordMessageConsumed(subject, err == nil, time.Since(start), c.service)
	if err != nil {
		log.Error("商品事件处理失败", err, log.String("subject", subject))
	}
}

// Drain 停止所有订阅并排空未处理消息
func (c *Consumer) Drain() error {
	for _, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			return err
		}
	}
	return nil
}
