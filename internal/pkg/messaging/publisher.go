// File: internal/pkg/messaging/publisher.go
package messaging

import (
	"context"
	"encoding/json"
	"time"

	"catalog-self/internal/pkg/correlation"
	"catalog-self/internal/pkg/log"
	"catalog-self/internal/pkg/metrics"
	"catalog-self/internal/pkg/xerrors"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Publisher 商品事件发布器。
// 每条出站消息都会携带当前工作单元的关联标识头。
type Publisher struct {
	conn    *nats.Conn
	service string
}

// NewPublisher 创建事件发布器
func NewPublisher(conn *nats.Conn, service string) *Publisher {
	if service == "" {
		service = metrics.GetServiceName()
	}
	return &Publisher{
		conn:    conn,
		service: service,
	}
}

// PublishProductEvent 发布商品事件。
// 关联标识从 ctx 的关联存储读取并写入消息头，trace ID 缺失时就地生成。
func (p *Publisher) PublishProductEvent(ctx context.Context, subject string, event *ProductEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return xerrors.NewMessageQueueError(subject, err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = payload
	PrepareOutboundHeaders(ctx, func(name, value string) {
		msg.Header.Set(name, value)
	})

	err = p.conn.PublishMsg(msg)
	metrics.DefaultResourceMetrics.RecordMessagePublished(subject, err == nil, p.service)
	if err != nil {
		log.ErrorContext(ctx, "商品事件发布失败", err,
			log.String("subject", subject),
			log.String("event_id", event.EventID),
			log.String("product_id", event.ProductID),
		)
		return xerrors.NewMessageQueueError(subject, err)
	}

	log.DebugContext(ctx, "商品事件已发布",
		log.String("subject", subject),
		log.String("event_id", event.EventID),
		log.String("product_id", event.ProductID),
		log.String("trace_id", correlation.TraceIDOrGenerate(ctx)),
	)
	return nil
}
