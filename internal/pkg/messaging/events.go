// File: internal/pkg/messaging/events.go
package messaging

import "time"

// 商品事件主题
const (
	SubjectProductCreated       = "catalog.product.created"
	SubjectProductUpdated       = "catalog.product.updated"
	SubjectProductDeleted       = "catalog.product.deleted"
	SubjectProductStatusChanged = "catalog.product.status_changed"
)

// ProductEvent 商品领域事件载荷
type ProductEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	ProductID  string    `json:"product_id"`
	SKU        string    `json:"sku,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`

	// 事件附加数据（如状态变更的前后值）
	Data map[string]interface{} `json:"data,omitempty"`
}
