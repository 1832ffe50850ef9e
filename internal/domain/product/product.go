package product

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Status 商品状态
type Status string

const (
	StatusDraft        Status = "draft"        // 草稿，未对外可见
	StatusActive       Status = "active"       // 已上架
	StatusDiscontinued Status = "discontinued" // 已下架，不可再上架
)

// 合法的状态流转：draft → active → discontinued，draft → discontinued
var validTransitions = map[Status][]Status{
	StatusDraft:        {StatusActive, StatusDiscontinued},
	StatusActive:       {StatusDiscontinued},
	StatusDiscontinued: {},
}

// Product 商品聚合根
type Product struct {
	ID          string      `json:"id"`
	SKU         string      `json:"sku"`
	Name        string      `json:"name"`
	Description null.String `json:"description,omitempty"`
	Category    string      `json:"category"`

	// PriceCents 价格，以最小货币单位存储（如分），避免浮点误差
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`

	Stock  int    `json:"stock"`
	Status Status `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive 商品是否已上架
func (p *Product) IsActive() bool {
	return p.Status == StatusActive
}

// CanTransitionTo 检查能否流转到目标状态
func (p *Product) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[p.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// HasStock 检查库存是否满足请求数量
func (p *Product) HasStock(quantity int) bool {
	return quantity > 0 && p.Stock >= quantity
}

// ValidStatus 检查状态值是否合法
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusActive, StatusDiscontinued:
		return true
	}
	return false
}
