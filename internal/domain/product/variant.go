package product

import "time"

// Variant 商品变体，同一商品的不同规格（如颜色、尺码）。
// 变体有独立的 SKU、价格和库存，属性键值对描述规格差异。
type Variant struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`

	// PriceCents 价格，以最小货币单位存储，货币沿用所属商品
	PriceCents int64 `json:"price_cents"`

	Stock      int               `json:"stock"`
	Attributes map[string]string `json:"attributes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone 深拷贝变体，避免存储层和调用方共享 Attributes
func (v *Variant) Clone() *Variant {
	clone := *v
	if v.Attributes != nil {
		clone.Attributes = make(map[string]string, len(v.Attributes))
		for k, val := range v.Attributes {
			clone.Attributes[k] = val
		}
	}
	return &clone
}

// HasStock 检查变体库存是否满足请求数量
func (v *Variant) HasStock(quantity int) bool {
	return quantity > 0 && v.Stock >= quantity
}
