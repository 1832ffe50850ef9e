package repository

import (
	"context"

	"catalog-self/internal/domain/product"

	"github.com/friendsofgo/errors"
)

var (
	// ErrNotFound 商品不存在
	ErrNotFound = errors.New("repository: product not found")
	// ErrSKUExists SKU 已被占用
	ErrSKUExists = errors.New("repository: sku already exists")
)

// QueryParams 商品列表查询参数
type QueryParams struct {
	Category string
	Status   product.Status
	Limit    int
	Offset   int
}

// ProductRepository 商品存储接口
type ProductRepository interface {
	Create(ctx context.Context, p *product.Product) error
	GetByID(ctx context.Context, id string) (*product.Product, error)
	GetBySKU(ctx context.Context, sku string) (*product.Product, error)
	List(ctx context.Context, params QueryParams) ([]*product.Product, int, error)
	Update(ctx context.Context, p *product.Product) error
	Delete(ctx context.Context, id string) error
}

// VariantRepository 商品变体存储接口。
// 变体 SKU 在所有变体之间唯一，冲突时返回 ErrSKUExists。
type VariantRepository interface {
	CreateVariant(ctx context.Context, v *product.Variant) error
	GetVariant(ctx context.Context, id string) (*product.Variant, error)
	ListVariants(ctx context.Context, productID string) ([]*product.Variant, error)
	UpdateVariant(ctx context.Context, v *product.Variant) error
	DeleteVariant(ctx context.Context, id string) error
}

// Repository 商品及变体的完整存储接口，服务层依赖此接口
type Repository interface {
	ProductRepository
	VariantRepository
}
