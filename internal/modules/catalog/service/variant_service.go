package service

import (
	"context"

	"catalog-self/internal/domain/product"
	"catalog-self/internal/modules/catalog/repository"
	"catalog-self/internal/pkg/log"
	"catalog-self/internal/pkg/xerrors"

	"github.com/google/uuid"
)

// VariantInput 创建变体参数
type VariantInput struct {
	SKU        string
	Name       string
	PriceCents int64
	Stock      int
	Attributes map[string]string
}

// UpdateVariantInput 更新变体参数，SKU 创建后不可变更
type UpdateVariantInput struct {
	Name       string
	PriceCents int64
	Stock      int
	Attributes map[string]string
}

// CreateVariant 为商品创建变体，变体 SKU 全局唯一
func (s *ProductService) CreateVariant(ctx context.Context, productID string, input VariantInput) (*product.Variant, error) {
	if _, err := s.loadProduct(ctx, productID); err != nil {
		return nil, err
	}

	if input.PriceCents <= 0 {
		return nil, xerrors.FromCode(xerrors.CodeInvalidPrice).
			WithMetadata("price_cents", input.PriceCents)
	}
	if input.Stock < 0 {
		return nil, xerrors.NewValidationError("stock", "库存不能为负数")
	}

	v := &product.Variant{
		ID:         uuid.NewString(),
		ProductID:  productID,
		SKU:        input.SKU,
		Name:       input.Name,
		PriceCents: input.PriceCents,
		Stock:      input.Stock,
		Attributes: input.Attributes,
	}

	if err := s.repo.CreateVariant(ctx, v); err != nil {
		if err == repository.ErrSKUExists {
			return nil, xerrors.NewVariantSKUExistsError(input.SKU)
		}
		return nil, xerrors.NewDatabaseError("insert", "product_variants", err)
	}

	log.LogBusinessEvent(ctx, "product.variant_created", "product_variant", v.ID, map[string]interface{}{
		"product_id": productID,
		"sku":        v.SKU,
	})

	return v, nil
}

// ListVariants 查询商品的全部变体
func (s *ProductService) ListVariants(ctx context.Context, productID string) ([]*product.Variant, error) {
	if _, err := s.loadProduct(ctx, productID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListVariants(ctx, productID)
	if err != nil {
		return nil, xerrors.NewDatabaseError("select", "product_variants", err)
	}
	return items, nil
}

// GetVariant 查询单个变体，变体必须属于指定商品
func (s *ProductService) GetVariant(ctx context.Context, productID, variantID string) (*product.Variant, error) {
	v, err := s.loadVariant(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateVariant 更新变体的名称、价格、库存和属性
func (s *ProductService) UpdateVariant(ctx context.Context, productID, variantID string, input UpdateVariantInput) (*product.Variant, error) {
	v, err := s.loadVariant(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}

	if input.PriceCents <= 0 {
		return nil, xerrors.FromCode(xerrors.CodeInvalidPrice).
			WithMetadata("price_cents", input.PriceCents)
	}
	if input.Stock < 0 {
		return nil, xerrors.NewValidationError("stock", "库存不能为负数")
	}

	v.Name = input.Name
	v.PriceCents = input.PriceCents
	v.Stock = input.Stock
	if input.Attributes != nil {
		v.Attributes = input.Attributes
	}

	if err := s.repo.UpdateVariant(ctx, v); err != nil {
		if err == repository.ErrNotFound {
			return nil, xerrors.NewVariantNotFoundError(productID, variantID)
		}
		return nil, xerrors.NewDatabaseError("update", "product_variants", err)
	}
	return v, nil
}

// UpdateVariantStock 直接设置变体库存
func (s *ProductService) UpdateVariantStock(ctx context.Context, productID, variantID string, stock int) (*product.Variant, error) {
	if stock < 0 {
		return nil, xerrors.NewValidationError("stock", "库存不能为负数")
	}

	v, err := s.loadVariant(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}
	v.Stock = stock

	if err := s.repo.UpdateVariant(ctx, v); err != nil {
		if err == repository.ErrNotFound {
			return nil, xerrors.NewVariantNotFoundError(productID, variantID)
		}
		return nil, xerrors.NewDatabaseError("update", "product_variants", err)
	}
	return v, nil
}

// DeleteVariant 删除变体
func (s *ProductService) DeleteVariant(ctx context.Context, productID, variantID string) error {
	if _, err := s.loadVariant(ctx, productID, variantID); err != nil {
		return err
	}

	if err := s.repo.DeleteVariant(ctx, variantID); err != nil {
		if err == repository.ErrNotFound {
			return xerrors.NewVariantNotFoundError(productID, variantID)
		}
		return xerrors.NewDatabaseError("delete", "product_variants", err)
	}

	log.LogBusinessEvent(ctx, "product.variant_deleted", "product_variant", variantID, map[string]interface{}{
		"product_id": productID,
	})
	return nil
}

// loadVariant 读取变体并校验归属关系，不属于指定商品时视为不存在
func (s *ProductService) loadVariant(ctx context.Context, productID, variantID string) (*product.Variant, error) {
	v, err := s.repo.GetVariant(ctx, variantID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, xerrors.NewVariantNotFoundError(productID, variantID)
		}
		return nil, xerrors.NewDatabaseError("select", "product_variants", err)
	}
	if v.ProductID != productID {
		return nil, xerrors.NewVariantNotFoundError(productID, variantID)
	}
	return v, nil
}
