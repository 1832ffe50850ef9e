package handler

import (
	"github.com/labstack/echo/v4"

	"catalog-self/internal/domain/product"
	"catalog-self/internal/modules/catalog/service"
	"catalog-self/internal/pkg/response"
	"catalog-self/internal/pkg/xerrors"
)

// ==================== HTTP Models ====================

// CreateVariantRequest 创建商品变体请求
type CreateVariantRequest struct {
	SKU        string            `json:"sku" validate:"required,sku_code"`       // 变体 SKU,全局唯一
	Name       string            `json:"name" validate:"required,max=128"`       // 变体名称
	PriceCents int64             `json:"price_cents" validate:"required,gt=0"`   // 价格(最小货币单位)
	Stock      int               `json:"stock" validate:"gte=0"`                 // 初始库存
	Attributes map[string]string `json:"attributes" validate:"omitempty,max=20"` // 规格属性(如颜色、尺码)
}

// UpdateVariantRequest 更新商品变体请求,SKU 不可变更
type UpdateVariantRequest struct {
	Name       string            `json:"name" validate:"required,max=128"`
	PriceCents int64             `json:"price_cents" validate:"required,gt=0"`
	Stock      int               `json:"stock" validate:"gte=0"`
	Attributes map[string]string `json:"attributes" validate:"omitempty,max=20"`
}

// UpdateVariantStockRequest 设置变体库存请求
type UpdateVariantStockRequest struct {
	Stock int `json:"stock" validate:"gte=0"` // 新库存量
}

// VariantInfo 商品变体响应
type VariantInfo struct {
	ID         string            `json:"id"`
	ProductID  string            `json:"product_id"`
	SKU        string            `json:"sku"`
	Name       string            `json:"name"`
	PriceCents int64             `json:"price_cents"`
	Stock      int               `json:"stock"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  int64             `json:"created_at"`
	UpdatedAt  int64             `json:"updated_at"`
}

// ==================== HTTP Handlers ====================

// CreateVariant 创建商品变体
func (h *ProductHandler) CreateVariant(c echo.Context) error {
	ctx := c.Request().Context()

	productID := c.Param("id")
	if productID == "" {
		return response.EchoBadRequest(c, h.respWriter, "商品ID不能为空")
	}

	var req CreateVariantRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoError(c, h.respWriter, xerrors.FromCode(xerrors.CodeInvalidRequest))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	v, err := h.service.CreateVariant(ctx, productID, service.VariantInput{
		SKU:        req.SKU,
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Stock:      req.Stock,
		Attributes: req.Attributes,
	})
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoCreated(c, h.respWriter, convertToVariantInfo(v))
}

// ListVariants 查询商品的全部变体
func (h *ProductHandler) ListVariants(c echo.Context) error {
	ctx := c.Request().Context()

	productID := c.Param("id")
	if productID == "" {
		return response.EchoBadRequest(c, h.respWriter, "商品ID不能为空")
	}

	items, err := h.service.ListVariants(ctx, productID)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	result := make([]VariantInfo, len(items))
	for i, v := range items {
		result[i] = convertToVariantInfo(v)
	}

	return response.EchoOK(c, h.respWriter, map[string]interface{}{
		"list":  result,
		"total": len(result),
	})
}

// GetVariant 查询单个商品变体
func (h *ProductHandler) GetVariant(c echo.Context) error {
	ctx := c.Request().Context()

	v, err := h.service.GetVariant(ctx, c.Param("id"), c.Param("variantID"))
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoOK(c, h.respWriter, convertToVariantInfo(v))
}

// UpdateVariant 更新商品变体
func (h *ProductHandler) UpdateVariant(c echo.Context) error {
	ctx := c.Request().Context()

	var req UpdateVariantRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoError(c, h.respWriter, xerrors.FromCode(xerrors.CodeInvalidRequest))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	v, err := h.service.UpdateVariant(ctx, c.Param("id"), c.Param("variantID"), service.UpdateVariantInput{
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Stock:      req.Stock,
		Attributes: req.Attributes,
	})
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoOK(c, h.respWriter, convertToVariantInfo(v))
}

// UpdateVariantStock 设置商品变体库存
func (h *ProductHandler) UpdateVariantStock(c echo.Context) error {
	ctx := c.Request().Context()

	var req UpdateVariantStockRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoError(c, h.respWriter, xerrors.FromCode(xerrors.CodeInvalidRequest))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	v, err := h.service.UpdateVariantStock(ctx, c.Param("id"), c.Param("variantID"), req.Stock)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoOK(c, h.respWriter, convertToVariantInfo(v))
}

// DeleteVariant 删除商品变体
func (h *ProductHandler) DeleteVariant(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.service.DeleteVariant(ctx, c.Param("id"), c.Param("variantID")); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoOK(c, h.respWriter, map[string]interface{}{
		"deleted": true,
	})
}

// convertToVariantInfo 领域模型转响应格式
func convertToVariantInfo(v *product.Variant) VariantInfo {
	return VariantInfo{
		ID:         v.ID,
		ProductID:  v.ProductID,
		SKU:        v.SKU,
		Name:       v.Name,
		PriceCents: v.PriceCents,
		Stock:      v.Stock,
		Attributes: v.Attributes,
		CreatedAt:  v.CreatedAt.Unix(),
		UpdatedAt:  v.UpdatedAt.Unix(),
	}
}
