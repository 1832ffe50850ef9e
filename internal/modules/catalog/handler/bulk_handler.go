package handler

import (
	"github.com/labstack/echo/v4"

	"catalog-self/internal/modules/catalog/service"
	"catalog-self/internal/pkg/response"
	"catalog-self/internal/pkg/xerrors"
)

// ==================== HTTP Models ====================

// BulkCreateProductsRequest 批量创建商品请求,单次最多 100 条
type BulkCreateProductsRequest struct {
	Products []CreateProductRequest `json:"products" validate:"required,min=1,max=100,dive"`
}

// BulkProductUpdate 批量更新中的单条记录
type BulkProductUpdate struct {
	ID   string               `json:"id" validate:"required"`
	Data UpdateProductRequest `json:"data"`
}

// BulkUpdateProductsRequest 批量更新商品请求,单次最多 100 条
type BulkUpdateProductsRequest struct {
	Updates []BulkProductUpdate `json:"updates" validate:"required,min=1,max=100,dive"`
}

// ==================== HTTP Handlers ====================

// BulkCreateProducts 批量创建商品,整批校验通过才写入
func (h *ProductHandler) BulkCreateProducts(c echo.Context) error {
	ctx := c.Request().Context()

	var req BulkCreateProductsRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoError(c, h.respWriter, xerrors.FromCode(xerrors.CodeInvalidRequest))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	inputs := make([]service.CreateInput, len(req.Products))
	for i, p := range req.Products {
		inputs[i] = service.CreateInput{
			SKU:         p.SKU,
			Name:        p.Name,
			Description: p.Description,
			Category:    p.Category,
			PriceCents:  p.PriceCents,
			Currency:    p.Currency,
			Stock:       p.Stock,
		}
	}

	created, err := h.service.BulkCreateProducts(ctx, inputs)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	result := make([]ProductInfo, len(created))
	for i, p := range created {
		result[i] = convertToProductInfo(p)
	}

	return response.EchoCreated(c, h.respWriter, map[string]interface{}{
		"list":  result,
		"total": len(result),
	})
}

// BulkUpdateProducts 批量更新商品,任一 ID 缺失则整批拒绝
func (h *ProductHandler) BulkUpdateProducts(c echo.Context) error {
	ctx := c.Request().Context()

	var req BulkUpdateProductsRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoError(c, h.respWriter, xerrors.FromCode(xerrors.CodeInvalidRequest))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	updates := make([]service.BulkUpdateItem, len(req.Updates))
	for i, u := range req.Updates {
		updates[i] = service.BulkUpdateItem{
			ID: u.ID,
			Input: service.UpdateInput{
				Name:        u.Data.Name,
				Description: u.Data.Description,
				Category:    u.Data.Category,
				PriceCents:  u.Data.PriceCents,
				Stock:       u.Data.Stock,
			},
		}
	}

	updated, err := h.service.BulkUpdateProducts(ctx, updates)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	result := make([]ProductInfo, len(updated))
	for i, p := range updated {
		result[i] = convertToProductInfo(p)
	}

	return response.EchoOK(c, h.respWriter, map[string]interface{}{
		"list":  result,
		"total": len(result),
	})
}
