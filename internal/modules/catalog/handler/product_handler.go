package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"catalog-self/internal/domain/product"
	"catalog-self/internal/modules/catalog/repository"
	"catalog-self/internal/modules/catalog/service"
	"catalog-self/internal/pkg/response"
	"catalog-self/internal/pkg/xerrors"
)

// ProductHandler 商品 HTTP 处理器
type ProductHandler struct {
	service    *service.ProductService
	respWriter response.Writer
}

// NewProductHandler 创建商品处理器
func NewProductHandler(svc *service.ProductService, respWriter response.Writer) *ProductHandler {
	return &ProductHandler{
		service:    svc,
		respWriter: respWriter,
	}
}

// Register 注册商品路由
func (h *ProductHandler) Register(g *echo.Group) {
	g.POST("/products", h.CreateProduct)
	g.GET("/products", h.ListProducts)
	g.POST("/products/bulk", h.BulkCreateProducts)
	g.PUT("/products/bulk", h.BulkUpdateProducts)
	g.GET("/products/:id", h.GetProduct)
	g.PUT("/products/:id", h.UpdateProduct)
	g.DELETE("/products/:id", h.DeleteProduct)
	g.POST("/products/:id/status", h.ChangeStatus)
	g.POST("/products/:id/stock", h.AdjustStock)
	g.POST("/products/:id/variants", h.CreateVariant)
	g.GET("/products/:id/variants", h.ListVariants)
	g.GET("/products/:id/variants/:variantID", h.GetVariant)
	g.PUT("/products/:id/variants/:variantID", h.UpdateVariant)
	g.PATCH("/products/:id/variants/:variantID/stock", h.UpdateVariantStock)
	g.DELETE("/products/:id/variants/:variantID", h.DeleteVariant)
}

// ==================== HTTP Models ====================

// CreateProductRequest 创建商品请求
type CreateProductRequest struct {
	SKU         string `json:"sku" validate:"required,sku_code"`                    // SKU,唯一标识
	Name        string `json:"name" validate:"required,max=128"`                    // 商品名称
	Description string `json:"description" validate:"omitempty,safe_description"`  // 商品描述
	Category    string `json:"category" validate:"required,category_code"`         // 类目代码
	PriceCents  int64  `json:"price_cents" validate:"required,gt=0"`               // 价格(最小货币单位)
	Currency    string `json:"currency" validate:"omitempty,currency_code"`        // 货币代码,默认 CNY
	Stock       int    `json:"stock" validate:"gte=0"`                             // 初始库存
}

// UpdateProductRequest 更新商品请求,指针字段为空表示不修改
type UpdateProductRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=128"`                 // 商品名称
	Description *string `json:"description" validate:"omitempty,safe_description"` // 商品描述
	Category    *string `json:"category" validate:"omitempty,category_code"`       // 类目代码
	PriceCents  *int64  `json:"price_cents" validate:"omitempty,gt=0"`             // 价格(最小货币单位)
	Stock       *int    `json:"stock" validate:"omitempty,gte=0"`                  // 库存
}

// ChangeStatusRequest 商品状态流转请求
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active discontinued"` // 目标状态
}

// AdjustStockRequest 库存调整请求
type AdjustStockRequest struct {
	Delta int `json:"delta" validate:"required"` // 库存增量,负数表示扣减
}

// ProductInfo 商品信息响应
type ProductInfo struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
	Stock       int    `json:"stock"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// ==================== HTTP Handlers ====================

// CreateProduct 创建商品
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoError(c, h.respWriter, xerrors.FromCode(xerrors.CodeInvalidRequest))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	p, err := h.service.CreateProduct(ctx, service.CreateInput{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Currency:    req.Currency,
		Stock:       req.Stock,
	})
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoCreated(c, h.respWriter, convertToProductInfo(p))
}

// GetProduct 获取商品详情
func (h *ProductHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return response.EchoBadRequest(c, h.respWriter, "商品ID不能为空")
	}

	p, err := h.service.GetProduct(ctx, id)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoOK(c, h.respWriter, convertToProductInfo(p))
}

// ListProducts 获取商品列表
func (h *ProductHandler) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	params := repository.QueryParams{
		Category: c.QueryParam("category"),
	}
	if status := c.QueryParam("status"); status != "" {
		if !product.ValidStatus(product.Status(status)) {
			return response.EchoBadRequest(c, h.respWriter, "未知的商品状态: "+status)
		}
		params.Status = product.Status(status)
	}
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		params.Limit, _ = strconv.Atoi(limitStr)
	}
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		params.Offset, _ = strconv.Atoi(offsetStr)
	}

	items, total, err := h.service.ListProducts(ctx, params)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	result := make([]ProductInfo, len(items))
	for i, p := range items {
		result[i] = convertToProductInfo(p)
	}

	return response.EchoOK(c, h.respWriter, map[string]interface{}{
		"list":  result,
		"total": total,
	})
}

// UpdateProduct 更新商品
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return response.EchoBadRequest(c, h.respWriter, "商品ID不能为空")
	}

	var req UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoError(c, h.respWriter, xerrors.FromCode(xerrors.CodeInvalidRequest))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	p, err := h.service.UpdateProduct(ctx, id, service.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Stock:       req.Stock,
	})
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoOK(c, h.respWriter, convertToProductInfo(p))
}

// ChangeStatus 商品状态流转
func (h *ProductHandler) ChangeStatus(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return response.EchoBadRequest(c, h.respWriter, "商品ID不能为空")
	}

	var req ChangeStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoError(c, h.respWriter, xerrors.FromCode(xerrors.CodeInvalidRequest))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	p, err := h.service.ChangeStatus(ctx, id, product.Status(req.Status))
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoOK(c, h.respWriter, convertToProductInfo(p))
}

// AdjustStock 调整商品库存
func (h *ProductHandler) AdjustStock(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return response.EchoBadRequest(c, h.respWriter, "商品ID不能为空")
	}

	var req AdjustStockRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoError(c, h.respWriter, xerrors.FromCode(xerrors.CodeInvalidRequest))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	p, err := h.service.AdjustStock(ctx, id, req.Delta)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoOK(c, h.respWriter, convertToProductInfo(p))
}

// DeleteProduct 删除商品
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return response.EchoBadRequest(c, h.respWriter, "商品ID不能为空")
	}

	if err := h.service.DeleteProduct(ctx, id); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoOK(c, h.respWriter, map[string]interface{}{
		"deleted": true,
	})
}

// convertToProductInfo 领域模型转响应格式
func convertToProductInfo(p *product.Product) ProductInfo {
	return ProductInfo{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description.String,
		Category:    p.Category,
		PriceCents:  p.PriceCents,
		Currency:    p.Currency,
		Stock:       p.Stock,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt.Unix(),
		UpdatedAt:   p.UpdatedAt.Unix(),
	}
}
