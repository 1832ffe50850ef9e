package service

import (
	"context"
	"encoding/json"
	"time"

	"catalog-self/internal/domain/product"
	"catalog-self/internal/modules/catalog/repository"
	"catalog-self/internal/pkg/correlation"
	"catalog-self/internal/pkg/log"
	"catalog-self/internal/pkg/messaging"
	"catalog-self/internal/pkg/redis"
	"catalog-self/internal/pkg/xerrors"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
)

// cacheKeyPrefix 商品缓存键前缀
const cacheKeyPrefix = "catalog:product:"

// EventPublisher 商品事件发布接口
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, subject string, event *messaging.ProductEvent) error
}

// ProductService 商品服务，负责商品生命周期、缓存和事件发布。
// 缓存采用 cache-aside：读时回填，写时失效。
// 缓存回填走异步执行器，关联标识随任务自动传播。
type ProductService struct {
	repo      repository.Repository
	cache     *redis.Client
	publisher EventPublisher
	executor  *correlation.Executor
	cacheTTL  time.Duration
}

// NewProductService 创建商品服务。cache 和 publisher 可以为 nil（降级运行）。
func NewProductService(
	repo repository.Repository,
	cache *redis.Client,
	publisher EventPublisher,
	executor *correlation.Executor,
	cacheTTL time.Duration,
) *ProductService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ProductService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		executor:  executor,
		cacheTTL:  cacheTTL,
	}
}

// CreateInput 创建商品参数
type CreateInput struct {
	SKU         string
	Name        string
	Description string
	Category    string
	PriceCents  int64
	Currency    string
	Stock       int
}

// UpdateInput 更新商品参数，nil 字段表示不修改
type UpdateInput struct {
	Name        *string
	Description *string
	Category    *string
	PriceCents  *int64
	Stock       *int
}

// CreateProduct 创建商品，初始状态为草稿
func (s *ProductService) CreateProduct(ctx context.Context, input CreateInput) (*product.Product, error) {
	if input.PriceCents <= 0 {
		return nil, xerrors.FromCode(xerrors.CodeInvalidPrice).
			WithMetadata("price_cents", input.PriceCents)
	}

	p := &product.Product{
		ID:         uuid.NewString(),
		SKU:        input.SKU,
		Name:       input.Name,
		Category:   input.Category,
		PriceCents: input.PriceCents,
		Currency:   input.Currency,
		Stock:      input.Stock,
		Status:     product.StatusDraft,
	}
	if input.Description != "" {
		p.Description = null.StringFrom(input.Description)
	}
	if p.Currency == "" {
		p.Currency = "CNY"
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if err == repository.ErrSKUExists {
			return nil, xerrors.NewSKUExistsError(input.SKU)
		}
		return nil, xerrors.NewDatabaseError("insert", "products", err)
	}

	log.LogBusinessEvent(ctx, "product.created", "product", p.ID, map[string]interface{}{
		"sku": p.SKU,
	})

	s.publishEvent(ctx, messaging.SubjectProductCreated, p, nil)
	s.warmCacheAsync(ctx, p)

	return p, nil
}

// GetProduct 查询商品，优先读缓存，未命中时回源并异步回填
func (s *ProductService) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	if p, ok := s.cacheGet(ctx, id); ok {
		return p, nil
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, xerrors.NewProductNotFoundError(id)
		}
		return nil, xerrors.NewDatabaseError("select", "products", err)
	}

	s.warmCacheAsync(ctx, p)
	return p, nil
}

// ListProducts 按条件分页查询商品
func (s *ProductService) ListProducts(ctx context.Context, params repository.QueryParams) ([]*product.Product, int, error) {
	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, xerrors.NewDatabaseError("select", "products", err)
	}
	return items, total, nil
}

// UpdateProduct 更新商品基础信息，写后失效缓存
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input UpdateInput) (*product.Product, error) {
	p, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.PriceCents != nil {
		if *input.PriceCents <= 0 {
			return nil, xerrors.FromCode(xerrors.CodeInvalidPrice).
				WithMetadata("price_cents", *input.PriceCents)
		}
		p.PriceCents = *input.PriceCents
	}
	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Description != nil {
		p.Description = null.StringFrom(*input.Description)
	}
	if input.Category != nil {
		p.Category = *input.Category
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, xerrors.NewValidationError("stock", "库存不能为负数")
		}
		p.Stock = *input.Stock
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if err == repository.ErrNotFound {
			return nil, xerrors.NewProductNotFoundError(id)
		}
		return nil, xerrors.NewDatabaseError("update", "products", err)
	}

	s.invalidateCache(ctx, id)
	s.publishEvent(ctx, messaging.SubjectProductUpdated, p, nil)

	return p, nil
}

// ChangeStatus 流转商品状态（draft → active → discontinued）
func (s *ProductService) ChangeStatus(ctx context.Context, id string, target product.Status) (*product.Product, error) {
	if !product.ValidStatus(target) {
		return nil, xerrors.NewValidationError("status", "未知的商品状态")
	}

	p, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	from := p.Status
	if !p.CanTransitionTo(target) {
		return nil, xerrors.NewInvalidStatusChangeError(string(from), string(target))
	}
	p.Status = target

	if err := s.repo.Update(ctx, p); err != nil {
		if err == repository.ErrNotFound {
			return nil, xerrors.NewProductNotFoundError(id)
		}
		return nil, xerrors.NewDatabaseError("update", "products", err)
	}

	log.LogBusinessEvent(ctx, "product.status_changed", "product", p.ID, map[string]interface{}{
		"from": string(from),
		"to":   string(target),
	})

	s.invalidateCache(ctx, id)
	s.publishEvent(ctx, messaging.SubjectProductStatusChanged, p, map[string]interface{}{
		"from": string(from),
		"to":   string(target),
	})

	return p, nil
}

// AdjustStock 调整库存，扣减不能超过现有库存
func (s *ProductService) AdjustStock(ctx context.Context, id string, delta int) (*product.Product, error) {
	p, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	next := p.Stock + delta
	if next < 0 {
		return nil, xerrors.NewInsufficientStockError(id, -delta, p.Stock)
	}
	p.Stock = next

	if err := s.repo.Update(ctx, p); err != nil {
		if err == repository.ErrNotFound {
			return nil, xerrors.NewProductNotFoundError(id)
		}
		return nil, xerrors.NewDatabaseError("update", "products", err)
	}

	s.invalidateCache(ctx, id)
	s.publishEvent(ctx, messaging.SubjectProductUpdated, p, map[string]interface{}{
		"stock_delta": delta,
	})

	return p, nil
}

// DeleteProduct 删除商品
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.loadProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return xerrors.NewProductNotFoundError(id)
		}
		return xerrors.NewDatabaseError("delete", "products", err)
	}

	log.LogBusinessEvent(ctx, "product.deleted", "product", id, nil)

	s.invalidateCache(ctx, id)
	s.publishEvent(ctx, messaging.SubjectProductDeleted, p, nil)

	return nil
}

// WarmActiveProducts 批量预热已上架商品的缓存，供定时任务调用
func (s *ProductService) WarmActiveProducts(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	items, _, err := s.repo.List(ctx, repository.QueryParams{
		Status: product.StatusActive,
		Limit:  200,
	})
	if err != nil {
		return xerrors.NewDatabaseError("select", "products", err)
	}

	for _, p := range items {
		s.warmCacheAsync(ctx, p)
	}

	log.InfoContext(ctx, "商品缓存预热任务已提交",
		log.Int("count", len(items)),
	)
	return nil
}

// InvalidateProduct 供事件消费方调用的缓存失效入口
func (s *ProductService) InvalidateProduct(ctx context.Context, id string) {
	s.invalidateCache(ctx, id)
}

// loadProduct 直接回源读取（写路径不走缓存，避免读到过期数据）
func (s *ProductService) loadProduct(ctx context.Context, id string) (*product.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, xerrors.NewProductNotFoundError(id)
		}
		return nil, xerrors.NewDatabaseError("select", "products", err)
	}
	return p, nil
}

func (s *ProductService) cacheGet(ctx context.Context, id string) (*product.Product, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.GetString(ctx, cacheKeyPrefix+id)
	if err != nil {
		if !redis.IsNil(err) {
			log.WarnContext(ctx, "商品缓存读取失败",
				log.String("product_id", id),
				log.Any("error", err),
			)
		}
		return nil, false
	}

	var p product.Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		// 缓存内容损坏，删除后回源
		_ = s.cache.DeleteKey(ctx, cacheKeyPrefix+id)
		return nil, false
	}
	return &p, true
}

// warmCacheAsync 异步回填缓存。任务经由执行器提交，
// trace/request 等标识随任务自动带到 worker 上。
func (s *ProductService) warmCacheAsync(ctx context.Context, p *product.Product) {
	if s.cache == nil || s.executor == nil {
		return
	}

	clone := *p
	err := s.executor.Submit(ctx, func(taskCtx context.Context) {
		payload, err := json.Marshal(&clone)
		if err != nil {
			return
		}
		if err := s.cache.SetWithTTL(taskCtx, cacheKeyPrefix+clone.ID, payload, s.cacheTTL); err != nil {
			log.WarnContext(taskCtx, "商品缓存回填失败",
				log.String("product_id", clone.ID),
				log.Any("error", err),
			)
			return
		}
		log.DebugContext(taskCtx, "商品缓存已回填",
			log.String("product_id", clone.ID),
		)
	})
	if err != nil {
		log.WarnContext(ctx, "缓存回填任务提交失败",
			log.String("product_id", p.ID),
			log.Any("error", err),
		)
	}
}

func (s *ProductService) invalidateCache(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteKey(ctx, cacheKeyPrefix+id); err != nil {
		log.WarnContext(ctx, "商品缓存失效失败",
			log.String("product_id", id),
			log.Any("error", err),
		)
	}
}

func (s *ProductService) publishEvent(ctx context.Context, subject string, p *product.Product, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}

	event := &messaging.ProductEvent{
		EventType: subject,
		ProductID: p.ID,
		SKU:       p.SKU,
		Data:      data,
	}
	if err := s.publisher.PublishProductEvent(ctx, subject, event); err != nil {
		// 事件发布失败不阻塞主流程
		log.WarnContext(ctx, "商品事件发布失败",
			log.String("subject", subject),
			log.String("product_id", p.ID),
			log.Any("error", err),
		)
	}
}
