package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"catalog-self/internal/domain/product"
	"catalog-self/internal/modules/catalog/repository"
	"catalog-self/internal/pkg/correlation"
	"catalog-self/internal/pkg/messaging"
	"catalog-self/internal/pkg/redis"
	"catalog-self/internal/pkg/xerrors"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePublisher 记录发布的事件，供断言
type fakePublisher struct {
	mu     sync.Mutex
	events []*messaging.ProductEvent
}

func (f *fakePublisher) PublishProductEvent(ctx context.Context, subject string, event *messaging.ProductEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.EventType)
	}
	return types
}

type serviceFixture struct {
	svc       *ProductService
	repo      *repository.MemoryRepository
	cache     *miniredis.Miniredis
	publisher *fakePublisher
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := repository.NewMemoryRepository()
	publisher := &fakePublisher{}
	executor := correlation.NewExecutor(2, 16)
	t.Cleanup(func() { _ = executor.Shutdown(context.Background()) })

	svc := NewProductService(repo, redis.Wrap(rdb, "catalog"), publisher, executor, time.Minute)
	return &serviceFixture{svc: svc, repo: repo, cache: mr, publisher: publisher}
}

func validCreateInput() CreateInput {
	return CreateInput{
		SKU:        "CATALOG-001",
		Name:       "机械键盘",
		Category:   "peripherals",
		PriceCents: 29900,
		Currency:   "CNY",
		Stock:      10,
	}
}

func mustCreate(t *testing.T, f *serviceFixture) *product.Product {
	t.Helper()
	p, err := f.svc.CreateProduct(context.Background(), validCreateInput())
	require.NoError(t, err)
	return p
}

func appErrorCode(t *testing.T, err error) xerrors.ErrorCode {
	t.Helper()
	appErr, ok := err.(*xerrors.AppError)
	require.True(t, ok, "期望 AppError，实际是 %T", err)
	return appErr.Code
}

func TestCreateProduct(t *testing.T) {
	f := newServiceFixture(t)

	p := mustCreate(t, f)
	require.NotEmpty(t, p.ID)
	require.Equal(t, product.StatusDraft, p.Status)
	require.Equal(t, "CNY", p.Currency)

	// 事件已发布
	require.Equal(t, []string{messaging.SubjectProductCreated}, f.publisher.eventTypes())

	// 缓存异步回填
	key := cacheKeyPrefix + p.ID
	require.Eventually(t, func() bool {
		return f.cache.Exists(key)
	}, 2*time.Second, 10*time.Millisecond)

	var cached product.Product
	raw, err := f.cache.Get(key)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	require.Equal(t, p.ID, cached.ID)
}

func TestCreateProductInvalidPrice(t *testing.T) {
	f := newServiceFixture(t)

	input := validCreateInput()
	input.PriceCents = 0
	_, err := f.svc.CreateProduct(context.Background(), input)
	require.Error(t, err)
	require.Equal(t, xerrors.CodeInvalidPrice, appErrorCode(t, err))
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	f := newServiceFixture(t)
	mustCreate(t, f)

	_, err := f.svc.CreateProduct(context.Background(), validCreateInput())
	require.Error(t, err)
	require.Equal(t, xerrors.CodeProductSKUExists, appErrorCode(t, err))
}

func TestGetProductCacheAside(t *testing.T) {
	f := newServiceFixture(t)
	p := mustCreate(t, f)

	key := cacheKeyPrefix + p.ID
	require.Eventually(t, func() bool {
		return f.cache.Exists(key)
	}, 2*time.Second, 10*time.Millisecond)

	// 命中缓存：即使仓库里的记录被改掉，读到的仍是缓存内容
	stored, err := f.repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	stored.Name = "改过的名字"
	require.NoError(t, f.repo.Update(context.Background(), stored))

	got, err := f.svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "机械键盘", got.Name)

	// 缓存失效后回源并重新回填
	f.cache.Del(key)
	got, err = f.svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "改过的名字", got.Name)

	require.Eventually(t, func() bool {
		return f.cache.Exists(key)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetProductNotFound(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.GetProduct(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, xerrors.CodeProductNotFound, appErrorCode(t, err))
}

func TestGetProductCorruptCacheFallsBack(t *testing.T) {
	f := newServiceFixture(t)
	p := mustCreate(t, f)

	key := cacheKeyPrefix + p.ID
	require.NoError(t, f.cache.Set(key, "not-json"))

	got, err := f.svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
}

func TestUpdateProductInvalidatesCache(t *testing.T) {
	f := newServiceFixture(t)
	p := mustCreate(t, f)

	key := cacheKeyPrefix + p.ID
	require.Eventually(t, func() bool {
		return f.cache.Exists(key)
	}, 2*time.Second, 10*time.Millisecond)

	name := "升级款机械键盘"
	price := int64(39900)
	updated, err := f.svc.UpdateProduct(context.Background(), p.ID, UpdateInput{
		Name:       &name,
		PriceCents: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, price, updated.PriceCents)

	// 写路径失效缓存
	require.False(t, f.cache.Exists(key))
	require.Contains(t, f.publisher.eventTypes(), messaging.SubjectProductUpdated)
}

func TestUpdateProductInvalidPrice(t *testing.T) {
	f := newServiceFixture(t)
	p := mustCreate(t, f)

	bad := int64(-1)
	_, err := f.svc.UpdateProduct(context.Background(), p.ID, UpdateInput{PriceCents: &bad})
	require.Error(t, err)
	require.Equal(t, xerrors.CodeInvalidPrice, appErrorCode(t, err))
}

func TestChangeStatusTransitions(t *testing.T) {
	f := newServiceFixture(t)
	p := mustCreate(t, f)

	// draft → active
	got, err := f.svc.ChangeStatus(context.Background(), p.ID, product.StatusActive)
	require.NoError(t, err)
	require.Equal(t, product.StatusActive, got.Status)

	// active → draft 不允许
	_, err = f.svc.ChangeStatus(context.Background(), p.ID, product.StatusDraft)
	require.Error(t, err)
	require.Equal(t, xerrors.CodeInvalidStatusChange, appErrorCode(t, err))

	// active → discontinued
	got, err = f.svc.ChangeStatus(context.Background(), p.ID, product.StatusDiscontinued)
	require.NoError(t, err)
	require.Equal(t, product.StatusDiscontinued, got.Status)

	// 状态事件携带 from/to
	var statusEvent *messaging.ProductEvent
	for _, e := range f.publisher.events {
		if e.EventType == messaging.SubjectProductStatusChanged {
			statusEvent = e
		}
	}
	require.NotNil(t, statusEvent)
	require.Equal(t, "active", statusEvent.Data["from"])
	require.Equal(t, "discontinued", statusEvent.Data["to"])
}

func TestChangeStatusUnknownStatus(t *testing.T) {
	f := newServiceFixture(t)
	p := mustCreate(t, f)

	_, err := f.svc.ChangeStatus(context.Background(), p.ID, product.Status("archived"))
	require.Error(t, err)
	require.Equal(t, xerrors.CodeInvalidParams, appErrorCode(t, err))
}

func TestAdjustStock(t *testing.T) {
	f := newServiceFixture(t)
	p := mustCreate(t, f)

	got, err := f.svc.AdjustStock(context.Background(), p.ID, -4)
	require.NoError(t, err)
	require.Equal(t, 6, got.Stock)

	got, err = f.svc.AdjustStock(context.Background(), p.ID, 10)
	require.NoError(t, err)
	require.Equal(t, 16, got.Stock)
}

func TestAdjustStockInsufficient(t *testing.T) {
	f := newServiceFixture(t)
	p := mustCreate(t, f)

	_, err := f.svc.AdjustStock(context.Background(), p.ID, -11)
	require.Error(t, err)
	require.Equal(t, xerrors.CodeInsufficientStock, appErrorCode(t, err))

	// 失败不应改动库存
	got, err := f.svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, 10, got.Stock)
}

func TestDeleteProduct(t *testing.T) {
	f := newServiceFixture(t)
	p := mustCreate(t, f)

	require.NoError(t, f.svc.DeleteProduct(context.Background(), p.ID))

	_, err := f.svc.GetProduct(context.Background(), p.ID)
	require.Error(t, err)
	require.Equal(t, xerrors.CodeProductNotFound, appErrorCode(t, err))
	require.Contains(t, f.publisher.eventTypes(), messaging.SubjectProductDeleted)
}

func TestWarmActiveProducts(t *testing.T) {
	f := newServiceFixture(t)
	p := mustCreate(t, f)
	_, err := f.svc.ChangeStatus(context.Background(), p.ID, product.StatusActive)
	require.NoError(t, err)

	// 先清掉已有缓存，验证预热任务重新写入
	key := cacheKeyPrefix + p.ID
	f.cache.Del(key)

	require.NoError(t, f.svc.WarmActiveProducts(context.Background()))
	require.Eventually(t, func() bool {
		return f.cache.Exists(key)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestInvalidateProduct(t *testing.T) {
	f := newServiceFixture(t)
	p := mustCreate(t, f)

	key := cacheKeyPrefix + p.ID
	require.Eventually(t, func() bool {
		return f.cache.Exists(key)
	}, 2*time.Second, 10*time.Millisecond)

	f.svc.InvalidateProduct(context.Background(), p.ID)
	require.False(t, f.cache.Exists(key))
}

func TestServiceDegradedWithoutCacheAndPublisher(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewProductService(repo, nil, nil, nil, 0)

	p, err := svc.CreateProduct(context.Background(), validCreateInput())
	require.NoError(t, err)

	got, err := svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
}
