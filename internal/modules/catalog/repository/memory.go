package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"catalog-self/internal/domain/product"
)

// MemoryRepository 内存商品存储，用于测试和本地开发
type MemoryRepository struct {
	mu           sync.RWMutex
	products     map[string]*product.Product
	bySKU        map[string]string
	variants     map[string]*product.Variant
	variantBySKU map[string]string
}

// NewMemoryRepository 创建内存商品存储
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products:     make(map[string]*product.Product),
		bySKU:        make(map[string]string),
		variants:     make(map[string]*product.Variant),
		variantBySKU: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySKU[p.SKU]; exists {
		return ErrSKUExists
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	clone := *p
	r.products[p.ID] = &clone
	r.bySKU[p.SKU] = p.ID
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *MemoryRepository) GetBySKU(_ context.Context, sku string) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySKU[sku]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *r.products[id]
	return &clone, nil
}

func (r *MemoryRepository) List(_ context.Context, params QueryParams) ([]*product.Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*product.Product
	for _, p := range r.products {
		if params.Category != "" && p.Category != params.Category {
			continue
		}
		if params.Status != "" && p.Status != params.Status {
			continue
		}
		clone := *p
		matched = append(matched, &clone)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)

	offset := params.Offset
	if offset > total {
		offset = total
	}
	matched = matched[offset:]

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit < len(matched) {
		matched = matched[:limit]
	}

	return matched, total, nil
}

func (r *MemoryRepository) Update(_ context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[p.ID]
	if !ok {
		return ErrNotFound
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	clone := *p
	r.products[p.ID] = &clone
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.bySKU, p.SKU)
	delete(r.products, id)

	// 级联删除所属变体
	for vid, v := range r.variants {
		if v.ProductID == id {
			delete(r.variantBySKU, v.SKU)
			delete(r.variants, vid)
		}
	}
	return nil
}

func (r *MemoryRepository) CreateVariant(_ context.Context, v *product.Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.variantBySKU[v.SKU]; exists {
		return ErrSKUExists
	}

	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	r.variants[v.ID] = v.Clone()
	r.variantBySKU[v.SKU] = v.ID
	return nil
}

func (r *MemoryRepository) GetVariant(_ context.Context, id string) (*product.Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.variants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return v.Clone(), nil
}

func (r *MemoryRepository) ListVariants(_ context.Context, productID string) ([]*product.Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*product.Variant
	for _, v := range r.variants {
		if v.ProductID == productID {
			matched = append(matched, v.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

func (r *MemoryRepository) UpdateVariant(_ context.Context, v *product.Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.variants[v.ID]
	if !ok {
		return ErrNotFound
	}

	// SKU 不可变更，沿用已有索引
	v.SKU = existing.SKU
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = time.Now().UTC()

	r.variants[v.ID] = v.Clone()
	return nil
}

func (r *MemoryRepository) DeleteVariant(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.variants[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.variantBySKU, v.SKU)
	delete(r.variants, id)
	return nil
}
