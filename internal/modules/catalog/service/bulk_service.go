package service

import (
	"context"

	"catalog-self/internal/domain/product"
	"catalog-self/internal/modules/catalog/repository"
	"catalog-self/internal/pkg/log"
	"catalog-self/internal/pkg/xerrors"
)

// bulkMaxItems 单次批量操作的条目上限
const bulkMaxItems = 100

// BulkUpdateItem 批量更新中的单条记录
type BulkUpdateItem struct {
	ID    string
	Input UpdateInput
}

// BulkCreateProducts 批量创建商品。整批校验通过才会写入：
// 先收集所有价格非法和 SKU 冲突的条目，任一失败则整批拒绝。
func (s *ProductService) BulkCreateProducts(ctx context.Context, inputs []CreateInput) ([]*product.Product, error) {
	if err := checkBulkSize(len(inputs)); err != nil {
		return nil, err
	}

	list := xerrors.NewErrorList()
	seen := make(map[string]bool, len(inputs))
	for i, input := range inputs {
		if input.PriceCents <= 0 {
			list.Add(xerrors.FromCode(xerrors.CodeInvalidPrice).
				WithMetadata("index", i).
				WithMetadata("sku", input.SKU))
			continue
		}
		if seen[input.SKU] {
			list.Add(xerrors.NewSKUExistsError(input.SKU).WithMetadata("index", i))
			continue
		}
		seen[input.SKU] = true

		_, err := s.repo.GetBySKU(ctx, input.SKU)
		if err == nil {
			list.Add(xerrors.NewSKUExistsError(input.SKU).WithMetadata("index", i))
		} else if err != repository.ErrNotFound {
			return nil, xerrors.NewDatabaseError("select", "products", err)
		}
	}
	if list.HasErrors() {
		return nil, bulkError(list)
	}

	created := make([]*product.Product, 0, len(inputs))
	for _, input := range inputs {
		p, err := s.CreateProduct(ctx, input)
		if err != nil {
			return nil, err
		}
		created = append(created, p)
	}

	log.LogBusinessEvent(ctx, "product.bulk_created", "product", "", map[string]interface{}{
		"count": len(created),
	})
	return created, nil
}

// BulkUpdateProducts 批量更新商品。先确认所有 ID 都存在，
// 任一缺失则整批拒绝；随后逐条更新，每条都会失效缓存并发布事件。
func (s *ProductService) BulkUpdateProducts(ctx context.Context, updates []BulkUpdateItem) ([]*product.Product, error) {
	if err := checkBulkSize(len(updates)); err != nil {
		return nil, err
	}

	list := xerrors.NewErrorList()
	for i, u := range updates {
		if _, err := s.repo.GetByID(ctx, u.ID); err != nil {
			if err == repository.ErrNotFound {
				list.Add(xerrors.NewProductNotFoundError(u.ID).WithMetadata("index", i))
				continue
			}
			return nil, xerrors.NewDatabaseError("select", "products", err)
		}
	}
	if list.HasErrors() {
		return nil, bulkError(list)
	}

	updated := make([]*product.Product, 0, len(updates))
	for _, u := range updates {
		p, err := s.UpdateProduct(ctx, u.ID, u.Input)
		if err != nil {
			return nil, err
		}
		updated = append(updated, p)
	}

	log.LogBusinessEvent(ctx, "product.bulk_updated", "product", "", map[string]interface{}{
		"count": len(updated),
	})
	return updated, nil
}

func checkBulkSize(n int) error {
	if n == 0 {
		return xerrors.NewValidationError("items", "批量操作至少需要一条记录")
	}
	if n > bulkMaxItems {
		return xerrors.FromCode(xerrors.CodeInvalidParams).
			WithMetadata("items", n).
			WithMetadata("max_items", bulkMaxItems)
	}
	return nil
}

// bulkError 把整批校验错误汇总成一个响应错误，
// 首条错误决定错误码，其余条目记录在元数据里
func bulkError(list *xerrors.ErrorList) error {
	first := list.First()

	failed := make([]map[string]interface{}, 0, len(list.Errors))
	for _, e := range list.Errors {
		item := map[string]interface{}{"code": e.Code.ToInt()}
		if e.Context != nil {
			for k, v := range e.Context.Metadata {
				item[k] = v
			}
		}
		failed = append(failed, item)
	}

	return first.
		WithMetadata("error_count", len(list.Errors)).
		WithMetadata("failed_items", failed)
}
