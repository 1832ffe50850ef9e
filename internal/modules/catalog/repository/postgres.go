package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"catalog-self/internal/domain/product"
	"catalog-self/internal/pkg/log"

	"github.com/friendsofgo/errors"
	"github.com/lib/pq"
)

// pgUniqueViolation PostgreSQL 唯一约束冲突错误码
const pgUniqueViolation = "23505"

// PostgresRepository 商品的 PostgreSQL 存储实现
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository 创建 PostgreSQL 商品存储
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const productColumns = `id, sku, name, description, category, price_cents, currency, stock, status, created_at, updated_at`

// Create 插入商品，SKU 冲突时返回 ErrSKUExists
func (r *PostgresRepository) Create(ctx context.Context, p *product.Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	start := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, sku, name, description, category, price_cents, currency, stock, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.SKU, p.Name, p.Description, p.Category,
		p.PriceCents, p.Currency, p.Stock, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	log.LogDatabaseOperation(ctx, "insert", "products", time.Since(start).Milliseconds(), 1, err)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pgUniqueViolation {
			return ErrSKUExists
		}
		return errors.Wrap(err, "insert product")
	}
	return nil
}

// GetByID 按 ID 查询商品
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// GetBySKU 按 SKU 查询商品
func (r *PostgresRepository) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
	return scanProduct(row)
}

// List 按条件分页查询商品
func (r *PostgresRepository) List(ctx context.Context, params QueryParams) ([]*product.Product, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argn := 0

	if params.Category != "" {
		argn++
		where += ` AND category = $` + strconv.Itoa(argn)
		args = append(args, params.Category)
	}
	if params.Status != "" {
		argn++
		where += ` AND status = $` + strconv.Itoa(argn)
		args = append(args, params.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	argn++
	limitClause := ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(argn)
	args = append(args, limit)
	argn++
	limitClause += ` OFFSET $` + strconv.Itoa(argn)
	args = append(args, params.Offset)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products`+where+limitClause, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list products")
	}
	defer rows.Close()

	var result []*product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "iterate products")
	}
	return result, total, nil
}

// Update 更新商品，不存在时返回 ErrNotFound
func (r *PostgresRepository) Update(ctx context.Context, p *product.Product) error {
	p.UpdatedAt = time.Now().UTC()

	start := time.Now()
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, category = $4, price_cents = $5,
		    currency = $6, stock = $7, status = $8, updated_at = $9
		WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Category,
		p.PriceCents, p.Currency, p.Stock, p.Status, p.UpdatedAt,
	)
	if err != nil {
		log.LogDatabaseOperation(ctx, "update", "products", time.Since(start).Milliseconds(), 0, err)
		return errors.Wrap(err, "update product")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update product rows affected")
	}
	log.LogDatabaseOperation(ctx, "update", "products", time.Since(start).Milliseconds(), affected, nil)
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete 删除商品，不存在时返回 ErrNotFound
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	start := time.Now()
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		log.LogDatabaseOperation(ctx, "delete", "products", time.Since(start).Milliseconds(), 0, err)
		return errors.Wrap(err, "delete product")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete product rows affected")
	}
	log.LogDatabaseOperation(ctx, "delete", "products", time.Since(start).Milliseconds(), affected, nil)
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

const variantColumns = `id, product_id, sku, name, price_cents, stock, attributes, created_at, updated_at`

// CreateVariant 插入商品变体，SKU 冲突时返回 ErrSKUExists
func (r *PostgresRepository) CreateVariant(ctx context.Context, v *product.Variant) error {
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	attrs, err := json.Marshal(v.Attributes)
	if err != nil {
		return errors.Wrap(err, "marshal variant attributes")
	}

	start := time.Now()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO product_variants (id, product_id, sku, name, price_cents, stock, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		v.ID, v.ProductID, v.SKU, v.Name, v.PriceCents, v.Stock, attrs, v.CreatedAt, v.UpdatedAt,
	)
	log.LogDatabaseOperation(ctx, "insert", "product_variants", time.Since(start).Milliseconds(), 1, err)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pgUniqueViolation {
			return ErrSKUExists
		}
		return errors.Wrap(err, "insert product variant")
	}
	return nil
}

// GetVariant 按 ID 查询变体
func (r *PostgresRepository) GetVariant(ctx context.Context, id string) (*product.Variant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+variantColumns+` FROM product_variants WHERE id = $1`, id)
	return scanVariant(row)
}

// ListVariants 查询商品的全部变体，按创建时间升序
func (r *PostgresRepository) ListVariants(ctx context.Context, productID string) ([]*product.Variant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+variantColumns+` FROM product_variants WHERE product_id = $1 ORDER BY created_at ASC`,
		productID)
	if err != nil {
		return nil, errors.Wrap(err, "list product variants")
	}
	defer rows.Close()

	var result []*product.Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate product variants")
	}
	return result, nil
}

// UpdateVariant 更新变体，SKU 不参与更新
func (r *PostgresRepository) UpdateVariant(ctx context.Context, v *product.Variant) error {
	v.UpdatedAt = time.Now().UTC()

	attrs, err := json.Marshal(v.Attributes)
	if err != nil {
		return errors.Wrap(err, "marshal variant attributes")
	}

	start := time.Now()
	result, err := r.db.ExecContext(ctx, `
		UPDATE product_variants
		SET name = $2, price_cents = $3, stock = $4, attributes = $5, updated_at = $6
		WHERE id = $1`,
		v.ID, v.Name, v.PriceCents, v.Stock, attrs, v.UpdatedAt,
	)
	if err != nil {
		log.LogDatabaseOperation(ctx, "update", "product_variants", time.Since(start).Milliseconds(), 0, err)
		return errors.Wrap(err, "update product variant")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update product variant rows affected")
	}
	log.LogDatabaseOperation(ctx, "update", "product_variants", time.Since(start).Milliseconds(), affected, nil)
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteVariant 删除变体
func (r *PostgresRepository) DeleteVariant(ctx context.Context, id string) error {
	start := time.Now()
	result, err := r.db.ExecContext(ctx, `DELETE FROM product_variants WHERE id = $1`, id)
	if err != nil {
		log.LogDatabaseOperation(ctx, "delete", "product_variants", time.Since(start).Milliseconds(), 0, err)
		return errors.Wrap(err, "delete product variant")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete product variant rows affected")
	}
	log.LogDatabaseOperation(ctx, "delete", "product_variants", time.Since(start).Milliseconds(), affected, nil)
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner 兼容 *sql.Row 和 *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanVariant(s scanner) (*product.Variant, error) {
	var v product.Variant
	var attrs []byte
	err := s.Scan(
		&v.ID, &v.ProductID, &v.SKU, &v.Name,
		&v.PriceCents, &v.Stock, &attrs,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan product variant")
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &v.Attributes); err != nil {
			return nil, errors.Wrap(err, "unmarshal variant attributes")
		}
	}
	return &v, nil
}

func scanProduct(s scanner) (*product.Product, error) {
	var p product.Product
	err := s.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.Category,
		&p.PriceCents, &p.Currency, &p.Stock, &p.Status,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan product")
	}
	return &p, nil
}
