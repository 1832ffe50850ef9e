// File: internal/pkg/xerrors/errors_test.go
package xerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewAppError 测试创建 AppError 时自动填充级别、分类和可重试属性
func TestNewAppError(t *testing.T) {
	appErr := New(CodeProductNotFound, "商品不存在")

	assert.Equal(t, CodeProductNotFound, appErr.Code)
	assert.Equal(t, "商品不存在", appErr.Message)
	assert.Equal(t, "catalog", appErr.Category)
	assert.Equal(t, LevelError, appErr.Level)
	assert.False(t, appErr.Retryable)
	assert.False(t, appErr.Timestamp.IsZero())
}

// TestFromCode 测试根据错误码创建错误时使用预定义消息
func TestFromCode(t *testing.T) {
	appErr := FromCode(CodeInsufficientStock)
	assert.Equal(t, CodeInsufficientStock, appErr.Code)
	assert.Equal(t, "库存不足", appErr.Message)

	// 未定义的错误码回退到内部错误消息
	unknown := FromCode(ErrorCode(999999))
	assert.Equal(t, "内部服务错误", unknown.Message)
}

// TestAppErrorUnwrap 测试错误链: errors.Is 能穿透 AppError 找到原始错误
func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	appErr := NewWithError(CodeDatabaseError, "查询失败", cause)

	assert.True(t, errors.Is(appErr, cause))
	assert.Contains(t, appErr.Error(), "connection reset")
	assert.Contains(t, appErr.Error(), "700003")
}

// TestWrap 测试错误包装行为
func TestWrap(t *testing.T) {
	// nil 错误不包装
	assert.Nil(t, Wrap(nil, CodeInternalError, "不应出现"))

	// 已经是 AppError 直接透传，不丢失原始错误码
	original := FromCode(CodeProductSKUExists)
	wrapped := Wrap(original, CodeInternalError, "外层消息")
	assert.Same(t, original, wrapped)

	// 标准错误被包装为 AppError
	stdErr := fmt.Errorf("磁盘已满")
	wrapped = Wrap(stdErr, CodeDatabaseError, "写入失败")
	require.NotNil(t, wrapped)
	assert.Equal(t, CodeDatabaseError, wrapped.Code)
	assert.True(t, errors.Is(wrapped, stdErr))
}

// TestWithCorrelation 测试关联标识写入错误上下文
func TestWithCorrelation(t *testing.T) {
	appErr := FromCode(CodeProductNotFound).WithCorrelation("trace-1", "req-1")

	require.NotNil(t, appErr.Context)
	assert.Equal(t, "trace-1", appErr.Context.TraceID)
	assert.Equal(t, "req-1", appErr.Context.RequestID)
}

// TestWithMetadata 测试链式追加元数据
func TestWithMetadata(t *testing.T) {
	appErr := FromCode(CodeInvalidPrice).
		WithMetadata("price_cents", -100).
		WithMetadata("currency", "CNY")

	require.NotNil(t, appErr.Context)
	assert.Equal(t, -100, appErr.Context.Metadata["price_cents"])
	assert.Equal(t, "CNY", appErr.Context.Metadata["currency"])
}

// TestRetryableAndCritical 测试按错误码推导的业务属性
func TestRetryableAndCritical(t *testing.T) {
	dbErr := FromCode(CodeDatabaseError)
	assert.True(t, dbErr.IsRetryable())
	assert.True(t, dbErr.IsCritical())

	bizErr := FromCode(CodeInvalidStatusChange)
	assert.False(t, bizErr.IsRetryable())
	assert.False(t, bizErr.IsCritical())
}

// TestGetHTTPStatus 测试业务错误码到 HTTP 状态码的映射
func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code ErrorCode
		want int
	}{
		{"成功", CodeSuccess, 200},
		{"商品不存在", CodeProductNotFound, 404},
		{"变体不存在", CodeVariantNotFound, 404},
		{"SKU 冲突", CodeProductSKUExists, 409},
		{"变体 SKU 冲突", CodeVariantSKUExists, 409},
		{"参数错误", CodeInvalidParams, 400},
		{"价格无效", CodeInvalidPrice, 400},
		{"限流", CodeRateLimitExceeded, 429},
		{"库存不足归入业务规则冲突", CodeInsufficientStock, 422},
		{"状态流转无效归入业务规则冲突", CodeInvalidStatusChange, 422},
		{"业务逻辑错误", CodeBusinessLogicError, 400},
		{"数据库错误", CodeDatabaseError, 503},
		{"消息队列错误", CodeMessageQueueError, 503},
		{"未定义错误码", ErrorCode(42), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

// TestErrorCodeHelpers 测试错误码的辅助方法
func TestErrorCodeHelpers(t *testing.T) {
	assert.True(t, CodeProductNotFound.IsValid())
	assert.False(t, ErrorCode(999999).IsValid())

	assert.Equal(t, "商品不存在", CodeProductNotFound.Message())
	assert.Equal(t, "未知错误", ErrorCode(999999).Message())

	assert.Contains(t, CodeProductNotFound.String(), "200001")
	assert.Equal(t, 200001, CodeProductNotFound.ToInt())
}

// TestQuickConstructors 测试快捷构造函数填充的元数据
func TestQuickConstructors(t *testing.T) {
	skuErr := NewSKUExistsError("CATALOG-001")
	assert.Equal(t, CodeProductSKUExists, skuErr.Code)
	assert.Equal(t, "CATALOG-001", skuErr.Context.Metadata["sku"])

	stockErr := NewInsufficientStockError("p-1", 5, 2)
	assert.Equal(t, CodeInsufficientStock, stockErr.Code)
	assert.Equal(t, 5, stockErr.Context.Metadata["requested"])
	assert.Equal(t, 2, stockErr.Context.Metadata["available"])

	statusErr := NewInvalidStatusChangeError("active", "draft")
	assert.Equal(t, CodeInvalidStatusChange, statusErr.Code)
	assert.Equal(t, "active", statusErr.Context.Metadata["from_status"])
	assert.Equal(t, "draft", statusErr.Context.Metadata["to_status"])
}

// TestErrorList 测试批量错误收集
func TestErrorList(t *testing.T) {
	list := NewErrorList()
	assert.False(t, list.HasErrors())
	assert.Nil(t, list.First())
	assert.Equal(t, "no errors", list.Error())

	list.Add(nil) // nil 不计入
	assert.False(t, list.HasErrors())

	first := FromCode(CodeInvalidPrice)
	list.Add(first)
	assert.Equal(t, first.Error(), list.Error())

	list.Add(FromCode(CodeProductNotFound))
	assert.True(t, list.HasErrors())
	assert.Same(t, first, list.First())
	assert.Equal(t, "2 errors occurred", list.Error())
}
