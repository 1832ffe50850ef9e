package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// BusinessValidator 业务规则验证器
type BusinessValidator struct {
	validator *validator.Validate
}

// NewBusinessValidator 创建新的业务验证器
func NewBusinessValidator() *BusinessValidator {
	v := validator.New()

	// 注册自定义验证规则
	v.RegisterValidation("sku_code", validateSKUCode)
	v.RegisterValidation("currency_code", validateCurrencyCode)
	v.RegisterValidation("category_code", validateCategoryCode)
	v.RegisterValidation("safe_description", validateSafeDescription)

	return &BusinessValidator{
		validator: v,
	}
}

// Validate 验证结构体
func (bv *BusinessValidator) Validate(i interface{}) error {
	return bv.validator.Struct(i)
}

// Engine 返回底层 validator 实例，供 Echo 验证器复用自定义规则
func (bv *BusinessValidator) Engine() *validator.Validate {
	return bv.validator
}

var skuPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{1,62}[A-Z0-9]$`)

// validateSKUCode 验证 SKU 格式
// 规则：3-64 字符，大写字母、数字和连字符，不能以连字符开头或结尾
func validateSKUCode(fl validator.FieldLevel) bool {
	return skuPattern.MatchString(fl.Field().String())
}

// validateCurrencyCode 验证货币代码（ISO 4217 三位大写字母）
func validateCurrencyCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if code == "" {
		return true // 空值由 required 规则负责
	}
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

var categoryPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// validateCategoryCode 验证类目代码格式：小写字母开头，小写字母、数字和下划线
func validateCategoryCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) < 2 || len(code) > 32 {
		return false
	}
	return categoryPattern.MatchString(code)
}

// validateSafeDescription 验证描述内容安全性
// 拒绝包含脚本标签等危险内容，长度不超过 2000 字符
func validateSafeDescription(fl validator.FieldLevel) bool {
	desc := fl.Field().String()
	if utf8.RuneCountInString(desc) > 2000 {
		return false
	}

	lower := strings.ToLower(desc)
	dangerous := []string{"<script", "javascript:", "onerror=", "onload="}
	for _, pattern := range dangerous {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	return true
}
