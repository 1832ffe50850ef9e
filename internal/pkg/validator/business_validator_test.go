package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type skuForm struct {
	SKU string `validate:"required,sku_code"`
}

type currencyForm struct {
	Currency string `validate:"omitempty,currency_code"`
}

type categoryForm struct {
	Category string `validate:"required,category_code"`
}

type descriptionForm struct {
	Description string `validate:"safe_description"`
}

func TestSKUCodeValidation(t *testing.T) {
	bv := NewBusinessValidator()

	valid := []string{"ABC", "CATALOG-001", "A1-B2-C3", "000"}
	for _, sku := range valid {
		assert.NoError(t, bv.Validate(skuForm{SKU: sku}), sku)
	}

	invalid := []string{
		"ab-001",  // 小写
		"-ABC",    // 连字符开头
		"ABC-",    // 连字符结尾
		"AB",      // 太短
		"A B C",   // 空格
		strings.Repeat("A", 65), // 太长
	}
	for _, sku := range invalid {
		assert.Error(t, bv.Validate(skuForm{SKU: sku}), sku)
	}
}

func TestCurrencyCodeValidation(t *testing.T) {
	bv := NewBusinessValidator()

	assert.NoError(t, bv.Validate(currencyForm{Currency: "CNY"}))
	assert.NoError(t, bv.Validate(currencyForm{Currency: "USD"}))
	// 空值留给 required 规则
	assert.NoError(t, bv.Validate(currencyForm{Currency: ""}))

	assert.Error(t, bv.Validate(currencyForm{Currency: "cny"}))
	assert.Error(t, bv.Validate(currencyForm{Currency: "CN"}))
	assert.Error(t, bv.Validate(currencyForm{Currency: "CNYY"}))
	assert.Error(t, bv.Validate(currencyForm{Currency: "C1Y"}))
}

func TestCategoryCodeValidation(t *testing.T) {
	bv := NewBusinessValidator()

	assert.NoError(t, bv.Validate(categoryForm{Category: "peripherals"}))
	assert.NoError(t, bv.Validate(categoryForm{Category: "home_audio2"}))

	assert.Error(t, bv.Validate(categoryForm{Category: "a"}))           // 太短
	assert.Error(t, bv.Validate(categoryForm{Category: "Peripherals"})) // 大写
	assert.Error(t, bv.Validate(categoryForm{Category: "1audio"}))      // 数字开头
	assert.Error(t, bv.Validate(categoryForm{Category: "home-audio"}))  // 连字符
	assert.Error(t, bv.Validate(categoryForm{Category: strings.Repeat("a", 33)}))
}

func TestSafeDescriptionValidation(t *testing.T) {
	bv := NewBusinessValidator()

	assert.NoError(t, bv.Validate(descriptionForm{Description: "一把带 RGB 背光的机械键盘"}))
	assert.NoError(t, bv.Validate(descriptionForm{Description: ""}))
	assert.NoError(t, bv.Validate(descriptionForm{Description: strings.Repeat("字", 2000)}))

	assert.Error(t, bv.Validate(descriptionForm{Description: strings.Repeat("字", 2001)}))
	assert.Error(t, bv.Validate(descriptionForm{Description: "<SCRIPT>alert(1)</SCRIPT>"}))
	assert.Error(t, bv.Validate(descriptionForm{Description: "点击 javascript:evil()"}))
	assert.Error(t, bv.Validate(descriptionForm{Description: `<img onerror=alert(1)>`}))
}

func TestEngineSharesCustomRules(t *testing.T) {
	bv := NewBusinessValidator()
	engine := bv.Engine()
	require.NotNil(t, engine)

	// Engine 返回的实例带有全部自定义规则
	require.Error(t, engine.Struct(skuForm{SKU: "bad sku"}))
	require.NoError(t, engine.Struct(skuForm{SKU: "ABC-001"}))
}
