package service

import (
	"testing"

	"github.com/ERPlora/module-discounts/internal/constants"
	"github.com/ERPlora/module-discounts/internal/models"

	"github.com/shopspring/decimal"
)

func moneyFromInt(amount int64) models.Money {
	return models.NewMoneyFromDecimal(decimal.NewFromInt(amount))
}

func linesWithTotal(quantity int, unitPrice int64) []OrderLine {
	return []OrderLine{
		{ProductID: 1, CategoryID: 1, Quantity: quantity, UnitPrice: moneyFromInt(unitPrice)},
	}
}

func TestCalculateDiscountPercentage(t *testing.T) {
	rule := &models.DiscountRule{
		DiscountType: constants.DiscountTypePercentage,
		Value:        moneyFromInt(20),
	}
	matched := linesWithTotal(2, 50)

	discount, err := calculateDiscount(rule, matched, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("calculate percentage failed: %v", err)
	}
	if !discount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("discount want 20, got %s", discount)
	}
}

func TestCalculateDiscountFixedClampedToSubtotal(t *testing.T) {
	rule := &models.DiscountRule{
		DiscountType: constants.DiscountTypeFixed,
		Value:        moneyFromInt(150),
	}
	matched := linesWithTotal(1, 100)

	discount, err := calculateDiscount(rule, matched, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("calculate fixed failed: %v", err)
	}
	if !discount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("fixed discount should clamp to subtotal, want 100, got %s", discount)
	}
}

func TestCalculateDiscountMaxDiscountCap(t *testing.T) {
	rule := &models.DiscountRule{
		DiscountType: constants.DiscountTypePercentage,
		Value:        moneyFromInt(50),
		MaxDiscount:  moneyFromInt(10),
	}
	matched := linesWithTotal(1, 100)

	discount, err := calculateDiscount(rule, matched, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("calculate capped percentage failed: %v", err)
	}
	if !discount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("discount want 10 after cap, got %s", discount)
	}
}

func TestCalculateDiscountPercentageRounding(t *testing.T) {
	rule := &models.DiscountRule{
		DiscountType: constants.DiscountTypePercentage,
		Value:        moneyFromInt(15),
	}
	matched := []OrderLine{
		{ProductID: 1, Quantity: 1, UnitPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("33.33"))},
	}

	discount, err := calculateDiscount(rule, matched, decimal.RequireFromString("33.33"))
	if err != nil {
		t.Fatalf("calculate rounded percentage failed: %v", err)
	}
	// 33.33 * 15% = 4.9995，保留 2 位小数
	if !discount.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("discount want 5.00, got %s", discount)
	}
}

func TestCalculateDiscountInvalidPercentage(t *testing.T) {
	rule := &models.DiscountRule{
		DiscountType: constants.DiscountTypePercentage,
		Value:        moneyFromInt(120),
	}
	if _, err := calculateDiscount(rule, linesWithTotal(1, 100), decimal.NewFromInt(100)); err == nil {
		t.Fatalf("expected error for percentage above 100")
	}

	rule.Value = moneyFromInt(0)
	if _, err := calculateDiscount(rule, linesWithTotal(1, 100), decimal.NewFromInt(100)); err == nil {
		t.Fatalf("expected error for zero percentage")
	}
}

func TestCalculateDiscountUnknownType(t *testing.T) {
	rule := &models.DiscountRule{DiscountType: "lucky_draw", Value: moneyFromInt(10)}
	if _, err := calculateDiscount(rule, linesWithTotal(1, 100), decimal.NewFromInt(100)); err == nil {
		t.Fatalf("expected error for unknown discount type")
	}
}

func TestCalculateBogoDiscountCheapestUnits(t *testing.T) {
	rule := &models.DiscountRule{
		DiscountType: constants.DiscountTypeBuyXGetY,
		BogoConfig:   `{"buy":2,"get":1,"percent":100}`,
	}
	matched := []OrderLine{
		{ProductID: 1, Quantity: 1, UnitPrice: moneyFromInt(10)},
		{ProductID: 2, Quantity: 1, UnitPrice: moneyFromInt(8)},
		{ProductID: 3, Quantity: 1, UnitPrice: moneyFromInt(6)},
	}

	discount, err := calculateDiscount(rule, matched, decimal.NewFromInt(24))
	if err != nil {
		t.Fatalf("calculate bogo failed: %v", err)
	}
	// 3 件成 1 组，赠最便宜的 1 件
	if !discount.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("bogo discount want 6, got %s", discount)
	}
}

func TestCalculateBogoDiscountHalfPriceMultipleGroups(t *testing.T) {
	bogo := bogoConfig{Buy: 1, Get: 1, Percent: decimal.NewFromInt(50)}
	matched := []OrderLine{
		{ProductID: 1, Quantity: 2, UnitPrice: moneyFromInt(20)},
		{ProductID: 2, Quantity: 2, UnitPrice: moneyFromInt(10)},
	}

	// 4 件成 2 组，赠 2 件，对最便宜的 2 件打 5 折
	discount := calculateBogoDiscount(bogo, matched)
	if !discount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("bogo half price discount want 10, got %s", discount)
	}
}

func TestCalculateBogoDiscountInsufficientUnits(t *testing.T) {
	bogo := bogoConfig{Buy: 2, Get: 1, Percent: decimal.NewFromInt(100)}
	matched := linesWithTotal(2, 30)

	discount := calculateBogoDiscount(bogo, matched)
	if !discount.IsZero() {
		t.Fatalf("expected zero discount when units below group size, got %s", discount)
	}
}

func TestParseBogoConfigInvalid(t *testing.T) {
	cases := []string{
		"",
		"not-json",
		`{"buy":0,"get":1,"percent":100}`,
		`{"buy":2,"get":0,"percent":100}`,
		`{"buy":2,"get":1,"percent":0}`,
		`{"buy":2,"get":1,"percent":150}`,
	}
	for _, raw := range cases {
		if _, err := parseBogoConfig(raw); err == nil {
			t.Fatalf("expected error for bogo config %q", raw)
		}
	}
}
