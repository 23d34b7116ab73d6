package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ERPlora/module-discounts/internal/constants"
	"github.com/ERPlora/module-discounts/internal/models"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// bogoConfig 买赠折扣配置
type bogoConfig struct {
	Buy     int             `json:"buy"`
	Get     int             `json:"get"`
	Percent decimal.Decimal `json:"percent"`
}

// calculateDiscount 计算单条规则在匹配小计上的应得折扣（未经叠加钳制）。
// 结果不超过匹配小计；max_discount 大于 0 时同时封顶。
func calculateDiscount(rule *models.DiscountRule, matched []OrderLine, matchedSubtotal decimal.Decimal) (decimal.Decimal, error) {
	var discount decimal.Decimal

	switch strings.ToLower(strings.TrimSpace(rule.DiscountType)) {
	case constants.DiscountTypePercentage:
		value := rule.Value.Decimal
		if value.LessThanOrEqual(decimal.Zero) || value.GreaterThan(oneHundred) {
			return decimal.Zero, fmt.Errorf("invalid percentage: %s", value)
		}
		discount = matchedSubtotal.Mul(value).Div(oneHundred)

	case constants.DiscountTypeFixed:
		value := rule.Value.Decimal
		if value.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, fmt.Errorf("invalid fixed amount: %s", value)
		}
		discount = value

	case constants.DiscountTypeBuyXGetY:
		bogo, err := parseBogoConfig(rule.BogoConfig)
		if err != nil {
			return decimal.Zero, err
		}
		discount = calculateBogoDiscount(bogo, matched)

	default:
		return decimal.Zero, fmt.Errorf("unknown discount type: %s", rule.DiscountType)
	}

	if rule.MaxDiscount.Decimal.GreaterThan(decimal.Zero) && discount.GreaterThan(rule.MaxDiscount.Decimal) {
		discount = rule.MaxDiscount.Decimal
	}
	if discount.GreaterThan(matchedSubtotal) {
		discount = matchedSubtotal
	}
	return discount.Round(2), nil
}

func parseBogoConfig(raw string) (bogoConfig, error) {
	var bogo bogoConfig
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return bogo, fmt.Errorf("empty bogo config")
	}
	if err := json.Unmarshal([]byte(trimmed), &bogo); err != nil {
		return bogo, fmt.Errorf("invalid bogo config: %w", err)
	}
	if bogo.Buy <= 0 || bogo.Get <= 0 {
		return bogo, fmt.Errorf("bogo quantities must be positive: buy=%d get=%d", bogo.Buy, bogo.Get)
	}
	if bogo.Percent.LessThanOrEqual(decimal.Zero) || bogo.Percent.GreaterThan(oneHundred) {
		return bogo, fmt.Errorf("invalid bogo percent: %s", bogo.Percent)
	}
	return bogo, nil
}

// calculateBogoDiscount 买 X 赠 Y：按（X+Y）件一组计算可赠件数，对最便宜的件打折。
// 单价相同按输入顺序取前者，保证同一输入结果稳定。
func calculateBogoDiscount(bogo bogoConfig, matched []OrderLine) decimal.Decimal {
	units := make([]decimal.Decimal, 0)
	for _, line := range matched {
		for i := 0; i < line.Quantity; i++ {
			units = append(units, line.UnitPrice.Decimal)
		}
	}

	groupSize := bogo.Buy + bogo.Get
	groups := len(units) / groupSize
	if groups == 0 {
		return decimal.Zero
	}

	sort.SliceStable(units, func(i, j int) bool {
		return units[i].LessThan(units[j])
	})

	freeUnits := groups * bogo.Get
	rate := bogo.Percent.Div(oneHundred)
	discount := decimal.Zero
	for i := 0; i < freeUnits && i < len(units); i++ {
		discount = discount.Add(units[i].Mul(rate))
	}
	return discount
}
