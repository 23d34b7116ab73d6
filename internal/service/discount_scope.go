package service

import (
	"fmt"
	"strings"

	"github.com/ERPlora/module-discounts/internal/constants"
	"github.com/ERPlora/module-discounts/internal/models"

	"github.com/shopspring/decimal"
)

// matchScope 按规则适用范围筛选订单行，返回匹配行与匹配小计。
// order 范围匹配全部订单行；products/categories 范围按 ScopeLinks 过滤。
func matchScope(rule *models.DiscountRule, lines []OrderLine) ([]OrderLine, decimal.Decimal, error) {
	scopeType := strings.ToLower(strings.TrimSpace(rule.ScopeType))

	var matched []OrderLine
	switch scopeType {
	case constants.ScopeTypeOrder:
		matched = lines
	case constants.ScopeTypeProducts:
		targets := scopeTargets(rule.ScopeLinks, constants.TargetKindProduct)
		for _, line := range lines {
			if _, ok := targets[line.ProductID]; ok {
				matched = append(matched, line)
			}
		}
	case constants.ScopeTypeCategories:
		targets := scopeTargets(rule.ScopeLinks, constants.TargetKindCategory)
		for _, line := range lines {
			if _, ok := targets[line.CategoryID]; ok {
				matched = append(matched, line)
			}
		}
	default:
		return nil, decimal.Zero, fmt.Errorf("unknown scope type: %s", rule.ScopeType)
	}

	subtotal := decimal.Zero
	for _, line := range matched {
		subtotal = subtotal.Add(line.LineTotal())
	}
	return matched, subtotal, nil
}

func scopeTargets(links []models.ScopeLink, targetKind string) map[uint]struct{} {
	targets := make(map[uint]struct{}, len(links))
	for _, link := range links {
		if link.TargetKind != targetKind || link.TargetID == 0 {
			continue
		}
		targets[link.TargetID] = struct{}{}
	}
	return targets
}
