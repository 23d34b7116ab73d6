package service

import (
	"sort"

	"github.com/ERPlora/module-discounts/internal/constants"
	"github.com/ERPlora/module-discounts/internal/models"

	"github.com/shopspring/decimal"
)

// ruleCandidate 单条规则的评估中间态
type ruleCandidate struct {
	rule     *models.DiscountRule
	matched  []OrderLine
	subtotal decimal.Decimal // 范围匹配小计
	entitled decimal.Decimal // 应得折扣（未经剩余金额钳制）
	applied  decimal.Decimal // 实际应用折扣
	reason   string          // 非空表示未应用及其原因
}

// sortRulesByPriority 按优先级升序排列（小值先应用），同优先级按创建顺序
func sortRulesByPriority(rules []models.DiscountRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		if !rules[i].CreatedAt.Equal(rules[j].CreatedAt) {
			return rules[i].CreatedAt.Before(rules[j].CreatedAt)
		}
		return rules[i].ID < rules[j].ID
	})
}

// applyStacking 对已具备资格的候选按顺序贪心叠加。
// 不可叠加的规则只能作为唯一折扣；每次应用都以剩余金额钳制，合计折扣不会超过订单小计。
func applyStacking(candidates []*ruleCandidate, orderSubtotal decimal.Decimal) {
	remaining := orderSubtotal
	appliedAny := false
	soleOnly := false

	for _, candidate := range candidates {
		if candidate.reason != "" {
			continue
		}
		if soleOnly || (appliedAny && !candidate.rule.AllowStacking) {
			candidate.reason = constants.ReasonStackingConflict
			continue
		}

		discount := candidate.entitled
		if discount.GreaterThan(remaining) {
			discount = remaining
		}
		if discount.LessThanOrEqual(decimal.Zero) {
			candidate.reason = constants.ReasonNoDiscount
			continue
		}

		candidate.applied = discount
		remaining = remaining.Sub(discount)
		appliedAny = true
		if !candidate.rule.AllowStacking {
			soleOnly = true
		}
	}
}
