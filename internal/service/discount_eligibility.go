package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ERPlora/module-discounts/internal/constants"
	"github.com/ERPlora/module-discounts/internal/logger"
	"github.com/ERPlora/module-discounts/internal/models"

	"github.com/shopspring/decimal"
)

// evaluateRule 对单条规则做完整评估：状态、日程、范围、门槛、限额、条件与折扣计算。
// 不适用只记录原因，不产生错误；配置问题记为 config_invalid 并告警，同样不中断整体计算。
func (s *DiscountService) evaluateRule(rule *models.DiscountRule, input ResolveInput, now time.Time) (*ruleCandidate, error) {
	candidate := &ruleCandidate{rule: rule}

	switch rule.Status(now) {
	case constants.RuleStatusActive:
	case constants.RuleStatusExpired:
		candidate.reason = constants.ReasonExpired
		return candidate, nil
	case constants.RuleStatusExhausted:
		candidate.reason = constants.ReasonUsageLimit
		return candidate, nil
	default:
		if !rule.IsActive {
			candidate.reason = constants.ReasonInactive
		} else {
			candidate.reason = constants.ReasonNotStarted
		}
		return candidate, nil
	}

	inSchedule, err := withinSchedule(rule, now)
	if err != nil {
		candidate.reason = constants.ReasonConfigInvalid
		logger.Warnw("discount_rule_config_invalid", "rule_id", rule.ID, "error", err)
		return candidate, nil
	}
	if !inSchedule {
		candidate.reason = constants.ReasonSchedule
		return candidate, nil
	}

	matched, matchedSubtotal, err := matchScope(rule, input.Lines)
	if err != nil {
		candidate.reason = constants.ReasonConfigInvalid
		logger.Warnw("discount_rule_config_invalid", "rule_id", rule.ID, "error", err)
		return candidate, nil
	}
	candidate.matched = matched
	candidate.subtotal = matchedSubtotal
	if len(matched) == 0 {
		candidate.reason = constants.ReasonScopeUnmatched
		return candidate, nil
	}

	if rule.MinAmount.Decimal.GreaterThan(decimal.Zero) && matchedSubtotal.LessThan(rule.MinAmount.Decimal) {
		candidate.reason = constants.ReasonMinAmount
		return candidate, nil
	}

	if rule.PerCustomerLimit > 0 && input.CustomerID != 0 {
		count, err := s.usageRepo.CountByCustomer(rule.ID, input.CustomerID)
		if err != nil {
			return nil, err
		}
		if int(count) >= rule.PerCustomerLimit {
			candidate.reason = constants.ReasonPerCustomerLimit
			return candidate, nil
		}
	}

	conditionsOK, err := evaluateConditions(rule, input, matched, matchedSubtotal, now)
	if err != nil {
		candidate.reason = constants.ReasonConfigInvalid
		logger.Warnw("discount_rule_config_invalid", "rule_id", rule.ID, "error", err)
		return candidate, nil
	}
	if !conditionsOK {
		candidate.reason = constants.ReasonConditionFailed
		return candidate, nil
	}

	discount, err := calculateDiscount(rule, matched, matchedSubtotal)
	if err != nil {
		candidate.reason = constants.ReasonConfigInvalid
		logger.Warnw("discount_rule_config_invalid", "rule_id", rule.ID, "error", err)
		return candidate, nil
	}
	candidate.entitled = discount
	return candidate, nil
}

// withinSchedule 判断当前时刻是否落在规则的星期集合与每日时间窗内
func withinSchedule(rule *models.DiscountRule, now time.Time) (bool, error) {
	days := strings.TrimSpace(rule.DaysOfWeek)
	if days != "" {
		var allowed []int
		if err := json.Unmarshal([]byte(days), &allowed); err != nil {
			return false, fmt.Errorf("invalid days_of_week: %q", days)
		}
		if len(allowed) > 0 {
			today := mondayWeekday(now)
			match := false
			for _, day := range allowed {
				if day < 0 || day > 6 {
					return false, fmt.Errorf("weekday out of range: %d", day)
				}
				if day == today {
					match = true
				}
			}
			if !match {
				return false, nil
			}
		}
	}

	start := strings.TrimSpace(rule.StartTime)
	end := strings.TrimSpace(rule.EndTime)
	if start == "" && end == "" {
		return true, nil
	}
	if start == "" || end == "" {
		return false, fmt.Errorf("incomplete time window: start=%q end=%q", start, end)
	}
	return withinClockWindow(start, end, now)
}
