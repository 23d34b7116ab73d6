package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ERPlora/module-discounts/internal/constants"
	"github.com/ERPlora/module-discounts/internal/models"

	"github.com/shopspring/decimal"
)

// evaluateConditions 评估规则的附加条件，条件之间按 AND 组合，遇第一个失败即返回。
// 数量与金额门槛针对规则命中的订单行求值，而非整单。
// 条件值解析失败返回 error，由上层标记为配置无效。
func evaluateConditions(rule *models.DiscountRule, input ResolveInput, matched []OrderLine, matchedSubtotal decimal.Decimal, now time.Time) (bool, error) {
	for _, condition := range rule.Conditions {
		ok, err := evaluateCondition(condition, input, matched, matchedSubtotal, now)
		if err != nil {
			return false, fmt.Errorf("condition %d (%s): %w", condition.ID, condition.ConditionType, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func evaluateCondition(condition models.DiscountCondition, input ResolveInput, matched []OrderLine, matchedSubtotal decimal.Decimal, now time.Time) (bool, error) {
	conditionType := strings.ToLower(strings.TrimSpace(condition.ConditionType))
	operator := strings.ToLower(strings.TrimSpace(condition.Operator))
	value := strings.TrimSpace(condition.Value)

	switch conditionType {
	case constants.ConditionMinQuantity:
		if operator != constants.OperatorGte {
			return false, fmt.Errorf("unsupported operator: %s", operator)
		}
		threshold, err := strconv.Atoi(value)
		if err != nil || threshold < 0 {
			return false, fmt.Errorf("invalid quantity threshold: %q", value)
		}
		total := 0
		for _, line := range matched {
			total += line.Quantity
		}
		return total >= threshold, nil

	case constants.ConditionMinAmount:
		if operator != constants.OperatorGte {
			return false, fmt.Errorf("unsupported operator: %s", operator)
		}
		threshold, err := decimal.NewFromString(value)
		if err != nil {
			return false, fmt.Errorf("invalid amount threshold: %q", value)
		}
		return matchedSubtotal.GreaterThanOrEqual(threshold), nil

	case constants.ConditionCustomerGroup:
		group := strings.ToLower(strings.TrimSpace(input.CustomerGroup))
		switch operator {
		case constants.OperatorEq:
			return group != "" && group == strings.ToLower(value), nil
		case constants.OperatorIn:
			var groups []string
			if err := json.Unmarshal([]byte(value), &groups); err != nil {
				return false, fmt.Errorf("invalid group list: %q", value)
			}
			for _, item := range groups {
				if group != "" && group == strings.ToLower(strings.TrimSpace(item)) {
					return true, nil
				}
			}
			return false, nil
		default:
			return false, fmt.Errorf("unsupported operator: %s", operator)
		}

	case constants.ConditionFirstPurchase:
		if operator != constants.OperatorEq {
			return false, fmt.Errorf("unsupported operator: %s", operator)
		}
		expected, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid boolean: %q", value)
		}
		return input.FirstPurchase == expected, nil

	case constants.ConditionDayOfWeek:
		if operator != constants.OperatorIn {
			return false, fmt.Errorf("unsupported operator: %s", operator)
		}
		var days []int
		if err := json.Unmarshal([]byte(value), &days); err != nil {
			return false, fmt.Errorf("invalid weekday list: %q", value)
		}
		today := mondayWeekday(now)
		for _, day := range days {
			if day < 0 || day > 6 {
				return false, fmt.Errorf("weekday out of range: %d", day)
			}
			if day == today {
				return true, nil
			}
		}
		return false, nil

	case constants.ConditionTimeOfDay:
		if operator != constants.OperatorBetween {
			return false, fmt.Errorf("unsupported operator: %s", operator)
		}
		var window []string
		if err := json.Unmarshal([]byte(value), &window); err != nil || len(window) != 2 {
			return false, fmt.Errorf("invalid time window: %q", value)
		}
		return withinClockWindow(window[0], window[1], now)

	default:
		return false, fmt.Errorf("unknown condition type: %s", conditionType)
	}
}

// mondayWeekday 将 Go 的星期（周日=0）换算为周一=0 的编码
func mondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// withinClockWindow 判断时刻是否落在 [start, end) 的每日时间窗内，支持跨午夜窗口
func withinClockWindow(start, end string, now time.Time) (bool, error) {
	startMinute, err := parseClockMinute(start)
	if err != nil {
		return false, err
	}
	endMinute, err := parseClockMinute(end)
	if err != nil {
		return false, err
	}

	current := now.Hour()*60 + now.Minute()
	if startMinute <= endMinute {
		return current >= startMinute && current < endMinute, nil
	}
	return current >= startMinute || current < endMinute, nil
}

func parseClockMinute(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value: %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid clock hour: %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid clock minute: %q", value)
	}
	return hour*60 + minute, nil
}
