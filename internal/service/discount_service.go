package service

import (
	"strings"
	"time"

	"github.com/ERPlora/module-discounts/internal/constants"
	"github.com/ERPlora/module-discounts/internal/logger"
	"github.com/ERPlora/module-discounts/internal/models"
	"github.com/ERPlora/module-discounts/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderLine 待结算订单行
type OrderLine struct {
	ProductID  uint         `json:"product_id"`
	CategoryID uint         `json:"category_id"`
	Quantity   int          `json:"quantity"`
	UnitPrice  models.Money `json:"unit_price"`
}

// LineTotal 行小计
func (l OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ResolveInput 折扣计算输入
type ResolveInput struct {
	Lines         []OrderLine `json:"lines"`
	CustomerID    uint        `json:"customer_id"`
	CustomerGroup string      `json:"customer_group"`
	FirstPurchase bool        `json:"first_purchase"`
	CouponCode    string      `json:"coupon_code"`
	Now           time.Time   `json:"-"`
}

// RuleBreakdown 单条规则的评估明细
type RuleBreakdown struct {
	RuleID   uint         `json:"rule_id"`
	Kind     string       `json:"kind"`
	Name     string       `json:"name"`
	Code     string       `json:"code,omitempty"`
	Applied  bool         `json:"applied"`
	Reason   string       `json:"reason,omitempty"`
	Subtotal models.Money `json:"subtotal"`
	Discount models.Money `json:"discount"`
}

// ResolveResult 折扣计算结果
type ResolveResult struct {
	Subtotal  models.Money    `json:"subtotal"`
	Discount  models.Money    `json:"discount"`
	Total     models.Money    `json:"total"`
	Breakdown []RuleBreakdown `json:"breakdown"`
}

// CouponValidation 优惠码校验结果
type CouponValidation struct {
	Valid    bool                 `json:"valid"`
	Reason   string               `json:"reason,omitempty"`
	Discount models.Money         `json:"discount"`
	Rule     *models.DiscountRule `json:"rule,omitempty"`
}

// DiscountService 折扣解析服务
type DiscountService struct {
	ruleRepo  repository.DiscountRuleRepository
	usageRepo repository.DiscountUsageRepository
}

// NewDiscountService 创建折扣解析服务
func NewDiscountService(ruleRepo repository.DiscountRuleRepository, usageRepo repository.DiscountUsageRepository) *DiscountService {
	return &DiscountService{
		ruleRepo:  ruleRepo,
		usageRepo: usageRepo,
	}
}

// Resolve 计算订单折扣（纯预览，不落库）。
// 同一输入在相同规则集下结果可复现；单条规则不适用不会中断其余规则的评估。
func (s *DiscountService) Resolve(input ResolveInput) (*ResolveResult, error) {
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	subtotal := decimal.Zero
	for _, line := range input.Lines {
		subtotal = subtotal.Add(line.LineTotal())
	}

	rules, err := s.collectRules(input)
	if err != nil {
		return nil, err
	}
	sortRulesByPriority(rules)

	candidates := make([]*ruleCandidate, 0, len(rules))
	for i := range rules {
		candidate, err := s.evaluateRule(&rules[i], input, now)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}

	applyStacking(candidates, subtotal)

	result := &ResolveResult{
		Subtotal:  models.NewMoneyFromDecimal(subtotal),
		Breakdown: make([]RuleBreakdown, 0, len(candidates)),
	}
	totalDiscount := decimal.Zero
	for _, candidate := range candidates {
		totalDiscount = totalDiscount.Add(candidate.applied)
		result.Breakdown = append(result.Breakdown, RuleBreakdown{
			RuleID:   candidate.rule.ID,
			Kind:     candidate.rule.Kind,
			Name:     candidate.rule.Name,
			Code:     candidate.rule.Code,
			Applied:  candidate.reason == "",
			Reason:   candidate.reason,
			Subtotal: models.NewMoneyFromDecimal(candidate.subtotal),
			Discount: models.NewMoneyFromDecimal(candidate.applied),
		})
	}
	result.Discount = models.NewMoneyFromDecimal(totalDiscount)
	result.Total = models.NewMoneyFromDecimal(subtotal.Sub(totalDiscount))
	return result, nil
}

// ValidateCoupon 校验优惠码在给定订单上下文中是否可用
func (s *DiscountService) ValidateCoupon(code string, input ResolveInput) (*CouponValidation, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, ErrRuleNotFound
	}

	rule, err := s.ruleRepo.GetCouponByCode(trimmed)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}

	input.CouponCode = trimmed
	result, err := s.Resolve(input)
	if err != nil {
		return nil, err
	}

	for _, item := range result.Breakdown {
		if item.RuleID != rule.ID {
			continue
		}
		return &CouponValidation{
			Valid:    item.Applied,
			Reason:   item.Reason,
			Discount: item.Discount,
			Rule:     rule,
		}, nil
	}
	return &CouponValidation{Valid: false, Reason: constants.ReasonScopeUnmatched, Rule: rule}, nil
}

// CommitSale 结算落账：重新计算折扣并为每条应用的规则占用额度、写入使用记录。
// 同一销售单重复提交幂等；额度被并发耗尽时返回 ErrUsageConflict，调用方应重新计算。
func (s *DiscountService) CommitSale(saleID uint, input ResolveInput) (*ResolveResult, error) {
	if saleID == 0 {
		return nil, ErrSaleIDInvalid
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now()
		input.Now = now
	}

	result, err := s.Resolve(input)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.CouponCode) != "" && !couponApplied(result, input.CouponCode) {
		return nil, ErrRuleIneligible
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		ruleRepo := s.ruleRepo.WithTx(tx)
		usageRepo := s.usageRepo.WithTx(tx)

		for _, item := range result.Breakdown {
			if !item.Applied {
				continue
			}

			existing, err := usageRepo.GetBySale(item.RuleID, saleID)
			if err != nil {
				return err
			}
			if existing != nil {
				// 同一销售单重放，跳过已落账的规则
				continue
			}

			rule, err := ruleRepo.GetByID(item.RuleID)
			if err != nil {
				return err
			}
			if rule == nil {
				return ErrUsageConflict
			}
			if rule.PerCustomerLimit > 0 && input.CustomerID != 0 {
				count, err := usageRepo.CountByCustomer(rule.ID, input.CustomerID)
				if err != nil {
					return err
				}
				if int(count) >= rule.PerCustomerLimit {
					return ErrUsageConflict
				}
			}

			reserved, err := ruleRepo.ReserveUsage(item.RuleID)
			if err != nil {
				return err
			}
			if !reserved {
				return ErrUsageConflict
			}

			usage := &models.DiscountUsage{
				RuleID:           item.RuleID,
				SaleID:           saleID,
				CustomerID:       input.CustomerID,
				OriginalAmount:   item.Subtotal,
				DiscountedAmount: models.NewMoneyFromDecimal(item.Subtotal.Decimal.Sub(item.Discount.Decimal)),
				AppliedAt:        now,
			}
			if err := usageRepo.Create(usage); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("discount_sale_committed",
		"sale_id", saleID,
		"customer_id", input.CustomerID,
		"discount", result.Discount.String(),
	)
	return result, nil
}

// ReleaseSale 撤销销售单的折扣落账（归还额度并删除使用记录）
func (s *DiscountService) ReleaseSale(saleID uint) error {
	if saleID == 0 {
		return nil
	}
	return models.DB.Transaction(func(tx *gorm.DB) error {
		ruleRepo := s.ruleRepo.WithTx(tx)
		usageRepo := s.usageRepo.WithTx(tx)

		usages, err := usageRepo.ListBySale(saleID)
		if err != nil {
			return err
		}
		for _, usage := range usages {
			if err := ruleRepo.ReleaseUsage(usage.RuleID, 1); err != nil {
				return err
			}
		}
		return usageRepo.DeleteBySale(saleID)
	})
}

// collectRules 收集候选规则：启用中的促销，外加显式提供的优惠码
func (s *DiscountService) collectRules(input ResolveInput) ([]models.DiscountRule, error) {
	rules, err := s.ruleRepo.ListActivePromotions()
	if err != nil {
		return nil, err
	}

	code := strings.TrimSpace(input.CouponCode)
	if code == "" {
		return rules, nil
	}

	coupon, err := s.ruleRepo.GetCouponByCode(code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrRuleNotFound
	}
	return append(rules, *coupon), nil
}

func couponApplied(result *ResolveResult, code string) bool {
	trimmed := strings.TrimSpace(code)
	for _, item := range result.Breakdown {
		if item.Kind == constants.RuleKindCoupon && item.Code == trimmed && item.Applied {
			return true
		}
	}
	return false
}
