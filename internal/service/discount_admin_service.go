package service

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ERPlora/module-discounts/internal/constants"
	"github.com/ERPlora/module-discounts/internal/logger"
	"github.com/ERPlora/module-discounts/internal/models"
	"github.com/ERPlora/module-discounts/internal/queue"
	"github.com/ERPlora/module-discounts/internal/repository"

	"github.com/shopspring/decimal"
)

// DiscountAdminService 折扣规则管理服务
type DiscountAdminService struct {
	repo        repository.DiscountRuleRepository
	queueClient *queue.Client
}

// NewDiscountAdminService 创建折扣规则管理服务
func NewDiscountAdminService(repo repository.DiscountRuleRepository, queueClient *queue.Client) *DiscountAdminService {
	return &DiscountAdminService{
		repo:        repo,
		queueClient: queueClient,
	}
}

// ScopeLinkInput 范围关联输入
type ScopeLinkInput struct {
	TargetKind string `json:"target_kind"`
	TargetID   uint   `json:"target_id"`
}

// ConditionInput 附加条件输入
type ConditionInput struct {
	ConditionType string `json:"condition_type"`
	Operator      string `json:"operator"`
	Value         string `json:"value"`
}

// SaveRuleInput 创建/更新折扣规则输入
type SaveRuleInput struct {
	Kind             string           `json:"kind"`
	Name             string           `json:"name"`
	Code             string           `json:"code"`
	DiscountType     string           `json:"discount_type"`
	Value            models.Money     `json:"value"`
	BogoConfig       string           `json:"bogo_config"`
	ScopeType        string           `json:"scope_type"`
	MinAmount        models.Money     `json:"min_amount"`
	MaxDiscount      models.Money     `json:"max_discount"`
	UsageLimit       int              `json:"usage_limit"`
	PerCustomerLimit int              `json:"per_customer_limit"`
	Priority         int              `json:"priority"`
	AllowStacking    bool             `json:"allow_stacking"`
	DaysOfWeek       []int            `json:"days_of_week"`
	StartTime        string           `json:"start_time"`
	EndTime          string           `json:"end_time"`
	StartsAt         *time.Time       `json:"starts_at"`
	EndsAt           *time.Time       `json:"ends_at"`
	IsActive         *bool            `json:"is_active"`
	ScopeLinks       []ScopeLinkInput `json:"scope_links"`
	Conditions       []ConditionInput `json:"conditions"`
}

// Create 创建折扣规则
func (s *DiscountAdminService) Create(input SaveRuleInput) (*models.DiscountRule, error) {
	rule, err := s.buildRule(&models.DiscountRule{}, input)
	if err != nil {
		return nil, err
	}

	if rule.Kind == constants.RuleKindCoupon {
		dup, err := s.repo.GetCouponByCode(rule.Code)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, ErrRuleCodeTaken
		}
	}

	if err := s.repo.Create(rule); err != nil {
		return nil, err
	}
	s.scheduleExpire(rule)
	return s.repo.GetByID(rule.ID)
}

// Update 更新折扣规则
func (s *DiscountAdminService) Update(id uint, input SaveRuleInput) (*models.DiscountRule, error) {
	if id == 0 {
		return nil, ErrRuleNotFound
	}
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrRuleNotFound
	}

	rule, err := s.buildRule(existing, input)
	if err != nil {
		return nil, err
	}

	if rule.Kind == constants.RuleKindCoupon {
		dup, err := s.repo.GetCouponByCode(rule.Code)
		if err != nil {
			return nil, err
		}
		if dup != nil && dup.ID != id {
			return nil, ErrRuleCodeTaken
		}
	}

	links := rule.ScopeLinks
	conditions := rule.Conditions
	rule.ScopeLinks = nil
	rule.Conditions = nil
	if err := s.repo.Update(rule); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceScopeLinks(id, links); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceConditions(id, conditions); err != nil {
		return nil, err
	}
	s.scheduleExpire(rule)
	return s.repo.GetByID(id)
}

// Delete 删除折扣规则
func (s *DiscountAdminService) Delete(id uint) error {
	if id == 0 {
		return ErrRuleNotFound
	}
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrRuleNotFound
	}
	return s.repo.Delete(id)
}

// Get 获取折扣规则详情
func (s *DiscountAdminService) Get(id uint) (*models.DiscountRule, error) {
	rule, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}
	return rule, nil
}

// List 获取折扣规则列表
func (s *DiscountAdminService) List(filter repository.RuleListFilter) ([]models.DiscountRule, int64, error) {
	return s.repo.List(filter)
}

// Deactivate 停用折扣规则（到期任务与管理端共用）
func (s *DiscountAdminService) Deactivate(id uint) error {
	rule, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if rule == nil {
		return ErrRuleNotFound
	}
	if !rule.IsActive {
		return nil
	}
	rule.IsActive = false
	rule.ScopeLinks = nil
	rule.Conditions = nil
	return s.repo.Update(rule)
}

// DeactivateExpired 停用所有生效窗口已结束的规则，返回停用数量。
// 到期任务投递失败或进程重启丢任务时由周期清扫兜底。
func (s *DiscountAdminService) DeactivateExpired(now time.Time) (int, error) {
	rules, err := s.repo.ListExpired(now)
	if err != nil {
		return 0, err
	}
	deactivated := 0
	for i := range rules {
		rule := rules[i]
		rule.IsActive = false
		rule.ScopeLinks = nil
		rule.Conditions = nil
		if err := s.repo.Update(&rule); err != nil {
			return deactivated, err
		}
		deactivated++
	}
	return deactivated, nil
}

// buildRule 校验输入并组装规则模型
func (s *DiscountAdminService) buildRule(base *models.DiscountRule, input SaveRuleInput) (*models.DiscountRule, error) {
	kind := strings.ToLower(strings.TrimSpace(input.Kind))
	if kind != constants.RuleKindCoupon && kind != constants.RuleKindPromotion {
		return nil, ErrRuleKindInvalid
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrRuleValueInvalid
	}

	code := strings.TrimSpace(input.Code)
	if kind == constants.RuleKindCoupon && code == "" {
		return nil, ErrRuleCodeRequired
	}
	if kind == constants.RuleKindPromotion {
		code = ""
	}

	discountType := strings.ToLower(strings.TrimSpace(input.DiscountType))
	switch discountType {
	case constants.DiscountTypePercentage:
		if input.Value.Decimal.LessThanOrEqual(decimal.Zero) || input.Value.Decimal.GreaterThan(oneHundred) {
			return nil, ErrRuleValueInvalid
		}
	case constants.DiscountTypeFixed:
		if input.Value.Decimal.LessThanOrEqual(decimal.Zero) {
			return nil, ErrRuleValueInvalid
		}
	case constants.DiscountTypeBuyXGetY:
		if _, err := parseBogoConfig(input.BogoConfig); err != nil {
			return nil, ErrRuleValueInvalid
		}
	default:
		return nil, ErrRuleValueInvalid
	}

	scopeType := strings.ToLower(strings.TrimSpace(input.ScopeType))
	links, err := buildScopeLinks(scopeType, input.ScopeLinks)
	if err != nil {
		return nil, err
	}

	conditions, err := buildConditions(input.Conditions)
	if err != nil {
		return nil, err
	}

	if input.StartsAt != nil && input.EndsAt != nil && !input.EndsAt.After(*input.StartsAt) {
		return nil, ErrRuleWindowInvalid
	}

	daysOfWeek, err := encodeDaysOfWeek(input.DaysOfWeek)
	if err != nil {
		return nil, ErrRuleWindowInvalid
	}
	startTime := strings.TrimSpace(input.StartTime)
	endTime := strings.TrimSpace(input.EndTime)
	if (startTime == "") != (endTime == "") {
		return nil, ErrRuleWindowInvalid
	}
	if startTime != "" {
		if _, err := parseClockMinute(startTime); err != nil {
			return nil, ErrRuleWindowInvalid
		}
		if _, err := parseClockMinute(endTime); err != nil {
			return nil, ErrRuleWindowInvalid
		}
	}

	if input.UsageLimit < 0 || input.PerCustomerLimit < 0 {
		return nil, ErrRuleValueInvalid
	}

	isActive := true
	if base.ID != 0 {
		isActive = base.IsActive
	}
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	rule := base
	rule.Kind = kind
	rule.Name = name
	rule.Code = code
	rule.DiscountType = discountType
	rule.Value = input.Value
	rule.BogoConfig = strings.TrimSpace(input.BogoConfig)
	rule.ScopeType = scopeType
	rule.MinAmount = input.MinAmount
	rule.MaxDiscount = input.MaxDiscount
	rule.UsageLimit = input.UsageLimit
	rule.PerCustomerLimit = input.PerCustomerLimit
	rule.Priority = input.Priority
	rule.AllowStacking = input.AllowStacking
	rule.DaysOfWeek = daysOfWeek
	rule.StartTime = startTime
	rule.EndTime = endTime
	rule.StartsAt = input.StartsAt
	rule.EndsAt = input.EndsAt
	rule.IsActive = isActive
	rule.ScopeLinks = links
	rule.Conditions = conditions
	return rule, nil
}

// scheduleExpire 规则带结束时间时，投递延迟任务在窗口关闭后停用规则
func (s *DiscountAdminService) scheduleExpire(rule *models.DiscountRule) {
	if rule == nil || rule.EndsAt == nil || !rule.IsActive {
		return
	}
	delay := time.Until(*rule.EndsAt)
	if err := s.queueClient.EnqueueRuleExpire(queue.RuleExpirePayload{RuleID: rule.ID}, delay); err != nil {
		logger.Warnw("rule_expire_enqueue_failed", "rule_id", rule.ID, "error", err)
	}
}

func buildScopeLinks(scopeType string, inputs []ScopeLinkInput) ([]models.ScopeLink, error) {
	var targetKind string
	switch scopeType {
	case constants.ScopeTypeOrder:
		if len(inputs) > 0 {
			return nil, ErrRuleScopeInvalid
		}
		return nil, nil
	case constants.ScopeTypeProducts:
		targetKind = constants.TargetKindProduct
	case constants.ScopeTypeCategories:
		targetKind = constants.TargetKindCategory
	default:
		return nil, ErrRuleScopeInvalid
	}

	if len(inputs) == 0 {
		return nil, ErrRuleScopeInvalid
	}
	seen := make(map[uint]struct{}, len(inputs))
	links := make([]models.ScopeLink, 0, len(inputs))
	for _, item := range inputs {
		kind := strings.ToLower(strings.TrimSpace(item.TargetKind))
		if kind != targetKind || item.TargetID == 0 {
			return nil, ErrRuleScopeInvalid
		}
		if _, ok := seen[item.TargetID]; ok {
			continue
		}
		seen[item.TargetID] = struct{}{}
		links = append(links, models.ScopeLink{
			TargetKind: kind,
			TargetID:   item.TargetID,
		})
	}
	return links, nil
}

func buildConditions(inputs []ConditionInput) ([]models.DiscountCondition, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	conditions := make([]models.DiscountCondition, 0, len(inputs))
	for _, item := range inputs {
		condition := models.DiscountCondition{
			ConditionType: strings.ToLower(strings.TrimSpace(item.ConditionType)),
			Operator:      strings.ToLower(strings.TrimSpace(item.Operator)),
			Value:         strings.TrimSpace(item.Value),
		}
		// 入库前做一次试算，拒绝引擎无法解析的条件
		if _, err := evaluateCondition(condition, ResolveInput{}, nil, decimal.Zero, time.Now()); err != nil {
			return nil, ErrRuleValueInvalid
		}
		conditions = append(conditions, condition)
	}
	return conditions, nil
}

func encodeDaysOfWeek(days []int) (string, error) {
	if len(days) == 0 {
		return "", nil
	}
	seen := make(map[int]struct{}, len(days))
	normalized := make([]int, 0, len(days))
	for _, day := range days {
		if day < 0 || day > 6 {
			return "", ErrRuleWindowInvalid
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		normalized = append(normalized, day)
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}
