package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ERPlora/module-discounts/internal/http/response"
	"github.com/ERPlora/module-discounts/internal/models"
	"github.com/ERPlora/module-discounts/internal/repository"
	"github.com/ERPlora/module-discounts/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ScopeLinkRequest 范围关联请求
type ScopeLinkRequest struct {
	TargetKind string `json:"target_kind" binding:"required"`
	TargetID   uint   `json:"target_id" binding:"required"`
}

// ConditionRequest 附加条件请求
type ConditionRequest struct {
	ConditionType string `json:"condition_type" binding:"required"`
	Operator      string `json:"operator" binding:"required"`
	Value         string `json:"value" binding:"required"`
}

// SaveRuleRequest 创建/更新折扣规则请求
type SaveRuleRequest struct {
	Kind             string             `json:"kind" binding:"required"`
	Name             string             `json:"name" binding:"required"`
	Code             string             `json:"code"`
	DiscountType     string             `json:"discount_type" binding:"required"`
	Value            float64            `json:"value"`
	BogoConfig       string             `json:"bogo_config"`
	ScopeType        string             `json:"scope_type" binding:"required"`
	MinAmount        float64            `json:"min_amount"`
	MaxDiscount      float64            `json:"max_discount"`
	UsageLimit       int                `json:"usage_limit"`
	PerCustomerLimit int                `json:"per_customer_limit"`
	Priority         int                `json:"priority"`
	AllowStacking    bool               `json:"allow_stacking"`
	DaysOfWeek       []int              `json:"days_of_week"`
	StartTime        string             `json:"start_time"`
	EndTime          string             `json:"end_time"`
	StartsAt         string             `json:"starts_at"`
	EndsAt           string             `json:"ends_at"`
	IsActive         *bool              `json:"is_active"`
	ScopeLinks       []ScopeLinkRequest `json:"scope_links"`
	Conditions       []ConditionRequest `json:"conditions"`
}

func (req SaveRuleRequest) toServiceInput() (service.SaveRuleInput, error) {
	startsAt, err := parseTimeNullable(req.StartsAt)
	if err != nil {
		return service.SaveRuleInput{}, err
	}
	endsAt, err := parseTimeNullable(req.EndsAt)
	if err != nil {
		return service.SaveRuleInput{}, err
	}

	links := make([]service.ScopeLinkInput, 0, len(req.ScopeLinks))
	for _, link := range req.ScopeLinks {
		links = append(links, service.ScopeLinkInput{
			TargetKind: link.TargetKind,
			TargetID:   link.TargetID,
		})
	}
	conditions := make([]service.ConditionInput, 0, len(req.Conditions))
	for _, condition := range req.Conditions {
		conditions = append(conditions, service.ConditionInput{
			ConditionType: condition.ConditionType,
			Operator:      condition.Operator,
			Value:         condition.Value,
		})
	}

	return service.SaveRuleInput{
		Kind:             req.Kind,
		Name:             req.Name,
		Code:             req.Code,
		DiscountType:     req.DiscountType,
		Value:            models.NewMoneyFromDecimal(decimal.NewFromFloat(req.Value)),
		BogoConfig:       req.BogoConfig,
		ScopeType:        req.ScopeType,
		MinAmount:        models.NewMoneyFromDecimal(decimal.NewFromFloat(req.MinAmount)),
		MaxDiscount:      models.NewMoneyFromDecimal(decimal.NewFromFloat(req.MaxDiscount)),
		UsageLimit:       req.UsageLimit,
		PerCustomerLimit: req.PerCustomerLimit,
		Priority:         req.Priority,
		AllowStacking:    req.AllowStacking,
		DaysOfWeek:       req.DaysOfWeek,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		StartsAt:         startsAt,
		EndsAt:           endsAt,
		IsActive:         req.IsActive,
		ScopeLinks:       links,
		Conditions:       conditions,
	}, nil
}

// CreateRule 创建折扣规则
func (h *Handler) CreateRule(c *gin.Context) {
	var req SaveRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	input, err := req.toServiceInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	rule, err := h.DiscountAdminService.Create(input)
	if err != nil {
		respondRuleError(c, err, "创建折扣规则失败")
		return
	}

	response.Success(c, rule)
}

// UpdateRule 更新折扣规则
func (h *Handler) UpdateRule(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	var req SaveRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	input, err := req.toServiceInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	rule, err := h.DiscountAdminService.Update(ruleID, input)
	if err != nil {
		respondRuleError(c, err, "更新折扣规则失败")
		return
	}

	response.Success(c, rule)
}

// DeleteRule 删除折扣规则
func (h *Handler) DeleteRule(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	if err := h.DiscountAdminService.Delete(ruleID); err != nil {
		respondRuleError(c, err, "删除折扣规则失败")
		return
	}
	response.Success(c, gin.H{
		"deleted": true,
	})
}

// DeactivateRule 停用折扣规则
func (h *Handler) DeactivateRule(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	if err := h.DiscountAdminService.Deactivate(ruleID); err != nil {
		respondRuleError(c, err, "停用折扣规则失败")
		return
	}
	requestLog(c).Infow("discount_rule_deactivated", "rule_id", ruleID)
	response.Success(c, gin.H{
		"deactivated": true,
	})
}

// GetAdminRule 获取折扣规则详情
func (h *Handler) GetAdminRule(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	rule, err := h.DiscountAdminService.Get(ruleID)
	if err != nil {
		respondRuleError(c, err, "获取折扣规则失败")
		return
	}
	response.Success(c, rule)
}

// GetAdminRules 获取折扣规则列表
func (h *Handler) GetAdminRules(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	kind := strings.TrimSpace(c.Query("kind"))
	code := strings.TrimSpace(c.Query("code"))
	var isActive *bool
	if raw := c.Query("is_active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "请求参数无效", err)
			return
		}
		isActive = &parsed
	}

	rules, total, err := h.DiscountAdminService.List(repository.RuleListFilter{
		Kind:     kind,
		Code:     code,
		IsActive: isActive,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取折扣规则列表失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, rules, pagination)
}

func parseRuleID(c *gin.Context) (uint, bool) {
	ruleID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || ruleID == 0 {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return 0, false
	}
	return uint(ruleID), true
}

func respondRuleError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrRuleNotFound):
		respondError(c, response.CodeNotFound, "折扣规则不存在", nil)
	case errors.Is(err, service.ErrRuleKindInvalid):
		respondError(c, response.CodeBadRequest, "折扣规则类型无效", nil)
	case errors.Is(err, service.ErrRuleCodeRequired):
		respondError(c, response.CodeBadRequest, "优惠码不能为空", nil)
	case errors.Is(err, service.ErrRuleCodeTaken):
		respondError(c, response.CodeBadRequest, "优惠码已被占用", nil)
	case errors.Is(err, service.ErrRuleValueInvalid):
		respondError(c, response.CodeBadRequest, "折扣配置无效", nil)
	case errors.Is(err, service.ErrRuleScopeInvalid):
		respondError(c, response.CodeBadRequest, "折扣作用范围无效", nil)
	case errors.Is(err, service.ErrRuleWindowInvalid):
		respondError(c, response.CodeBadRequest, "生效时间窗口无效", nil)
	default:
		respondError(c, response.CodeInternal, fallbackMsg, err)
	}
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
