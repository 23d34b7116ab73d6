package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/ERPlora/module-discounts/internal/constants"
)

// DiscountRule 折扣规则（优惠券与自动促销共用一张表，以 kind 区分）
type DiscountRule struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                      // 主键
	Kind             string         `gorm:"not null;index" json:"kind"`                                // 规则种类（coupon/promotion）
	Name             string         `gorm:"not null" json:"name"`                                      // 名称
	Code             string         `gorm:"index" json:"code"`                                         // 优惠码（仅 coupon，promotion 为空）
	DiscountType     string         `gorm:"not null" json:"discount_type"`                             // 折扣类型（percentage/fixed_amount/buy_x_get_y）
	Value            Money          `gorm:"type:decimal(20,2);not null" json:"value"`                  // 数值（百分比或固定金额）
	BogoConfig       string         `gorm:"type:text" json:"bogo_config"`                              // 买赠配置（JSON：{buy,get,percent}）
	ScopeType        string         `gorm:"not null" json:"scope_type"`                                // 适用范围（order/products/categories）
	MinAmount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_amount"`   // 最低消费门槛（作用于匹配小计）
	MaxDiscount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"max_discount"` // 最大优惠金额（0 表示不限制）
	UsageLimit       int            `gorm:"not null;default:0" json:"usage_limit"`                     // 总使用上限（0 表示不限制）
	UsedCount        int            `gorm:"not null;default:0" json:"used_count"`                      // 已使用次数
	PerCustomerLimit int            `gorm:"not null;default:0" json:"per_customer_limit"`              // 每客户使用上限（0 表示不限制）
	Priority         int            `gorm:"not null;default:0;index" json:"priority"`                  // 优先级（小值先应用）
	AllowStacking    bool           `gorm:"not null;default:false" json:"allow_stacking"`              // 是否允许与其他规则叠加
	DaysOfWeek       string         `gorm:"type:text" json:"days_of_week"`                             // 生效星期集合（JSON 数组，0=周一..6=周日，空为不限）
	StartTime        string         `json:"start_time"`                                                // 每日生效开始（HH:MM，空为不限）
	EndTime          string         `json:"end_time"`                                                  // 每日生效结束（HH:MM，空为不限）
	StartsAt         *time.Time     `gorm:"index" json:"starts_at"`                                    // 生效时间
	EndsAt           *time.Time     `gorm:"index" json:"ends_at"`                                      // 失效时间
	IsActive         bool           `gorm:"not null;default:true" json:"is_active"`                    // 是否启用
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	ScopeLinks []ScopeLink         `gorm:"foreignKey:RuleID" json:"scope_links"` // 范围关联
	Conditions []DiscountCondition `gorm:"foreignKey:RuleID" json:"conditions"`  // 附加条件
}

// TableName 指定表名
func (DiscountRule) TableName() string {
	return "discount_rules"
}

// Status 计算规则的派生状态（不落库）
func (r *DiscountRule) Status(now time.Time) string {
	if !r.IsActive {
		return constants.RuleStatusDraft
	}
	if r.StartsAt != nil && now.Before(*r.StartsAt) {
		return constants.RuleStatusDraft
	}
	if r.EndsAt != nil && !now.Before(*r.EndsAt) {
		return constants.RuleStatusExpired
	}
	if r.UsageLimit > constants.UsageLimitUnlimited && r.UsedCount >= r.UsageLimit {
		return constants.RuleStatusExhausted
	}
	return constants.RuleStatusActive
}
