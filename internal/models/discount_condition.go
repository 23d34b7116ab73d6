package models

import (
	"time"

	"gorm.io/gorm"
)

// DiscountCondition 折扣规则附加条件（同一规则的所有条件按 AND 组合）
type DiscountCondition struct {
	ID            uint           `gorm:"primarykey" json:"id"`              // 主键
	RuleID        uint           `gorm:"not null;index" json:"rule_id"`     // 规则ID
	ConditionType string         `gorm:"not null" json:"condition_type"`    // 条件类型（min_quantity/min_amount/customer_group/first_purchase/day_of_week/time_of_day）
	Operator      string         `gorm:"not null" json:"operator"`          // 运算符（gte/eq/in/between）
	Value         string         `gorm:"type:text;not null" json:"value"`   // 条件值（JSON 或标量文本）
	CreatedAt     time.Time      `json:"created_at"`                        // 创建时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                    // 软删除时间
}

// TableName 指定表名
func (DiscountCondition) TableName() string {
	return "discount_conditions"
}
