package models

import (
	"time"

	"gorm.io/gorm"
)

// DiscountUsage 折扣使用记录（每条规则每笔销售最多一条，保证重放幂等）
type DiscountUsage struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                              // 主键
	RuleID           uint           `gorm:"not null;uniqueIndex:idx_usage_rule_sale" json:"rule_id"`           // 规则ID
	SaleID           uint           `gorm:"not null;index;uniqueIndex:idx_usage_rule_sale" json:"sale_id"`     // 销售单ID
	CustomerID       uint           `gorm:"index;not null;default:0" json:"customer_id"`                       // 客户ID（0 表示匿名）
	OriginalAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"original_amount"`      // 折前金额（规则匹配小计）
	DiscountedAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discounted_amount"`    // 折后金额
	AppliedAt        time.Time      `gorm:"index;not null" json:"applied_at"`                                  // 应用时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                           // 创建时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                    // 软删除时间
}

// TableName 指定表名
func (DiscountUsage) TableName() string {
	return "discount_usages"
}
