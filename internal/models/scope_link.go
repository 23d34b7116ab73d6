package models

import (
	"time"

	"gorm.io/gorm"
)

// ScopeLink 折扣规则与商品/分类的范围关联
type ScopeLink struct {
	ID         uint           `gorm:"primarykey" json:"id"`                                                 // 主键
	RuleID     uint           `gorm:"not null;uniqueIndex:idx_scope_rule_target" json:"rule_id"`            // 规则ID
	TargetKind string         `gorm:"not null;uniqueIndex:idx_scope_rule_target" json:"target_kind"`        // 目标类型（product/category）
	TargetID   uint           `gorm:"not null;index;uniqueIndex:idx_scope_rule_target" json:"target_id"`    // 目标ID
	CreatedAt  time.Time      `json:"created_at"`                                                           // 创建时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                                       // 软删除时间
}

// TableName 指定表名
func (ScopeLink) TableName() string {
	return "discount_scope_links"
}
