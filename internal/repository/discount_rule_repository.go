package repository

import (
	"errors"
	"time"

	"github.com/ERPlora/module-discounts/internal/constants"
	"github.com/ERPlora/module-discounts/internal/models"

	"gorm.io/gorm"
)

// DiscountRuleRepository 折扣规则数据访问接口
type DiscountRuleRepository interface {
	GetByID(id uint) (*models.DiscountRule, error)
	GetCouponByCode(code string) (*models.DiscountRule, error)
	ListActivePromotions() ([]models.DiscountRule, error)
	ListExpired(now time.Time) ([]models.DiscountRule, error)
	List(filter RuleListFilter) ([]models.DiscountRule, int64, error)
	Create(rule *models.DiscountRule) error
	Update(rule *models.DiscountRule) error
	Delete(id uint) error
	ReplaceScopeLinks(ruleID uint, links []models.ScopeLink) error
	ReplaceConditions(ruleID uint, conditions []models.DiscountCondition) error
	ReserveUsage(id uint) (bool, error)
	ReleaseUsage(id uint, delta int) error
	WithTx(tx *gorm.DB) *GormDiscountRuleRepository
}

// RuleListFilter 折扣规则列表筛选
type RuleListFilter struct {
	Kind     string
	Code     string
	IsActive *bool
	Page     int
	PageSize int
}

// GormDiscountRuleRepository GORM 实现
type GormDiscountRuleRepository struct {
	db *gorm.DB
}

// NewDiscountRuleRepository 创建折扣规则仓库
func NewDiscountRuleRepository(db *gorm.DB) *GormDiscountRuleRepository {
	return &GormDiscountRuleRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountRuleRepository) WithTx(tx *gorm.DB) *GormDiscountRuleRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountRuleRepository{db: tx}
}

// GetByID 根据ID获取折扣规则（含范围关联与条件）
func (r *GormDiscountRuleRepository) GetByID(id uint) (*models.DiscountRule, error) {
	var rule models.DiscountRule
	if err := r.db.Preload("ScopeLinks").Preload("Conditions").First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// GetCouponByCode 根据优惠码获取优惠券规则
func (r *GormDiscountRuleRepository) GetCouponByCode(code string) (*models.DiscountRule, error) {
	var rule models.DiscountRule
	err := r.db.Preload("ScopeLinks").Preload("Conditions").
		Where("kind = ? AND code = ?", constants.RuleKindCoupon, code).
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// ListActivePromotions 获取所有启用中的自动促销规则
func (r *GormDiscountRuleRepository) ListActivePromotions() ([]models.DiscountRule, error) {
	var rules []models.DiscountRule
	err := r.db.Preload("ScopeLinks").Preload("Conditions").
		Where("kind = ? AND is_active = ?", constants.RuleKindPromotion, true).
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// ListExpired 获取生效窗口已结束但仍处于启用状态的规则
func (r *GormDiscountRuleRepository) ListExpired(now time.Time) ([]models.DiscountRule, error) {
	var rules []models.DiscountRule
	err := r.db.
		Where("is_active = ? AND ends_at IS NOT NULL AND ends_at <= ?", true, now).
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// List 获取折扣规则列表
func (r *GormDiscountRuleRepository) List(filter RuleListFilter) ([]models.DiscountRule, int64, error) {
	var rules []models.DiscountRule
	query := r.db.Model(&models.DiscountRule{})

	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Code != "" {
		query = query.Where("code = ?", filter.Code)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Preload("ScopeLinks").Preload("Conditions").Order("id desc").Find(&rules).Error; err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}

// Create 创建折扣规则
func (r *GormDiscountRuleRepository) Create(rule *models.DiscountRule) error {
	return r.db.Create(rule).Error
}

// Update 更新折扣规则
func (r *GormDiscountRuleRepository) Update(rule *models.DiscountRule) error {
	return r.db.Save(rule).Error
}

// Delete 删除折扣规则（软删除，级联范围与条件）
func (r *GormDiscountRuleRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("rule_id = ?", id).Delete(&models.ScopeLink{}).Error; err != nil {
			return err
		}
		if err := tx.Where("rule_id = ?", id).Delete(&models.DiscountCondition{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.DiscountRule{}, id).Error
	})
}

// ReplaceScopeLinks 全量替换规则的范围关联
func (r *GormDiscountRuleRepository) ReplaceScopeLinks(ruleID uint, links []models.ScopeLink) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("rule_id = ?", ruleID).Delete(&models.ScopeLink{}).Error; err != nil {
			return err
		}
		if len(links) == 0 {
			return nil
		}
		for i := range links {
			links[i].ID = 0
			links[i].RuleID = ruleID
		}
		return tx.Create(&links).Error
	})
}

// ReplaceConditions 全量替换规则的附加条件
func (r *GormDiscountRuleRepository) ReplaceConditions(ruleID uint, conditions []models.DiscountCondition) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("rule_id = ?", ruleID).Delete(&models.DiscountCondition{}).Error; err != nil {
			return err
		}
		if len(conditions) == 0 {
			return nil
		}
		for i := range conditions {
			conditions[i].ID = 0
			conditions[i].RuleID = ruleID
		}
		return tx.Create(&conditions).Error
	})
}

// ReserveUsage 原子占用一次全局使用额度（0 行受影响表示额度已满）
func (r *GormDiscountRuleRepository) ReserveUsage(id uint) (bool, error) {
	result := r.db.Model(&models.DiscountRule{}).
		Where("id = ?", id).
		Where("usage_limit = 0 OR used_count < usage_limit").
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReleaseUsage 归还使用额度
func (r *GormDiscountRuleRepository) ReleaseUsage(id uint, delta int) error {
	if delta <= 0 {
		delta = 1
	}
	return r.db.Model(&models.DiscountRule{}).
		Where("id = ?", id).
		Where("used_count >= ?", delta).
		UpdateColumn("used_count", gorm.Expr("used_count - ?", delta)).Error
}
