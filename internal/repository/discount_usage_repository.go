package repository

import (
	"errors"

	"github.com/ERPlora/module-discounts/internal/models"

	"gorm.io/gorm"
)

// DiscountUsageRepository 折扣使用记录数据访问接口
type DiscountUsageRepository interface {
	Create(usage *models.DiscountUsage) error
	GetBySale(ruleID, saleID uint) (*models.DiscountUsage, error)
	CountByCustomer(ruleID, customerID uint) (int64, error)
	ListBySale(saleID uint) ([]models.DiscountUsage, error)
	List(filter UsageListFilter) ([]models.DiscountUsage, int64, error)
	DeleteBySale(saleID uint) error
	WithTx(tx *gorm.DB) *GormDiscountUsageRepository
}

// UsageListFilter 使用记录列表筛选
type UsageListFilter struct {
	RuleID     uint
	CustomerID uint
	Page       int
	PageSize   int
}

// GormDiscountUsageRepository GORM 实现
type GormDiscountUsageRepository struct {
	db *gorm.DB
}

// NewDiscountUsageRepository 创建折扣使用记录仓库
func NewDiscountUsageRepository(db *gorm.DB) *GormDiscountUsageRepository {
	return &GormDiscountUsageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountUsageRepository) WithTx(tx *gorm.DB) *GormDiscountUsageRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountUsageRepository{db: tx}
}

// Create 创建使用记录
func (r *GormDiscountUsageRepository) Create(usage *models.DiscountUsage) error {
	return r.db.Create(usage).Error
}

// GetBySale 获取指定规则在指定销售单上的使用记录
func (r *GormDiscountUsageRepository) GetBySale(ruleID, saleID uint) (*models.DiscountUsage, error) {
	var usage models.DiscountUsage
	if err := r.db.Where("rule_id = ? AND sale_id = ?", ruleID, saleID).First(&usage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &usage, nil
}

// CountByCustomer 获取客户对规则的累计使用次数
func (r *GormDiscountUsageRepository) CountByCustomer(ruleID, customerID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.DiscountUsage{}).
		Where("rule_id = ? AND customer_id = ?", ruleID, customerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListBySale 获取销售单的全部使用记录
func (r *GormDiscountUsageRepository) ListBySale(saleID uint) ([]models.DiscountUsage, error) {
	var usages []models.DiscountUsage
	if err := r.db.Where("sale_id = ?", saleID).Find(&usages).Error; err != nil {
		return nil, err
	}
	return usages, nil
}

// List 获取使用记录列表
func (r *GormDiscountUsageRepository) List(filter UsageListFilter) ([]models.DiscountUsage, int64, error) {
	query := r.db.Model(&models.DiscountUsage{})

	if filter.RuleID > 0 {
		query = query.Where("rule_id = ?", filter.RuleID)
	}
	if filter.CustomerID > 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var usages []models.DiscountUsage
	if err := query.Order("id desc").Find(&usages).Error; err != nil {
		return nil, 0, err
	}
	return usages, total, nil
}

// DeleteBySale 删除销售单的使用记录。
// 物理删除，避免软删除残留占用 (rule_id, sale_id) 唯一索引导致无法重新落账。
func (r *GormDiscountUsageRepository) DeleteBySale(saleID uint) error {
	return r.db.Unscoped().Where("sale_id = ?", saleID).Delete(&models.DiscountUsage{}).Error
}
