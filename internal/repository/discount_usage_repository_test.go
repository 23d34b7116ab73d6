package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ERPlora/module-discounts/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupDiscountUsageRepositoryTest(t *testing.T) (*GormDiscountUsageRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.DiscountUsage{}); err != nil {
		t.Fatalf("migrate usage table failed: %v", err)
	}
	return NewDiscountUsageRepository(db), db
}

func createUsage(t *testing.T, repo *GormDiscountUsageRepository, ruleID, saleID, customerID uint) *models.DiscountUsage {
	t.Helper()
	usage := &models.DiscountUsage{
		RuleID:           ruleID,
		SaleID:           saleID,
		CustomerID:       customerID,
		OriginalAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		DiscountedAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(80)),
		AppliedAt:        time.Now(),
	}
	if err := repo.Create(usage); err != nil {
		t.Fatalf("create usage failed: %v", err)
	}
	return usage
}

func TestGetBySale(t *testing.T) {
	repo, _ := setupDiscountUsageRepositoryTest(t)
	created := createUsage(t, repo, 1, 100, 7)

	usage, err := repo.GetBySale(1, 100)
	if err != nil {
		t.Fatalf("get by sale failed: %v", err)
	}
	if usage == nil || usage.ID != created.ID {
		t.Fatalf("unexpected usage: %+v", usage)
	}

	missing, err := repo.GetBySale(1, 999)
	if err != nil {
		t.Fatalf("get missing usage failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing usage want nil, got %+v", missing)
	}
}

func TestUniqueRuleSaleConstraint(t *testing.T) {
	repo, _ := setupDiscountUsageRepositoryTest(t)
	createUsage(t, repo, 1, 100, 7)

	duplicate := &models.DiscountUsage{
		RuleID:    1,
		SaleID:    100,
		AppliedAt: time.Now(),
	}
	if err := repo.Create(duplicate); err == nil {
		t.Fatalf("expected unique constraint violation for duplicate (rule, sale)")
	}
}

func TestCountByCustomer(t *testing.T) {
	repo, _ := setupDiscountUsageRepositoryTest(t)
	createUsage(t, repo, 1, 100, 7)
	createUsage(t, repo, 1, 101, 7)
	createUsage(t, repo, 1, 102, 8)
	createUsage(t, repo, 2, 103, 7)

	count, err := repo.CountByCustomer(1, 7)
	if err != nil {
		t.Fatalf("count by customer failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("count want 2, got %d", count)
	}
}

func TestListBySaleAndDelete(t *testing.T) {
	repo, db := setupDiscountUsageRepositoryTest(t)
	createUsage(t, repo, 1, 100, 7)
	createUsage(t, repo, 2, 100, 7)
	keep := createUsage(t, repo, 1, 200, 7)

	usages, err := repo.ListBySale(100)
	if err != nil {
		t.Fatalf("list by sale failed: %v", err)
	}
	if len(usages) != 2 {
		t.Fatalf("sale usages want 2, got %d", len(usages))
	}

	if err := repo.DeleteBySale(100); err != nil {
		t.Fatalf("delete by sale failed: %v", err)
	}

	var raw int64
	if err := db.Unscoped().Model(&models.DiscountUsage{}).Where("sale_id = ?", 100).Count(&raw).Error; err != nil {
		t.Fatalf("count raw usages failed: %v", err)
	}
	if raw != 0 {
		t.Fatalf("usages should be physically removed, got %d rows", raw)
	}

	remaining, err := repo.GetBySale(keep.RuleID, keep.SaleID)
	if err != nil {
		t.Fatalf("get surviving usage failed: %v", err)
	}
	if remaining == nil {
		t.Fatalf("usage of another sale should survive")
	}
}

func TestUsageListFilters(t *testing.T) {
	repo, _ := setupDiscountUsageRepositoryTest(t)
	createUsage(t, repo, 1, 100, 7)
	createUsage(t, repo, 1, 101, 8)
	createUsage(t, repo, 2, 102, 7)

	usages, total, err := repo.List(UsageListFilter{RuleID: 1})
	if err != nil {
		t.Fatalf("list by rule failed: %v", err)
	}
	if total != 2 || len(usages) != 2 {
		t.Fatalf("rule filter want 2, got total=%d len=%d", total, len(usages))
	}

	usages, total, err = repo.List(UsageListFilter{CustomerID: 7})
	if err != nil {
		t.Fatalf("list by customer failed: %v", err)
	}
	if total != 2 || len(usages) != 2 {
		t.Fatalf("customer filter want 2, got total=%d len=%d", total, len(usages))
	}

	usages, total, err = repo.List(UsageListFilter{RuleID: 1, CustomerID: 7})
	if err != nil {
		t.Fatalf("list by rule and customer failed: %v", err)
	}
	if total != 1 || len(usages) != 1 {
		t.Fatalf("combined filter want 1, got total=%d len=%d", total, len(usages))
	}
}
