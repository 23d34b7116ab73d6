package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ERPlora/module-discounts/internal/constants"
	"github.com/ERPlora/module-discounts/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupDiscountRuleRepositoryTest(t *testing.T) (*GormDiscountRuleRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.DiscountRule{}, &models.ScopeLink{}, &models.DiscountCondition{}); err != nil {
		t.Fatalf("migrate discount tables failed: %v", err)
	}
	return NewDiscountRuleRepository(db), db
}

func createRule(t *testing.T, repo *GormDiscountRuleRepository, rule *models.DiscountRule) *models.DiscountRule {
	t.Helper()
	if rule.Kind == "" {
		rule.Kind = constants.RuleKindPromotion
	}
	if rule.Name == "" {
		rule.Name = "测试规则"
	}
	if rule.DiscountType == "" {
		rule.DiscountType = constants.DiscountTypePercentage
	}
	if rule.Value.Decimal.IsZero() {
		rule.Value = models.NewMoneyFromDecimal(decimal.NewFromInt(10))
	}
	if rule.ScopeType == "" {
		rule.ScopeType = constants.ScopeTypeOrder
	}
	rule.IsActive = true
	if err := repo.Create(rule); err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	return rule
}

func TestReserveUsageRespectsLimit(t *testing.T) {
	repo, _ := setupDiscountRuleRepositoryTest(t)
	rule := createRule(t, repo, &models.DiscountRule{UsageLimit: 2})

	for i := 0; i < 2; i++ {
		reserved, err := repo.ReserveUsage(rule.ID)
		if err != nil {
			t.Fatalf("reserve %d failed: %v", i, err)
		}
		if !reserved {
			t.Fatalf("reserve %d want true", i)
		}
	}

	reserved, err := repo.ReserveUsage(rule.ID)
	if err != nil {
		t.Fatalf("reserve over limit failed: %v", err)
	}
	if reserved {
		t.Fatalf("reserve over limit want false")
	}

	reloaded, err := repo.GetByID(rule.ID)
	if err != nil {
		t.Fatalf("reload rule failed: %v", err)
	}
	if reloaded.UsedCount != 2 {
		t.Fatalf("used_count want 2, got %d", reloaded.UsedCount)
	}
}

func TestReserveUsageUnlimited(t *testing.T) {
	repo, _ := setupDiscountRuleRepositoryTest(t)
	rule := createRule(t, repo, &models.DiscountRule{UsageLimit: 0})

	for i := 0; i < 5; i++ {
		reserved, err := repo.ReserveUsage(rule.ID)
		if err != nil {
			t.Fatalf("reserve %d failed: %v", i, err)
		}
		if !reserved {
			t.Fatalf("unlimited reserve %d want true", i)
		}
	}
}

func TestReserveUsageUnknownRule(t *testing.T) {
	repo, _ := setupDiscountRuleRepositoryTest(t)
	reserved, err := repo.ReserveUsage(999)
	if err != nil {
		t.Fatalf("reserve unknown rule failed: %v", err)
	}
	if reserved {
		t.Fatalf("reserve unknown rule want false")
	}
}

func TestReleaseUsageFloorsAtZero(t *testing.T) {
	repo, _ := setupDiscountRuleRepositoryTest(t)
	rule := createRule(t, repo, &models.DiscountRule{UsageLimit: 3})

	if _, err := repo.ReserveUsage(rule.ID); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := repo.ReleaseUsage(rule.ID, 1); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	reloaded, err := repo.GetByID(rule.ID)
	if err != nil {
		t.Fatalf("reload rule failed: %v", err)
	}
	if reloaded.UsedCount != 0 {
		t.Fatalf("used_count want 0, got %d", reloaded.UsedCount)
	}

	// 已为 0 时再释放不产生负数
	if err := repo.ReleaseUsage(rule.ID, 1); err != nil {
		t.Fatalf("release at zero failed: %v", err)
	}
	reloaded, err = repo.GetByID(rule.ID)
	if err != nil {
		t.Fatalf("reload rule failed: %v", err)
	}
	if reloaded.UsedCount != 0 {
		t.Fatalf("used_count should stay 0, got %d", reloaded.UsedCount)
	}
}

func TestGetCouponByCode(t *testing.T) {
	repo, _ := setupDiscountRuleRepositoryTest(t)
	createRule(t, repo, &models.DiscountRule{
		Kind: constants.RuleKindCoupon,
		Code: "WELCOME10",
	})

	coupon, err := repo.GetCouponByCode("WELCOME10")
	if err != nil {
		t.Fatalf("get coupon failed: %v", err)
	}
	if coupon == nil || coupon.Code != "WELCOME10" {
		t.Fatalf("unexpected coupon: %+v", coupon)
	}

	missing, err := repo.GetCouponByCode("NOPE")
	if err != nil {
		t.Fatalf("get missing coupon failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing coupon want nil, got %+v", missing)
	}
}

func TestListActivePromotionsExcludesCouponsAndInactive(t *testing.T) {
	repo, db := setupDiscountRuleRepositoryTest(t)
	active := createRule(t, repo, &models.DiscountRule{Name: "活跃促销"})
	createRule(t, repo, &models.DiscountRule{Kind: constants.RuleKindCoupon, Code: "C1"})

	inactive := createRule(t, repo, &models.DiscountRule{Name: "停用促销"})
	if err := db.Model(&models.DiscountRule{}).Where("id = ?", inactive.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate rule failed: %v", err)
	}

	promotions, err := repo.ListActivePromotions()
	if err != nil {
		t.Fatalf("list active promotions failed: %v", err)
	}
	if len(promotions) != 1 || promotions[0].ID != active.ID {
		t.Fatalf("unexpected promotions: %+v", promotions)
	}
}

func TestListExpired(t *testing.T) {
	repo, _ := setupDiscountRuleRepositoryTest(t)
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := createRule(t, repo, &models.DiscountRule{Name: "已过期", EndsAt: &past})
	createRule(t, repo, &models.DiscountRule{Name: "未过期", EndsAt: &future})
	createRule(t, repo, &models.DiscountRule{Name: "无结束时间"})

	rules, err := repo.ListExpired(now)
	if err != nil {
		t.Fatalf("list expired failed: %v", err)
	}
	if len(rules) != 1 || rules[0].ID != expired.ID {
		t.Fatalf("unexpected expired rules: %+v", rules)
	}
}

func TestListWithFilters(t *testing.T) {
	repo, _ := setupDiscountRuleRepositoryTest(t)
	createRule(t, repo, &models.DiscountRule{Kind: constants.RuleKindCoupon, Code: "F1"})
	createRule(t, repo, &models.DiscountRule{Kind: constants.RuleKindCoupon, Code: "F2"})
	createRule(t, repo, &models.DiscountRule{Name: "促销"})

	rules, total, err := repo.List(RuleListFilter{Kind: constants.RuleKindCoupon})
	if err != nil {
		t.Fatalf("list by kind failed: %v", err)
	}
	if total != 2 || len(rules) != 2 {
		t.Fatalf("coupon list want 2, got total=%d len=%d", total, len(rules))
	}

	rules, total, err = repo.List(RuleListFilter{Code: "F2"})
	if err != nil {
		t.Fatalf("list by code failed: %v", err)
	}
	if total != 1 || len(rules) != 1 || rules[0].Code != "F2" {
		t.Fatalf("unexpected code filter result: total=%d rules=%+v", total, rules)
	}

	rules, total, err = repo.List(RuleListFilter{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list paginated failed: %v", err)
	}
	if total != 3 || len(rules) != 2 {
		t.Fatalf("pagination want total=3 len=2, got total=%d len=%d", total, len(rules))
	}
}

func TestReplaceScopeLinks(t *testing.T) {
	repo, db := setupDiscountRuleRepositoryTest(t)
	rule := createRule(t, repo, &models.DiscountRule{ScopeType: constants.ScopeTypeProducts})

	first := []models.ScopeLink{
		{TargetKind: constants.TargetKindProduct, TargetID: 1},
		{TargetKind: constants.TargetKindProduct, TargetID: 2},
	}
	if err := repo.ReplaceScopeLinks(rule.ID, first); err != nil {
		t.Fatalf("replace scope links failed: %v", err)
	}

	second := []models.ScopeLink{
		{TargetKind: constants.TargetKindProduct, TargetID: 3},
	}
	if err := repo.ReplaceScopeLinks(rule.ID, second); err != nil {
		t.Fatalf("replace scope links again failed: %v", err)
	}

	reloaded, err := repo.GetByID(rule.ID)
	if err != nil {
		t.Fatalf("reload rule failed: %v", err)
	}
	if len(reloaded.ScopeLinks) != 1 || reloaded.ScopeLinks[0].TargetID != 3 {
		t.Fatalf("unexpected scope links: %+v", reloaded.ScopeLinks)
	}

	var raw int64
	if err := db.Unscoped().Model(&models.ScopeLink{}).Where("rule_id = ?", rule.ID).Count(&raw).Error; err != nil {
		t.Fatalf("count raw links failed: %v", err)
	}
	if raw != 1 {
		t.Fatalf("old links should be physically removed, got %d rows", raw)
	}

	// 清空
	if err := repo.ReplaceScopeLinks(rule.ID, nil); err != nil {
		t.Fatalf("clear scope links failed: %v", err)
	}
	reloaded, err = repo.GetByID(rule.ID)
	if err != nil {
		t.Fatalf("reload rule failed: %v", err)
	}
	if len(reloaded.ScopeLinks) != 0 {
		t.Fatalf("scope links want empty, got %+v", reloaded.ScopeLinks)
	}
}

func TestReplaceConditions(t *testing.T) {
	repo, _ := setupDiscountRuleRepositoryTest(t)
	rule := createRule(t, repo, &models.DiscountRule{})

	first := []models.DiscountCondition{
		{ConditionType: constants.ConditionMinQuantity, Operator: constants.OperatorGte, Value: "2"},
	}
	if err := repo.ReplaceConditions(rule.ID, first); err != nil {
		t.Fatalf("replace conditions failed: %v", err)
	}

	second := []models.DiscountCondition{
		{ConditionType: constants.ConditionMinAmount, Operator: constants.OperatorGte, Value: "100"},
		{ConditionType: constants.ConditionFirstPurchase, Operator: constants.OperatorEq, Value: "true"},
	}
	if err := repo.ReplaceConditions(rule.ID, second); err != nil {
		t.Fatalf("replace conditions again failed: %v", err)
	}

	reloaded, err := repo.GetByID(rule.ID)
	if err != nil {
		t.Fatalf("reload rule failed: %v", err)
	}
	if len(reloaded.Conditions) != 2 {
		t.Fatalf("conditions want 2, got %d", len(reloaded.Conditions))
	}
}

func TestDeleteRuleCascades(t *testing.T) {
	repo, _ := setupDiscountRuleRepositoryTest(t)
	rule := createRule(t, repo, &models.DiscountRule{ScopeType: constants.ScopeTypeProducts})
	if err := repo.ReplaceScopeLinks(rule.ID, []models.ScopeLink{
		{TargetKind: constants.TargetKindProduct, TargetID: 1},
	}); err != nil {
		t.Fatalf("seed scope links failed: %v", err)
	}

	if err := repo.Delete(rule.ID); err != nil {
		t.Fatalf("delete rule failed: %v", err)
	}

	gone, err := repo.GetByID(rule.ID)
	if err != nil {
		t.Fatalf("get deleted rule failed: %v", err)
	}
	if gone != nil {
		t.Fatalf("deleted rule want nil, got %+v", gone)
	}
}
