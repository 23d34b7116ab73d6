package service

import (
	"testing"
	"time"

	"github.com/ERPlora/module-discounts/internal/constants"
	"github.com/ERPlora/module-discounts/internal/models"

	"github.com/shopspring/decimal"
)

func TestSortRulesByPriority(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rules := []models.DiscountRule{
		{ID: 3, Priority: 10, CreatedAt: base},
		{ID: 1, Priority: 5, CreatedAt: base.Add(time.Hour)},
		{ID: 2, Priority: 5, CreatedAt: base},
		{ID: 4, Priority: 5, CreatedAt: base},
	}

	sortRulesByPriority(rules)

	// 优先级升序，同优先级按创建时间，再按 ID
	want := []uint{2, 4, 1, 3}
	for i, id := range want {
		if rules[i].ID != id {
			t.Fatalf("position %d want rule %d, got %d", i, id, rules[i].ID)
		}
	}
}

func TestApplyStackingGreedy(t *testing.T) {
	first := &ruleCandidate{
		rule:     &models.DiscountRule{ID: 1, AllowStacking: true},
		entitled: decimal.NewFromInt(20),
	}
	second := &ruleCandidate{
		rule:     &models.DiscountRule{ID: 2, AllowStacking: true},
		entitled: decimal.NewFromInt(5),
	}

	applyStacking([]*ruleCandidate{first, second}, decimal.NewFromInt(100))

	if !first.applied.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("first applied want 20, got %s", first.applied)
	}
	if !second.applied.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("second applied want 5, got %s", second.applied)
	}
}

func TestApplyStackingClampsToRemaining(t *testing.T) {
	first := &ruleCandidate{
		rule:     &models.DiscountRule{ID: 1, AllowStacking: true},
		entitled: decimal.NewFromInt(80),
	}
	second := &ruleCandidate{
		rule:     &models.DiscountRule{ID: 2, AllowStacking: true},
		entitled: decimal.NewFromInt(50),
	}

	applyStacking([]*ruleCandidate{first, second}, decimal.NewFromInt(100))

	if !first.applied.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("first applied want 80, got %s", first.applied)
	}
	// 剩余 20，第二条被钳制
	if !second.applied.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("second applied want 20, got %s", second.applied)
	}
}

func TestApplyStackingNonStackableBlocksLater(t *testing.T) {
	sole := &ruleCandidate{
		rule:     &models.DiscountRule{ID: 1, AllowStacking: false},
		entitled: decimal.NewFromInt(30),
	}
	blocked := &ruleCandidate{
		rule:     &models.DiscountRule{ID: 2, AllowStacking: true},
		entitled: decimal.NewFromInt(10),
	}

	applyStacking([]*ruleCandidate{sole, blocked}, decimal.NewFromInt(100))

	if !sole.applied.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("sole applied want 30, got %s", sole.applied)
	}
	if blocked.reason != constants.ReasonStackingConflict {
		t.Fatalf("blocked reason want %q, got %q", constants.ReasonStackingConflict, blocked.reason)
	}
	if !blocked.applied.IsZero() {
		t.Fatalf("blocked applied want 0, got %s", blocked.applied)
	}
}

func TestApplyStackingNonStackableAfterApplied(t *testing.T) {
	first := &ruleCandidate{
		rule:     &models.DiscountRule{ID: 1, AllowStacking: true},
		entitled: decimal.NewFromInt(10),
	}
	nonStackable := &ruleCandidate{
		rule:     &models.DiscountRule{ID: 2, AllowStacking: false},
		entitled: decimal.NewFromInt(30),
	}

	applyStacking([]*ruleCandidate{first, nonStackable}, decimal.NewFromInt(100))

	if !first.applied.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("first applied want 10, got %s", first.applied)
	}
	if nonStackable.reason != constants.ReasonStackingConflict {
		t.Fatalf("non-stackable after applied want %q, got %q", constants.ReasonStackingConflict, nonStackable.reason)
	}
}

func TestApplyStackingSkipsIneligible(t *testing.T) {
	ineligible := &ruleCandidate{
		rule:     &models.DiscountRule{ID: 1, AllowStacking: false},
		entitled: decimal.NewFromInt(50),
		reason:   constants.ReasonMinAmount,
	}
	eligible := &ruleCandidate{
		rule:     &models.DiscountRule{ID: 2, AllowStacking: true},
		entitled: decimal.NewFromInt(10),
	}

	applyStacking([]*ruleCandidate{ineligible, eligible}, decimal.NewFromInt(100))

	if ineligible.reason != constants.ReasonMinAmount {
		t.Fatalf("ineligible reason should stay, got %q", ineligible.reason)
	}
	if !eligible.applied.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("eligible applied want 10, got %s", eligible.applied)
	}
}

func TestApplyStackingExhaustedSubtotal(t *testing.T) {
	first := &ruleCandidate{
		rule:     &models.DiscountRule{ID: 1, AllowStacking: true},
		entitled: decimal.NewFromInt(100),
	}
	starved := &ruleCandidate{
		rule:     &models.DiscountRule{ID: 2, AllowStacking: true},
		entitled: decimal.NewFromInt(10),
	}

	applyStacking([]*ruleCandidate{first, starved}, decimal.NewFromInt(100))

	if !first.applied.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("first applied want 100, got %s", first.applied)
	}
	if starved.reason != constants.ReasonNoDiscount {
		t.Fatalf("starved reason want %q, got %q", constants.ReasonNoDiscount, starved.reason)
	}
}
