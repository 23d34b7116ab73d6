package service

import (
	"errors"
	"testing"

	"github.com/ERPlora/module-discounts/internal/config"
)

func TestValidatePasswordEmptyPolicy(t *testing.T) {
	if err := validatePassword(config.PasswordPolicyConfig{}, "x"); err != nil {
		t.Fatalf("empty policy should accept any password, got %v", err)
	}
}

func TestValidatePasswordMinLength(t *testing.T) {
	policy := config.PasswordPolicyConfig{MinLength: 8}
	if err := validatePassword(policy, "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword for short password, got %v", err)
	}
	if err := validatePassword(policy, "longenough"); err != nil {
		t.Fatalf("expected password accepted, got %v", err)
	}
}

func TestValidatePasswordCharacterClasses(t *testing.T) {
	policy := config.PasswordPolicyConfig{
		RequireUpper:   true,
		RequireLower:   true,
		RequireNumber:  true,
		RequireSpecial: true,
	}

	cases := []string{
		"lower1!",  // 缺大写
		"UPPER1!",  // 缺小写
		"Upper!!",  // 缺数字
		"Upper123", // 缺特殊字符
	}
	for _, password := range cases {
		if err := validatePassword(policy, password); !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("password %q expected ErrWeakPassword, got %v", password, err)
		}
	}

	if err := validatePassword(policy, "Upper123!"); err != nil {
		t.Fatalf("expected compliant password accepted, got %v", err)
	}
}
