package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestBootstrapBuiltinRolesAndEnforce(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.SetAdminRoles(1, []string{"marketing"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}

	allow, err := svc.EnforceAdmin(1, "/api/v1/admin/rules/42", "PUT")
	if err != nil {
		t.Fatalf("enforce rules write failed: %v", err)
	}
	if !allow {
		t.Fatalf("marketing should manage rules")
	}

	// 继承 readonly_auditor 的全局只读
	allow, err = svc.EnforceAdmin(1, "/api/v1/admin/authz/roles", "GET")
	if err != nil {
		t.Fatalf("enforce inherited read failed: %v", err)
	}
	if !allow {
		t.Fatalf("marketing should inherit read access")
	}

	allow, err = svc.EnforceAdmin(1, "/api/v1/admin/authz/roles", "POST")
	if err != nil {
		t.Fatalf("enforce denied write failed: %v", err)
	}
	if allow {
		t.Fatalf("marketing should not manage roles")
	}
}

func TestReadonlyAuditorIsReadOnly(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.SetAdminRoles(2, []string{"readonly_auditor"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}

	allow, err := svc.EnforceAdmin(2, "/api/v1/admin/usages", "GET")
	if err != nil {
		t.Fatalf("enforce read failed: %v", err)
	}
	if !allow {
		t.Fatalf("auditor should read usages")
	}

	allow, err = svc.EnforceAdmin(2, "/api/v1/admin/rules", "POST")
	if err != nil {
		t.Fatalf("enforce write failed: %v", err)
	}
	if allow {
		t.Fatalf("auditor should not create rules")
	}
}

func TestSetAdminRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}

	if err := svc.SetAdminRoles(3, []string{"marketing"}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	roles, err := svc.GetAdminRoles(3)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:marketing" {
		t.Fatalf("roles want [role:marketing], got %v", roles)
	}

	if err := svc.SetAdminRoles(3, []string{"readonly_auditor"}); err != nil {
		t.Fatalf("set second role failed: %v", err)
	}
	roles, err = svc.GetAdminRoles(3)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:readonly_auditor" {
		t.Fatalf("roles want [role:readonly_auditor], got %v", roles)
	}

	allow, err := svc.EnforceAdmin(3, "/admin/rules", "POST")
	if err != nil {
		t.Fatalf("enforce old permission failed: %v", err)
	}
	if allow {
		t.Fatalf("expected old role permission removed")
	}
}

func TestEnsureRole(t *testing.T) {
	svc := setupAuthzServiceTest(t)

	normalized, err := svc.EnsureRole("content ops")
	if err != nil {
		t.Fatalf("ensure role failed: %v", err)
	}
	if normalized != "role:content_ops" {
		t.Fatalf("normalized role want role:content_ops, got %q", normalized)
	}

	// 重复创建幂等
	again, err := svc.EnsureRole("content_ops")
	if err != nil {
		t.Fatalf("ensure role again failed: %v", err)
	}
	if again != normalized {
		t.Fatalf("repeat ensure want %q, got %q", normalized, again)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	found := false
	for _, role := range roles {
		if role == normalized {
			found = true
		}
	}
	if !found {
		t.Fatalf("role %q not listed in %v", normalized, roles)
	}

	if _, err := svc.EnsureRole("__anchor__"); err == nil {
		t.Fatalf("expected reserved role rejected")
	}
	if _, err := svc.EnsureRole("  "); err == nil {
		t.Fatalf("expected blank role rejected")
	}
}

func TestGetRolePolicies(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}

	policies, err := svc.GetRolePolicies("readonly_auditor")
	if err != nil {
		t.Fatalf("get role policies failed: %v", err)
	}
	if len(policies) != 1 {
		t.Fatalf("auditor policies want 1, got %d", len(policies))
	}
	if policies[0].Object != "/admin/*" || policies[0].Action != "GET" {
		t.Fatalf("unexpected auditor policy: %+v", policies[0])
	}
}

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "ops", want: "role:ops"},
		{in: "role:ops", want: "role:ops"},
		{in: "content ops", want: "role:content_ops"},
		{in: "", wantErr: true},
		{in: "role:", wantErr: true},
	}
	for _, item := range cases {
		got, err := NormalizeRole(item.in)
		if item.wantErr {
			if err == nil {
				t.Fatalf("normalize role %q expected error", item.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("normalize role %q failed: %v", item.in, err)
		}
		if got != item.want {
			t.Fatalf("normalize role %q want %q got %q", item.in, item.want, got)
		}
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/rules/:id", want: "/admin/rules/:id"},
		{in: "/admin/rules/:id", want: "/admin/rules/:id"},
		{in: "admin/rules", want: "/admin/rules"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		if got := NormalizeObject(item.in); got != item.want {
			t.Fatalf("normalize object %q want %q got %q", item.in, item.want, got)
		}
	}
}

func TestNormalizeAction(t *testing.T) {
	if got := NormalizeAction(" get "); got != "GET" {
		t.Fatalf("normalize action want GET, got %q", got)
	}
}
