package config

import (
	"context"
	"testing"

	"github.com/mcaservicing/mca_backend/appctx"
	"gorm.io/gorm/clause"
)

func TestWhereHasBusinessID(t *testing.T) {
	cases := []struct {
		name string
		expr clause.Expression
		want bool
	}{
		{"eq column", clause.Eq{Column: clause.Column{Name: "business_id"}, Value: "b1"}, true},
		{"eq string", clause.Eq{Column: "BUSINESS_ID", Value: "b1"}, true},
		{"other column", clause.Eq{Column: clause.Column{Name: "funding_id"}, Value: 1}, false},
		{"raw expr", clause.Expr{SQL: "business_id = ? AND id = ?"}, true},
		{"raw expr without tenant", clause.Expr{SQL: "id = ?"}, false},
		{"nested and", clause.AndConditions{Exprs: []clause.Expression{
			clause.Eq{Column: "id", Value: 1},
			clause.IN{Column: clause.Column{Name: "business_id"}, Values: []any{"b1"}},
		}}, true},
	}
	for _, tc := range cases {
		c := clause.Clause{Expression: clause.Where{Exprs: []clause.Expression{tc.expr}}}
		if got := whereHasBusinessID(c); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
	if whereHasBusinessID(clause.Clause{}) {
		t.Fatalf("empty clause should not report a tenant filter")
	}
}

func TestShouldBypassTenantScope(t *testing.T) {
	ctx := context.Background()
	if shouldBypassTenantScope(ctx) {
		t.Fatalf("plain context must be scoped")
	}
	if !shouldBypassTenantScope(appctx.Set(ctx, appctx.ContextKeyIsAdmin, true)) {
		t.Fatalf("admin context must bypass")
	}
	if !shouldBypassTenantScope(appctx.Set(ctx, appctx.ContextKeySkipTenantScope, true)) {
		t.Fatalf("skip flag must bypass")
	}
	if got := businessIdFromContext(appctx.Set(ctx, appctx.ContextKeyBusinessId, "biz")); got != "biz" {
		t.Fatalf("expected biz, got %q", got)
	}
}
