package company

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// skipGuardKey lets system jobs run unscoped statements on purpose
const skipGuardKey = "company:skip_guard"

// ScopedTables are the tables owned by a company
var ScopedTables = []string{
	"stock_categories",
	"stock_sub_categories",
	"stock_items",
	"stock_records",
	"financial_periods",
	"financial_categories",
	"financial_records",
	"audit_logs",
}

// GuardPlugin rejects UPDATE and DELETE statements on company-owned tables
// that are not filtered by company_id.
type GuardPlugin struct {
	tables map[string]struct{}
}

// NewGuardPlugin creates a guard over the given tables, ScopedTables when empty
func NewGuardPlugin(tables ...string) *GuardPlugin {
	if len(tables) == 0 {
		tables = ScopedTables
	}
	set := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		set[t] = struct{}{}
	}
	return &GuardPlugin{tables: set}
}

// Name implements gorm.Plugin
func (p *GuardPlugin) Name() string {
	return "company:guard"
}

// Initialize implements gorm.Plugin
func (p *GuardPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Update().Before("gorm:update").Register("company:guard_update", p.check); err != nil {
		return err
	}
	return db.Callback().Delete().Before("gorm:delete").Register("company:guard_delete", p.check)
}

// SkipGuard marks a statement as intentionally unscoped
func SkipGuard(db *gorm.DB) *gorm.DB {
	return db.Set(skipGuardKey, true)
}

func (p *GuardPlugin) check(db *gorm.DB) {
	if db.Error != nil || db.Statement == nil {
		return
	}
	if skip, ok := db.Get(skipGuardKey); ok && skip == true {
		return
	}
	if _, scoped := p.tables[db.Statement.Table]; !scoped {
		return
	}
	if hasCompanyCondition(db.Statement) {
		return
	}
	_ = db.AddError(fmt.Errorf("%w: unscoped write on %s", ErrCompanyRequired, db.Statement.Table))
}

func hasCompanyCondition(stmt *gorm.Statement) bool {
	whereClause, ok := stmt.Clauses["WHERE"]
	if !ok {
		return false
	}
	where, ok := whereClause.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, expr := range where.Exprs {
		if exprContainsCompany(expr) {
			return true
		}
	}
	return false
}

func exprContainsCompany(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Eq:
		return columnIsCompany(e.Column)
	case clause.IN:
		return columnIsCompany(e.Column)
	case clause.Expr:
		return strings.Contains(e.SQL, Column)
	case clause.NamedExpr:
		return strings.Contains(e.SQL, Column)
	case clause.AndConditions:
		for _, cond := range e.Exprs {
			if exprContainsCompany(cond) {
				return true
			}
		}
	}
	// OR branches could widen the match, so they never count
	return false
}

func columnIsCompany(col any) bool {
	switch c := col.(type) {
	case clause.Column:
		return c.Name == Column
	case string:
		return c == Column || strings.HasSuffix(c, "."+Column)
	}
	return false
}
