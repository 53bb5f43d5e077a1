// Package company scopes GORM statements to a single company (the tenant).
//
// Repositories apply Scope explicitly on every read and write. GuardPlugin is a
// second line of defence: it rejects UPDATE and DELETE statements against
// company-owned tables that carry no company_id condition.
//
// Usage:
//
//	db.WithContext(ctx).Scopes(company.Scope(companyID)).First(&item, "id = ?", id)
package company

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Column is the tenant column on every company-owned table
const Column = "company_id"

// ErrCompanyRequired is returned when a scoped statement has no company
var ErrCompanyRequired = errors.New("company_id is required")

func eq(column string, value any) clause.Eq {
	return clause.Eq{
		Column: clause.Column{Table: clause.CurrentTable, Name: column},
		Value:  value,
	}
}

// Scope filters a statement to one company
func Scope(companyID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if companyID == uuid.Nil {
			_ = db.AddError(ErrCompanyRequired)
			return db
		}
		return db.Where(eq(Column, companyID))
	}
}

// Owned filters a statement to one company and one row id. Both conditions
// go into a single Where so company_id always renders first.
func Owned(companyID, id uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if companyID == uuid.Nil {
			_ = db.AddError(ErrCompanyRequired)
			return db
		}
		return db.Where(eq(Column, companyID), eq("id", id))
	}
}

// OwnerOf reads the company_id of a row without company scope. It must only
// feed ownership checks, never return data to a caller.
func OwnerOf(db *gorm.DB, table string, id uuid.UUID) (uuid.UUID, bool, error) {
	var owner struct {
		CompanyID uuid.UUID
	}
	result := db.Table(table).Select(Column).Where("id = ?", id).Limit(1).Scan(&owner)
	if result.Error != nil {
		return uuid.Nil, false, result.Error
	}
	return owner.CompanyID, result.RowsAffected > 0, nil
}
