package shared

import "github.com/google/uuid"

// Actor identifies who performs an operation and on behalf of which company.
// It is resolved by the identity middleware and passed explicitly to every
// application service call; request payloads never carry a company id.
type Actor struct {
	UserID    uuid.UUID
	CompanyID uuid.UUID
}

// NewActor creates an actor
func NewActor(userID, companyID uuid.UUID) Actor {
	return Actor{UserID: userID, CompanyID: companyID}
}

// Validate checks the actor carries a company.
func (a Actor) Validate() error {
	if a.CompanyID == uuid.Nil {
		return NewKindError(KindUnauthorized, "COMPANY_REQUIRED", "Company context is required")
	}
	return nil
}

// Guard returns TENANT_MISMATCH when an entity referenced by the caller is
// owned by another company.
func (a Actor) Guard(resource string, ownerCompanyID uuid.UUID) error {
	if ownerCompanyID != a.CompanyID {
		return NewTenantMismatchError(resource)
	}
	return nil
}
