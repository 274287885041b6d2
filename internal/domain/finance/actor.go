package finance

import (
	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/google/uuid"
)

// Actor is the authenticated caller on whose behalf an operation runs
type Actor struct {
	UserID   uuid.UUID `json:"user_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Role     string    `json:"role"`
}

// Validate checks that the actor carries identity and tenant
func (a Actor) Validate() error {
	if a.UserID == uuid.Nil {
		return shared.NewDomainError(shared.KindValidation, "INVALID_ACTOR", "Actor user ID cannot be empty")
	}
	if a.TenantID == uuid.Nil {
		return shared.NewDomainError(shared.KindValidation, "INVALID_ACTOR", "Actor tenant ID cannot be empty")
	}
	return nil
}

// Is returns true if the actor is the given user
func (a Actor) Is(userID uuid.UUID) bool {
	return a.UserID == userID
}
