package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	SubjectID    string    `json:"subjectId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	AddressLine1 string    `json:"addressLine1,omitempty"`
	AddressLine2 string    `json:"addressLine2,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	PostalCode   string    `json:"postalCode,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity is what the identity provider vouches for after verifying a
// bearer credential.
type Identity struct {
	SubjectID string
	Email     string
	RoleClaim string
}

// Caller is the authenticated principal of a request. Role is the persisted
// user role when a user row exists and falls back to the provider claim
// otherwise.
type Caller struct {
	UserID    uuid.UUID
	SubjectID string
	Email     string
	Name      string
	Role      Role
}

func (c Caller) Registered() bool {
	return c.UserID != uuid.Nil
}
