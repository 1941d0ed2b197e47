package request

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
)

var phoneExp = regexp.MustCompile(`^\+?[0-9 ().-]{7,20}$`)

// ProfileRequest is the body of register and of profile updates.
type ProfileRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
}

func (req *ProfileRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Phone, validation.Match(phoneExp)),
		validation.Field(&req.AddressLine1, validation.Length(0, 200)),
		validation.Field(&req.AddressLine2, validation.Length(0, 200)),
		validation.Field(&req.City, validation.Length(0, 100)),
		validation.Field(&req.State, validation.Length(0, 100)),
		validation.Field(&req.PostalCode, validation.Length(0, 20)),
	)
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

func (req *ChangeRoleRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Role, validation.Required, validation.In("parent", "volunteer", "vendor", "admin")),
	)
}
