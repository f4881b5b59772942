package enums

import "slices"

// RentalRole filters rentals by the caller's side of the deal.
type RentalRole string

const (
	RentalRoleOwner  RentalRole = "owner"
	RentalRoleRenter RentalRole = "renter"
	RentalRoleAny    RentalRole = "any"
)

var validRentalRoles = []RentalRole{
	RentalRoleOwner,
	RentalRoleRenter,
	RentalRoleAny,
}

func (r RentalRole) IsValid() bool {
	return slices.Contains(validRentalRoles, r)
}

// ParseRentalRole converts raw input into a RentalRole, defaulting empty input to any.
func ParseRentalRole(value string) (RentalRole, error) {
	if value == "" {
		return RentalRoleAny, nil
	}
	return parse("rental role", validRentalRoles, value)
}
