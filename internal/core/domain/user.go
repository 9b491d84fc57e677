package domain

import "time"

type Role string

const (
	RoleMerchant    Role = "MERCHANT"
	RoleAssociation Role = "ASSOCIATION"
	RoleCustomer    Role = "CUSTOMER"
)

// IsValid checks if the role is known.
func (r Role) IsValid() bool {
	switch r {
	case RoleMerchant, RoleAssociation, RoleCustomer:
		return true
	default:
		return false
	}
}

// User is a local record of an identity owned by the auth provider.
type User struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
