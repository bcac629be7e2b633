package domain

// Role distinguishes passengers from fleet owners.
type Role string

const (
	RolePassenger  Role = "passenger"
	RoleFleetOwner Role = "fleet_owner"
)

// Identity is the authenticated caller, supplied by the auth layer.
type Identity struct {
	Name  string
	Email string
	Role  Role
}
