package domain

// Role is the caller's role as established by the identity layer.
type Role string

const (
	RoleClient Role = "client"
	RoleMaster Role = "master"
)

// Identity is the verified caller of a request. Token verification
// happens upstream; by the time an Identity reaches this module it is
// trusted.
type Identity struct {
	UserID string
	Role   Role
}
