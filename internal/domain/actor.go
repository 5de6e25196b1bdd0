package domain

// Roles asserted by the API gateway.
const (
	RoleCustomer  = "customer"
	RoleFarmer    = "farmer"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

// Actor is the caller of a service operation.
type Actor struct {
	UserID int64
	Role   string
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanManage reports whether the actor may modify a resource owned by
// ownerID. Admins manage everything.
func (a Actor) CanManage(ownerID int64) bool {
	return a.IsAdmin() || (a.UserID > 0 && a.UserID == ownerID)
}
