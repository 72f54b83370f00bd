package domain

import "github.com/google/uuid"

// Role is a staff role. It is passed explicitly to every lifecycle operation.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleSales Role = "SALES"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleSales
}

// Actor is the identity performing or viewing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanAccess is the access gate: admins see every lead, sales only the leads
// they are currently assigned to.
func (a Actor) CanAccess(l *Lead) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Role == RoleSales && l.AssignedTo != nil && *l.AssignedTo == a.UserID
}

func (a Actor) userRef() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}
