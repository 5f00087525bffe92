package access

// Role is the coarse authorization level carried in tokens.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// Allowed reports whether role satisfies any of the required roles.
// An empty requirement means any valid role.
func Allowed(role Role, required ...Role) bool {
	if !role.Valid() {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}

// CanViewStudentData: admins see everyone, students only themselves.
func CanViewStudentData(role Role, actorID, ownerID uint) bool {
	if role == RoleAdmin {
		return true
	}
	return role == RoleStudent && actorID != 0 && actorID == ownerID
}
