package models

import "time"

// Roles form a small closed set. RoleMember is the default for users created
// on first login.
const (
	RoleMember        = "Member"
	RoleEditor        = "Editor"
	RoleAdministrator = "Administrator"
)

// ValidRole reports whether role belongs to the closed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleMember, RoleEditor, RoleAdministrator:
		return true
	}
	return false
}

// PlatformUser is an operator of the admin surface. The ID is the external
// identity-provider subject. FormsCreated tracks, best effort, how many
// sessions the user currently owns.
type PlatformUser struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Role         string    `json:"role" bson:"role"`
	FormsCreated int       `json:"forms_created" bson:"forms_created"`
	JoinedAt     time.Time `json:"joined_at" bson:"joined_at"`
}
