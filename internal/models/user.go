package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user role in the portal.
type Role string

const (
	RoleStudent Role = "Student"
	RoleFaculty Role = "Faculty"
	RoleAdmin   Role = "Admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// User represents a portal user.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// UserSummary is the short identity projection attached to documents
// when listing (reporter, claimer, requester, reviewer).
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
}

// Summary converts User to UserSummary.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role}
}

// Identity is the resolved caller: who is acting and with which role.
type Identity struct {
	ID   uuid.UUID
	Role Role
}
