package model

import "time"

// User is referenced by events as creator and modifier.
type User struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	FullName        string     `json:"full_name"`
	Email           *string    `json:"email,omitempty"`
	Role            Role       `json:"role"`
	HouseAssignment *string    `json:"house_assignment,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	LastLogin       *time.Time `json:"last_login,omitempty"`
}

// DisplayName is the name shown for events the user created.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// SystemAdmin is the built-in account every store knows about.
func SystemAdmin() User {
	return User{ID: "admin", Username: "admin", FullName: "System Administrator", Role: Admin, IsActive: true}
}
