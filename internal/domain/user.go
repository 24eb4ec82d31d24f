package domain

import "time"

// UserType distinguishes the two account categories.
type UserType string

const (
	UserTypeBusiness UserType = "BUSINESS"
	UserTypeRetailer UserType = "RETAILER"
)

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for authenticated accounts.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	UserType     UserType
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Roles maps the account category to its role tags. Roles are plain strings;
// any prefixing convention belongs to callers, not the domain.
func (u *User) Roles() []string {
	return []string{string(u.UserType)}
}
