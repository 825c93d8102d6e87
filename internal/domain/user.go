package domain

import "time"

type UserRole string

const (
	RoleUser    UserRole = "user"
	RoleManager UserRole = "manager"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	ID           int64     `json:"id" gorm:"column:id;primaryKey"`
	Email        string    `json:"email" validate:"required,email" gorm:"column:email;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"column:password_hash"`
	Name         string    `json:"name" gorm:"column:name"`
	Role         UserRole  `json:"role" gorm:"column:role"`
	Active       bool      `json:"active" gorm:"column:active"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (User) TableName() string { return "users" }

// Actor is the authenticated identity performing an operation, as supplied
// by the auth middleware. The scheduling core never sees credentials.
type Actor struct {
	ID   int64
	Role UserRole
}

// CanConfirm gates the confirm and complete transitions.
func (a Actor) CanConfirm() bool {
	return a.Role == RoleManager || a.Role == RoleAdmin
}

// CanCancel gates the cancel transition: the requester of the booking may
// always cancel it, otherwise a confirming privilege is required.
func (a Actor) CanCancel(b *Booking) bool {
	return a.ID == b.RequestedBy || a.CanConfirm()
}

// CanSeeAll reports whether the actor may list bookings requested by others.
func (a Actor) CanSeeAll() bool {
	return a.Role == RoleManager || a.Role == RoleAdmin
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
