package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role codes as constants
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// User represents an authenticated operator of the till.
type User struct {
	BaseModel
	Username     string     `gorm:"type:varchar(80);uniqueIndex;not null" json:"username" validate:"required"`
	Password     string     `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	FullName     string     `gorm:"type:varchar(255)" json:"full_name"`
	Role         string     `gorm:"type:varchar(20);not null;default:'cashier'" json:"role" validate:"oneof=admin cashier"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	TokenVersion string     `gorm:"type:varchar(255);default:''" json:"-"` // For single session enforcement
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID         uint       `json:"id"`
	Username   string     `json:"username"`
	FullName   string     `json:"full_name"`
	Role       string     `json:"role"`
	IsActive   bool       `json:"is_active"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		Role:       u.Role,
		IsActive:   u.IsActive,
		LastSeenAt: u.LastSeenAt,
	}
}
