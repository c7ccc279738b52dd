// internal/models/user.go
package models

import "gorm.io/gorm"

// User is a dashboard account. The deployment runs with a single seeded
// admin; there is no self-registration.
type User struct {
	gorm.Model
	Username     string `json:"username" gorm:"unique;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	Role         string `json:"role"` // only "admin" for now
}
