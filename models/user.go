package models

import "gorm.io/gorm"

// User is an admin account for the branch-registry API.
type User struct {
	gorm.Model
	Username string `gorm:"size:100;unique;not null" json:"username"`
	Password string `gorm:"not null" json:"-"` // bcrypt hash
}
