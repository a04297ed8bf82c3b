package models

import (
	"time"

	"gorm.io/gorm"
)

// TransactionCode is an append-only record of an accepted payment-slip code.
// Rows are never updated; duplicate detection reads this log.
type TransactionCode struct {
	gorm.Model
	Code        string    `gorm:"size:100;not null;index" json:"code"`
	PhoneNumber string    `gorm:"size:50;not null" json:"phone_number"`
	Timestamp   time.Time `gorm:"not null" json:"timestamp"`
}
