package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	gorm.Model
	// String-encoded integer, unique within a branch group (not globally).
	// Uniqueness is enforced by the allocator, not by a DB constraint, because
	// duplicate submissions legitimately arrive with already-used numbers.
	OrderNumber string          `gorm:"size:20;not null;index" json:"order_number"`
	BranchID    uint            `gorm:"not null;index" json:"branch_id"`
	Branch      Branch          `json:"-"`
	Recipient   string          `gorm:"size:100" json:"recipient"`
	Status      string          `gorm:"size:20;not null" json:"status"` // always "New" at creation
	Amount      decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	IsGrocery   bool            `json:"is_grocery"`
}
