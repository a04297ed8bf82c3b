package models

import "gorm.io/gorm"

// Branch groups. Branches in the same group share a single monotonic
// order-number sequence.
const (
	GroupNJShops                 = "NJShops"
	GroupNgundu                  = "Ngundu"
	GroupChomutobwe              = "Chomutobwe"
	GroupTnPAndMunteeInvestments = "TnPAndMunteeInvestments"
)

type Branch struct {
	gorm.Model
	Name             string `gorm:"size:100;unique;not null" json:"name"`
	PhoneNumber      string `gorm:"size:50;not null" json:"phone_number"`
	AdminPhoneNumber string `gorm:"size:50;not null" json:"admin_phone_number"`
	// "group" is a reserved word in MySQL, so the column gets an explicit name.
	Group string `gorm:"column:branch_group;size:50;not null;index" json:"group"`
}
