// seed/seed.go
package seed

import (
	"errors"
	"log"
	"os"

	"github.com/abelzimusi/order-verification-app/models"
	"github.com/abelzimusi/order-verification-app/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedBranches loads the initial branch registry when the table is empty.
// Numbers here are placeholders; operators maintain the real registry through
// the admin API.
func SeedBranches() error {
	var count int64
	if err := utils.DB.Model(&models.Branch{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Branch registry already populated. Skipping seeding.")
		return nil
	}

	branches := []models.Branch{
		{Name: "NJ Shops", PhoneNumber: "0", AdminPhoneNumber: "0", Group: models.GroupNJShops},
		{Name: "Ngundu", PhoneNumber: "0", AdminPhoneNumber: "0", Group: models.GroupNgundu},
		{Name: "Neshuro", PhoneNumber: "0", AdminPhoneNumber: "0", Group: models.GroupNgundu},
		{Name: "Chomutobwe", PhoneNumber: "0", AdminPhoneNumber: "0", Group: models.GroupChomutobwe},
		{Name: "TnP", PhoneNumber: "0", AdminPhoneNumber: "0", Group: models.GroupTnPAndMunteeInvestments},
		{Name: "TnP And Muntee Investments", PhoneNumber: "0", AdminPhoneNumber: "0", Group: models.GroupTnPAndMunteeInvestments},
	}
	if err := utils.DB.Create(&branches).Error; err != nil {
		return err
	}

	log.Println("Branch registry seeded successfully.")
	return nil
}

// SeedAdminUser creates the admin account from ADMIN_USERNAME/ADMIN_PASSWORD
// if it does not exist yet.
func SeedAdminUser() error {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		log.Println("ADMIN_USERNAME or ADMIN_PASSWORD not set. Skipping admin seeding.")
		return nil
	}

	var existing models.User
	err := utils.DB.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := utils.DB.Create(&models.User{Username: username, Password: string(hash)}).Error; err != nil {
		return err
	}

	log.Println("Admin user seeded successfully.")
	return nil
}
