package migrations

import (
	"github.com/abelzimusi/order-verification-app/models"
	"github.com/abelzimusi/order-verification-app/utils"
)

func MigrateUsers() {
	utils.DB.AutoMigrate(&models.User{})
}
