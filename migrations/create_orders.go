package migrations

import (
	"github.com/abelzimusi/order-verification-app/models"
	"github.com/abelzimusi/order-verification-app/utils"
)

func MigrateOrders() {
	utils.DB.AutoMigrate(&models.Order{})
}
