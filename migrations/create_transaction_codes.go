package migrations

import (
	"github.com/abelzimusi/order-verification-app/models"
	"github.com/abelzimusi/order-verification-app/utils"
)

func MigrateTransactionCodes() {
	utils.DB.AutoMigrate(&models.TransactionCode{})
}
