package migrations

import (
	"github.com/abelzimusi/order-verification-app/models"
	"github.com/abelzimusi/order-verification-app/utils"
)

func MigrateBranches() {
	utils.DB.AutoMigrate(&models.Branch{})
}
