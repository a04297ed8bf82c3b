package orders

import (
	"net/http"
	"strconv"

	"github.com/abelzimusi/order-verification-app/models"
	"github.com/abelzimusi/order-verification-app/utils"

	"github.com/gin-gonic/gin"
)

func RegisterOrderRoutes(r *gin.RouterGroup) {
	r.GET("/orders", ListOrders)
}

// ListOrders returns recent orders, newest first, optionally filtered by
// branch or group.
func ListOrders(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	query := utils.DB.Model(&models.Order{}).Order("orders.created_at DESC").Limit(limit)
	if branchID := c.Query("branch_id"); branchID != "" {
		query = query.Where("orders.branch_id = ?", branchID)
	}
	if group := c.Query("group"); group != "" {
		query = query.Joins("JOIN branches ON branches.id = orders.branch_id").
			Where("branches.branch_group = ?", group)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}
