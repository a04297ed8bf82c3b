package branches

import (
	"net/http"

	"github.com/abelzimusi/order-verification-app/models"
	"github.com/abelzimusi/order-verification-app/utils"

	"github.com/gin-gonic/gin"
)

// Branch registry maintenance. The reconciliation engine only reads
// branches; these handlers are how operators keep the registry current.

type branchRequest struct {
	Name             string `json:"name" binding:"required"`
	PhoneNumber      string `json:"phone_number" binding:"required"`
	AdminPhoneNumber string `json:"admin_phone_number" binding:"required"`
	Group            string `json:"group" binding:"required"`
}

func CreateBranch(c *gin.Context) {
	var req branchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	branch := models.Branch{
		Name:             req.Name,
		PhoneNumber:      req.PhoneNumber,
		AdminPhoneNumber: req.AdminPhoneNumber,
		Group:            req.Group,
	}
	if err := utils.DB.Create(&branch).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create branch"})
		return
	}

	c.JSON(http.StatusCreated, branch)
}

func ListBranches(c *gin.Context) {
	var branches []models.Branch
	query := utils.DB
	if group := c.Query("group"); group != "" {
		query = query.Where("branch_group = ?", group)
	}
	if err := query.Find(&branches).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch branches"})
		return
	}

	c.JSON(http.StatusOK, branches)
}

func UpdateBranch(c *gin.Context) {
	var branch models.Branch
	if err := utils.DB.First(&branch, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Branch not found"})
		return
	}

	var req branchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	branch.Name = req.Name
	branch.PhoneNumber = req.PhoneNumber
	branch.AdminPhoneNumber = req.AdminPhoneNumber
	branch.Group = req.Group
	if err := utils.DB.Save(&branch).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update branch"})
		return
	}

	c.JSON(http.StatusOK, branch)
}

func DeleteBranch(c *gin.Context) {
	if err := utils.DB.Delete(&models.Branch{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete branch"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Branch deleted"})
}
