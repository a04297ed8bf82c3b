package branches

import "github.com/gin-gonic/gin"

func RegisterBranchRoutes(r *gin.RouterGroup) {
	r.POST("/branches", CreateBranch)
	r.GET("/branches", ListBranches)
	r.PUT("/branches/:id", UpdateBranch)
	r.DELETE("/branches/:id", DeleteBranch)
}
