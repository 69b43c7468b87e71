package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mcaservicing/mca_backend/models"
	"github.com/mcaservicing/mca_backend/utils"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !bindJSON(c, &req) {
			return
		}
		info, err := models.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := models.Logout(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": ok})
	}
}

// apiTokenHandler issues a JWT for integrations acting on the caller's business.
func apiTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userId, _ := utils.GetUserIdFromContext(ctx)
		role, _ := utils.GetUserRoleFromContext(ctx)
		businessId, _ := utils.GetBusinessIdFromContext(ctx)
		if isAdmin, _ := utils.GetIsAdminFromContext(ctx); isAdmin {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "admins cannot issue api tokens"})
			return
		}
		token, err := utils.JwtGenerate(userId, role, businessId)
		if err != nil {
			respondError(c, "apiTokenHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}
