package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripmate/internal/models/request_models"
	"tripmate/internal/services"
	"tripmate/pkg/utils"
)

type AuthController struct {
	authService services.AuthServiceInterface
}

func NewAuthController(authService services.AuthServiceInterface) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// GuestToken godoc
// @Summary Issue a guest token
// @Description Returns a JWT for a new guest user, or an admin token when the admin key is supplied
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request_models.GuestTokenRequest false "Optional admin key"
// @Success 200 {object} response_models.TokenResponse
// @Failure 401 {object} utils.APIResponse
// @Router /api/auth/guest [post]
func (a *AuthController) GuestToken(c *gin.Context) {
	var req request_models.GuestTokenRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
			return
		}
	}

	token, err := a.authService.IssueToken(c.Request.Context(), req.AdminKey)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, token, "Token issued")
}
