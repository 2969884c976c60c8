package controllers

import (
	"github.com/gin-gonic/gin"

	"tripmate/internal/services"
	"tripmate/pkg/utils"
)

type DashboardController struct {
	svc services.DashboardService
}

func NewDashboardController(svc services.DashboardService) *DashboardController {
	return &DashboardController{svc: svc}
}

// GetStats godoc
// @Summary Admin statistics
// @Description Live sessions by phase and saved trip counts
// @Tags Admin
// @Produce json
// @Success 200 {object} response_models.AdminStats
// @Security BearerAuth
// @Router /api/admin/stats [get]
func (h *DashboardController) GetStats(c *gin.Context) {
	stats, err := h.svc.BuildStats(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, stats, "")
}
