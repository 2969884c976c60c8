package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripmate/internal/models/request_models"
	"tripmate/internal/models/response_models"
	"tripmate/internal/services"
	"tripmate/pkg/utils"
)

type DestinationController struct {
	destinationService services.DestinationServiceInterface
}

func NewDestinationController(destinationService services.DestinationServiceInterface) *DestinationController {
	return &DestinationController{
		destinationService: destinationService,
	}
}

// Search godoc
// @Summary Look up a destination
// @Description Returns what is known about a destination. Unknown places still succeed with a generic entry.
// @Tags Destinations
// @Accept json
// @Produce json
// @Param request body request_models.DestinationSearchRequest true "Destination name"
// @Success 200 {object} response_models.DestinationSearchResponse
// @Failure 400 {object} response_models.DestinationSearchResponse
// @Router /api/destinations/search [post]
func (d *DestinationController) Search(c *gin.Context) {
	var req request_models.DestinationSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response_models.DestinationSearchResponse{Success: false})
		return
	}

	info, err := d.destinationService.Search(c.Request.Context(), req.Destination)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response_models.DestinationSearchResponse{
		Success:         true,
		DestinationInfo: *info,
	})
}
