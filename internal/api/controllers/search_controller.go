package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripmate/internal/models/request_models"
	"tripmate/internal/services"
	"tripmate/pkg/utils"
)

type SearchController struct {
	searchService services.SearchServiceInterface
}

func NewSearchController(searchService services.SearchServiceInterface) *SearchController {
	return &SearchController{
		searchService: searchService,
	}
}

// SearchFlights godoc
// @Summary Search flights
// @Tags Search
// @Accept json
// @Produce json
// @Param request body request_models.FlightSearchRequest true "Origin, destination, date, travellers"
// @Success 200 {object} response_models.FlightSearchResponse
// @Router /api/flights/search [post]
func (s *SearchController) SearchFlights(c *gin.Context) {
	var req request_models.FlightSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "origin and destination are required")
		return
	}

	res, err := s.searchService.SearchFlights(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, res, "Flights fetched successfully")
}

// SearchHotels godoc
// @Summary Search hotels
// @Tags Search
// @Accept json
// @Produce json
// @Param request body request_models.HotelSearchRequest true "City and filters"
// @Success 200 {object} response_models.HotelSearchResponse
// @Router /api/hotels/search [post]
func (s *SearchController) SearchHotels(c *gin.Context) {
	var req request_models.HotelSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "city is required")
		return
	}

	res, err := s.searchService.SearchHotels(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, res, "Hotels fetched successfully")
}

func (s *SearchController) SearchActivities(c *gin.Context) {
	var req request_models.ActivitySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "city is required")
		return
	}

	res, err := s.searchService.SearchActivities(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, res, "Activities fetched successfully")
}
