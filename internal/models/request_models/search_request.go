package request_models

type DestinationSearchRequest struct {
	Destination string `json:"destination" binding:"required"`
}

type FlightSearchRequest struct {
	Origin      string `json:"origin" binding:"required"`
	Destination string `json:"destination" binding:"required"`
	Date        string `json:"date"`
	Travelers   int    `json:"travelers"`
}

type HotelSearchRequest struct {
	City      string  `json:"city" binding:"required"`
	CheckIn   string  `json:"check_in"`
	Nights    int     `json:"nights"`
	Travelers int     `json:"travelers"`
	Type      string  `json:"type"`
	MaxPrice  float64 `json:"max_price"`
}

type ActivitySearchRequest struct {
	City        string   `json:"city" binding:"required"`
	Preferences []string `json:"preferences"`
	Restaurants bool     `json:"restaurants"`
	MaxPrice    float64  `json:"max_price"`
}
