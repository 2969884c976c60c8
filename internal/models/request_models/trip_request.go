package request_models

type ShareTripRequest struct {
	Passcode string `json:"passcode" binding:"omitempty,min=4,max=64"`
}

type GuestTokenRequest struct {
	AdminKey string `json:"admin_key"`
}
