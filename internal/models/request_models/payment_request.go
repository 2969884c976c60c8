package request_models

// PaymentEvent is the webhook body sent by the payment provider.
type PaymentEvent struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	TripID    string  `json:"trip_id"`
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}
