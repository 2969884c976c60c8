package db_models

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Trip is a generated itinerary saved for its owner.
type Trip struct {
	BaseModel
	SessionID      string `gorm:"index"`
	UserID         string `gorm:"index"`
	Title          string
	Destination    string
	Departure      string
	StartDate      string
	DurationDays   int
	Travelers      int
	Budget         float64
	EstimatedTotal float64
	Pace           string
	Preferences    pq.StringArray `gorm:"type:text[]"`
	Plan           datatypes.JSON `gorm:"type:jsonb"`

	ShareToken        *string `gorm:"uniqueIndex"`
	SharePasscodeHash string

	PaidAt     *int64
	PaymentRef string
}
