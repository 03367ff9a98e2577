package model

import (
	"time"

	"github.com/google/uuid"
)

// Location is a single immutable position report. Rows are append-only:
// never updated, never deleted.
type Location struct {
	ID       int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	DeviceID uuid.UUID `json:"device_id" gorm:"type:uuid;index;not null"`

	Latitude   float64  `json:"latitude" gorm:"not null"`
	Longitude  float64  `json:"longitude" gorm:"not null"`
	Altitude   *float64 `json:"altitude,omitempty"`
	Speed      *float64 `json:"speed,omitempty"`
	Heading    *float64 `json:"heading,omitempty"`
	Satellites *int     `json:"satellites,omitempty"`
	Hdop       *float64 `json:"hdop,omitempty"`

	BatteryLevel    *float64 `json:"battery_level,omitempty"`
	SignalQuality   *int     `json:"signal_quality,omitempty"`
	NetworkOperator *string  `json:"network_operator,omitempty" gorm:"size:100"`

	Timestamp time.Time `json:"timestamp" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (Location) TableName() string {
	return "device_locations"
}
