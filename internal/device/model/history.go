package model

import (
	"time"

	"github.com/google/uuid"
)

// StatusHistory is an append-only record of the telemetry a device reports
// with each heartbeat.
type StatusHistory struct {
	ID       int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	DeviceID uuid.UUID `json:"device_id" gorm:"type:uuid;index;not null"`

	Status string `json:"status" gorm:"size:50;not null"`

	LostMode           *bool    `json:"lost_mode,omitempty"`
	GeofencingMode     *bool    `json:"geofencing_mode,omitempty"`
	BatteryLevel       *float64 `json:"battery_level,omitempty"`
	NetSignalQuality   *string  `json:"net_signal_quality,omitempty" gorm:"column:network_quality;size:20"`
	NetOperator        *string  `json:"net_operator,omitempty" gorm:"column:network_operator;size:40"`
	GpsHdop            *float64 `json:"gps_hdop,omitempty"`
	GpsSatellites      *int     `json:"gps_satellites,omitempty" gorm:"column:satellites"`
	LastGpsReadAttempt *int     `json:"last_gps_read_attempt,omitempty" gorm:"column:last_read_attempt"`
	ErrorCount         *int     `json:"error_count,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

func (StatusHistory) TableName() string {
	return "device_status_history"
}
