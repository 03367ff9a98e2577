package model

import (
	"time"

	"github.com/google/uuid"
)

// Geofence is a circular monitored zone (center + radius in meters) owned
// by a device's user.
type Geofence struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	DeviceID uuid.UUID `json:"device_id" gorm:"type:uuid;index;not null"`

	Name        string  `json:"name" gorm:"size:255;not null"`
	Description *string `json:"description,omitempty" gorm:"type:text"`

	CenterLatitude  float64 `json:"center_latitude" gorm:"not null"`
	CenterLongitude float64 `json:"center_longitude" gorm:"not null"`
	Radius          float64 `json:"radius" gorm:"not null"`

	IsActive     bool `json:"is_active" gorm:"not null;default:true"`
	AlertOnEnter bool `json:"alert_on_enter" gorm:"not null;default:true"`
	AlertOnExit  bool `json:"alert_on_exit" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Geofence) TableName() string {
	return "geofences"
}

type AlertType string

const (
	AlertEnter AlertType = "enter"
	AlertExit  AlertType = "exit"
)

// Alert records a single geofence crossing. Immutable except for the
// isRead flag.
type Alert struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	DeviceID   uuid.UUID `json:"device_id" gorm:"type:uuid;index;not null"`
	GeofenceID uuid.UUID `json:"geofence_id" gorm:"type:uuid;not null"`

	AlertType AlertType `json:"alert_type" gorm:"size:20;not null"`

	Latitude  float64 `json:"latitude" gorm:"not null"`
	Longitude float64 `json:"longitude" gorm:"not null"`

	IsRead bool `json:"is_read" gorm:"not null;default:false"`

	TriggeredAt time.Time  `json:"triggered_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

func (Alert) TableName() string {
	return "geofence_alerts"
}
