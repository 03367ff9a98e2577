package model

import (
	"time"

	"github.com/google/uuid"
)

// Device is a registered GPS tracker. DeviceID is the stable hardware
// identifier (MAC address) the firmware reports; ID is the row identity
// everything else references.
type Device struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	DeviceID        string    `json:"device_id" gorm:"column:device_id;uniqueIndex;size:100;not null"`
	DeviceName      *string   `json:"device_name,omitempty" gorm:"size:255"`
	DeviceType      string    `json:"device_type" gorm:"size:50;not null;default:GPS_TRACKER"`
	FirmwareVersion *string   `json:"firmware_version,omitempty" gorm:"size:50"`
	HardwareVersion *string   `json:"hardware_version,omitempty" gorm:"size:50"`

	// Config is device-tunable only via a confirmed update_config command,
	// never written directly by dashboard calls.
	Config DeviceConfig `json:"config" gorm:"serializer:json"`

	Status   DeviceStatus `json:"status" gorm:"size:20;not null;default:offline"`
	LastSeen *time.Time   `json:"last_seen,omitempty"`
	IsActive bool         `json:"is_active" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Device) TableName() string {
	return "devices"
}
