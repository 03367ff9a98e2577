package model

import (
	"time"

	"github.com/google/uuid"
)

type CommandType string

const (
	TypeEnableLostMode    CommandType = "enable_lost_mode"
	TypeDisableLostMode   CommandType = "disable_lost_mode"
	TypeGetLocation       CommandType = "get_location"
	TypeUpdateConfig      CommandType = "update_config"
	TypeReboot            CommandType = "reboot"
	TypeEnableGeofencing  CommandType = "enable_geofence_monitoring"
	TypeDisableGeofencing CommandType = "disable_geofence_monitoring"
)

func (t CommandType) IsValid() bool {
	switch t {
	case TypeEnableLostMode, TypeDisableLostMode, TypeGetLocation,
		TypeUpdateConfig, TypeReboot, TypeEnableGeofencing, TypeDisableGeofencing:
		return true
	}
	return false
}

type CommandStatus string

const (
	StatusPending      CommandStatus = "pending"
	StatusSent         CommandStatus = "sent"
	StatusAcknowledged CommandStatus = "acknowledged"
	StatusExecuted     CommandStatus = "executed"
	StatusFailed       CommandStatus = "failed"
	StatusExpired      CommandStatus = "expired"
	StatusCancelled    CommandStatus = "cancelled"
)

func (s CommandStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusAcknowledged, StatusExecuted,
		StatusFailed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the command can no longer progress. A new
// command of the same type may be created once the previous one is terminal.
func (s CommandStatus) IsTerminal() bool {
	switch s {
	case StatusExecuted, StatusFailed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Command is a queued instruction for a device. At most one pending command
// per (device, type) may exist at a time.
type Command struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	DeviceID uuid.UUID `json:"device_id" gorm:"type:uuid;index;not null"`

	CommandType CommandType            `json:"command_type" gorm:"size:50;not null"`
	CommandData map[string]interface{} `json:"command_data,omitempty" gorm:"serializer:json"`

	Status CommandStatus `json:"status" gorm:"size:20;not null;default:pending"`

	CreatedAt      time.Time  `json:"created_at"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	ExecutedAt     *time.Time `json:"executed_at,omitempty"`

	// ExpiresAt is carried for forward compatibility; nothing enforces it.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (Command) TableName() string {
	return "device_commands"
}
