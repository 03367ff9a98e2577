package systemlog

import (
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelDebug   Level = "debug"
)

type Category string

const (
	CategorySystem   Category = "system"
	CategoryGPS      Category = "gps"
	CategoryNetwork  Category = "network"
	CategoryCommand  Category = "command"
	CategoryConfig   Category = "config"
	CategoryGeofence Category = "geofence"
)

// Entry is an append-only audit record. Rows are never updated or deleted
// here; retention is an external concern.
type Entry struct {
	ID       int64                  `json:"id" gorm:"primaryKey;autoIncrement"`
	DeviceID *uuid.UUID             `json:"device_id,omitempty" gorm:"type:uuid;index"`
	Level    Level                  `json:"level" gorm:"size:20;not null"`
	Category Category               `json:"category" gorm:"size:50;not null;default:system"`
	Message  string                 `json:"message" gorm:"type:text;not null"`
	Metadata map[string]interface{} `json:"metadata,omitempty" gorm:"serializer:json"`

	Timestamp time.Time `json:"timestamp" gorm:"index"`
}

func (Entry) TableName() string {
	return "system_logs"
}

type Page struct {
	Logs       []Entry `json:"logs"`
	TotalCount int64   `json:"totalCount"`
	HasMore    bool    `json:"hasMore"`
}
