package ingestion

import (
	"fmt"
	"time"

	cmdmodel "gps-tracker/internal/command/model"
	devicemodel "gps-tracker/internal/device/model"
)

// LocationReport is the position payload a tracker posts after a GPS fix.
type LocationReport struct {
	// Bare min/max: "required" would reject the zero value, and 0 is a
	// legal coordinate on both axes.
	Latitude   float64  `json:"latitude" validate:"min=-90,max=90"`
	Longitude  float64  `json:"longitude" validate:"min=-180,max=180"`
	Altitude   *float64 `json:"altitude" validate:"omitempty"`
	Speed      *float64 `json:"speed" validate:"omitempty,min=0"`
	Heading    *float64 `json:"heading" validate:"omitempty,min=0,max=360"`
	Satellites *int     `json:"satellites" validate:"omitempty,min=0"`
	Hdop       *float64 `json:"hdop" validate:"omitempty,min=0"`

	BatteryLevel    *float64 `json:"batteryLevel" validate:"omitempty,min=0,max=100"`
	SignalQuality   *int     `json:"signalQuality" validate:"omitempty"`
	NetworkOperator *string  `json:"networkOperator" validate:"omitempty,max=100"`
}

// HeartbeatRequest carries the periodic health report. The nested gps and
// network blocks mirror what the firmware sends.
type HeartbeatRequest struct {
	Status        string           `json:"status" validate:"required,max=50"`
	BatteryLevel  *float64         `json:"batteryLevel" validate:"omitempty,min=0,max=100"`
	SignalQuality *string          `json:"signalQuality" validate:"omitempty,max=20"`
	Gps           GpsTelemetry     `json:"gps"`
	Network       NetworkTelemetry `json:"network"`
	ErrorCount    *int             `json:"errorCount" validate:"omitempty,min=0"`
}

type GpsTelemetry struct {
	LostModeActive  *bool    `json:"lostModeActive"`
	GeofenceActive  *bool    `json:"geofenceActive"`
	Hdop            *float64 `json:"hdop"`
	Satellites      *int     `json:"satellites"`
	LastReadAttempt *int     `json:"lastReadAttempt"`
}

type NetworkTelemetry struct {
	SignalQuality *string `json:"signalQuality"`
	Operator      *string `json:"operator"`
}

// HeartbeatResponse hands the device its current config and everything
// still waiting in its command queue.
type HeartbeatResponse struct {
	Success   bool                     `json:"success"`
	Timestamp string                   `json:"timestamp"`
	Config    devicemodel.DeviceConfig `json:"config"`
	Commands  []cmdmodel.Command       `json:"commands"`
}

// SyntheticCommand is a reboot instruction that exists only on the wire; it
// is never persisted because the device it targets has no database row.
type SyntheticCommand struct {
	ID          string                 `json:"id"`
	CommandType cmdmodel.CommandType   `json:"commandType"`
	CommandData map[string]interface{} `json:"commandData"`
	Status      cmdmodel.CommandStatus `json:"status"`
	CreatedAt   string                 `json:"createdAt"`
}

// RebootEnvelope is the 200 response an unregistered device receives in
// place of a 404. The embedded reboot command tells it to restart and run
// registration again.
type RebootEnvelope struct {
	Success  bool               `json:"success"`
	Action   string             `json:"action"`
	Reason   string             `json:"reason"`
	Message  string             `json:"message"`
	Commands []SyntheticCommand `json:"commands"`
}

// NewRebootEnvelope builds the self-healing response for an unknown device.
// The delay gives the firmware time to finish any in-flight transmission
// before it restarts.
func NewRebootEnvelope(message string, delay time.Duration) *RebootEnvelope {
	now := time.Now()
	return &RebootEnvelope{
		Success: false,
		Action:  "reboot",
		Reason:  "device_not_registered",
		Message: message,
		Commands: []SyntheticCommand{
			{
				ID:          fmt.Sprintf("reboot-%d", now.UnixMilli()),
				CommandType: cmdmodel.TypeReboot,
				CommandData: map[string]interface{}{
					"reason": "device_not_registered",
					"delay":  delay.Milliseconds(),
				},
				Status:    cmdmodel.StatusPending,
				CreatedAt: now.UTC().Format(time.RFC3339),
			},
		},
	}
}
