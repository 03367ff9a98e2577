package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	cmdmodel "gps-tracker/internal/command/model"
	devicemodel "gps-tracker/internal/device/model"
	locmodel "gps-tracker/internal/location/model"
	"gps-tracker/internal/logger"
	"gps-tracker/internal/systemlog"
	appErrors "gps-tracker/pkg/errors"
	"gps-tracker/pkg/utils"
)

type DeviceStore interface {
	GetByDeviceID(ctx context.Context, deviceID string) (*devicemodel.Device, error)
	Create(ctx context.Context, device *devicemodel.Device) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	AddStatusHistory(ctx context.Context, entry *devicemodel.StatusHistory) error
}

type LocationStore interface {
	Insert(ctx context.Context, location *locmodel.Location) error
}

// CommandQueue is the command-service surface the device boundary uses:
// pending delivery on heartbeat, status transitions on ack.
type CommandQueue interface {
	ListPending(ctx context.Context, deviceID uuid.UUID) ([]cmdmodel.Command, error)
	UpdateStatus(ctx context.Context, commandID uuid.UUID, status cmdmodel.CommandStatus, at time.Time) (*cmdmodel.Command, error)
}

// GeofenceEvaluator runs zone membership checks against a fresh position.
type GeofenceEvaluator interface {
	Evaluate(ctx context.Context, deviceID uuid.UUID, latitude, longitude float64)
}

// ActivityRecorder is the liveness engine hook. Every inbound device
// message goes through it so the sweep sees fresh timestamps.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, id uuid.UUID) error
}

type AuditLog interface {
	Append(ctx context.Context, deviceID *uuid.UUID, level systemlog.Level, category systemlog.Category, message string, metadata map[string]interface{})
}

// Service is the device-facing ingestion boundary: registration, position
// reports, heartbeats and command acknowledgments.
type Service struct {
	devices   DeviceStore
	locations LocationStore
	commands  CommandQueue
	geofences GeofenceEvaluator
	activity  ActivityRecorder
	audit     AuditLog
}

func NewService(devices DeviceStore, locations LocationStore, commands CommandQueue, geofences GeofenceEvaluator, activity ActivityRecorder, audit AuditLog) *Service {
	return &Service{
		devices:   devices,
		locations: locations,
		commands:  commands,
		geofences: geofences,
		activity:  activity,
		audit:     audit,
	}
}

// Register creates a device with the factory-default configuration. A
// device that already exists is refreshed in place instead of rejected, so
// firmware can re-register after a reboot without special-casing; the
// second return reports whether a new row was created.
func (s *Service) Register(ctx context.Context, req *devicemodel.RegisterDeviceRequest) (*devicemodel.Device, bool, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, false, appErrors.NewValidation("INVALID_DEVICE_DATA", "Invalid device registration data", err)
	}

	existing, err := s.devices.GetByDeviceID(ctx, req.DeviceID)
	if err != nil && !appErrors.IsNotFound(err) {
		return nil, false, err
	}

	if existing != nil {
		now := time.Now()
		updates := map[string]interface{}{
			"last_seen": now,
			"status":    devicemodel.StatusOnline,
			"is_active": true,
		}
		if req.DeviceName != nil {
			updates["device_name"] = *req.DeviceName
		}
		if req.FirmwareVersion != nil {
			updates["firmware_version"] = *req.FirmwareVersion
		}
		if req.HardwareVersion != nil {
			updates["hardware_version"] = *req.HardwareVersion
		}

		if err := s.devices.Update(ctx, existing.ID, updates); err != nil {
			return nil, false, err
		}

		refreshed, err := s.devices.GetByDeviceID(ctx, req.DeviceID)
		if err != nil {
			return nil, false, err
		}

		s.audit.Append(ctx, &existing.ID, systemlog.LevelInfo, systemlog.CategorySystem,
			fmt.Sprintf("Device re-registered: %s", req.DeviceID),
			map[string]interface{}{"deviceId": req.DeviceID})

		logger.Info("Device re-registered", zap.String("device_id", req.DeviceID))
		return refreshed, false, nil
	}

	deviceType := req.DeviceType
	if deviceType == "" {
		deviceType = "GPS_TRACKER"
	}

	device := &devicemodel.Device{
		DeviceID:        req.DeviceID,
		DeviceName:      req.DeviceName,
		DeviceType:      deviceType,
		FirmwareVersion: req.FirmwareVersion,
		HardwareVersion: req.HardwareVersion,
		Config:          devicemodel.DefaultConfig(),
		Status:          devicemodel.StatusOffline,
		IsActive:        false,
	}

	if err := s.devices.Create(ctx, device); err != nil {
		return nil, false, err
	}

	s.audit.Append(ctx, &device.ID, systemlog.LevelInfo, systemlog.CategorySystem,
		fmt.Sprintf("Device registered with default config: %s", device.DeviceID),
		map[string]interface{}{"defaultConfig": device.Config})

	logger.Info("New device registered", zap.String("device_id", device.DeviceID))
	return device, true, nil
}

// ReportLocation persists a position report, refreshes liveness and runs
// geofence evaluation. The caller must already have resolved the device;
// unknown devices are handled at the HTTP boundary with a reboot envelope.
func (s *Service) ReportLocation(ctx context.Context, device *devicemodel.Device, report *LocationReport) (*locmodel.Location, error) {
	if err := utils.ValidateStruct(report); err != nil {
		return nil, appErrors.NewValidation("INVALID_LOCATION_DATA", "Invalid location data", err)
	}

	location := &locmodel.Location{
		DeviceID:        device.ID,
		Latitude:        report.Latitude,
		Longitude:       report.Longitude,
		Altitude:        report.Altitude,
		Speed:           report.Speed,
		Heading:         report.Heading,
		Satellites:      report.Satellites,
		Hdop:            report.Hdop,
		BatteryLevel:    report.BatteryLevel,
		SignalQuality:   report.SignalQuality,
		NetworkOperator: report.NetworkOperator,
	}

	if err := s.locations.Insert(ctx, location); err != nil {
		return nil, err
	}

	if err := s.activity.RecordActivity(ctx, device.ID); err != nil {
		logger.Error("Failed to record device activity",
			zap.String("device_id", device.DeviceID),
			zap.Error(err),
		)
	}

	s.geofences.Evaluate(ctx, device.ID, report.Latitude, report.Longitude)

	return location, nil
}

// Heartbeat records the telemetry snapshot, refreshes liveness and returns
// the device's config plus its pending command queue.
func (s *Service) Heartbeat(ctx context.Context, device *devicemodel.Device, req *HeartbeatRequest) (*HeartbeatResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidation("INVALID_HEARTBEAT_DATA", "Invalid heartbeat data", err)
	}

	if err := s.activity.RecordActivity(ctx, device.ID); err != nil {
		logger.Error("Failed to record device activity",
			zap.String("device_id", device.DeviceID),
			zap.Error(err),
		)
	}

	entry := &devicemodel.StatusHistory{
		DeviceID:           device.ID,
		Status:             req.Status,
		BatteryLevel:       req.BatteryLevel,
		NetSignalQuality:   req.Network.SignalQuality,
		NetOperator:        req.Network.Operator,
		LostMode:           req.Gps.LostModeActive,
		GeofencingMode:     req.Gps.GeofenceActive,
		GpsHdop:            req.Gps.Hdop,
		GpsSatellites:      req.Gps.Satellites,
		LastGpsReadAttempt: req.Gps.LastReadAttempt,
		ErrorCount:         req.ErrorCount,
	}
	if err := s.devices.AddStatusHistory(ctx, entry); err != nil {
		logger.Error("Failed to record status history",
			zap.String("device_id", device.DeviceID),
			zap.Error(err),
		)
	}

	pending, err := s.commands.ListPending(ctx, device.ID)
	if err != nil {
		return nil, err
	}

	return &HeartbeatResponse{
		Success:   true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Config:    device.Config,
		Commands:  pending,
	}, nil
}

// AckCommand applies a device-reported transition. An empty status defaults
// to acknowledged.
func (s *Service) AckCommand(ctx context.Context, commandID uuid.UUID, status cmdmodel.CommandStatus) (*cmdmodel.Command, error) {
	if status == "" {
		status = cmdmodel.StatusAcknowledged
	}
	if !status.IsValid() {
		return nil, appErrors.NewValidation("INVALID_COMMAND_STATUS", fmt.Sprintf("Unknown command status: %s", status), nil)
	}

	return s.commands.UpdateStatus(ctx, commandID, status, time.Now())
}
