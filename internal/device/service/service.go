package service

import (
	"context"

	"github.com/google/uuid"

	"gps-tracker/internal/device/model"
	locmodel "gps-tracker/internal/location/model"
	appErrors "gps-tracker/pkg/errors"
	"gps-tracker/pkg/utils"
)

type DeviceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Device, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*model.Device, error)
	Exists(ctx context.Context, deviceID string) (bool, error)
	ListAll(ctx context.Context) ([]model.Device, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	GetStatusHistory(ctx context.Context, deviceID uuid.UUID, limit int) ([]model.StatusHistory, error)
}

type LocationStore interface {
	Latest(ctx context.Context, deviceID uuid.UUID) (*locmodel.Location, error)
	ListByDevice(ctx context.Context, deviceID uuid.UUID, limit int) ([]locmodel.Location, error)
}

// AlertCounter exposes the unread-alert badge count for the status view.
type AlertCounter interface {
	CountUnreadAlerts(ctx context.Context, deviceID uuid.UUID) (int64, error)
}

type DeviceService struct {
	devices   DeviceStore
	locations LocationStore
	alerts    AlertCounter
}

func NewService(devices DeviceStore, locations LocationStore, alerts AlertCounter) *DeviceService {
	return &DeviceService{
		devices:   devices,
		locations: locations,
		alerts:    alerts,
	}
}

func (s *DeviceService) ListDevices(ctx context.Context) ([]model.Device, error) {
	return s.devices.ListAll(ctx)
}

func (s *DeviceService) GetDevice(ctx context.Context, id uuid.UUID) (*model.Device, error) {
	return s.devices.GetByID(ctx, id)
}

func (s *DeviceService) Exists(ctx context.Context, deviceID string) (bool, error) {
	return s.devices.Exists(ctx, deviceID)
}

func (s *DeviceService) UpdateDevice(ctx context.Context, id uuid.UUID, req *model.UpdateDeviceRequest) (*model.Device, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidation("INVALID_DEVICE_DATA", "Invalid device data", err)
	}

	updates := map[string]interface{}{}
	if req.DeviceName != nil {
		updates["device_name"] = *req.DeviceName
	}
	if req.FirmwareVersion != nil {
		updates["firmware_version"] = *req.FirmwareVersion
	}
	if req.HardwareVersion != nil {
		updates["hardware_version"] = *req.HardwareVersion
	}

	if len(updates) > 0 {
		if err := s.devices.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}

	return s.devices.GetByID(ctx, id)
}

func (s *DeviceService) GetConfig(ctx context.Context, id uuid.UUID) (*model.DeviceConfig, error) {
	device, err := s.devices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &device.Config, nil
}

// StatusView is the dashboard's combined per-device snapshot.
type StatusView struct {
	Device           *model.Device      `json:"device"`
	LatestLocation   *locmodel.Location `json:"latestLocation,omitempty"`
	UnreadAlertCount int64              `json:"unreadAlertCount"`
}

// GetStatus assembles the device row, its most recent position and the
// unread alert count in one view.
func (s *DeviceService) GetStatus(ctx context.Context, id uuid.UUID) (*StatusView, error) {
	device, err := s.devices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	latest, err := s.locations.Latest(ctx, id)
	if err != nil {
		return nil, err
	}

	unread, err := s.alerts.CountUnreadAlerts(ctx, id)
	if err != nil {
		return nil, err
	}

	return &StatusView{
		Device:           device,
		LatestLocation:   latest,
		UnreadAlertCount: unread,
	}, nil
}

func (s *DeviceService) LocationHistory(ctx context.Context, id uuid.UUID, limit int) ([]locmodel.Location, error) {
	if _, err := s.devices.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.locations.ListByDevice(ctx, id, limit)
}

func (s *DeviceService) StatusHistory(ctx context.Context, id uuid.UUID, limit int) ([]model.StatusHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if _, err := s.devices.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.devices.GetStatusHistory(ctx, id, limit)
}
