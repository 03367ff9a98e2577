package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	cmdmodel "gps-tracker/internal/command/model"
	"gps-tracker/internal/geofence/model"
	"gps-tracker/internal/logger"
	"gps-tracker/internal/systemlog"
	appErrors "gps-tracker/pkg/errors"
	"gps-tracker/pkg/utils"
)

// GeofenceStore is the persistence surface for zones and their alerts.
type GeofenceStore interface {
	Create(ctx context.Context, geofence *model.Geofence) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Geofence, error)
	ListByDevice(ctx context.Context, deviceID uuid.UUID) ([]model.Geofence, error)
	CountByDevice(ctx context.Context, deviceID uuid.UUID) (int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateAlert(ctx context.Context, alert *model.Alert) error
	ListAlertsByDevice(ctx context.Context, deviceID uuid.UUID, limit int) ([]model.Alert, error)
	MarkAlertRead(ctx context.Context, alertID uuid.UUID) error
	CountUnreadAlerts(ctx context.Context, deviceID uuid.UUID) (int64, error)
}

// CommandQueue is the slice of the command queue the engine drives for
// auto-toggling device-side GPS polling.
type CommandQueue interface {
	Create(ctx context.Context, deviceID uuid.UUID, cmdType cmdmodel.CommandType, payload map[string]interface{}) (*cmdmodel.Command, error)
}

type AuditLog interface {
	Append(ctx context.Context, deviceID *uuid.UUID, level systemlog.Level, category systemlog.Category, message string, metadata map[string]interface{})
}

// AlertPublisher pushes alerts to external consumers. May be nil.
type AlertPublisher interface {
	PublishGeofenceAlert(alert *model.Alert, geofenceName string)
}

type Service struct {
	store     GeofenceStore
	commands  CommandQueue
	audit     AuditLog
	publisher AlertPublisher
}

func NewService(store GeofenceStore, commands CommandQueue, audit AuditLog, publisher AlertPublisher) *Service {
	return &Service{
		store:     store,
		commands:  commands,
		audit:     audit,
		publisher: publisher,
	}
}

// Evaluate runs geofence membership for one position report. Membership is
// computed independently per report: an enter alert fires on every
// qualifying report while the device is inside a zone, not only on the
// crossing edge, and exit alerts are not evaluated at all. Both are known
// limitations kept for firmware compatibility; true edge detection needs
// per-device per-zone previous-state tracking.
func (s *Service) Evaluate(ctx context.Context, deviceID uuid.UUID, latitude, longitude float64) {
	geofences, err := s.store.ListByDevice(ctx, deviceID)
	if err != nil {
		logger.Error("Geofence evaluation failed to load zones",
			zap.String("device_id", deviceID.String()),
			zap.Error(err),
		)
		return
	}

	for i := range geofences {
		zone := &geofences[i]
		if !zone.IsActive {
			continue
		}

		if err := s.evaluateZone(ctx, zone, deviceID, latitude, longitude); err != nil {
			// One bad zone must not abort the rest of the evaluation loop.
			logger.Error("Geofence zone evaluation failed",
				zap.String("geofence_id", zone.ID.String()),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) evaluateZone(ctx context.Context, zone *model.Geofence, deviceID uuid.UUID, latitude, longitude float64) error {
	distance := Distance(latitude, longitude, zone.CenterLatitude, zone.CenterLongitude)
	inside := distance <= zone.Radius

	if !inside || !zone.AlertOnEnter {
		return nil
	}

	alert := &model.Alert{
		DeviceID:   deviceID,
		GeofenceID: zone.ID,
		AlertType:  model.AlertEnter,
		Latitude:   latitude,
		Longitude:  longitude,
	}
	if err := s.store.CreateAlert(ctx, alert); err != nil {
		return err
	}

	s.audit.Append(ctx, &deviceID, systemlog.LevelWarning, systemlog.CategoryGeofence,
		fmt.Sprintf("Device entered geofence: %s", zone.Name),
		map[string]interface{}{
			"geofenceId": zone.ID.String(),
			"latitude":   latitude,
			"longitude":  longitude,
		})

	if s.publisher != nil {
		s.publisher.PublishGeofenceAlert(alert, zone.Name)
	}

	return nil
}

// CreateGeofence stores a new zone. Creating the device's first zone turns
// on device-side GPS polling via a best-effort enable_geofence_monitoring
// command; a command conflict is logged, not surfaced.
func (s *Service) CreateGeofence(ctx context.Context, deviceID uuid.UUID, req *model.CreateGeofenceRequest) (*model.Geofence, *cmdmodel.Command, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, nil, appErrors.NewValidation("VALIDATION_ERROR", "Invalid geofence data", err)
	}

	geofence := &model.Geofence{
		DeviceID:        deviceID,
		Name:            req.Name,
		Description:     req.Description,
		CenterLatitude:  req.CenterLatitude,
		CenterLongitude: req.CenterLongitude,
		Radius:          req.Radius,
		IsActive:        true,
		AlertOnEnter:    true,
		AlertOnExit:     true,
	}
	if req.AlertOnEnter != nil {
		geofence.AlertOnEnter = *req.AlertOnEnter
	}
	if req.AlertOnExit != nil {
		geofence.AlertOnExit = *req.AlertOnExit
	}

	if err := s.store.Create(ctx, geofence); err != nil {
		return nil, nil, err
	}

	count, err := s.store.CountByDevice(ctx, deviceID)
	if err != nil {
		return geofence, nil, nil
	}

	var autoCommand *cmdmodel.Command
	if count == 1 {
		autoCommand = s.enableMonitoring(ctx, deviceID, map[string]interface{}{
			"reason":     "geofence_created",
			"geofenceId": geofence.ID.String(),
		}, "First geofence created - GPS monitoring enabled automatically")
	}

	return geofence, autoCommand, nil
}

func (s *Service) GetGeofence(ctx context.Context, id uuid.UUID) (*model.Geofence, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) ListGeofences(ctx context.Context, deviceID uuid.UUID) ([]model.Geofence, error) {
	return s.store.ListByDevice(ctx, deviceID)
}

func (s *Service) UpdateGeofence(ctx context.Context, id uuid.UUID, req *model.UpdateGeofenceRequest) (*model.Geofence, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidation("VALIDATION_ERROR", "Invalid geofence data", err)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Radius != nil {
		updates["radius"] = *req.Radius
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.AlertOnEnter != nil {
		updates["alert_on_enter"] = *req.AlertOnEnter
	}
	if req.AlertOnExit != nil {
		updates["alert_on_exit"] = *req.AlertOnExit
	}

	if len(updates) > 0 {
		if err := s.store.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}

	return s.store.GetByID(ctx, id)
}

// DeleteGeofence removes a zone. Deleting the device's last zone turns
// device-side GPS polling back off.
func (s *Service) DeleteGeofence(ctx context.Context, id uuid.UUID) (*cmdmodel.Command, error) {
	geofence, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.store.CountByDevice(ctx, geofence.DeviceID)
	if err != nil {
		return nil, err
	}
	wasLast := count == 1

	if err := s.store.Delete(ctx, id); err != nil {
		return nil, err
	}

	if !wasLast {
		return nil, nil
	}

	return s.disableMonitoring(ctx, geofence.DeviceID, map[string]interface{}{
		"reason":            "last_geofence_deleted",
		"deletedGeofenceId": geofence.ID.String(),
	}, "Last geofence deleted - GPS monitoring disabled automatically"), nil
}

// Sync recomputes the zone count and forces the matching enable/disable
// command. Repair tool for drift between zone count and the device's GPS
// polling state.
func (s *Service) Sync(ctx context.Context, deviceID uuid.UUID) (enabled bool, count int64, cmd *cmdmodel.Command, err error) {
	count, err = s.store.CountByDevice(ctx, deviceID)
	if err != nil {
		return false, 0, nil, err
	}

	if count > 0 {
		cmd = s.enableMonitoring(ctx, deviceID, map[string]interface{}{
			"reason":        "manual_sync",
			"geofenceCount": count,
		}, "Manual geofencing sync - enable command sent")
		return true, count, cmd, nil
	}

	cmd = s.disableMonitoring(ctx, deviceID, map[string]interface{}{
		"reason": "manual_sync_no_geofences",
	}, "Manual geofencing sync - disable command sent")
	return false, 0, cmd, nil
}

func (s *Service) enableMonitoring(ctx context.Context, deviceID uuid.UUID, payload map[string]interface{}, message string) *cmdmodel.Command {
	cmd, err := s.commands.Create(ctx, deviceID, cmdmodel.TypeEnableGeofencing, payload)
	if err != nil {
		logger.Warn("Failed to create enable_geofence_monitoring command",
			zap.String("device_id", deviceID.String()),
			zap.Error(err),
		)
		return nil
	}

	s.audit.Append(ctx, &deviceID, systemlog.LevelInfo, systemlog.CategoryGeofence,
		fmt.Sprintf("%s (Command: %s)", message, cmd.ID),
		map[string]interface{}{"commandId": cmd.ID.String()})

	return cmd
}

func (s *Service) disableMonitoring(ctx context.Context, deviceID uuid.UUID, payload map[string]interface{}, message string) *cmdmodel.Command {
	cmd, err := s.commands.Create(ctx, deviceID, cmdmodel.TypeDisableGeofencing, payload)
	if err != nil {
		logger.Warn("Failed to create disable_geofence_monitoring command",
			zap.String("device_id", deviceID.String()),
			zap.Error(err),
		)
		return nil
	}

	s.audit.Append(ctx, &deviceID, systemlog.LevelInfo, systemlog.CategoryGeofence,
		fmt.Sprintf("%s (Command: %s)", message, cmd.ID),
		map[string]interface{}{"commandId": cmd.ID.String()})

	return cmd
}

// Alert access for the dashboard.

func (s *Service) ListAlerts(ctx context.Context, deviceID uuid.UUID, limit int) ([]model.Alert, error) {
	return s.store.ListAlertsByDevice(ctx, deviceID, limit)
}

func (s *Service) MarkAlertRead(ctx context.Context, alertID uuid.UUID) error {
	return s.store.MarkAlertRead(ctx, alertID)
}

func (s *Service) UnreadAlertCount(ctx context.Context, deviceID uuid.UUID) (int64, error) {
	return s.store.CountUnreadAlerts(ctx, deviceID)
}
