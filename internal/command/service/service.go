package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gps-tracker/internal/command/model"
	devmodel "gps-tracker/internal/device/model"
	"gps-tracker/internal/logger"
	"gps-tracker/internal/systemlog"
	appErrors "gps-tracker/pkg/errors"
)

// CommandStore is the persistence surface the queue needs.
type CommandStore interface {
	Insert(ctx context.Context, cmd *model.Command) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Command, error)
	ListPending(ctx context.Context, deviceID uuid.UUID) ([]model.Command, error)
	HasPendingOfType(ctx context.Context, deviceID uuid.UUID, cmdType model.CommandType) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.CommandStatus, at time.Time) error
	ListByDevice(ctx context.Context, deviceID uuid.UUID, limit, offset int) ([]model.Command, error)
}

// DeviceStore covers the device writes the queue performs: config is owned
// by the command queue and mutated only on confirmed execution.
type DeviceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*devmodel.Device, error)
	UpdateConfig(ctx context.Context, id uuid.UUID, cfg devmodel.DeviceConfig) error
}

// AuditLog is the append-only system log sink.
type AuditLog interface {
	Append(ctx context.Context, deviceID *uuid.UUID, level systemlog.Level, category systemlog.Category, message string, metadata map[string]interface{})
}

// LostModeConflictError reports a same-direction lost-mode toggle while one
// is already pending. The dashboard offers cancellation instead of retry.
type LostModeConflictError struct {
	CommandID uuid.UUID
	Pending   model.CommandType
}

func (e *LostModeConflictError) Error() string {
	return fmt.Sprintf("lost mode command already pending: %s", e.Pending)
}

// Service mediates command creation, delivery, acknowledgment and
// cancellation, enforcing at most one pending command per (device, type).
type Service struct {
	commands CommandStore
	devices  DeviceStore
	audit    AuditLog

	// locks serializes check-then-insert per device so two concurrent
	// creates cannot both observe "no pending command".
	locks sync.Map // uuid.UUID -> *sync.Mutex
}

func NewService(commands CommandStore, devices DeviceStore, audit AuditLog) *Service {
	return &Service{
		commands: commands,
		devices:  devices,
		audit:    audit,
	}
}

func (s *Service) deviceLock(deviceID uuid.UUID) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(deviceID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Create queues a command for a device. Fails with Conflict if a pending
// command of the same type already exists.
func (s *Service) Create(ctx context.Context, deviceID uuid.UUID, cmdType model.CommandType, payload map[string]interface{}) (*model.Command, error) {
	if !cmdType.IsValid() {
		return nil, appErrors.NewValidation("INVALID_COMMAND_TYPE", fmt.Sprintf("Unknown command type: %s", cmdType), nil)
	}

	mu := s.deviceLock(deviceID)
	mu.Lock()
	defer mu.Unlock()

	return s.createLocked(ctx, deviceID, cmdType, payload)
}

// createLocked performs the check-then-insert. The caller must hold the
// device lock.
func (s *Service) createLocked(ctx context.Context, deviceID uuid.UUID, cmdType model.CommandType, payload map[string]interface{}) (*model.Command, error) {
	pending, err := s.commands.HasPendingOfType(ctx, deviceID, cmdType)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, appErrors.NewConflict("COMMAND_ALREADY_PENDING",
			"There is already a pending command of this type for this device")
	}

	cmd := &model.Command{
		DeviceID:    deviceID,
		CommandType: cmdType,
		CommandData: payload,
		Status:      model.StatusPending,
	}
	if err := s.commands.Insert(ctx, cmd); err != nil {
		return nil, err
	}

	s.audit.Append(ctx, &deviceID, systemlog.LevelInfo, systemlog.CategoryCommand,
		fmt.Sprintf("Command created: %s", cmdType),
		map[string]interface{}{
			"commandId":   cmd.ID.String(),
			"commandData": payload,
		})

	return cmd, nil
}

// ListPending returns the heartbeat bundle for a device, newest first.
func (s *Service) ListPending(ctx context.Context, deviceID uuid.UUID) ([]model.Command, error) {
	return s.commands.ListPending(ctx, deviceID)
}

func (s *Service) ListHistory(ctx context.Context, deviceID uuid.UUID, limit, offset int) ([]model.Command, error) {
	return s.commands.ListByDevice(ctx, deviceID, limit, offset)
}

// UpdateStatus transitions a command. An executed update_config command
// atomically replaces the owning device's configuration; repeating the same
// executed ack reapplies the identical config, so it is safe.
func (s *Service) UpdateStatus(ctx context.Context, commandID uuid.UUID, status model.CommandStatus, at time.Time) (*model.Command, error) {
	if !status.IsValid() {
		return nil, appErrors.NewValidation("INVALID_COMMAND_STATUS", fmt.Sprintf("Unknown command status: %s", status), nil)
	}

	cmd, err := s.commands.GetByID(ctx, commandID)
	if err != nil {
		return nil, err
	}

	if at.IsZero() {
		at = time.Now()
	}
	if err := s.commands.UpdateStatus(ctx, commandID, status, at); err != nil {
		return nil, err
	}
	cmd.Status = status

	if status == model.StatusExecuted && cmd.CommandType == model.TypeUpdateConfig {
		if err := s.applyConfig(ctx, cmd); err != nil {
			return nil, err
		}
	}

	return cmd, nil
}

func (s *Service) applyConfig(ctx context.Context, cmd *model.Command) error {
	cfg, err := decodeConfig(cmd.CommandData)
	if err != nil {
		logger.Warn("Executed update_config carries an undecodable payload",
			zap.String("command_id", cmd.ID.String()),
			zap.Error(err),
		)
		return appErrors.NewValidation("INVALID_CONFIG_PAYLOAD", "Command payload is not a valid device configuration", err)
	}

	if err := s.devices.UpdateConfig(ctx, cmd.DeviceID, *cfg); err != nil {
		return err
	}

	s.audit.Append(ctx, &cmd.DeviceID, systemlog.LevelInfo, systemlog.CategoryConfig,
		"Configuration successfully applied by device",
		map[string]interface{}{
			"commandId":     cmd.ID.String(),
			"appliedConfig": cmd.CommandData,
		})

	return nil
}

func decodeConfig(data map[string]interface{}) (*devmodel.DeviceConfig, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var cfg devmodel.DeviceConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Cancel sets a command to cancelled. Cancelling an already-terminal
// command is a no-op success to tolerate duplicate user clicks.
func (s *Service) Cancel(ctx context.Context, commandID uuid.UUID) (*model.Command, error) {
	cmd, err := s.commands.GetByID(ctx, commandID)
	if err != nil {
		return nil, err
	}

	if cmd.Status.IsTerminal() {
		return cmd, nil
	}

	if err := s.commands.UpdateStatus(ctx, commandID, model.StatusCancelled, time.Now()); err != nil {
		return nil, err
	}
	cmd.Status = model.StatusCancelled

	s.audit.Append(ctx, &cmd.DeviceID, systemlog.LevelInfo, systemlog.CategoryCommand,
		fmt.Sprintf("Command %s cancelled by user", commandID),
		nil)

	return cmd, nil
}

// ToggleLostMode implements the dashboard's two-step lost-mode protocol: a
// same-direction pending command is a conflict surfaced with its id, an
// opposite-direction pending command is cancelled before the new one is
// created.
func (s *Service) ToggleLostMode(ctx context.Context, deviceID uuid.UUID, enable bool) (*model.Command, error) {
	wanted := model.TypeEnableLostMode
	opposite := model.TypeDisableLostMode
	if !enable {
		wanted, opposite = opposite, wanted
	}

	mu := s.deviceLock(deviceID)
	mu.Lock()
	defer mu.Unlock()

	pending, err := s.commands.ListPending(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	for i := range pending {
		switch pending[i].CommandType {
		case wanted:
			return nil, &LostModeConflictError{CommandID: pending[i].ID, Pending: wanted}
		case opposite:
			if err := s.commands.UpdateStatus(ctx, pending[i].ID, model.StatusCancelled, time.Now()); err != nil {
				return nil, err
			}
		}
	}

	// Still under the device lock: a racing create cannot slip between the
	// pending scan and the insert, so a conflict here always carries the
	// pending command id.
	return s.createLocked(ctx, deviceID, wanted, nil)
}
