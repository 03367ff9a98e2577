package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gps-tracker/internal/command/model"
	devmodel "gps-tracker/internal/device/model"
	"gps-tracker/internal/systemlog"
	appErrors "gps-tracker/pkg/errors"
)

type fakeCommandStore struct {
	commands map[uuid.UUID]*model.Command
	order    []uuid.UUID
}

func newFakeCommandStore() *fakeCommandStore {
	return &fakeCommandStore{commands: make(map[uuid.UUID]*model.Command)}
}

func (s *fakeCommandStore) Insert(ctx context.Context, cmd *model.Command) error {
	cmd.ID = uuid.New()
	cmd.CreatedAt = time.Now()
	copied := *cmd
	s.commands[cmd.ID] = &copied
	s.order = append(s.order, cmd.ID)
	return nil
}

func (s *fakeCommandStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Command, error) {
	cmd, ok := s.commands[id]
	if !ok {
		return nil, appErrors.NewNotFound("COMMAND_NOT_FOUND", "Command not found")
	}
	copied := *cmd
	return &copied, nil
}

func (s *fakeCommandStore) ListPending(ctx context.Context, deviceID uuid.UUID) ([]model.Command, error) {
	var out []model.Command
	for _, id := range s.order {
		cmd := s.commands[id]
		if cmd.DeviceID == deviceID && cmd.Status == model.StatusPending {
			out = append(out, *cmd)
		}
	}
	return out, nil
}

func (s *fakeCommandStore) HasPendingOfType(ctx context.Context, deviceID uuid.UUID, cmdType model.CommandType) (bool, error) {
	for _, cmd := range s.commands {
		if cmd.DeviceID == deviceID && cmd.CommandType == cmdType && cmd.Status == model.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeCommandStore) UpdateStatus(ctx context.Context, id uuid.UUID, status model.CommandStatus, at time.Time) error {
	cmd, ok := s.commands[id]
	if !ok {
		return appErrors.NewNotFound("COMMAND_NOT_FOUND", "Command not found")
	}
	cmd.Status = status
	return nil
}

func (s *fakeCommandStore) ListByDevice(ctx context.Context, deviceID uuid.UUID, limit, offset int) ([]model.Command, error) {
	var out []model.Command
	for _, id := range s.order {
		if s.commands[id].DeviceID == deviceID {
			out = append(out, *s.commands[id])
		}
	}
	return out, nil
}

type fakeDeviceStore struct {
	devices        map[uuid.UUID]*devmodel.Device
	appliedConfigs []devmodel.DeviceConfig
	updateErr      error
}

func newFakeDeviceStore() *fakeDeviceStore {
	return &fakeDeviceStore{devices: make(map[uuid.UUID]*devmodel.Device)}
}

func (s *fakeDeviceStore) GetByID(ctx context.Context, id uuid.UUID) (*devmodel.Device, error) {
	device, ok := s.devices[id]
	if !ok {
		return nil, appErrors.NewNotFound("DEVICE_NOT_FOUND", "Device not found")
	}
	return device, nil
}

func (s *fakeDeviceStore) UpdateConfig(ctx context.Context, id uuid.UUID, cfg devmodel.DeviceConfig) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	device, ok := s.devices[id]
	if !ok {
		return appErrors.NewNotFound("DEVICE_NOT_FOUND", "Device not found")
	}
	device.Config = cfg
	s.appliedConfigs = append(s.appliedConfigs, cfg)
	return nil
}

type nopAudit struct{}

func (nopAudit) Append(ctx context.Context, deviceID *uuid.UUID, level systemlog.Level, category systemlog.Category, message string, metadata map[string]interface{}) {
}

func newTestService() (*Service, *fakeCommandStore, *fakeDeviceStore) {
	commands := newFakeCommandStore()
	devices := newFakeDeviceStore()
	return NewService(commands, devices, nopAudit{}), commands, devices
}

func TestCreateRejectsDuplicatePendingOfSameType(t *testing.T) {
	svc, _, _ := newTestService()
	deviceID := uuid.New()

	first, err := svc.Create(context.Background(), deviceID, model.TypeGetLocation, nil)
	require.NoError(t, err)
	require.NotNil(t, first)

	_, err = svc.Create(context.Background(), deviceID, model.TypeGetLocation, nil)
	require.Error(t, err)
	appErr, ok := appErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, appErrors.KindConflict, appErr.Kind)
	assert.Equal(t, "COMMAND_ALREADY_PENDING", appErr.Code)
}

func TestCreateAllowsDifferentTypesConcurrently(t *testing.T) {
	svc, _, _ := newTestService()
	deviceID := uuid.New()

	_, err := svc.Create(context.Background(), deviceID, model.TypeGetLocation, nil)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), deviceID, model.TypeReboot, nil)
	require.NoError(t, err)
}

func TestCreateAllowsSameTypeForDifferentDevices(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), uuid.New(), model.TypeGetLocation, nil)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), uuid.New(), model.TypeGetLocation, nil)
	require.NoError(t, err)
}

func TestCreateAllowsNewAfterTerminalState(t *testing.T) {
	svc, _, _ := newTestService()
	deviceID := uuid.New()

	cmd, err := svc.Create(context.Background(), deviceID, model.TypeGetLocation, nil)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), cmd.ID, model.StatusExecuted, time.Now())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), deviceID, model.TypeGetLocation, nil)
	assert.NoError(t, err, "terminal command no longer blocks new ones")
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), uuid.New(), model.CommandType("self_destruct"), nil)
	require.Error(t, err)
	appErr, ok := appErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, appErrors.KindValidation, appErr.Kind)
}

func TestCancelIsIdempotentOnTerminalCommand(t *testing.T) {
	svc, _, _ := newTestService()
	deviceID := uuid.New()

	cmd, err := svc.Create(context.Background(), deviceID, model.TypeReboot, nil)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), cmd.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	again, err := svc.Cancel(context.Background(), cmd.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, again.Status)
}

func TestCancelUnknownCommandIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Cancel(context.Background(), uuid.New())
	require.Error(t, err)
	appErr, ok := appErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, appErrors.KindNotFound, appErr.Kind)
}

func TestExecutedUpdateConfigAppliesConfiguration(t *testing.T) {
	svc, _, devices := newTestService()
	deviceID := uuid.New()
	devices.devices[deviceID] = &devmodel.Device{
		ID:     deviceID,
		Config: devmodel.DefaultConfig(),
	}

	payload := map[string]interface{}{
		"heartbeatInterval":   float64(60000),
		"gpsReadInterval":     float64(20000),
		"lostModeInterval":    float64(5000),
		"lowBatteryThreshold": 20.0,
	}
	cmd, err := svc.Create(context.Background(), deviceID, model.TypeUpdateConfig, payload)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), cmd.ID, model.StatusExecuted, time.Now())
	require.NoError(t, err)

	require.Len(t, devices.appliedConfigs, 1)
	applied := devices.appliedConfigs[0]
	assert.Equal(t, 60000, applied.HeartbeatInterval)
	assert.Equal(t, 20000, applied.GpsReadInterval)
	assert.Equal(t, 5000, applied.LostModeInterval)
	assert.Equal(t, 20.0, applied.LowBatteryThreshold)
}

func TestRepeatedExecutedAckReappliesIdenticalConfig(t *testing.T) {
	svc, _, devices := newTestService()
	deviceID := uuid.New()
	devices.devices[deviceID] = &devmodel.Device{
		ID:     deviceID,
		Config: devmodel.DefaultConfig(),
	}

	payload := map[string]interface{}{
		"heartbeatInterval":   float64(60000),
		"gpsReadInterval":     float64(20000),
		"lostModeInterval":    float64(5000),
		"lowBatteryThreshold": 20.0,
	}
	cmd, err := svc.Create(context.Background(), deviceID, model.TypeUpdateConfig, payload)
	require.NoError(t, err)

	// A flaky uplink can deliver the executed ack twice. The second one
	// must reapply the same config, never corrupt it.
	_, err = svc.UpdateStatus(context.Background(), cmd.ID, model.StatusExecuted, time.Now())
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), cmd.ID, model.StatusExecuted, time.Now())
	require.NoError(t, err)

	require.Len(t, devices.appliedConfigs, 2)
	assert.Equal(t, devices.appliedConfigs[0], devices.appliedConfigs[1])
	assert.Equal(t, 60000, devices.devices[deviceID].Config.HeartbeatInterval)
	assert.Equal(t, 20.0, devices.devices[deviceID].Config.LowBatteryThreshold)
}

func TestAcknowledgedUpdateConfigDoesNotApply(t *testing.T) {
	svc, _, devices := newTestService()
	deviceID := uuid.New()
	devices.devices[deviceID] = &devmodel.Device{ID: deviceID}

	cmd, err := svc.Create(context.Background(), deviceID, model.TypeUpdateConfig, map[string]interface{}{
		"heartbeatInterval": float64(60000),
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), cmd.ID, model.StatusAcknowledged, time.Now())
	require.NoError(t, err)
	assert.Empty(t, devices.appliedConfigs, "config applies only on executed")
}

func TestToggleLostModeCreatesEnableCommand(t *testing.T) {
	svc, _, _ := newTestService()
	deviceID := uuid.New()

	cmd, err := svc.ToggleLostMode(context.Background(), deviceID, true)
	require.NoError(t, err)
	assert.Equal(t, model.TypeEnableLostMode, cmd.CommandType)
	assert.Equal(t, model.StatusPending, cmd.Status)
}

func TestToggleLostModeSameDirectionConflicts(t *testing.T) {
	svc, _, _ := newTestService()
	deviceID := uuid.New()

	first, err := svc.ToggleLostMode(context.Background(), deviceID, true)
	require.NoError(t, err)

	_, err = svc.ToggleLostMode(context.Background(), deviceID, true)
	require.Error(t, err)

	var conflict *LostModeConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, first.ID, conflict.CommandID)
	assert.Equal(t, model.TypeEnableLostMode, conflict.Pending)
}

func TestToggleLostModeOppositeDirectionCancelsAndCreates(t *testing.T) {
	svc, commands, _ := newTestService()
	deviceID := uuid.New()

	enable, err := svc.ToggleLostMode(context.Background(), deviceID, true)
	require.NoError(t, err)

	disable, err := svc.ToggleLostMode(context.Background(), deviceID, false)
	require.NoError(t, err)
	assert.Equal(t, model.TypeDisableLostMode, disable.CommandType)

	stored, err := commands.GetByID(context.Background(), enable.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, stored.Status)

	pending, err := svc.ListPending(context.Background(), deviceID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.TypeDisableLostMode, pending[0].CommandType)
}

func TestConcurrentToggleLostModeYieldsTypedConflict(t *testing.T) {
	svc, _, _ := newTestService()
	deviceID := uuid.New()

	// Whichever toggle loses the race must get the LostModeConflictError
	// carrying the winner's command id, not the generic conflict.
	results := make([]error, 2)
	created := make([]*model.Command, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created[i], results[i] = svc.ToggleLostMode(context.Background(), deviceID, true)
		}(i)
	}
	wg.Wait()

	winner, loser := 0, 1
	if results[0] != nil {
		winner, loser = 1, 0
	}
	require.NoError(t, results[winner])
	require.Error(t, results[loser])

	var conflict *LostModeConflictError
	require.True(t, errors.As(results[loser], &conflict))
	assert.Equal(t, created[winner].ID, conflict.CommandID)
	assert.Equal(t, model.TypeEnableLostMode, conflict.Pending)
}
