package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gps-tracker/internal/device/model"
	"gps-tracker/internal/systemlog"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeDeviceStore struct {
	devices map[uuid.UUID]*model.Device
	order   []uuid.UUID

	listErr        error
	markOfflineErr map[uuid.UUID]error

	touched      []uuid.UUID
	markedOnline []uuid.UUID
}

func newFakeDeviceStore() *fakeDeviceStore {
	return &fakeDeviceStore{
		devices:        make(map[uuid.UUID]*model.Device),
		markOfflineErr: make(map[uuid.UUID]error),
	}
}

func (s *fakeDeviceStore) add(device *model.Device) {
	s.devices[device.ID] = device
	s.order = append(s.order, device.ID)
}

func (s *fakeDeviceStore) ListAll(ctx context.Context) ([]model.Device, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]model.Device, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.devices[id])
	}
	return out, nil
}

func (s *fakeDeviceStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Device, error) {
	device, ok := s.devices[id]
	if !ok {
		return nil, errors.New("device not found")
	}
	copied := *device
	return &copied, nil
}

func (s *fakeDeviceStore) MarkOnline(ctx context.Context, id uuid.UUID, at time.Time) error {
	device := s.devices[id]
	device.Status = model.StatusOnline
	device.IsActive = true
	device.LastSeen = &at
	s.markedOnline = append(s.markedOnline, id)
	return nil
}

func (s *fakeDeviceStore) TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	device := s.devices[id]
	device.LastSeen = &at
	s.touched = append(s.touched, id)
	return nil
}

func (s *fakeDeviceStore) MarkOfflineIfStale(ctx context.Context, id uuid.UUID, observedLastSeen time.Time) (bool, error) {
	if err := s.markOfflineErr[id]; err != nil {
		return false, err
	}
	device := s.devices[id]
	if device.Status == model.StatusOffline || device.LastSeen == nil || device.LastSeen.After(observedLastSeen) {
		return false, nil
	}
	device.Status = model.StatusOffline
	device.IsActive = false
	return true, nil
}

type auditEntry struct {
	deviceID *uuid.UUID
	level    systemlog.Level
	category systemlog.Category
	message  string
}

type fakeAudit struct {
	entries []auditEntry
}

func (a *fakeAudit) Append(ctx context.Context, deviceID *uuid.UUID, level systemlog.Level, category systemlog.Category, message string, metadata map[string]interface{}) {
	a.entries = append(a.entries, auditEntry{deviceID: deviceID, level: level, category: category, message: message})
}

func newTestMonitor(store *fakeDeviceStore, audit *fakeAudit, clock Clock) *Monitor {
	return NewMonitor(store, audit, nil, clock, time.Minute, 5*time.Minute)
}

func onlineDevice(lastSeen time.Time) *model.Device {
	seen := lastSeen
	return &model.Device{
		ID:       uuid.New(),
		DeviceID: "AA:BB:CC:DD:EE:01",
		Status:   model.StatusOnline,
		IsActive: true,
		LastSeen: &seen,
	}
}

func TestSweepMarksStaleDeviceOffline(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeDeviceStore()
	audit := &fakeAudit{}

	device := onlineDevice(clock.now.Add(-6 * time.Minute))
	store.add(device)

	m := newTestMonitor(store, audit, clock)
	m.Sweep(context.Background())

	assert.Equal(t, model.StatusOffline, store.devices[device.ID].Status)
	assert.False(t, store.devices[device.ID].IsActive)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, systemlog.LevelWarning, audit.entries[0].level)
	assert.Equal(t, systemlog.CategoryNetwork, audit.entries[0].category)
}

func TestSweepLeavesFreshDeviceAlone(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeDeviceStore()
	audit := &fakeAudit{}

	device := onlineDevice(clock.now.Add(-4 * time.Minute))
	store.add(device)

	m := newTestMonitor(store, audit, clock)
	m.Sweep(context.Background())

	assert.Equal(t, model.StatusOnline, store.devices[device.ID].Status)
	assert.Empty(t, audit.entries)
}

func TestSweepBoundaryExactTimeoutIsNotStale(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeDeviceStore()
	audit := &fakeAudit{}

	device := onlineDevice(clock.now.Add(-5 * time.Minute))
	store.add(device)

	m := newTestMonitor(store, audit, clock)
	m.Sweep(context.Background())

	assert.Equal(t, model.StatusOnline, store.devices[device.ID].Status)
}

func TestSweepSkipsDeviceThatNeverReported(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := newFakeDeviceStore()
	audit := &fakeAudit{}

	device := &model.Device{
		ID:       uuid.New(),
		DeviceID: "AA:BB:CC:DD:EE:02",
		Status:   model.StatusOffline,
	}
	store.add(device)

	m := newTestMonitor(store, audit, clock)
	m.Sweep(context.Background())

	assert.Empty(t, audit.entries)
}

func TestSweepNeverBringsDeviceBackOnline(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := newFakeDeviceStore()
	audit := &fakeAudit{}

	seen := clock.now.Add(-time.Second)
	device := &model.Device{
		ID:       uuid.New(),
		DeviceID: "AA:BB:CC:DD:EE:03",
		Status:   model.StatusOffline,
		LastSeen: &seen,
	}
	store.add(device)

	m := newTestMonitor(store, audit, clock)
	m.Sweep(context.Background())

	// A fresh timestamp on an offline device must not flip it back; only
	// RecordActivity does that.
	assert.Equal(t, model.StatusOffline, store.devices[device.ID].Status)
	assert.Empty(t, store.markedOnline)
}

func TestSweepContinuesPastPerDeviceError(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeDeviceStore()
	audit := &fakeAudit{}

	broken := onlineDevice(clock.now.Add(-10 * time.Minute))
	healthy := onlineDevice(clock.now.Add(-10 * time.Minute))
	store.add(broken)
	store.add(healthy)
	store.markOfflineErr[broken.ID] = errors.New("connection reset")

	m := newTestMonitor(store, audit, clock)
	m.Sweep(context.Background())

	assert.Equal(t, model.StatusOnline, store.devices[broken.ID].Status)
	assert.Equal(t, model.StatusOffline, store.devices[healthy.ID].Status)
	require.Len(t, audit.entries, 1)
}

func TestSweepSkipsStaleReadWhenDeviceJustReported(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeDeviceStore()
	audit := &fakeAudit{}

	device := onlineDevice(clock.now.Add(-6 * time.Minute))
	store.add(device)

	m := newTestMonitor(store, audit, clock)

	// Simulate a heartbeat racing the sweep: the store's row moves forward
	// after the sweep's snapshot was taken.
	snapshot, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	fresh := clock.now
	store.devices[device.ID].LastSeen = &fresh

	flipped, err := store.MarkOfflineIfStale(context.Background(), device.ID, *snapshot[0].LastSeen)
	require.NoError(t, err)
	assert.False(t, flipped)

	m.Sweep(context.Background())
	assert.Equal(t, model.StatusOnline, store.devices[device.ID].Status)
}

func TestRecordActivityBringsOfflineDeviceBack(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeDeviceStore()
	audit := &fakeAudit{}

	device := &model.Device{
		ID:       uuid.New(),
		DeviceID: "AA:BB:CC:DD:EE:04",
		Status:   model.StatusOffline,
	}
	store.add(device)

	m := newTestMonitor(store, audit, clock)
	require.NoError(t, m.RecordActivity(context.Background(), device.ID))

	assert.Equal(t, model.StatusOnline, store.devices[device.ID].Status)
	assert.True(t, store.devices[device.ID].IsActive)
	require.NotNil(t, store.devices[device.ID].LastSeen)
	assert.Equal(t, clock.now, *store.devices[device.ID].LastSeen)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, systemlog.LevelInfo, audit.entries[0].level)
	assert.Equal(t, "Device reconnected", audit.entries[0].message)
}

func TestRecordActivityOnOnlineDeviceOnlyTouches(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeDeviceStore()
	audit := &fakeAudit{}

	device := onlineDevice(clock.now.Add(-time.Minute))
	store.add(device)

	m := newTestMonitor(store, audit, clock)
	clock.Advance(30 * time.Second)
	require.NoError(t, m.RecordActivity(context.Background(), device.ID))

	assert.Equal(t, []uuid.UUID{device.ID}, store.touched)
	assert.Empty(t, store.markedOnline)
	assert.Empty(t, audit.entries, "no reconnect log for an already-online device")
	assert.Equal(t, clock.now, *store.devices[device.ID].LastSeen)
}

func TestOfflineRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newFakeDeviceStore()
	audit := &fakeAudit{}

	device := onlineDevice(clock.now)
	store.add(device)

	m := newTestMonitor(store, audit, clock)

	clock.Advance(6 * time.Minute)
	m.Sweep(context.Background())
	assert.Equal(t, model.StatusOffline, store.devices[device.ID].Status)

	clock.Advance(time.Minute)
	require.NoError(t, m.RecordActivity(context.Background(), device.ID))
	assert.Equal(t, model.StatusOnline, store.devices[device.ID].Status)

	// One offline warning, one reconnect info.
	require.Len(t, audit.entries, 2)
	assert.Equal(t, systemlog.LevelWarning, audit.entries[0].level)
	assert.Equal(t, systemlog.LevelInfo, audit.entries[1].level)
}
