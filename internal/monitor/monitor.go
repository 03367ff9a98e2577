package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gps-tracker/internal/device/model"
	"gps-tracker/internal/logger"
	"gps-tracker/internal/systemlog"
)

// Clock abstracts time so sweeps can be driven with virtual time in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// DeviceStore is the slice of the device repository the liveness sweep needs.
type DeviceStore interface {
	ListAll(ctx context.Context) ([]model.Device, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Device, error)
	MarkOnline(ctx context.Context, id uuid.UUID, at time.Time) error
	TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkOfflineIfStale(ctx context.Context, id uuid.UUID, observedLastSeen time.Time) (bool, error)
}

type AuditLog interface {
	Append(ctx context.Context, deviceID *uuid.UUID, level systemlog.Level, category systemlog.Category, message string, metadata map[string]interface{})
}

// StatusPublisher pushes status transitions to interested consumers (MQTT).
// A nil publisher disables the notifications.
type StatusPublisher interface {
	PublishDeviceStatus(deviceID string, status model.DeviceStatus)
}

// Monitor periodically sweeps all devices and marks the ones whose last
// heartbeat is older than the configured timeout as offline. The sweep only
// ever moves devices offline; the return trip happens exclusively through
// RecordActivity when the device is heard from again.
type Monitor struct {
	devices   DeviceStore
	audit     AuditLog
	publisher StatusPublisher
	clock     Clock

	sweepInterval    time.Duration
	heartbeatTimeout time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewMonitor(devices DeviceStore, audit AuditLog, publisher StatusPublisher, clock Clock, sweepInterval, heartbeatTimeout time.Duration) *Monitor {
	if clock == nil {
		clock = SystemClock()
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = 5 * time.Minute
	}
	return &Monitor{
		devices:          devices,
		audit:            audit,
		publisher:        publisher,
		clock:            clock,
		sweepInterval:    sweepInterval,
		heartbeatTimeout: heartbeatTimeout,
		stop:             make(chan struct{}),
		done:             make(chan struct{}),
	}
}

// Start launches the background sweep loop. The first sweep runs after one
// full interval, not immediately.
func (m *Monitor) Start() {
	logger.Info("Device monitor started",
		zap.Duration("sweep_interval", m.sweepInterval),
		zap.Duration("heartbeat_timeout", m.heartbeatTimeout),
	)

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Sweep(context.Background())
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for it to exit. Safe to call
// more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	<-m.done
	logger.Info("Device monitor stopped")
}

// Sweep examines every device once. Devices that never reported are skipped,
// and a failure on one device never prevents the rest from being checked.
func (m *Monitor) Sweep(ctx context.Context) {
	devices, err := m.devices.ListAll(ctx)
	if err != nil {
		logger.Error("Monitor sweep failed to list devices", zap.Error(err))
		return
	}

	now := m.clock.Now()
	for i := range devices {
		device := &devices[i]
		if device.LastSeen == nil || device.Status == model.StatusOffline {
			continue
		}

		elapsed := now.Sub(*device.LastSeen)
		if elapsed <= m.heartbeatTimeout {
			continue
		}

		flipped, err := m.devices.MarkOfflineIfStale(ctx, device.ID, *device.LastSeen)
		if err != nil {
			logger.Error("Monitor failed to mark device offline",
				zap.String("device_id", device.DeviceID),
				zap.Error(err),
			)
			continue
		}
		if !flipped {
			// The device reported between our read and the update.
			continue
		}

		minutes := int(elapsed.Minutes())
		m.audit.Append(ctx, &device.ID, systemlog.LevelWarning, systemlog.CategoryNetwork,
			"Device went offline - no heartbeat received",
			map[string]interface{}{
				"deviceId":       device.DeviceID,
				"lastSeen":       device.LastSeen.Format(time.RFC3339),
				"elapsedMinutes": minutes,
			})

		logger.Warn("Device marked offline",
			zap.String("device_id", device.DeviceID),
			zap.Int("elapsed_minutes", minutes),
		)

		if m.publisher != nil {
			m.publisher.PublishDeviceStatus(device.DeviceID, model.StatusOffline)
		}
	}
}

// RecordActivity refreshes liveness after any inbound message from the
// device. An offline or inactive device comes back online here, and only
// here; a device that is already online just gets its last_seen bumped.
func (m *Monitor) RecordActivity(ctx context.Context, id uuid.UUID) error {
	device, err := m.devices.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := m.clock.Now()
	if device.Status != model.StatusOffline && device.IsActive {
		return m.devices.TouchLastSeen(ctx, id, now)
	}

	if err := m.devices.MarkOnline(ctx, id, now); err != nil {
		return err
	}

	m.audit.Append(ctx, &device.ID, systemlog.LevelInfo, systemlog.CategoryNetwork,
		"Device reconnected",
		map[string]interface{}{
			"deviceId":       device.DeviceID,
			"previousStatus": string(device.Status),
		})

	logger.Info("Device reconnected",
		zap.String("device_id", device.DeviceID),
		zap.String("previous_status", string(device.Status)),
	)

	if m.publisher != nil {
		m.publisher.PublishDeviceStatus(device.DeviceID, model.StatusOnline)
	}

	return nil
}
