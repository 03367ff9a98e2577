package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gps-tracker/internal/database"
	"gps-tracker/internal/device/model"
	appErrors "gps-tracker/pkg/errors"
)

type DeviceRepository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Create(ctx context.Context, device *model.Device) error {
	device.ID = uuid.New()
	device.CreatedAt = time.Now()
	device.UpdatedAt = time.Now()

	if err := r.db.DB.WithContext(ctx).Create(device).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key value") {
			return appErrors.NewConflict("DEVICE_ALREADY_EXISTS", "Device with this hardware ID already exists")
		}
		return fmt.Errorf("failed to create device: %w", err)
	}

	return nil
}

func (r *DeviceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Device, error) {
	var device model.Device
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&device).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appErrors.NewNotFound("DEVICE_NOT_FOUND", "Device not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return &device, nil
}

// GetByDeviceID looks a device up by its hardware identifier (MAC address).
func (r *DeviceRepository) GetByDeviceID(ctx context.Context, deviceID string) (*model.Device, error) {
	var device model.Device
	err := r.db.DB.WithContext(ctx).
		Where("device_id = ?", deviceID).
		First(&device).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appErrors.NewNotFound("DEVICE_NOT_FOUND", "Device not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return &device, nil
}

func (r *DeviceRepository) Exists(ctx context.Context, deviceID string) (bool, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&model.Device{}).
		Where("device_id = ?", deviceID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check device existence: %w", err)
	}
	return count > 0, nil
}

func (r *DeviceRepository) ListAll(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	err := r.db.DB.WithContext(ctx).
		Order("created_at DESC").
		Find(&devices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

func (r *DeviceRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.DB.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update device: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.NewNotFound("DEVICE_NOT_FOUND", "Device not found")
	}
	return nil
}

// UpdateConfig replaces the device configuration. Called only when an
// update_config command is confirmed executed by the device.
func (r *DeviceRepository) UpdateConfig(ctx context.Context, id uuid.UUID, cfg model.DeviceConfig) error {
	result := r.db.DB.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"config":     cfg,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update device config: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.NewNotFound("DEVICE_NOT_FOUND", "Device not found")
	}
	return nil
}

// TouchLastSeen refreshes the liveness timestamp without touching status.
func (r *DeviceRepository) TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.DB.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_seen":  at,
			"updated_at": at,
		}).Error
}

func (r *DeviceRepository) MarkOnline(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.DB.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.StatusOnline,
			"is_active":  true,
			"last_seen":  at,
			"updated_at": at,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark device online: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.NewNotFound("DEVICE_NOT_FOUND", "Device not found")
	}
	return nil
}

// MarkOfflineIfStale flips a device offline only if its last_seen is still
// at or before the value the sweep observed. A concurrent activity update
// moves last_seen forward and makes this a no-op, so a stale sweep read can
// never regress a device that just reconnected.
func (r *DeviceRepository) MarkOfflineIfStale(ctx context.Context, id uuid.UUID, observedLastSeen time.Time) (bool, error) {
	result := r.db.DB.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ? AND last_seen <= ? AND status <> ?", id, observedLastSeen, model.StatusOffline).
		Updates(map[string]interface{}{
			"status":     model.StatusOffline,
			"is_active":  false,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to mark device offline: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *DeviceRepository) AddStatusHistory(ctx context.Context, entry *model.StatusHistory) error {
	entry.Timestamp = time.Now()
	if err := r.db.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to add status history: %w", err)
	}
	return nil
}

func (r *DeviceRepository) GetStatusHistory(ctx context.Context, deviceID uuid.UUID, limit int) ([]model.StatusHistory, error) {
	var history []model.StatusHistory
	err := r.db.DB.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	return history, nil
}
