package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gps-tracker/internal/database"
	"gps-tracker/internal/geofence/model"
	appErrors "gps-tracker/pkg/errors"
)

type GeofenceRepository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *GeofenceRepository {
	return &GeofenceRepository{db: db}
}

func (r *GeofenceRepository) Create(ctx context.Context, geofence *model.Geofence) error {
	geofence.ID = uuid.New()
	geofence.CreatedAt = time.Now()
	geofence.UpdatedAt = time.Now()

	if err := r.db.DB.WithContext(ctx).Create(geofence).Error; err != nil {
		return fmt.Errorf("failed to create geofence: %w", err)
	}
	return nil
}

func (r *GeofenceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Geofence, error) {
	var geofence model.Geofence
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&geofence).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appErrors.NewNotFound("GEOFENCE_NOT_FOUND", "Geofence not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get geofence: %w", err)
	}
	return &geofence, nil
}

func (r *GeofenceRepository) ListByDevice(ctx context.Context, deviceID uuid.UUID) ([]model.Geofence, error) {
	var geofences []model.Geofence
	err := r.db.DB.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at DESC").
		Find(&geofences).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list geofences: %w", err)
	}
	return geofences, nil
}

func (r *GeofenceRepository) CountByDevice(ctx context.Context, deviceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&model.Geofence{}).
		Where("device_id = ?", deviceID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count geofences: %w", err)
	}
	return count, nil
}

func (r *GeofenceRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.DB.WithContext(ctx).
		Model(&model.Geofence{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update geofence: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.NewNotFound("GEOFENCE_NOT_FOUND", "Geofence not found")
	}
	return nil
}

func (r *GeofenceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Geofence{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete geofence: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.NewNotFound("GEOFENCE_NOT_FOUND", "Geofence not found")
	}
	return nil
}

func (r *GeofenceRepository) CreateAlert(ctx context.Context, alert *model.Alert) error {
	alert.ID = uuid.New()
	alert.TriggeredAt = time.Now()

	if err := r.db.DB.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("failed to create geofence alert: %w", err)
	}
	return nil
}

func (r *GeofenceRepository) ListAlertsByDevice(ctx context.Context, deviceID uuid.UUID, limit int) ([]model.Alert, error) {
	if limit <= 0 {
		limit = 50
	}

	var alerts []model.Alert
	err := r.db.DB.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("triggered_at DESC").
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list geofence alerts: %w", err)
	}
	return alerts, nil
}

func (r *GeofenceRepository) MarkAlertRead(ctx context.Context, alertID uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).
		Model(&model.Alert{}).
		Where("id = ?", alertID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark alert read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.NewNotFound("ALERT_NOT_FOUND", "Geofence alert not found")
	}
	return nil
}

func (r *GeofenceRepository) CountUnreadAlerts(ctx context.Context, deviceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&model.Alert{}).
		Where("device_id = ? AND is_read = ?", deviceID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread alerts: %w", err)
	}
	return count, nil
}
