package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gps-tracker/internal/database"
	"gps-tracker/internal/location/model"
)

type LocationRepository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Insert(ctx context.Context, location *model.Location) error {
	if location.Timestamp.IsZero() {
		location.Timestamp = time.Now()
	}
	location.CreatedAt = time.Now()

	if err := r.db.DB.WithContext(ctx).Create(location).Error; err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	return nil
}

func (r *LocationRepository) ListByDevice(ctx context.Context, deviceID uuid.UUID, limit int) ([]model.Location, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	var locations []model.Location
	err := r.db.DB.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&locations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

func (r *LocationRepository) Latest(ctx context.Context, deviceID uuid.UUID) (*model.Location, error) {
	var location model.Location
	err := r.db.DB.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("timestamp DESC").
		First(&location).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest location: %w", err)
	}
	return &location, nil
}
