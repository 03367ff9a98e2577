package systemlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gps-tracker/internal/database"
)

type Repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, entry *Entry) error {
	entry.Timestamp = time.Now()
	if err := r.db.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to insert system log: %w", err)
	}
	return nil
}

// Query returns a page of log entries, optionally scoped to a device and a
// calendar day.
func (r *Repository) Query(ctx context.Context, deviceID *uuid.UUID, day *time.Time, limit, offset int) ([]Entry, error) {
	var entries []Entry
	err := r.scope(ctx, deviceID, day).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query system logs: %w", err)
	}
	return entries, nil
}

func (r *Repository) Count(ctx context.Context, deviceID *uuid.UUID, day *time.Time) (int64, error) {
	var count int64
	err := r.scope(ctx, deviceID, day).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count system logs: %w", err)
	}
	return count, nil
}

func (r *Repository) scope(ctx context.Context, deviceID *uuid.UUID, day *time.Time) *gorm.DB {
	query := r.db.DB.WithContext(ctx).Model(&Entry{})

	if deviceID != nil {
		query = query.Where("device_id = ?", *deviceID)
	}
	if day != nil {
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		end := start.Add(24 * time.Hour)
		query = query.Where("timestamp >= ? AND timestamp < ?", start, end)
	}

	return query
}
