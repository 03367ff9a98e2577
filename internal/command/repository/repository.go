package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gps-tracker/internal/command/model"
	"gps-tracker/internal/database"
	appErrors "gps-tracker/pkg/errors"
)

type CommandRepository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *CommandRepository {
	return &CommandRepository{db: db}
}

func (r *CommandRepository) Insert(ctx context.Context, cmd *model.Command) error {
	cmd.ID = uuid.New()
	cmd.CreatedAt = time.Now()
	if cmd.Status == "" {
		cmd.Status = model.StatusPending
	}

	if err := r.db.DB.WithContext(ctx).Create(cmd).Error; err != nil {
		return fmt.Errorf("failed to insert command: %w", err)
	}
	return nil
}

func (r *CommandRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Command, error) {
	var cmd model.Command
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&cmd).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appErrors.NewNotFound("COMMAND_NOT_FOUND", "Command not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get command: %w", err)
	}
	return &cmd, nil
}

// ListPending returns the exact set bundled into heartbeat responses,
// newest first.
func (r *CommandRepository) ListPending(ctx context.Context, deviceID uuid.UUID) ([]model.Command, error) {
	var commands []model.Command
	err := r.db.DB.WithContext(ctx).
		Where("device_id = ? AND status = ?", deviceID, model.StatusPending).
		Order("created_at DESC").
		Find(&commands).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending commands: %w", err)
	}
	return commands, nil
}

func (r *CommandRepository) HasPendingOfType(ctx context.Context, deviceID uuid.UUID, cmdType model.CommandType) (bool, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&model.Command{}).
		Where("device_id = ? AND command_type = ? AND status = ?", deviceID, cmdType, model.StatusPending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check pending commands: %w", err)
	}
	return count > 0, nil
}

// UpdateStatus transitions a command and stamps the matching timestamp
// column.
func (r *CommandRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.CommandStatus, at time.Time) error {
	updates := map[string]interface{}{"status": status}

	switch status {
	case model.StatusSent:
		updates["sent_at"] = at
	case model.StatusAcknowledged:
		updates["acknowledged_at"] = at
	case model.StatusExecuted:
		updates["executed_at"] = at
	}

	result := r.db.DB.WithContext(ctx).
		Model(&model.Command{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update command status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.NewNotFound("COMMAND_NOT_FOUND", "Command not found")
	}
	return nil
}

func (r *CommandRepository) ListByDevice(ctx context.Context, deviceID uuid.UUID, limit, offset int) ([]model.Command, error) {
	if limit <= 0 {
		limit = 50
	}

	var commands []model.Command
	err := r.db.DB.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&commands).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}
	return commands, nil
}
