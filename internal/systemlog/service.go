package systemlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gps-tracker/internal/logger"
)

// Store is the sink the engines append to. Kept as an interface so the
// sweep and the command queue can be tested without a database.
type Store interface {
	Insert(ctx context.Context, entry *Entry) error
	Query(ctx context.Context, deviceID *uuid.UUID, day *time.Time, limit, offset int) ([]Entry, error)
	Count(ctx context.Context, deviceID *uuid.UUID, day *time.Time) (int64, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Append writes an audit entry. A failing log write must never abort the
// calling engine's primary operation, so errors are swallowed after a
// best-effort report to the process logger.
func (s *Service) Append(ctx context.Context, deviceID *uuid.UUID, level Level, category Category, message string, metadata map[string]interface{}) {
	entry := &Entry{
		DeviceID: deviceID,
		Level:    level,
		Category: category,
		Message:  message,
		Metadata: metadata,
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		logger.Error("Failed to append system log",
			zap.Error(err),
			zap.String("message", message),
		)
	}
}

func (s *Service) List(ctx context.Context, deviceID *uuid.UUID, day *time.Time, limit, offset int) (*Page, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	logs, err := s.store.Query(ctx, deviceID, day, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := s.store.Count(ctx, deviceID, day)
	if err != nil {
		return nil, err
	}

	return &Page{
		Logs:       logs,
		TotalCount: total,
		HasMore:    int64(offset+limit) < total,
	}, nil
}
