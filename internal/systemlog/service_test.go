package systemlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	entries   []Entry
	insertErr error

	lastLimit  int
	lastOffset int
}

func (s *fakeStore) Insert(ctx context.Context, entry *Entry) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	entry.ID = int64(len(s.entries) + 1)
	entry.Timestamp = time.Now()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *fakeStore) Query(ctx context.Context, deviceID *uuid.UUID, day *time.Time, limit, offset int) ([]Entry, error) {
	s.lastLimit = limit
	s.lastOffset = offset

	matched := s.filter(deviceID, day)
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (s *fakeStore) Count(ctx context.Context, deviceID *uuid.UUID, day *time.Time) (int64, error) {
	return int64(len(s.filter(deviceID, day))), nil
}

func (s *fakeStore) filter(deviceID *uuid.UUID, day *time.Time) []Entry {
	var out []Entry
	for _, e := range s.entries {
		if deviceID != nil && (e.DeviceID == nil || *e.DeviceID != *deviceID) {
			continue
		}
		if day != nil {
			start := day.Truncate(24 * time.Hour)
			if e.Timestamp.Before(start) || !e.Timestamp.Before(start.Add(24*time.Hour)) {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

func TestAppendStoresEntry(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)
	deviceID := uuid.New()

	svc.Append(context.Background(), &deviceID, LevelInfo, CategoryCommand, "Command created", map[string]interface{}{"commandId": "abc"})

	require.Len(t, store.entries, 1)
	assert.Equal(t, LevelInfo, store.entries[0].Level)
	assert.Equal(t, CategoryCommand, store.entries[0].Category)
	assert.Equal(t, &deviceID, store.entries[0].DeviceID)
}

func TestAppendSwallowsStoreFailure(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("disk full")}
	svc := NewService(store)

	// Must not panic or propagate; logging failures never abort the caller.
	svc.Append(context.Background(), nil, LevelError, CategorySystem, "boom", nil)
	assert.Empty(t, store.entries)
}

func TestListClampsLimit(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	_, err := svc.List(context.Background(), nil, nil, 9999, 0)
	require.NoError(t, err)
	assert.Equal(t, 200, store.lastLimit)

	_, err = svc.List(context.Background(), nil, nil, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 50, store.lastLimit)
	assert.Equal(t, 0, store.lastOffset)
}

func TestListReportsHasMore(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)
	for i := 0; i < 5; i++ {
		svc.Append(context.Background(), nil, LevelInfo, CategorySystem, "entry", nil)
	}

	page, err := svc.List(context.Background(), nil, nil, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.TotalCount)
	assert.Len(t, page.Logs, 2)
	assert.True(t, page.HasMore)

	page, err = svc.List(context.Background(), nil, nil, 2, 4)
	require.NoError(t, err)
	assert.Len(t, page.Logs, 1)
	assert.False(t, page.HasMore)
}

func TestListFiltersByDevice(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)
	mine := uuid.New()
	other := uuid.New()

	svc.Append(context.Background(), &mine, LevelInfo, CategorySystem, "mine", nil)
	svc.Append(context.Background(), &other, LevelInfo, CategorySystem, "other", nil)
	svc.Append(context.Background(), nil, LevelInfo, CategorySystem, "global", nil)

	page, err := svc.List(context.Background(), &mine, nil, 50, 0)
	require.NoError(t, err)
	require.Len(t, page.Logs, 1)
	assert.Equal(t, "mine", page.Logs[0].Message)
}
