package services

import (
	"context"
	"sync"

	"github.com/maxaizer/ipu-notifier/internal/entities"
	"github.com/stretchr/testify/mock"
)

type mockNotices struct {
	mock.Mock
}

func (m *mockNotices) Exists(ctx context.Context, title, viewLink string) (bool, error) {
	args := m.Called(ctx, title, viewLink)
	return args.Bool(0), args.Error(1)
}

func (m *mockNotices) Add(ctx context.Context, notice *entities.Notice) error {
	return m.Called(ctx, notice).Error(0)
}

type mockScraper struct {
	mock.Mock
}

func (m *mockScraper) GetScheduleNotices(ctx context.Context) ([]entities.RawNotice, error) {
	args := m.Called(ctx)
	notices, _ := args.Get(0).([]entities.RawNotice)
	return notices, args.Error(1)
}

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) Find(ctx context.Context, filter entities.NoticeFilter) ([]entities.Notice, error) {
	args := m.Called(ctx, filter)
	notices, _ := args.Get(0).([]entities.Notice)
	return notices, args.Error(1)
}

type mockRefresh struct {
	mock.Mock
}

func (m *mockRefresh) Refresh(ctx context.Context) (IngestResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(IngestResult), args.Error(1)
}

// memoryNotices is an in-memory notice store keyed by title and view link.
type memoryNotices struct {
	mu      sync.Mutex
	notices []entities.Notice
}

func (m *memoryNotices) Exists(_ context.Context, title, viewLink string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, notice := range m.notices {
		if notice.Title == title && notice.ViewLink == viewLink {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryNotices) Add(_ context.Context, notice *entities.Notice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	notice.ID = len(m.notices) + 1
	m.notices = append(m.notices, *notice)
	return nil
}
